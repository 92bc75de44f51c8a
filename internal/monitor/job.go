package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/alerts"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

var ErrRunInProgress = errors.New("monitor run already in progress")

type Fetcher interface {
	Fetch(ctx context.Context, p pncp.FetchParams) (*domain.NoticePage, error)
}

type NoticeStore interface {
	Upsert(ctx context.Context, n domain.Notice) (bool, error)
}

type WatchLister interface {
	List(ctx context.Context) ([]watches.Watch, error)
}

type Publisher interface {
	Publish(ctx context.Context, a alerts.Alert) (alerts.Alert, error)
}

type RiskScorer interface {
	Assess(text, noticeID string) (domain.RiskAssessment, error)
}

type Options struct {
	// Modalities are PNCP modality codes to poll; defaults to pregão eletrônico.
	Modalities []int
	MaxPages   int
	PageSize   int
}

type RunSummary struct {
	Fetched    int       `json:"fetched"`
	Stored     int       `json:"stored"`
	Matched    int       `json:"matched"`
	Published  int       `json:"published"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Job polls PNCP for recent notices and raises alerts for the ones matching
// a watch. Store and publisher may be nil.
type Job struct {
	fetcher   Fetcher
	store     NoticeStore
	watches   WatchLister
	publisher Publisher
	scorer    RiskScorer
	opts      Options
	now       func() time.Time

	running sync.Mutex
}

func NewJob(fetcher Fetcher, store NoticeStore, watchList WatchLister, publisher Publisher, scorer RiskScorer, opts Options) *Job {
	if len(opts.Modalities) == 0 {
		opts.Modalities = []int{pncp.DefaultModality}
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 5
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return &Job{
		fetcher:   fetcher,
		store:     store,
		watches:   watchList,
		publisher: publisher,
		scorer:    scorer,
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes one polling cycle over yesterday and today. Failures on single
// notices are counted and logged; only a failure to load the watches aborts.
func (j *Job) Run(ctx context.Context) (RunSummary, error) {
	if !j.running.TryLock() {
		return RunSummary{}, ErrRunInProgress
	}
	defer j.running.Unlock()

	logger := logging.NewLogger(ctx)
	sum := RunSummary{StartedAt: j.now().UTC()}

	ws, err := j.watches.List(ctx)
	if err != nil {
		return sum, err
	}

	for _, n := range j.fetchRecent(ctx, &sum) {
		isNew := true
		if j.store != nil {
			inserted, err := j.store.Upsert(ctx, n)
			if err != nil {
				sum.Errors++
				logger.LogErrorf("monitor_run", "upsert notice_id=%s error=%v", n.ID, err)
			} else {
				sum.Stored++
				isNew = inserted
			}
		}
		if !isNew {
			continue
		}

		for _, w := range ws {
			if !w.Matches(n) {
				continue
			}
			sum.Matched++
			if j.publish(ctx, w, n) {
				sum.Published++
			} else {
				sum.Errors++
			}
		}
	}

	sum.FinishedAt = j.now().UTC()
	logger.LogInfof("monitor_run", "fetched=%d stored=%d matched=%d published=%d errors=%d",
		sum.Fetched, sum.Stored, sum.Matched, sum.Published, sum.Errors)
	return sum, nil
}

func (j *Job) fetchRecent(ctx context.Context, sum *RunSummary) []domain.Notice {
	logger := logging.NewLogger(ctx)

	today := j.now()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -1)

	seen := map[string]bool{}
	var out []domain.Notice
	for _, modality := range j.opts.Modalities {
		for page := 1; page <= j.opts.MaxPages; page++ {
			res, err := j.fetcher.Fetch(ctx, pncp.FetchParams{
				StartDate: start,
				EndDate:   today,
				Modality:  modality,
				Page:      page,
				PageSize:  j.opts.PageSize,
			})
			if err != nil {
				sum.Errors++
				logger.LogWarnf("monitor_fetch", "modality=%d page=%d error=%v", modality, page, err)
				break
			}
			for _, n := range res.Items {
				if seen[n.ID] {
					continue
				}
				seen[n.ID] = true
				out = append(out, n)
			}
			if page >= res.TotalPages {
				break
			}
		}
	}

	sum.Fetched = len(out)
	return out
}

func (j *Job) publish(ctx context.Context, w watches.Watch, n domain.Notice) bool {
	logger := logging.NewLogger(ctx)

	a := alerts.Alert{WatchID: w.ID, WatchName: w.Name, Notice: n}
	if assessment, err := j.scorer.Assess(n.Text(), n.ID); err == nil {
		a.Risk = assessment
	}

	if j.publisher == nil {
		logger.LogInfof("monitor_match", "watch=%s notice_id=%s (no publisher)", w.Name, n.ID)
		return true
	}
	if _, err := j.publisher.Publish(ctx, a); err != nil {
		logger.LogErrorf("monitor_publish", "watch=%s notice_id=%s error=%v", w.Name, n.ID, err)
		return false
	}
	return true
}
