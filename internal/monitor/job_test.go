package monitor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/alerts"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/risk"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

type fakeFetcher struct {
	pages   map[int][]domain.Notice
	total   int
	calls   []pncp.FetchParams
	failOn  int
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, p pncp.FetchParams) (*domain.NoticePage, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	f.calls = append(f.calls, p)
	if p.Page == f.failOn {
		return nil, errors.New("pncp 503")
	}
	return &domain.NoticePage{Items: f.pages[p.Page], Page: p.Page, TotalPages: f.total}, nil
}

type fakeStore struct {
	existing map[string]bool
	failID   string
}

func (s *fakeStore) Upsert(_ context.Context, n domain.Notice) (bool, error) {
	if n.ID == s.failID {
		return false, errors.New("db timeout")
	}
	if s.existing[n.ID] {
		return false, nil
	}
	s.existing[n.ID] = true
	return true, nil
}

type fakeWatches struct {
	items []watches.Watch
	err   error
}

func (w fakeWatches) List(context.Context) ([]watches.Watch, error) { return w.items, w.err }

type fakePublisher struct {
	mu   sync.Mutex
	sent []alerts.Alert
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, a alerts.Alert) (alerts.Alert, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return a, p.err
	}
	p.sent = append(p.sent, a)
	return a, nil
}

var (
	noticeTI = domain.Notice{ID: "n1", Title: "Aquisição de notebooks", UF: "SP", Value: 100000}
	noticeEm = domain.Notice{ID: "n2", Title: "Contratação emergencial de limpeza", Description: "Sobrepreço apontado", UF: "RJ"}
	noticeXX = domain.Notice{ID: "n3", Title: "Material de expediente", UF: "MG"}

	watchTI  = watches.Watch{ID: "w1", Name: "TI", Keywords: []string{"notebook"}}
	watchAny = watches.Watch{ID: "w2", Name: "Limpeza RJ", Keywords: []string{"limpeza"}, UF: "RJ"}
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)
}

func newJob(f Fetcher, s NoticeStore, w WatchLister, p Publisher) *Job {
	j := NewJob(f, s, w, p, risk.NewDefaultScorer(), Options{})
	j.now = fixedNow
	return j
}

func TestRun_MatchesAndPublishes(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[int][]domain.Notice{1: {noticeTI, noticeEm}, 2: {noticeXX, noticeTI}}, total: 2}
	store := &fakeStore{existing: map[string]bool{}}
	pub := &fakePublisher{}

	sum, err := newJob(fetcher, store, fakeWatches{items: []watches.Watch{watchTI, watchAny}}, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Fetched)
	assert.Equal(t, 3, sum.Stored)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 2, sum.Published)
	assert.Zero(t, sum.Errors)

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "w1", pub.sent[0].WatchID)
	assert.Equal(t, "n2", pub.sent[1].Notice.ID)
	assert.Equal(t, domain.RiskMedium, pub.sent[1].Risk.RiskLevel)

	require.Len(t, fetcher.calls, 2)
	first := fetcher.calls[0]
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), first.StartDate)
	assert.Equal(t, fixedNow(), first.EndDate)
	assert.Equal(t, pncp.DefaultModality, first.Modality)
	assert.Equal(t, 50, first.PageSize)
}

func TestRun_SkipsAlreadyStoredNotices(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[int][]domain.Notice{1: {noticeTI}}, total: 1}
	store := &fakeStore{existing: map[string]bool{"n1": true}}
	pub := &fakePublisher{}

	sum, err := newJob(fetcher, store, fakeWatches{items: []watches.Watch{watchTI}}, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Stored)
	assert.Zero(t, sum.Matched)
	assert.Empty(t, pub.sent)
}

func TestRun_WithoutStoreAlertsEveryMatch(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[int][]domain.Notice{1: {noticeTI}}, total: 1}
	pub := &fakePublisher{}

	sum, err := newJob(fetcher, nil, fakeWatches{items: []watches.Watch{watchTI}}, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, sum.Stored)
	assert.Equal(t, 1, sum.Published)
}

func TestRun_PartialFailuresDoNotAbort(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[int][]domain.Notice{1: {noticeTI, noticeEm}}, total: 3, failOn: 2}
	store := &fakeStore{existing: map[string]bool{}, failID: "n2"}
	pub := &fakePublisher{}

	sum, err := newJob(fetcher, store, fakeWatches{items: []watches.Watch{watchTI, watchAny}}, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Fetched)
	assert.Equal(t, 1, sum.Stored)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 2, sum.Published)
	assert.Equal(t, 2, sum.Errors)
	assert.Len(t, fetcher.calls, 2)
}

func TestRun_PublishFailureCounted(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[int][]domain.Notice{1: {noticeTI}}, total: 1}
	pub := &fakePublisher{err: errors.New("redis down")}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	sum, err := newJob(fetcher, nil, fakeWatches{items: []watches.Watch{watchTI}}, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Matched)
	assert.Zero(t, sum.Published)
	assert.Equal(t, 1, sum.Errors)
	assert.Contains(t, buf.String(), "[error] request_id=unknown operation=monitor_publish")
	assert.Contains(t, buf.String(), "error=redis down")
}

func TestRun_WatchListFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{}
	_, err := newJob(fetcher, nil, fakeWatches{err: errors.New("db down")}, nil).Run(context.Background())

	assert.Error(t, err)
	assert.Empty(t, fetcher.calls)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:   map[int][]domain.Notice{},
		total:   1,
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	job := newJob(fetcher, nil, fakeWatches{}, nil)

	done := make(chan struct{})
	go func() {
		_, _ = job.Run(context.Background())
		close(done)
	}()

	select {
	case <-fetcher.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never reached the fetcher")
	}

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(fetcher.block)
	<-done
}
