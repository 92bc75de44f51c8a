package pncp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

const (
	DefaultModality = 6 // pregão eletrônico
	maxPageSize     = 50
	defaultPageSize = 10
	dateLayout      = "20060102"
	maxErrorBody    = 4 * 1024
)

// controlNumber matches PNCP ids like 00394452000103-1-000123/2024.
var controlNumber = regexp.MustCompile(`^(\d{14})-(\d+)-(\d+)/(\d{4})$`)

var errNoContent = errors.New("no content")

// UpstreamError is returned when PNCP answers with an error status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pncp returned status %d: %s", e.Status, e.Body)
}

type Options struct {
	BaseURL   string
	SearchURL string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	Cache     Cache
	CacheTTL  time.Duration
}

// Client talks to the public PNCP consulta and search APIs.
type Client struct {
	baseURL   string
	searchURL string
	portalURL string
	http      *http.Client
	limiter   *rate.Limiter
	cache     Cache
	cacheTTL  time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	searchURL := strings.TrimRight(opts.SearchURL, "/")
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		searchURL: searchURL,
		portalURL: strings.TrimSuffix(searchURL, "/api/search"),
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
	}
}

type SearchParams struct {
	Query    string
	Status   string
	Page     int
	PageSize int
}

type FetchParams struct {
	StartDate time.Time
	EndDate   time.Time
	Modality  int
	UF        string
	Page      int
	PageSize  int
}

// Search runs a full-text search over published editais.
func (c *Client) Search(ctx context.Context, p SearchParams) (*domain.NoticePage, error) {
	page, size := normalizePaging(p.Page, p.PageSize)

	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("tipos_documento", "edital")
	q.Set("ordenacao", "-data")
	q.Set("pagina", strconv.Itoa(page))
	q.Set("tam_pagina", strconv.Itoa(size))
	if p.Status != "" {
		q.Set("status", p.Status)
	}

	var out searchPage
	err := c.getJSON(ctx, "search", c.searchURL+"/?"+q.Encode(), &out)
	if errors.Is(err, errNoContent) {
		return &domain.NoticePage{Items: []domain.Notice{}, Page: page}, nil
	}
	if err != nil {
		return nil, err
	}

	items := make([]domain.Notice, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, it.toNotice(c.portalURL))
	}
	return &domain.NoticePage{
		Items:      items,
		Total:      out.Total,
		Page:       page,
		TotalPages: totalPages(out.Total, size),
	}, nil
}

// Fetch lists contracting records published in a date window.
func (c *Client) Fetch(ctx context.Context, p FetchParams) (*domain.NoticePage, error) {
	page, size := normalizePaging(p.Page, p.PageSize)
	start, end := normalizeWindow(p.StartDate, p.EndDate, time.Now())
	if p.Modality <= 0 {
		p.Modality = DefaultModality
	}

	q := url.Values{}
	q.Set("dataInicial", start.Format(dateLayout))
	q.Set("dataFinal", end.Format(dateLayout))
	q.Set("codigoModalidadeContratacao", strconv.Itoa(p.Modality))
	if p.UF != "" {
		q.Set("uf", strings.ToUpper(p.UF))
	}
	q.Set("pagina", strconv.Itoa(page))
	q.Set("tamanhoPagina", strconv.Itoa(size))

	var out publicacaoPage
	err := c.getJSON(ctx, "fetch", c.baseURL+"/v1/contratacoes/publicacao?"+q.Encode(), &out)
	if errors.Is(err, errNoContent) {
		return &domain.NoticePage{Items: []domain.Notice{}, Page: page}, nil
	}
	if err != nil {
		return nil, err
	}

	items := make([]domain.Notice, 0, len(out.Data))
	for _, cp := range out.Data {
		items = append(items, cp.toNotice())
	}
	return &domain.NoticePage{
		Items:      items,
		Total:      out.TotalRegistros,
		Page:       page,
		TotalPages: out.TotalPaginas,
	}, nil
}

// Get loads one notice by its PNCP control number.
func (c *Client) Get(ctx context.Context, id string) (*domain.Notice, error) {
	cnpj, year, seq, err := ParseControlNumber(id)
	if err != nil {
		return nil, err
	}

	var out compra
	reqURL := fmt.Sprintf("%s/v1/orgaos/%s/compras/%d/%d", c.baseURL, cnpj, year, seq)
	if err := c.getJSON(ctx, "get", reqURL, &out); err != nil {
		if errors.Is(err, errNoContent) {
			return nil, domain.ErrNoticeNotFound
		}
		return nil, err
	}

	n := out.toNotice()
	if n.ID == "" {
		n.ID = id
	}
	return &n, nil
}

// ParseControlNumber splits a PNCP control number into the parts used by
// the per-orgao detail endpoint.
func ParseControlNumber(id string) (cnpj string, year, seq int, err error) {
	m := controlNumber.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidNoticeID, id)
	}
	seq, _ = strconv.Atoi(m[3])
	year, _ = strconv.Atoi(m[4])
	return m[1], year, seq, nil
}

func (c *Client) getJSON(ctx context.Context, operation, reqURL string, out any) error {
	logger := logging.NewLogger(ctx)

	if data, ok, err := c.cache.Get(ctx, reqURL); err != nil {
		logger.LogWarnf("pncp_"+operation, "cache unavailable: %v", err)
	} else if ok {
		return json.Unmarshal(data, out)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall("pncp", time.Since(start), err)
		logger.LogError("pncp_"+operation, err)
		return fmt.Errorf("pncp request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		metrics.RecordUpstreamCall("pncp", time.Since(start), nil)
		return errNoContent
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordUpstreamCall("pncp", time.Since(start), nil)
		return domain.ErrNoticeNotFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upErr := &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		metrics.RecordUpstreamCall("pncp", time.Since(start), upErr)
		logger.LogWarnf("pncp_"+operation, "upstream returned status %d", resp.StatusCode)
		return upErr
	}

	body, err := io.ReadAll(resp.Body)
	metrics.RecordUpstreamCall("pncp", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errNoContent
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, reqURL, body, c.cacheTTL); err != nil {
			logger.LogWarnf("pncp_"+operation, "cache write failed: %v", err)
		}
	}
	return nil
}

func normalizePaging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// normalizeWindow defaults to the last 7 days and swaps reversed bounds.
func normalizeWindow(start, end, now time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -7)
	}
	if start.After(end) {
		start, end = end, start
	}
	return start, end
}

func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
