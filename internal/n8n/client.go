package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

// APIError is a non-2xx answer from the n8n public API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("n8n: status %d: %s", e.Status, e.Body)
}

// Workflow keeps nodes, connections and settings raw so an exported workflow
// can be re-imported without loss.
type Workflow struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	Nodes       json.RawMessage `json:"nodes,omitempty"`
	Connections json.RawMessage `json:"connections,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type Execution struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflowId"`
	Status     string     `json:"status"`
	Mode       string     `json:"mode"`
	Finished   bool       `json:"finished"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty"`
}

type listResponse[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListWorkflows follows nextCursor until every page has been read.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var out []Workflow
	cursor := ""
	for {
		q := url.Values{}
		q.Set("limit", "100")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page listResponse[Workflow]
		if err := c.do(ctx, http.MethodGet, "/workflows?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, http.MethodGet, "/workflows/"+url.PathEscape(id), nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// CreateWorkflow imports a workflow. The id and active flag are read-only on
// the n8n API and are dropped before sending.
func (c *Client) CreateWorkflow(ctx context.Context, wf Workflow) (*Workflow, error) {
	body := map[string]any{
		"name":        wf.Name,
		"nodes":       rawOr(wf.Nodes, "[]"),
		"connections": rawOr(wf.Connections, "{}"),
		"settings":    rawOr(wf.Settings, "{}"),
	}

	var created Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ActivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows/"+url.PathEscape(id)+"/activate", nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (c *Client) DeactivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows/"+url.PathEscape(id)+"/deactivate", nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// ListExecutions returns the latest executions of a workflow, newest first.
func (c *Client) ListExecutions(ctx context.Context, workflowID string, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("workflowId", workflowID)
	q.Set("limit", strconv.Itoa(limit))

	var page listResponse[Execution]
	if err := c.do(ctx, http.MethodGet, "/executions?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("n8n encode: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("n8n request: %w", err)
	}
	req.Header.Set("X-N8N-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall("n8n", time.Since(start), err)
		return fmt.Errorf("n8n %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		metrics.RecordUpstreamCall("n8n", time.Since(start), apiErr)
		return apiErr
	}

	if out != nil {
		err = json.NewDecoder(resp.Body).Decode(out)
	}
	metrics.RecordUpstreamCall("n8n", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("n8n decode: %w", err)
	}
	return nil
}

func rawOr(raw json.RawMessage, def string) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(def)
	}
	return raw
}
