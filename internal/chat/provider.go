package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

// Provider is a chat completions backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (Completion, error)
	// Stream calls onDelta for every content fragment and returns the
	// assembled completion once the upstream stream ends.
	Stream(ctx context.Context, req ChatRequest, onDelta func(delta string) error) (Completion, error)
}

// UpstreamError carries a non-2xx answer from the provider.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Body)
}

// OpenAICompatible talks to any /chat/completions endpoint (Groq, Lovable AI
// Gateway). The API key is sent as a bearer token by the oauth2 transport.
type OpenAICompatible struct {
	name    string
	baseURL string
	model   string
	http    *http.Client
	// stream has no overall Timeout; only the wait for response headers is
	// bounded, and the caller's context ends the body.
	stream  *http.Client
}

func NewOpenAICompatible(name string, cfg config.ProviderConfig, timeout time.Duration) *OpenAICompatible {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	})

	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = timeout

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = timeout
	sc := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: tr}), ts)

	return &OpenAICompatible{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    hc,
		stream:  sc,
	}
}

// ProvidersFromConfig builds the providers that have an API key.
func ProvidersFromConfig(cfg config.LLMConfig) map[string]Provider {
	out := map[string]Provider{}
	if cfg.Groq.APIKey != "" {
		out["groq"] = NewOpenAICompatible("groq", cfg.Groq, cfg.Timeout)
	}
	if cfg.Lovable.APIKey != "" {
		out["lovable"] = NewOpenAICompatible("lovable", cfg.Lovable, cfg.Timeout)
	}
	return out
}

func (p *OpenAICompatible) Name() string { return p.name }

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *OpenAICompatible) Complete(ctx context.Context, req ChatRequest) (Completion, error) {
	start := time.Now()
	resp, err := p.post(ctx, req, false)
	if err != nil {
		metrics.RecordUpstreamCall("llm", time.Since(start), err)
		return Completion{}, err
	}
	defer resp.Body.Close()

	var out completionResponse
	err = json.NewDecoder(resp.Body).Decode(&out)
	metrics.RecordUpstreamCall("llm", time.Since(start), err)
	if err != nil {
		return Completion{}, fmt.Errorf("%s decode: %w", p.name, err)
	}
	if len(out.Choices) == 0 {
		return Completion{}, fmt.Errorf("%s: empty choices", p.name)
	}

	return Completion{
		Content:  out.Choices[0].Message.Content,
		Model:    firstNonEmpty(out.Model, p.modelFor(req)),
		Provider: p.name,
	}, nil
}

func (p *OpenAICompatible) Stream(ctx context.Context, req ChatRequest, onDelta func(string) error) (Completion, error) {
	start := time.Now()
	resp, err := p.post(ctx, req, true)
	if err != nil {
		metrics.RecordUpstreamCall("llm", time.Since(start), err)
		return Completion{}, err
	}
	defer resp.Body.Close()

	model := p.modelFor(req)
	var full strings.Builder

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var ch streamChunk
		if json.Unmarshal([]byte(data), &ch) != nil {
			continue
		}
		if ch.Model != "" {
			model = ch.Model
		}
		if len(ch.Choices) == 0 || ch.Choices[0].Delta.Content == "" {
			continue
		}
		delta := ch.Choices[0].Delta.Content
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			metrics.RecordUpstreamCall("llm", time.Since(start), err)
			return Completion{}, err
		}
	}
	err = sc.Err()
	metrics.RecordUpstreamCall("llm", time.Since(start), err)
	if err != nil {
		return Completion{}, fmt.Errorf("%s stream: %w", p.name, err)
	}

	return Completion{Content: full.String(), Model: model, Provider: p.name}, nil
}

func (p *OpenAICompatible) post(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(completionRequest{
		Model:       p.modelFor(req),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	hc := p.http
	if stream {
		hc = p.stream
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", p.name, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Provider: p.name, Status: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

func (p *OpenAICompatible) modelFor(req ChatRequest) string {
	return firstNonEmpty(req.Model, p.model)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
