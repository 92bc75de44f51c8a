package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
)

const (
	ToolSearchNotices    = "search_notices"
	ToolGetNoticeDetails = "get_notice_details"
	ToolFetchNotices     = "fetch_notices"
	ToolRiskClassifier   = "risk_classifier"
)

var errInvalidParams = errors.New("invalid params")

// RiskScorer is satisfied by *risk.Scorer.
type RiskScorer interface {
	Assess(text, noticeID string) (domain.RiskAssessment, error)
}

type tool struct {
	desc ToolDescription
	run  func(ctx context.Context, args json.RawMessage) (any, error)
}

type searchArgs struct {
	Query    string `json:"query"`
	Status   string `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type detailsArgs struct {
	NoticeID string `json:"notice_id"`
}

type fetchArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Modality  int    `json:"modality"`
	UF        string `json:"uf"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

type riskArgs struct {
	Content  string `json:"content"`
	NoticeID string `json:"notice_id"`
}

func (d *Dispatcher) buildTools() []tool {
	return []tool{
		{
			desc: ToolDescription{
				Name:        ToolSearchNotices,
				Description: "Busca editais publicados no PNCP por texto livre.",
				InputSchema: objectSchema(map[string]any{
					"query":     prop("string", "Termos de busca"),
					"status":    prop("string", "Situação do edital (ex.: recebendo_proposta)"),
					"page":      prop("integer", "Página, começando em 1"),
					"page_size": prop("integer", "Itens por página (máx. 50)"),
				}, "query"),
			},
			run: d.searchNotices,
		},
		{
			desc: ToolDescription{
				Name:        ToolGetNoticeDetails,
				Description: "Retorna os detalhes de um edital pelo número de controle PNCP.",
				InputSchema: objectSchema(map[string]any{
					"notice_id": prop("string", "Número de controle PNCP (CNPJ-1-SEQ/ANO)"),
				}, "notice_id"),
			},
			run: d.getNoticeDetails,
		},
		{
			desc: ToolDescription{
				Name:        ToolFetchNotices,
				Description: "Lista contratações publicadas no PNCP em um intervalo de datas.",
				InputSchema: objectSchema(map[string]any{
					"start_date": prop("string", "Data inicial (AAAA-MM-DD)"),
					"end_date":   prop("string", "Data final (AAAA-MM-DD)"),
					"modality":   prop("integer", "Código da modalidade de contratação"),
					"uf":         prop("string", "Sigla da UF"),
					"page":       prop("integer", "Página, começando em 1"),
					"page_size":  prop("integer", "Itens por página (máx. 50)"),
				}),
			},
			run: d.fetchNotices,
		},
		{
			desc: ToolDescription{
				Name:        ToolRiskClassifier,
				Description: "Classifica o risco de um edital a partir do texto ou do número de controle.",
				InputSchema: objectSchema(map[string]any{
					"content":   prop("string", "Texto do edital"),
					"notice_id": prop("string", "Número de controle PNCP, usado quando content está vazio"),
				}),
			},
			run: d.riskClassifier,
		},
	}
}

func (d *Dispatcher) searchNotices(ctx context.Context, raw json.RawMessage) (any, error) {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", errInvalidParams)
	}
	return d.source.Search(ctx, pncp.SearchParams{
		Query:    args.Query,
		Status:   args.Status,
		Page:     args.Page,
		PageSize: args.PageSize,
	})
}

func (d *Dispatcher) getNoticeDetails(ctx context.Context, raw json.RawMessage) (any, error) {
	var args detailsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.NoticeID) == "" {
		return nil, fmt.Errorf("%w: notice_id is required", errInvalidParams)
	}
	return d.source.Get(ctx, strings.TrimSpace(args.NoticeID))
}

func (d *Dispatcher) fetchNotices(ctx context.Context, raw json.RawMessage) (any, error) {
	var args fetchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	start, err := parseDate(args.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", errInvalidParams, err)
	}
	end, err := parseDate(args.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", errInvalidParams, err)
	}
	return d.source.Fetch(ctx, pncp.FetchParams{
		StartDate: start,
		EndDate:   end,
		Modality:  args.Modality,
		UF:        args.UF,
		Page:      args.Page,
		PageSize:  args.PageSize,
	})
}

func (d *Dispatcher) riskClassifier(ctx context.Context, raw json.RawMessage) (any, error) {
	var args riskArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	content := args.Content
	if strings.TrimSpace(content) == "" {
		if strings.TrimSpace(args.NoticeID) == "" {
			return nil, fmt.Errorf("%w: content or notice_id is required", errInvalidParams)
		}
		n, err := d.source.Get(ctx, strings.TrimSpace(args.NoticeID))
		if err != nil {
			return nil, err
		}
		content = n.Text()
	}

	assessment, err := d.scorer.Assess(content, args.NoticeID)
	if errors.Is(err, domain.ErrMissingContent) {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

func decodeArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "20060102", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}
