package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/risk"
)

// NoticeSource is satisfied by *pncp.Client and by StaticSource.
type NoticeSource interface {
	Search(ctx context.Context, p pncp.SearchParams) (*domain.NoticePage, error)
	Fetch(ctx context.Context, p pncp.FetchParams) (*domain.NoticePage, error)
	Get(ctx context.Context, id string) (*domain.Notice, error)
}

// StaticSource serves a fixed set of notices. It backs MCP_SOURCE=mock for
// demos and for wiring the dashboard without reaching PNCP.
type StaticSource struct {
	notices []domain.Notice
}

func NewStaticSource(notices []domain.Notice) *StaticSource {
	if notices == nil {
		notices = SampleNotices()
	}
	return &StaticSource{notices: notices}
}

func (s *StaticSource) Search(_ context.Context, p pncp.SearchParams) (*domain.NoticePage, error) {
	q := risk.Fold(strings.TrimSpace(p.Query))
	status := risk.Fold(p.Status)

	var hits []domain.Notice
	for _, n := range s.notices {
		if q != "" && !strings.Contains(risk.Fold(n.Text()+" "+n.Org), q) {
			continue
		}
		if status != "" && !strings.Contains(risk.Fold(n.Status), status) {
			continue
		}
		hits = append(hits, n)
	}
	return paginate(hits, p.Page, p.PageSize), nil
}

func (s *StaticSource) Fetch(_ context.Context, p pncp.FetchParams) (*domain.NoticePage, error) {
	var hits []domain.Notice
	for _, n := range s.notices {
		if p.UF != "" && !strings.EqualFold(n.UF, p.UF) {
			continue
		}
		if n.PublishedAt != nil {
			if !p.StartDate.IsZero() && n.PublishedAt.Before(p.StartDate) {
				continue
			}
			if !p.EndDate.IsZero() && n.PublishedAt.After(p.EndDate.AddDate(0, 0, 1)) {
				continue
			}
		}
		hits = append(hits, n)
	}
	return paginate(hits, p.Page, p.PageSize), nil
}

func (s *StaticSource) Get(_ context.Context, id string) (*domain.Notice, error) {
	for _, n := range s.notices {
		if n.ID == id {
			found := n
			return &found, nil
		}
	}
	return nil, domain.ErrNoticeNotFound
}

func paginate(items []domain.Notice, page, size int) *domain.NoticePage {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	total := len(items)
	from := (page - 1) * size
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}
	out := make([]domain.Notice, to-from)
	copy(out, items[from:to])
	return &domain.NoticePage{
		Items:      out,
		Total:      total,
		Page:       page,
		TotalPages: (total + size - 1) / size,
	}
}

func SampleNotices() []domain.Notice {
	pub := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	d1 := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 9, 14, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	return []domain.Notice{
		{
			ID:          "00394452000103-1-000101/2024",
			Title:       "Aquisição de notebooks para a rede municipal de ensino",
			Description: "Pregão eletrônico com ampla concorrência e cotas reservadas para microempresas.",
			Org:         "Prefeitura Municipal de Campinas",
			UF:          "SP",
			Modality:    "Pregão - Eletrônico",
			Status:      "Divulgada no PNCP",
			PublishedAt: &pub,
			Deadline:    &d1,
			Value:       1250000,
		},
		{
			ID:          "00394452000103-1-000102/2024",
			Title:       "Contratação emergencial de serviços de limpeza hospitalar",
			Description: "Dispensa de licitação por emergência. Prazo exíguo. Visita técnica obrigatória. Vedada a participação de consórcio.",
			Org:         "Secretaria de Estado da Saúde",
			UF:          "RJ",
			Modality:    "Dispensa",
			Status:      "Divulgada no PNCP",
			PublishedAt: &pub,
			Deadline:    &d2,
			Value:       3400000,
		},
		{
			ID:          "00394452000103-1-000103/2024",
			Title:       "Fornecimento de software de gestão tributária",
			Description: "Inexigibilidade. Fornecedor exclusivo. Marca específica exigida no termo de referência.",
			Org:         "Câmara Municipal de Belo Horizonte",
			UF:          "MG",
			Modality:    "Inexigibilidade",
			Status:      "Encerrada",
			PublishedAt: &pub,
			Deadline:    &d3,
			Value:       780000,
		},
	}
}
