package pncp

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
)

// pncpTime accepts the zone-less timestamps PNCP returns as well as RFC3339.
type pncpTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02",
}

func (t *pncpTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, brasilia); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t *pncpTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

var brasilia = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// compra is a contracting record from the consulta API (publicacao listing
// and the per-orgao detail endpoint share this shape).
type compra struct {
	NumeroControlePNCP     string    `json:"numeroControlePNCP"`
	ObjetoCompra           string    `json:"objetoCompra"`
	InformacaoComplementar string    `json:"informacaoComplementar"`
	ModalidadeNome         string    `json:"modalidadeNome"`
	SituacaoCompraNome     string    `json:"situacaoCompraNome"`
	DataPublicacaoPncp     *pncpTime `json:"dataPublicacaoPncp"`
	DataEncerramento       *pncpTime `json:"dataEncerramentoProposta"`
	ValorTotalEstimado     float64   `json:"valorTotalEstimado"`
	LinkSistemaOrigem      string    `json:"linkSistemaOrigem"`
	OrgaoEntidade          struct {
		CNPJ        string `json:"cnpj"`
		RazaoSocial string `json:"razaoSocial"`
	} `json:"orgaoEntidade"`
	UnidadeOrgao struct {
		UFSigla       string `json:"ufSigla"`
		MunicipioNome string `json:"municipioNome"`
	} `json:"unidadeOrgao"`
}

func (c compra) toNotice() domain.Notice {
	return domain.Notice{
		ID:          c.NumeroControlePNCP,
		Title:       strings.TrimSpace(c.ObjetoCompra),
		Description: strings.TrimSpace(c.InformacaoComplementar),
		Org:         c.OrgaoEntidade.RazaoSocial,
		OrgCNPJ:     c.OrgaoEntidade.CNPJ,
		UF:          c.UnidadeOrgao.UFSigla,
		City:        c.UnidadeOrgao.MunicipioNome,
		Modality:    c.ModalidadeNome,
		Status:      c.SituacaoCompraNome,
		PublishedAt: c.DataPublicacaoPncp.ptr(),
		Deadline:    c.DataEncerramento.ptr(),
		Value:       c.ValorTotalEstimado,
		SourceURL:   c.LinkSistemaOrigem,
	}
}

type publicacaoPage struct {
	Data           []compra `json:"data"`
	TotalRegistros int      `json:"totalRegistros"`
	TotalPaginas   int      `json:"totalPaginas"`
	NumeroPagina   int      `json:"numeroPagina"`
}

// searchItem is one hit from the full-text search API.
type searchItem struct {
	ID                 string    `json:"id"`
	NumeroControlePNCP string    `json:"numero_controle_pncp"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	OrgaoNome          string    `json:"orgao_nome"`
	OrgaoCNPJ          string    `json:"orgao_cnpj"`
	UF                 string    `json:"uf"`
	MunicipioNome      string    `json:"municipio_nome"`
	ModalidadeNome     string    `json:"modalidade_licitacao_nome"`
	SituacaoNome       string    `json:"situacao_nome"`
	DataPublicacao     *pncpTime `json:"data_publicacao_pncp"`
	DataFimVigencia    *pncpTime `json:"data_fim_vigencia"`
	ValorGlobal        float64   `json:"valor_global"`
	ItemURL            string    `json:"item_url"`
}

func (s searchItem) toNotice(portalURL string) domain.Notice {
	id := s.NumeroControlePNCP
	if id == "" {
		id = s.ID
	}
	src := s.ItemURL
	if src != "" && strings.HasPrefix(src, "/") {
		src = portalURL + "/app/editais" + strings.TrimPrefix(src, "/compras")
	}
	return domain.Notice{
		ID:          id,
		Title:       strings.TrimSpace(s.Title),
		Description: strings.TrimSpace(s.Description),
		Org:         s.OrgaoNome,
		OrgCNPJ:     s.OrgaoCNPJ,
		UF:          s.UF,
		City:        s.MunicipioNome,
		Modality:    s.ModalidadeNome,
		Status:      s.SituacaoNome,
		PublishedAt: s.DataPublicacao.ptr(),
		Deadline:    s.DataFimVigencia.ptr(),
		Value:       s.ValorGlobal,
		SourceURL:   src,
	}
}

type searchPage struct {
	Items []searchItem `json:"items"`
	Total int          `json:"total"`
}
