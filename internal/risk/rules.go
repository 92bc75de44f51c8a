package risk

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule adds Points when Pattern matches the folded notice text.
type Rule struct {
	Pattern        *regexp.Regexp
	Points         int
	Factor         string
	Recommendation string
}

type ruleFile struct {
	Rules []struct {
		Pattern        string `yaml:"pattern"`
		Points         int    `yaml:"points"`
		Factor         string `yaml:"factor"`
		Recommendation string `yaml:"recommendation"`
	} `yaml:"rules"`
	NegativeWords []string `yaml:"negative_words"`
	PositiveWords []string `yaml:"positive_words"`
}

// Patterns run against Fold()ed text, so they are written without accents.
func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern:        regexp.MustCompile(`\b(emergencia[l]?|urgencia|dispensa de licitacao|contratacao direta)\b`),
			Points:         25,
			Factor:         "Contratação emergencial ou direta",
			Recommendation: "Verificar a fundamentação legal da dispensa ou emergência (art. 75 da Lei 14.133/2021).",
		},
		{
			Pattern:        regexp.MustCompile(`\binexigibilidade\b`),
			Points:         20,
			Factor:         "Inexigibilidade de licitação",
			Recommendation: "Confirmar a inviabilidade de competição e a justificativa de preço.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(prazo (exiguo|curto|reduzido)|\d{1,2} (horas|dias uteis) para)`),
			Points:         15,
			Factor:         "Prazo reduzido para propostas",
			Recommendation: "Avaliar se o prazo permite preparar a proposta e considerar pedido de esclarecimento.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(marca (exclusiva|especifica|de referencia obrigatoria)|somente a marca|nao se aceita(m)? similar)`),
			Points:         20,
			Factor:         "Direcionamento de marca",
			Recommendation: "Solicitar aceitação de produto equivalente ou impugnar o edital.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(exclusividade|fornecedor exclusivo|representante exclusivo)\b`),
			Points:         15,
			Factor:         "Exigência de exclusividade",
			Recommendation: "Checar se a exclusividade está comprovada por atestado idôneo.",
		},
		{
			Pattern:        regexp.MustCompile(`\bvedada a participacao de (empresas em )?consorcio`),
			Points:         10,
			Factor:         "Vedação à participação de consórcios",
			Recommendation: "Verificar se a vedação a consórcios está justificada no processo.",
		},
		{
			Pattern:        regexp.MustCompile(`\bvisita tecnica (obrigatoria|compulsoria)`),
			Points:         10,
			Factor:         "Visita técnica obrigatória",
			Recommendation: "Planejar a visita técnica ou questionar a substituição por declaração.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(capital social minimo|patrimonio liquido minimo)\b`),
			Points:         10,
			Factor:         "Exigência de capital ou patrimônio mínimo",
			Recommendation: "Confirmar se o percentual exigido respeita o limite de 10% do valor estimado.",
		},
		{
			Pattern:        regexp.MustCompile(`\batestados? de capacidade tecnica\b.*\b(quantidade minima|\d+ ?%)`),
			Points:         10,
			Factor:         "Atestados técnicos com quantitativos elevados",
			Recommendation: "Comparar os quantitativos exigidos com o limite de 50% do objeto.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(termo aditivo|aditivo contratual|aditamento)\b`),
			Points:         10,
			Factor:         "Histórico de aditivos",
			Recommendation: "Analisar os aditivos anteriores e o limite de acréscimo de 25%.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(sobrepreco|superfaturamento|preco acima do mercado)\b`),
			Points:         25,
			Factor:         "Indício de sobrepreço",
			Recommendation: "Confrontar o valor estimado com o painel de preços e contratações similares.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(unico (licitante|participante)|licitacao deserta|fracassada)\b`),
			Points:         15,
			Factor:         "Baixa competitividade",
			Recommendation: "Verificar as causas da baixa participação em certames anteriores.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(impugnacao|representacao ao tcu|tribunal de contas|liminar|mandado de seguranca)\b`),
			Points:         15,
			Factor:         "Questionamento administrativo ou judicial",
			Recommendation: "Acompanhar o andamento das impugnações e decisões dos órgãos de controle.",
		},
		{
			Pattern:        regexp.MustCompile(`\b(objeto generico|a ser definido|conforme demanda|diversos servicos)\b`),
			Points:         10,
			Factor:         "Objeto impreciso",
			Recommendation: "Pedir esclarecimento sobre o escopo e os quantitativos do objeto.",
		},
	}
}

func DefaultNegativeWords() []string {
	return []string{
		"irregular", "irregularidade", "fraude", "suspenso", "suspensa", "cancelado", "cancelada",
		"denuncia", "investigacao", "restritivo", "restricao", "penalidade", "inidonea", "revogado",
	}
}

func DefaultPositiveWords() []string {
	return []string{
		"transparente", "transparencia", "ampla concorrencia", "ampla participacao",
		"pregao eletronico", "sustentavel", "microempresa", "cotas reservadas", "publicidade",
	}
}

// LoadRuleFile reads rules and word lists from a YAML file. Empty word lists
// fall back to the defaults.
func LoadRuleFile(path string) ([]Rule, []string, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(raw)
}

func ParseRules(raw []byte) ([]Rule, []string, []string, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, nil, nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, nil, nil, fmt.Errorf("rules file has no rules")
	}

	rules := make([]Rule, 0, len(rf.Rules))
	for i, r := range rf.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("rule %d (%s): %w", i, r.Factor, err)
		}
		if r.Factor == "" {
			return nil, nil, nil, fmt.Errorf("rule %d: factor is required", i)
		}
		rules = append(rules, Rule{
			Pattern:        re,
			Points:         r.Points,
			Factor:         r.Factor,
			Recommendation: r.Recommendation,
		})
	}

	neg := foldAll(rf.NegativeWords)
	if len(neg) == 0 {
		neg = DefaultNegativeWords()
	}
	pos := foldAll(rf.PositiveWords)
	if len(pos) == 0 {
		pos = DefaultPositiveWords()
	}
	return rules, neg, pos, nil
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := Fold(w); f != "" {
			out = append(out, f)
		}
	}
	return out
}
