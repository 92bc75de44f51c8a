package risk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

const (
	negativeWeight  = 3
	positiveWeight  = 2
	maxSentimentAdj = 15

	highThreshold   = 60
	mediumThreshold = 30
)

const noFactorsRecommendation = "Nenhum fator de risco identificado; seguir a análise documental padrão do edital."

// Scorer is safe for concurrent use; it holds only compiled, read-only rules.
type Scorer struct {
	rules    []Rule
	negative []*regexp.Regexp
	positive []*regexp.Regexp
}

func NewScorer(rules []Rule, negativeWords, positiveWords []string) *Scorer {
	return &Scorer{
		rules:    rules,
		negative: wordPatterns(negativeWords),
		positive: wordPatterns(positiveWords),
	}
}

func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultRules(), DefaultNegativeWords(), DefaultPositiveWords())
}

// NewFromFile builds a scorer from a YAML rules file, or the defaults when
// path is empty.
func NewFromFile(path string) (*Scorer, error) {
	if path == "" {
		return NewDefaultScorer(), nil
	}
	rules, neg, pos, err := LoadRuleFile(path)
	if err != nil {
		return nil, err
	}
	return NewScorer(rules, neg, pos), nil
}

// Assess scores the free text of a notice. noticeID is only echoed back.
func (s *Scorer) Assess(text, noticeID string) (domain.RiskAssessment, error) {
	if strings.TrimSpace(text) == "" {
		return domain.RiskAssessment{}, domain.ErrMissingContent
	}

	folded := Fold(text)

	score := 0
	factors := []string{}
	recs := []string{}
	seenRec := map[string]bool{}

	for _, r := range s.rules {
		if !r.Pattern.MatchString(folded) {
			continue
		}
		score += r.Points
		factors = append(factors, r.Factor)
		if r.Recommendation != "" && !seenRec[r.Recommendation] {
			seenRec[r.Recommendation] = true
			recs = append(recs, r.Recommendation)
		}
	}

	adj := s.sentiment(folded)
	score = clamp(score+adj, 0, 100)
	if adj > 0 {
		factors = append(factors, fmt.Sprintf("Linguagem negativa no texto (+%d)", adj))
	}

	if len(factors) == 0 {
		recs = append(recs, noFactorsRecommendation)
	}

	level := Level(score)
	metrics.RecordRiskAssessment(string(level))

	return domain.RiskAssessment{
		NoticeID:        noticeID,
		RiskLevel:       level,
		RiskScore:       score,
		RiskFactors:     factors,
		Recommendations: recs,
	}, nil
}

// sentiment is a naive word-list adjustment, capped at ±maxSentimentAdj.
func (s *Scorer) sentiment(folded string) int {
	adj := 0
	for _, re := range s.negative {
		if re.MatchString(folded) {
			adj += negativeWeight
		}
	}
	for _, re := range s.positive {
		if re.MatchString(folded) {
			adj -= positiveWeight
		}
	}
	return clamp(adj, -maxSentimentAdj, maxSentimentAdj)
}

func Level(score int) domain.RiskLevel {
	switch {
	case score >= highThreshold:
		return domain.RiskHigh
	case score >= mediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func wordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		w = Fold(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
