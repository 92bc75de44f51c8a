package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
rules:
  - pattern: '\bcarta convite\b'
    points: 40
    factor: Modalidade revogada
    recommendation: Conferir a base legal da modalidade.
negative_words: [Irregularidade]
`

func TestParseRules(t *testing.T) {
	rules, neg, pos, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.Equal(t, 40, rules[0].Points)
	assert.Equal(t, []string{"irregularidade"}, neg)
	assert.Equal(t, DefaultPositiveWords(), pos)
}

func TestParseRules_InvalidPattern(t *testing.T) {
	_, _, _, err := ParseRules([]byte("rules:\n  - pattern: '(['\n    points: 1\n    factor: x\n"))
	require.Error(t, err)
}

func TestParseRules_Empty(t *testing.T) {
	_, _, _, err := ParseRules([]byte("rules: []\n"))
	require.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	s, err := NewFromFile(path)
	require.NoError(t, err)

	got, err := s.Assess("Licitação na modalidade Carta Convite com irregularidade", "")
	require.NoError(t, err)
	assert.Equal(t, 43, got.RiskScore)
}

func TestNewFromFile_EmptyPathUsesDefaults(t *testing.T) {
	s, err := NewFromFile("")
	require.NoError(t, err)
	assert.Len(t, s.rules, len(DefaultRules()))
}

func TestDefaultRulesAreOrderedAndLabelled(t *testing.T) {
	for _, r := range DefaultRules() {
		assert.NotEmpty(t, r.Factor)
		assert.NotEmpty(t, r.Recommendation)
		assert.Positive(t, r.Points)
	}
}
