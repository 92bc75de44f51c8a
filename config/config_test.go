package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MCP_SOURCE", "")
	t.Setenv("LLM_DEFAULT_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "pncp", cfg.MCP.Source)
	assert.Equal(t, "groq", cfg.LLM.DefaultProvider)
	assert.Equal(t, "https://pncp.gov.br/api/consulta", cfg.PNCP.BaseURL)
	assert.NotEmpty(t, cfg.LLM.SystemPrompt)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://licita.example.com")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("MCP_SOURCE", "mock")
	t.Setenv("PNCP_BASE_URL", "http://pncp.local/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "https://licita.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "mock", cfg.MCP.Source)
	assert.Equal(t, "http://pncp.local/api", cfg.PNCP.BaseURL)
}

func TestLoad_InvalidSource(t *testing.T) {
	t.Setenv("MCP_SOURCE", "supabase")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP_SOURCE")
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}
