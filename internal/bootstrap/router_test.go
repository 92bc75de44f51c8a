package bootstrap

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
)

func testConfig(pncpURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimitRPS: 100, RateLimitBurst: 100},
		Redis:  config.RedisConfig{CacheTTL: time.Minute},
		PNCP:   config.PNCPConfig{BaseURL: pncpURL, SearchURL: pncpURL + "/api/search", Timeout: 5 * time.Second, RPS: 100, Burst: 100},
		LLM:    config.LLMConfig{DefaultProvider: "groq", SystemPrompt: "sys", Timeout: time.Second},
		MCP:    config.MCPConfig{Source: "mock"},
		App:    config.AppConfig{Version: "test"},
	}
}

func buildRouter(t *testing.T, cfg *config.Config, stores *Stores) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := BuildApp(cfg, stores)
	require.NoError(t, err)
	return BuildRouter(app.Router)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(rr, req)
	return rr
}

func TestRouter_WithoutStores(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer upstream.Close()

	r := buildRouter(t, testConfig(upstream.URL), &Stores{})

	rr := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"db":"disabled"`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	rr = serve(r, http.MethodGet, "/api/pncp/v1/contratacoes/publicacao?pagina=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"path":"/v1/contratacoes/publicacao"}`, rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(r, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"search_notices","params":{"query":"notebook"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"result"`)

	rr = serve(r, http.MethodPost, "/api/v1/chat", `{"messages":[{"role":"user","content":"oi"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/notices", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/watches", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/v1/monitor/run", "").Code)

	rr = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "licita_mcp_requests_total")
}

func TestRouter_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := buildRouter(t, testConfig("http://127.0.0.1:1"), &Stores{Redis: client})

	rr := serve(r, http.MethodGet, "/healthz", "")
	assert.Contains(t, rr.Body.String(), `"redis":"up"`)

	rr = serve(r, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"items":[]}`, rr.Body.String())
}

func TestRouter_RateLimited(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1
	r := buildRouter(t, cfg, &Stores{})

	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/mcp", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/mcp", body).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}

func TestRouter_ProxyAnswersAnyOrigin(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.Server.AllowedOrigins = []string{"https://licita.example.com"}
	r := buildRouter(t, cfg, &Stores{})

	// serve sends Origin http://localhost:5173, which is outside the allow-list.
	rr := serve(r, http.MethodGet, "/api/pncp/v1/contratacoes/publicacao", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(r, http.MethodOptions, "/api/pncp/v1/orgaos", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(r, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://licita.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://licita.example.com"}, cfg.AllowOrigins)
}
