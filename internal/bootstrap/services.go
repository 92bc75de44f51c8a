package bootstrap

import (
	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/alerts"
	httpapi "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http/middleware"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http/routes"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/chat"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/mcp"
	mcphttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/mcp/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/monitor"
	noticesrepo "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/notices/repository"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
	pncphttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/risk"
	watchesrepo "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches/repository"
)

const ServiceName = "licita-api"

// App is the fully wired application. Job is nil when no watch store is
// configured, since the monitor has nothing to match against.
type App struct {
	Router RouterDeps
	Job    *monitor.Job
}

func BuildApp(cfg *config.Config, stores *Stores) (*App, error) {
	scorer, err := risk.NewFromFile(cfg.Risk.RulesFile)
	if err != nil {
		return nil, err
	}

	var cache pncp.Cache = pncp.NoopCache{}
	if stores.Redis != nil {
		cache = pncp.NewRedisCache(stores.Redis)
	}
	client := pncp.NewClient(pncp.Options{
		BaseURL:   cfg.PNCP.BaseURL,
		SearchURL: cfg.PNCP.SearchURL,
		Timeout:   cfg.PNCP.Timeout,
		RPS:       cfg.PNCP.RPS,
		Burst:     cfg.PNCP.Burst,
		Cache:     cache,
		CacheTTL:  cfg.Redis.CacheTTL,
	})

	var source mcp.NoticeSource = client
	if cfg.MCP.Source == "mock" {
		source = mcp.NewStaticSource(nil)
	}

	chatSvc := chat.NewService(chat.ProvidersFromConfig(cfg.LLM), cfg.LLM.DefaultProvider, cfg.LLM.SystemPrompt, scorer)

	app := &App{}
	v1 := routes.V1Deps{Chat: chatSvc, Scorer: scorer}

	var health httpapi.Pinger
	var noticeStore monitor.NoticeStore
	if stores.DB != nil {
		repo := noticesrepo.NewRepo(stores.DB.Pool)
		v1.Notices = repo
		noticeStore = repo
		health = stores.DB
	}

	var redisPinger httpapi.Pinger
	var publisher monitor.Publisher
	if stores.Redis != nil {
		hub := alerts.NewHub(stores.Redis)
		v1.Alerts = hub
		publisher = hub
		redisPinger = hub
	}

	if stores.SQL != nil {
		watchRepo := watchesrepo.NewWatchRepository(stores.SQL)
		v1.Watches = watchRepo

		app.Job = monitor.NewJob(client, noticeStore, watchRepo, publisher, scorer, monitor.Options{})
		v1.Monitor = app.Job
	}

	app.Router = RouterDeps{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		Health:         httpapi.NewHealthHandler(ServiceName, cfg.App.Version, health, redisPinger),
		Proxy:          pncphttp.NewProxy(cfg.PNCP.BaseURL, cfg.PNCP.Timeout),
		MCP:            mcphttp.New(mcp.NewDispatcher(source, scorer, cfg.App.Version)),
		V1:             v1,
	}
	return app, nil
}
