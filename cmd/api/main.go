package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/config"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/bootstrap"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/monitor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer stores.Close()

	app, err := bootstrap.BuildApp(cfg, stores)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}

	sweepStop := make(chan struct{})
	defer close(sweepStop)
	go app.Router.RateLimiter.Sweep(sweepStop)

	var scheduler *monitor.Scheduler
	switch {
	case !cfg.Monitor.Enabled:
		log.Println("[info] monitor disabled (MONITOR_ENABLED=false)")
	case app.Job == nil:
		log.Println("[warn] monitor enabled but DB_DSN is empty; watches are unavailable")
	default:
		scheduler = monitor.NewScheduler(app.Job, cfg.Monitor.Schedule)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("monitor: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(app.Router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[info] %s %s listening on :%s (env=%s mcp_source=%s)",
			bootstrap.ServiceName, cfg.App.Version, cfg.Server.Port, cfg.App.Environment, cfg.MCP.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[info] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] shutdown: %v", err)
	}
}
