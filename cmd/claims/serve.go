package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ai"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/cache"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/database"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/handlers"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/jobs"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/realtime"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/repository"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/server"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

func runServer(configPath string) error {
	ctx := context.Background()

	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.log

	hub := realtime.NewHub(cfg.AllowCORSOrigins, logger)
	publishers := service.Publishers{hub}
	if a.redis != nil {
		publishers = append(publishers, cache.NewActivityStream(a.redis, cfg.Redis.ActivityStream))
	}

	deps := service.Deps{Store: a.store, Publisher: publishers, Log: logger}
	if a.objects != nil {
		deps.Blobs = a.objects
	}
	services := service.New(deps)

	var mirror *repository.Mirror
	if cfg.Mirror.Enabled && a.pool != nil {
		if err := database.EnsureMirrorSchema(ctx, a.pool); err != nil {
			logger.Error().Err(err).Msg("mirror schema setup failed; mirror disabled")
		} else {
			mirror = repository.NewMirror(a.pool, cfg.Mirror.Timeout, logger)
			go func() {
				syncCtx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				if err := mirror.Sync(syncCtx, a.store.Snapshot()); err != nil {
					logger.Warn().Err(err).Msg("initial mirror sync failed")
				}
			}()
		}
	}

	checks := map[string]handlers.HealthCheck{}
	if a.pool != nil {
		checks["database"] = a.pool.Ping
	}
	if a.redis != nil {
		checks["cache"] = cache.Ping(a.redis)
	}
	if a.objects != nil {
		checks["storage"] = a.objects.Ping
	}

	handlerDeps := handlers.Deps{
		Config:   cfg,
		Log:      logger,
		Services: services,
		Store:    a.store,
		AI:       ai.NewClient(cfg.AI),
		Mirror:   mirror,
		Hub:      hub,
		Checks:   checks,
	}
	if a.redis != nil {
		handlerDeps.Revoker = cache.NewSessionRevoker(a.redis)
	}
	httpServer := server.NewHTTPServer(cfg, logger, handlers.NewHandlerSet(handlerDeps))

	scheduler := jobs.NewScheduler(a.store, cfg.Store.FlushInterval, cfg.Store.CleanupSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	flushCtx, stopFlush := context.WithCancel(ctx)
	defer stopFlush()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go jobs.FlushOnSignal(flushCtx, hup, a.store, logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(a, httpServer, scheduler)
	return nil
}

func waitForShutdown(a *app, srv *server.HTTPServer, scheduler *jobs.Scheduler) {
	logger := a.log
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop(shutdownCtx)

	if err := a.store.Save(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("final snapshot save failed")
	}

	logger.Info().Msg("server exited cleanly")
}
