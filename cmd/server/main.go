package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/cache"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/config"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/repository"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/handler"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/middleware"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/service"
	syncengine "github.com/channelboard/youtube-channel-dashboard-go/internal/sync"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/websocket"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/youtube"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(pool)

	// The cache is optional at runtime. When Redis is down the dashboard
	// still works, it just hits Postgres on every read.
	var cacheStore *cache.Cache
	if c, err := cache.New(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL); err != nil {
		logger.Log.Warn("cache unavailable, serving reads without it", zap.Error(err))
	} else {
		cacheStore = c
		defer func() { _ = cacheStore.Close() }()
	}

	ytClient, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create YouTube client: %w", err)
	}

	channelRepo := repository.NewChannelRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	engine := syncengine.NewEngine(ytClient, channelRepo, videoRepo, snapshotRepo, syncengine.Options{
		ChannelRefreshInterval: cfg.Sync.ChannelRefreshInterval,
		MaxPlaylistPages:       cfg.Sync.MaxPlaylistPages,
	})

	var publisher *service.EventPublisher
	if cfg.RabbitMQ.Host != "" {
		publisher, err = service.NewEventPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("event publisher unavailable, refresh events will not be published", zap.Error(err))
			publisher = nil
		} else {
			defer func() { _ = publisher.Close() }()
		}
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Interface conversions keep nil collaborators truly nil inside the
	// service; a typed nil would dodge its nil checks.
	var invalidator service.CacheInvalidator
	if cacheStore != nil {
		invalidator = cacheStore
	}
	var eventPublisher service.Publisher
	if publisher != nil {
		eventPublisher = publisher
	}

	refreshService := service.NewRefreshService(engine, invalidator, hub, eventPublisher, cfg.YouTube.ChannelID)

	var handlerCache handler.CacheStore
	if cacheStore != nil {
		handlerCache = cacheStore
	}
	dashboardHandler := handler.NewDashboardHandler(channelRepo, videoRepo, snapshotRepo, statsRepo, handlerCache, cfg.YouTube.ChannelID)
	syncHandler := handler.NewSyncHandler(refreshService)

	var brokerHealth handler.BrokerHealth
	if publisher != nil {
		brokerHealth = publisher
	}
	healthHandler := handler.NewHealthHandler(pool, brokerHealth)

	auth := middleware.NewAPIKeyAuth(cfg.Server.AdminAPIKeys)
	router := handler.NewRouter(dashboardHandler, syncHandler, healthHandler, hub, auth)

	if cfg.Sync.RefreshOnStartup {
		go startupRefresh(ctx, refreshService, channelRepo, cfg.YouTube.ChannelID)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Log.Info("server stopped")
	return nil
}

// startupRefresh primes the store on boot: a full refresh when this channel
// has never been synced, an incremental refresh otherwise.
func startupRefresh(ctx context.Context, refresh *service.RefreshService, channels repository.ChannelRepository, channelID string) {
	_, err := channels.GetChannelByID(ctx, channelID)
	switch {
	case db.IsNotFound(err):
		logger.Log.Info("no channel data found, running initial full sync",
			zap.String("channel_id", channelID),
		)
		if _, err := refresh.FullSync(ctx); err != nil {
			logger.Log.Error("startup full sync failed", zap.Error(err))
		}
	case err != nil:
		logger.Log.Error("startup refresh skipped, channel lookup failed", zap.Error(err))
	default:
		if _, err := refresh.Refresh(ctx); err != nil {
			logger.Log.Error("startup incremental refresh failed", zap.Error(err))
		}
	}
}
