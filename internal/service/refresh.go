// Package service orchestrates refreshes: it runs the engine and, on
// success, fans the result out to the cache, websocket, and broker layers.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/metrics"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/sync"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/websocket"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

// Refresh modes as reported in metrics and events.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// Engine is the slice of the sync engine the service consumes.
type Engine interface {
	FullRefresh(ctx context.Context, channelID string) (*sync.FullRefreshResult, error)
	IncrementalRefresh(ctx context.Context, channelID string) (*sync.IncrementalResult, error)
}

// CacheInvalidator drops every cached read for a channel.
type CacheInvalidator interface {
	InvalidateChannel(ctx context.Context, channelID string) error
}

// Notifier pushes a completion notification to connected dashboards.
type Notifier interface {
	Broadcast(notification websocket.Notification)
}

// Publisher emits a refresh event to the broker.
type Publisher interface {
	PublishRefreshEvent(ctx context.Context, event *RefreshEvent) error
}

// RefreshService runs refreshes for the tracked channel. Cache invalidation,
// notification, and event publishing happen only after the engine succeeds;
// their failures are logged and never undo a completed refresh.
type RefreshService struct {
	engine    Engine
	cache     CacheInvalidator
	notifier  Notifier
	publisher Publisher
	channelID string
}

// NewRefreshService creates a refresh service. notifier and publisher may be
// nil when the corresponding layer is not configured.
func NewRefreshService(engine Engine, cache CacheInvalidator, notifier Notifier, publisher Publisher, channelID string) *RefreshService {
	return &RefreshService{
		engine:    engine,
		cache:     cache,
		notifier:  notifier,
		publisher: publisher,
		channelID: channelID,
	}
}

// FullSync rebuilds the channel's entire corpus and fans out the completion.
func (s *RefreshService) FullSync(ctx context.Context) (*sync.FullRefreshResult, error) {
	result, err := s.engine.FullRefresh(ctx, s.channelID)
	if err != nil {
		s.recordFailure(ModeFull, err)
		return nil, err
	}

	metrics.RefreshTotal.WithLabelValues(ModeFull, "success").Inc()
	metrics.RefreshDuration.WithLabelValues(ModeFull).Observe(result.Elapsed.Seconds())
	metrics.VideosProcessed.WithLabelValues(ModeFull).Add(float64(result.VideoCount))

	s.fanOut(ctx, ModeFull, "Full sync completed successfully", result.VideoCount, result.Elapsed)
	return result, nil
}

// Refresh runs an incremental refresh and fans out the completion.
func (s *RefreshService) Refresh(ctx context.Context) (*sync.IncrementalResult, error) {
	result, err := s.engine.IncrementalRefresh(ctx, s.channelID)
	if err != nil {
		s.recordFailure(ModeIncremental, err)
		return nil, err
	}

	metrics.RefreshTotal.WithLabelValues(ModeIncremental, "success").Inc()
	metrics.RefreshDuration.WithLabelValues(ModeIncremental).Observe(result.Elapsed.Seconds())
	metrics.VideosProcessed.WithLabelValues(ModeIncremental).Add(float64(result.NewVideoCount))

	s.fanOut(ctx, ModeIncremental, "Data refreshed successfully", result.NewVideoCount, result.Elapsed)
	return result, nil
}

func (s *RefreshService) recordFailure(mode string, err error) {
	status := "error"
	if errors.Is(err, sync.ErrRefreshInProgress) {
		status = "skipped"
	}
	metrics.RefreshTotal.WithLabelValues(mode, status).Inc()
	logger.Log.Error("refresh failed",
		zap.String("mode", mode),
		zap.String("channel_id", s.channelID),
		zap.Error(err),
	)
}

// fanOut invalidates the cache and notifies listeners after a successful
// refresh. Every step is best-effort.
func (s *RefreshService) fanOut(ctx context.Context, mode, message string, videoCount int, elapsed time.Duration) {
	if s.cache != nil {
		if err := s.cache.InvalidateChannel(ctx, s.channelID); err != nil {
			logger.Log.Error("cache invalidation failed after refresh",
				zap.String("channel_id", s.channelID),
				zap.Error(err),
			)
		}
	}

	if s.notifier != nil {
		s.notifier.Broadcast(websocket.NewNotification(websocket.TypeSuccess, message))
	}

	if s.publisher != nil {
		event := &RefreshEvent{
			ID:         uuid.New(),
			ChannelID:  s.channelID,
			Mode:       mode,
			VideoCount: videoCount,
			ElapsedMs:  elapsed.Milliseconds(),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishRefreshEvent(ctx, event); err != nil {
			logger.Log.Error("refresh event publish failed",
				zap.String("channel_id", s.channelID),
				zap.Error(err),
			)
		}
	}
}
