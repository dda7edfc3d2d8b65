// Package sync implements the channel refresh engine: full and incremental
// reconciliation of the tracked channel's videos and statistics against the
// upstream API.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/repository"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/youtube"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

var (
	// ErrRefreshInProgress is returned when a refresh for the same channel is
	// already running. Refreshes are serialized per channel, never queued.
	ErrRefreshInProgress = errors.New("refresh already in progress for this channel")

	// ErrNoUploadsPlaylist is returned when the channel has no uploads
	// playlist to paginate.
	ErrNoUploadsPlaylist = errors.New("channel has no uploads playlist")
)

// DefaultMaxPages bounds playlist pagination when no cap is configured.
// At 50 entries per page this covers channels with up to 20000 videos.
const DefaultMaxPages = 400

// RemoteClient is the slice of the upstream API the engine consumes.
type RemoteClient interface {
	GetChannel(ctx context.Context, channelID string) (*youtube.ChannelInfo, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string) (*youtube.PlaylistPage, error)
	VideosBatch(ctx context.Context, videoIDs []string) ([]*models.Video, error)
}

// FullRefreshResult reports what a full refresh did.
type FullRefreshResult struct {
	VideoCount int
	Elapsed    time.Duration
}

// IncrementalResult reports what an incremental refresh did.
type IncrementalResult struct {
	NewVideoCount  int
	ChannelUpdated bool
	Elapsed        time.Duration
}

// Options tunes engine behavior.
type Options struct {
	// ChannelRefreshInterval is how stale channel metadata may get before an
	// incremental refresh re-fetches and rewrites it.
	ChannelRefreshInterval time.Duration

	// MaxPlaylistPages caps pagination per refresh. Zero means DefaultMaxPages.
	MaxPlaylistPages int
}

// Engine reconciles the store against the upstream API. It never touches the
// cache or notification layers; orchestration of those belongs to the caller.
type Engine struct {
	client    RemoteClient
	channels  repository.ChannelRepository
	videos    repository.VideoRepository
	snapshots repository.SnapshotRepository
	opts      Options

	mu    stdsync.Mutex
	locks map[string]*stdsync.Mutex
}

// NewEngine creates a refresh engine.
func NewEngine(
	client RemoteClient,
	channels repository.ChannelRepository,
	videos repository.VideoRepository,
	snapshots repository.SnapshotRepository,
	opts Options,
) *Engine {
	if opts.MaxPlaylistPages <= 0 {
		opts.MaxPlaylistPages = DefaultMaxPages
	}
	if opts.ChannelRefreshInterval <= 0 {
		opts.ChannelRefreshInterval = 24 * time.Hour
	}
	return &Engine{
		client:    client,
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		opts:      opts,
		locks:     make(map[string]*stdsync.Mutex),
	}
}

// channelLock returns the mutex serializing refreshes for one channel.
func (e *Engine) channelLock(channelID string) *stdsync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[channelID]
	if !ok {
		lock = &stdsync.Mutex{}
		e.locks[channelID] = lock
	}
	return lock
}

// FullRefresh rebuilds the channel's entire video corpus: every video in the
// uploads playlist is re-fetched and upserted, overwriting stored statistics.
// The channel row and today's stat snapshot are written as part of the run.
func (e *Engine) FullRefresh(ctx context.Context, channelID string) (*FullRefreshResult, error) {
	lock := e.channelLock(channelID)
	if !lock.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer lock.Unlock()

	start := time.Now()
	logger.Log.Info("starting full refresh", zap.String("channel_id", channelID))

	info, err := e.client.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("full refresh: %w", err)
	}
	if info.UploadsPlaylistID == "" {
		return nil, fmt.Errorf("full refresh: %w", ErrNoUploadsPlaylist)
	}

	if err := e.writeChannel(ctx, info); err != nil {
		return nil, fmt.Errorf("full refresh: %w", err)
	}

	videoIDs, err := e.collectAllVideoIDs(ctx, info.UploadsPlaylistID)
	if err != nil {
		return nil, fmt.Errorf("full refresh: %w", err)
	}
	logger.Log.Info("collected video ids",
		zap.String("channel_id", channelID),
		zap.Int("count", len(videoIDs)),
	)

	videos, err := e.fetchVideoDetails(ctx, channelID, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("full refresh: %w", err)
	}

	if len(videos) > 0 {
		if err := e.videos.UpsertVideoBatch(ctx, videos); err != nil {
			return nil, fmt.Errorf("full refresh: %w", err)
		}
	}

	result := &FullRefreshResult{
		VideoCount: len(videos),
		Elapsed:    time.Since(start),
	}
	logger.Log.Info("full refresh complete",
		zap.String("channel_id", channelID),
		zap.Int("video_count", result.VideoCount),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// IncrementalRefresh fetches only videos published after the stored watermark
// and inserts them without touching existing rows. Channel metadata is
// rewritten only when missing or older than the refresh interval.
func (e *Engine) IncrementalRefresh(ctx context.Context, channelID string) (*IncrementalResult, error) {
	lock := e.channelLock(channelID)
	if !lock.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer lock.Unlock()

	start := time.Now()
	logger.Log.Info("starting incremental refresh", zap.String("channel_id", channelID))

	info, err := e.client.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("incremental refresh: %w", err)
	}
	if info.UploadsPlaylistID == "" {
		return nil, fmt.Errorf("incremental refresh: %w", ErrNoUploadsPlaylist)
	}

	channelUpdated, err := e.maybeWriteChannel(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("incremental refresh: %w", err)
	}

	watermark, err := e.videos.LatestPublishedAt(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("incremental refresh: %w", err)
	}
	logger.Log.Info("incremental watermark",
		zap.String("channel_id", channelID),
		zap.Time("watermark", watermark),
	)

	videoIDs, err := e.collectNewVideoIDs(ctx, info.UploadsPlaylistID, watermark)
	if err != nil {
		return nil, fmt.Errorf("incremental refresh: %w", err)
	}

	videos, err := e.fetchVideoDetails(ctx, channelID, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("incremental refresh: %w", err)
	}

	inserted := 0
	if len(videos) > 0 {
		inserted, err = e.videos.InsertVideoBatchIfAbsent(ctx, videos)
		if err != nil {
			return nil, fmt.Errorf("incremental refresh: %w", err)
		}
	}

	result := &IncrementalResult{
		NewVideoCount:  inserted,
		ChannelUpdated: channelUpdated,
		Elapsed:        time.Since(start),
	}
	logger.Log.Info("incremental refresh complete",
		zap.String("channel_id", channelID),
		zap.Int("new_videos", result.NewVideoCount),
		zap.Bool("channel_updated", result.ChannelUpdated),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// writeChannel upserts the channel row and appends today's stat snapshot.
// The snapshot insert is a no-op when one already exists for today.
func (e *Engine) writeChannel(ctx context.Context, info *youtube.ChannelInfo) error {
	channel := models.NewChannel(
		info.ChannelID,
		info.Title,
		info.Description,
		info.LogoURL,
		info.ViewCount,
		info.SubscriberCount,
		info.VideoCount,
	)
	if err := e.channels.UpsertChannel(ctx, channel); err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	written, err := e.snapshots.InsertSnapshotIfAbsent(ctx, models.SnapshotFromChannel(channel))
	if err != nil {
		return fmt.Errorf("failed to insert stat snapshot: %w", err)
	}
	if written {
		logger.Log.Info("stat snapshot recorded", zap.String("channel_id", info.ChannelID))
	}
	return nil
}

// maybeWriteChannel rewrites channel metadata only when the stored row is
// missing or older than the refresh interval.
func (e *Engine) maybeWriteChannel(ctx context.Context, info *youtube.ChannelInfo) (bool, error) {
	lastUpdated, err := e.channels.ChannelLastUpdated(ctx, info.ChannelID)
	switch {
	case db.IsNotFound(err):
		// No row yet, write one.
	case err != nil:
		return false, err
	case time.Since(lastUpdated) < e.opts.ChannelRefreshInterval:
		logger.Log.Debug("channel metadata fresh, skipping update",
			zap.String("channel_id", info.ChannelID),
			zap.Time("last_updated", lastUpdated),
		)
		return false, nil
	}

	if err := e.writeChannel(ctx, info); err != nil {
		return false, err
	}
	return true, nil
}

// collectAllVideoIDs paginates the uploads playlist to exhaustion and returns
// the de-duplicated video id set in first-seen order. Pathological upstream
// behavior can repeat an id across pages; the set keeps it once.
func (e *Engine) collectAllVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	pageToken := ""
	for page := 0; page < e.opts.MaxPlaylistPages; page++ {
		resp, err := e.client.PlaylistPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}

		for _, entry := range resp.Entries {
			if !seen[entry.VideoID] {
				seen[entry.VideoID] = true
				ids = append(ids, entry.VideoID)
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}

	return nil, fmt.Errorf("playlist pagination exceeded %d pages", e.opts.MaxPlaylistPages)
}

// collectNewVideoIDs paginates newest-first and collects ids published
// strictly after the watermark. Pagination stops once a page's oldest entry
// is not newer than the watermark, relying on the upstream returning pages in
// descending publish order.
func (e *Engine) collectNewVideoIDs(ctx context.Context, playlistID string, watermark time.Time) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	pageToken := ""
	for page := 0; page < e.opts.MaxPlaylistPages; page++ {
		resp, err := e.client.PlaylistPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}

		reachedWatermark := false
		for _, entry := range resp.Entries {
			if entry.PublishedAt.After(watermark) {
				if !seen[entry.VideoID] {
					seen[entry.VideoID] = true
					ids = append(ids, entry.VideoID)
				}
			}
		}
		if n := len(resp.Entries); n > 0 {
			oldest := resp.Entries[n-1].PublishedAt
			if !oldest.After(watermark) {
				reachedWatermark = true
			}
		}

		if reachedWatermark || resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}

	return nil, fmt.Errorf("playlist pagination exceeded %d pages", e.opts.MaxPlaylistPages)
}

// fetchVideoDetails resolves video ids to full video rows in batches of 50,
// stamping each row with the tracked channel id.
func (e *Engine) fetchVideoDetails(ctx context.Context, channelID string, videoIDs []string) ([]*models.Video, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	batches := youtube.BatchVideoIDs(videoIDs, youtube.MaxBatchSize)
	videos := make([]*models.Video, 0, len(videoIDs))
	for i, batch := range batches {
		fetched, err := e.client.VideosBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch video batch %d/%d: %w", i+1, len(batches), err)
		}
		for _, v := range fetched {
			v.ChannelID = channelID
		}
		videos = append(videos, fetched...)
	}

	return videos, nil
}
