// Package youtube wraps the YouTube Data API v3 for channel and video reads.
package youtube

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/metrics"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

const (
	// PageSize is the page size used for playlist listing.
	PageSize = 50

	// MaxBatchSize is the upstream maximum for videos.list id batches.
	MaxBatchSize = 50

	// retryAttempts is the per-call retry budget. Every failure is retried
	// the same way, including definitive client errors; retries on those are
	// wasted but harmless. Callers should not assume retries only happen on
	// transient failures.
	retryAttempts = 3
)

// ChannelInfo carries the channel fields the sync engine needs.
type ChannelInfo struct {
	ChannelID         string
	Title             string
	Description       string
	LogoURL           string
	ViewCount         int64
	SubscriberCount   int64
	VideoCount        int64
	UploadsPlaylistID string
}

// PlaylistEntry is one playlist item: a video id and its publish time.
type PlaylistEntry struct {
	VideoID     string
	PublishedAt time.Time
}

// PlaylistPage is one page of playlist items plus the continuation token.
// An empty NextPageToken means the listing is exhausted.
type PlaylistPage struct {
	Entries       []PlaylistEntry
	NextPageToken string
}

// Client wraps the YouTube Data API v3 client with a bounded retry policy.
type Client struct {
	service *yt.Service
}

// NewClient creates a new YouTube API client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// GetChannel fetches the channel's snippet, statistics, and contentDetails.
// Returns ErrChannelNotFound when the API has no matching channel.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*ChannelInfo, error) {
	call := c.service.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(channelID).
		Context(ctx)

	var response *yt.ChannelListResponse
	err := withRetry("channels.list", func() error {
		var callErr error
		response, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, mapError("channels.list", err)
	}

	if len(response.Items) == 0 {
		return nil, fmt.Errorf("channels.list: %w", ErrChannelNotFound)
	}

	return mapChannel(response.Items[0]), nil
}

// PlaylistPage fetches one page of up to 50 playlist items. Pass an empty
// pageToken for the first page.
func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*PlaylistPage, error) {
	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(PageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	var response *yt.PlaylistItemListResponse
	err := withRetry("playlistItems.list", func() error {
		var callErr error
		response, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, mapError("playlistItems.list", err)
	}

	page := &PlaylistPage{NextPageToken: response.NextPageToken}
	for _, item := range response.Items {
		entry := PlaylistEntry{}
		if item.ContentDetails != nil {
			entry.VideoID = item.ContentDetails.VideoId
		}
		if item.Snippet != nil {
			entry.PublishedAt = parseTime(item.Snippet.PublishedAt)
		}
		if entry.VideoID != "" {
			page.Entries = append(page.Entries, entry)
		}
	}

	return page, nil
}

// VideosBatch fetches full details for up to 50 video ids in one call.
func (c *Client) VideosBatch(ctx context.Context, videoIDs []string) ([]*models.Video, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("no video IDs provided")
	}
	if len(videoIDs) > MaxBatchSize {
		return nil, fmt.Errorf("too many video IDs (max %d, got %d)", MaxBatchSize, len(videoIDs))
	}

	call := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoIDs...).
		Context(ctx)

	var response *yt.VideoListResponse
	err := withRetry("videos.list", func() error {
		var callErr error
		response, callErr = call.Do()
		return callErr
	})
	if err != nil {
		return nil, mapError("videos.list", err)
	}

	videos := make([]*models.Video, 0, len(response.Items))
	for _, item := range response.Items {
		videos = append(videos, mapVideo(item))
	}

	return videos, nil
}

// withRetry runs fn up to retryAttempts times and returns the last error.
// There is no backoff and no permanent/transient distinction; this is the
// documented policy.
func withRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			metrics.YouTubeAPICalls.WithLabelValues(op, "success").Inc()
			return nil
		}
		metrics.YouTubeAPICalls.WithLabelValues(op, "error").Inc()
		if attempt < retryAttempts {
			logger.Log.Warn("retrying YouTube API call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}
	return err
}

func mapChannel(channel *yt.Channel) *ChannelInfo {
	info := &ChannelInfo{ChannelID: channel.Id}

	if channel.Snippet != nil {
		info.Title = channel.Snippet.Title
		info.Description = channel.Snippet.Description
		if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.High != nil {
			info.LogoURL = channel.Snippet.Thumbnails.High.Url
		}
	}

	if channel.Statistics != nil {
		info.ViewCount = int64(channel.Statistics.ViewCount)
		info.SubscriberCount = int64(channel.Statistics.SubscriberCount)
		info.VideoCount = int64(channel.Statistics.VideoCount)
	}

	if channel.ContentDetails != nil && channel.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylistID = channel.ContentDetails.RelatedPlaylists.Uploads
	}

	return info
}

func mapVideo(video *yt.Video) *models.Video {
	v := &models.Video{
		VideoID:     video.Id,
		LastUpdated: time.Now().UTC(),
	}

	if video.Snippet != nil {
		v.ChannelID = video.Snippet.ChannelId
		v.Title = video.Snippet.Title
		v.Description = video.Snippet.Description
		v.PublishedAt = parseTime(video.Snippet.PublishedAt)
		v.ThumbnailURL = bestThumbnail(video.Snippet.Thumbnails)
	}

	if video.Statistics != nil {
		v.ViewCount = int64(video.Statistics.ViewCount)
		v.LikeCount = int64(video.Statistics.LikeCount)
		v.CommentCount = int64(video.Statistics.CommentCount)
	}

	if video.ContentDetails != nil {
		v.Duration = video.ContentDetails.Duration
	}

	return v
}

// bestThumbnail prefers high, then medium, then default resolution.
func bestThumbnail(thumbs *yt.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	switch {
	case thumbs.High != nil:
		return thumbs.High.Url
	case thumbs.Medium != nil:
		return thumbs.Medium.Url
	case thumbs.Default != nil:
		return thumbs.Default.Url
	}
	return ""
}

// parseTime parses RFC3339 timestamps from the API; zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// BatchVideoIDs splits a list of video ids into batches of at most batchSize.
func BatchVideoIDs(videoIDs []string, batchSize int) [][]string {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	var batches [][]string
	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batches = append(batches, videoIDs[i:end])
	}

	return batches
}
