// Package handler provides HTTP request handlers for the dashboard API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/cache"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/repository"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

// topVideosLimit and topVideosSince bound the /api/top-videos listing.
const topVideosLimit = 10

// mostViewedLimit bounds the /api/most-viewed-videos listing.
const mostViewedLimit = 5

var topVideosSince = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// CacheStore is the slice of the cache the handlers consume. Nil disables
// caching entirely.
type CacheStore interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// DashboardHandler serves the read endpoints backing the dashboard UI.
// Every read goes through the cache when one is configured.
type DashboardHandler struct {
	channels  repository.ChannelRepository
	videos    repository.VideoRepository
	snapshots repository.SnapshotRepository
	stats     repository.StatsRepository
	cache     CacheStore
	channelID string
}

// NewDashboardHandler creates a new DashboardHandler instance.
func NewDashboardHandler(
	channels repository.ChannelRepository,
	videos repository.VideoRepository,
	snapshots repository.SnapshotRepository,
	stats repository.StatsRepository,
	cacheStore CacheStore,
	channelID string,
) *DashboardHandler {
	return &DashboardHandler{
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		stats:     stats,
		cache:     cacheStore,
		channelID: channelID,
	}
}

// VideoListResponse is the paginated /api/videos payload.
type VideoListResponse struct {
	Videos []*models.Video `json:"videos"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// TopVideo is the trimmed projection served by /api/top-videos.
type TopVideo struct {
	VideoID        string    `json:"video_id"`
	Title          string    `json:"title"`
	PublishedAt    time.Time `json:"published_at"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	EngagementRate float64   `json:"engagement_rate"`
}

// GetChannel returns the tracked channel row.
func (h *DashboardHandler) GetChannel(c *gin.Context) {
	h.serveChannelRow(c, "channel", "No channel data found.")
}

// GetStats returns the channel's counter fields. Same row as GetChannel,
// kept as a separate endpoint for the UI's stats widget.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	h.serveChannelRow(c, "stats", "No channel stats found.")
}

func (h *DashboardHandler) serveChannelRow(c *gin.Context, endpoint, notFoundMsg string) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, endpoint, nil)

	var cached models.Channel
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, &cached)
		return
	}

	channel, err := h.channels.GetChannelByID(ctx, h.channelID)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
			return
		}
		h.serverError(c, "failed to fetch channel", err)
		return
	}

	h.cacheSet(ctx, key, channel)
	c.JSON(http.StatusOK, channel)
}

// GetChannelStats returns the dated snapshot series.
func (h *DashboardHandler) GetChannelStats(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "channel-stats", nil)

	var cached []*models.StatSnapshot
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	snapshots, err := h.snapshots.ListSnapshots(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch channel stats", err)
		return
	}
	if snapshots == nil {
		snapshots = []*models.StatSnapshot{}
	}

	h.cacheSet(ctx, key, snapshots)
	c.JSON(http.StatusOK, snapshots)
}

// ListVideos returns a page of videos with sorting and year/month filters.
func (h *DashboardHandler) ListVideos(c *gin.Context) {
	ctx := c.Request.Context()

	filters := &repository.VideoFilters{
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 50),
		Sort:          c.DefaultQuery("sort", "published_at"),
		SortDirection: c.DefaultQuery("sortDirection", "DESC"),
		Year:          c.Query("year"),
		Month:         c.Query("month"),
	}

	params := map[string]string{
		"page":      strconv.Itoa(filters.Page),
		"limit":     strconv.Itoa(filters.Limit),
		"sort":      filters.Sort,
		"direction": filters.SortDirection,
	}
	if filters.Year != "" {
		params["year"] = filters.Year
	}
	if filters.Month != "" {
		params["month"] = filters.Month
	}
	key := cache.Key(h.channelID, "videos", params)

	var cached VideoListResponse
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, &cached)
		return
	}

	videos, total, err := h.videos.ListVideos(ctx, h.channelID, filters)
	if err != nil {
		h.serverError(c, "failed to fetch videos", err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	response := VideoListResponse{
		Videos: videos,
		Total:  total,
		Page:   filters.Page,
		Limit:  filters.Limit,
	}
	h.cacheSet(ctx, key, &response)
	c.JSON(http.StatusOK, &response)
}

// GetYears returns the distinct publish years, newest first.
func (h *DashboardHandler) GetYears(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "years", nil)

	var cached []string
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	years, err := h.stats.Years(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch years", err)
		return
	}
	if years == nil {
		years = []string{}
	}

	h.cacheSet(ctx, key, years)
	c.JSON(http.StatusOK, years)
}

// GetMonthlyStats returns per-month aggregates keyed by YYYY-MM.
func (h *DashboardHandler) GetMonthlyStats(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "monthly-channel-stats", nil)

	var cached map[string]*repository.PeriodStats
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := h.stats.MonthlyStats(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch monthly channel stats", err)
		return
	}

	h.cacheSet(ctx, key, stats)
	c.JSON(http.StatusOK, stats)
}

// GetYearlyStats returns per-year aggregates plus an "All" rollup. The
// rollup sums the counters and averages the engagement rates of years that
// have one.
func (h *DashboardHandler) GetYearlyStats(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "yearly-stats", nil)

	var cached map[string]*repository.PeriodStats
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := h.stats.YearlyStats(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch yearly stats", err)
		return
	}

	all := &repository.PeriodStats{}
	var rateSum float64
	var rateYears int
	for _, s := range stats {
		all.ViewCount += s.ViewCount
		all.LikeCount += s.LikeCount
		all.CommentCount += s.CommentCount
		if s.EngagementRate > 0 {
			rateSum += s.EngagementRate
			rateYears++
		}
	}
	if rateYears > 0 {
		all.EngagementRate = rateSum / float64(rateYears)
	}
	stats["All"] = all

	h.cacheSet(ctx, key, stats)
	c.JSON(http.StatusOK, stats)
}

// GetHighlightVideos returns the latest, most liked, and most commented
// videos. 404 when the channel has no videos at all.
func (h *DashboardHandler) GetHighlightVideos(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "highlight-videos", nil)

	var cached repository.Highlights
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, &cached)
		return
	}

	highlights, err := h.videos.HighlightVideos(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch highlight videos", err)
		return
	}
	if highlights.Latest == nil && highlights.MostLiked == nil && highlights.MostCommented == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No highlight videos found."})
		return
	}

	h.cacheSet(ctx, key, highlights)
	c.JSON(http.StatusOK, highlights)
}

// GetTopVideos returns the ten most viewed videos published since 2020.
func (h *DashboardHandler) GetTopVideos(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "top-videos", nil)

	var cached []TopVideo
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	videos, err := h.videos.TopVideosByViews(ctx, h.channelID, topVideosSince, topVideosLimit)
	if err != nil {
		h.serverError(c, "failed to fetch top videos", err)
		return
	}
	if len(videos) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No top videos found."})
		return
	}

	top := make([]TopVideo, 0, len(videos))
	for _, v := range videos {
		top = append(top, TopVideo{
			VideoID:        v.VideoID,
			Title:          v.Title,
			PublishedAt:    v.PublishedAt,
			Views:          v.ViewCount,
			Likes:          v.LikeCount,
			Comments:       v.CommentCount,
			EngagementRate: v.EngagementRate,
		})
	}

	h.cacheSet(ctx, key, top)
	c.JSON(http.StatusOK, top)
}

// GetTopVideosByMonth returns the ten most viewed videos of a single month.
// The month query parameter must be formatted YYYY-MM.
func (h *DashboardHandler) GetTopVideosByMonth(c *gin.Context) {
	month := c.Query("month")
	start, err := time.Parse("2006-01", month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month format. Use YYYY-MM."})
		return
	}
	end := start.AddDate(0, 1, 0)

	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "top-videos-by-month", map[string]string{"month": month})

	var cached []TopVideo
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	videos, err := h.videos.TopVideosInRange(ctx, h.channelID, start, end, topVideosLimit)
	if err != nil {
		h.serverError(c, "failed to fetch top videos by month", err)
		return
	}
	if len(videos) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No top videos found for the specified month."})
		return
	}

	top := make([]TopVideo, 0, len(videos))
	for _, v := range videos {
		top = append(top, TopVideo{
			VideoID:        v.VideoID,
			Title:          v.Title,
			PublishedAt:    v.PublishedAt,
			Views:          v.ViewCount,
			Likes:          v.LikeCount,
			Comments:       v.CommentCount,
			EngagementRate: v.EngagementRate,
		})
	}

	h.cacheSet(ctx, key, top)
	c.JSON(http.StatusOK, top)
}

// GetMostViewedVideos returns the five most viewed videos of a single month,
// as full rows. Takes year=YYYY and month=MM query parameters.
func (h *DashboardHandler) GetMostViewedVideos(c *gin.Context) {
	year := c.Query("year")
	month := c.Query("month")
	start, err := time.Parse("2006-01", year+"-"+month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year or month format. Use year=YYYY and month=MM."})
		return
	}
	end := start.AddDate(0, 1, 0)

	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "most-viewed-videos", map[string]string{
		"year":  year,
		"month": month,
	})

	var cached []*models.Video
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	videos, err := h.videos.TopVideosInRange(ctx, h.channelID, start, end, mostViewedLimit)
	if err != nil {
		h.serverError(c, "failed to fetch most viewed videos", err)
		return
	}
	if len(videos) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No most viewed videos found for the specified month."})
		return
	}

	h.cacheSet(ctx, key, videos)
	c.JSON(http.StatusOK, videos)
}

// MonthTotals is one month's entry in the /api/monthly-stats-all payload.
type MonthTotals struct {
	TotalViews   int64 `json:"total_views"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

// GetMonthlyStatsAll returns every month's counters nested by year, keyed
// year then zero-padded month.
func (h *DashboardHandler) GetMonthlyStatsAll(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key(h.channelID, "monthly-stats-all", nil)

	var cached map[string]map[string]*MonthTotals
	if h.cacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := h.stats.MonthlyStats(ctx, h.channelID)
	if err != nil {
		h.serverError(c, "failed to fetch monthly stats", err)
		return
	}

	nested := make(map[string]map[string]*MonthTotals)
	for period, s := range stats {
		year, month, ok := strings.Cut(period, "-")
		if !ok {
			continue
		}
		if nested[year] == nil {
			nested[year] = make(map[string]*MonthTotals)
		}
		nested[year][month] = &MonthTotals{
			TotalViews:   s.ViewCount,
			LikeCount:    s.LikeCount,
			CommentCount: s.CommentCount,
		}
	}

	h.cacheSet(ctx, key, nested)
	c.JSON(http.StatusOK, nested)
}

func (h *DashboardHandler) cacheGet(ctx context.Context, key string, dest any) bool {
	if h.cache == nil {
		return false
	}
	return h.cache.Get(ctx, key, dest)
}

func (h *DashboardHandler) cacheSet(ctx context.Context, key string, value any) {
	if h.cache == nil {
		return
	}
	h.cache.Set(ctx, key, value)
}

func (h *DashboardHandler) serverError(c *gin.Context, msg string, err error) {
	logger.Log.Error(msg, zap.String("channel_id", h.channelID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
