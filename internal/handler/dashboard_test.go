package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/repository"
)

const testChannelID = "UCtest123"

type mockChannelRepo struct {
	mock.Mock
}

func (m *mockChannelRepo) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *mockChannelRepo) GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *mockChannelRepo) ChannelLastUpdated(ctx context.Context, channelID string) (time.Time, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(time.Time), args.Error(1)
}

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) UpsertVideoBatch(ctx context.Context, videos []*models.Video) error {
	args := m.Called(ctx, videos)
	return args.Error(0)
}

func (m *mockVideoRepo) InsertVideoBatchIfAbsent(ctx context.Context, videos []*models.Video) (int, error) {
	args := m.Called(ctx, videos)
	return args.Int(0), args.Error(1)
}

func (m *mockVideoRepo) LatestPublishedAt(ctx context.Context, channelID string) (time.Time, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockVideoRepo) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepo) ListVideos(ctx context.Context, channelID string, filters *repository.VideoFilters) ([]*models.Video, int, error) {
	args := m.Called(ctx, channelID, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Video), args.Int(1), args.Error(2)
}

func (m *mockVideoRepo) HighlightVideos(ctx context.Context, channelID string) (*repository.Highlights, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Highlights), args.Error(1)
}

func (m *mockVideoRepo) TopVideosByViews(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.Video, error) {
	args := m.Called(ctx, channelID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

func (m *mockVideoRepo) TopVideosInRange(ctx context.Context, channelID string, start, end time.Time, limit int) ([]*models.Video, error) {
	args := m.Called(ctx, channelID, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) InsertSnapshotIfAbsent(ctx context.Context, snapshot *models.StatSnapshot) (bool, error) {
	args := m.Called(ctx, snapshot)
	return args.Bool(0), args.Error(1)
}

func (m *mockSnapshotRepo) ListSnapshots(ctx context.Context, channelID string) ([]*models.StatSnapshot, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StatSnapshot), args.Error(1)
}

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) Years(ctx context.Context, channelID string) ([]string, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStatsRepo) MonthlyStats(ctx context.Context, channelID string) (map[string]*repository.PeriodStats, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*repository.PeriodStats), args.Error(1)
}

func (m *mockStatsRepo) YearlyStats(ctx context.Context, channelID string) (map[string]*repository.PeriodStats, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*repository.PeriodStats), args.Error(1)
}

// fakeCache is an in-memory CacheStore for handler tests.
type fakeCache struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) bool {
	raw, ok := f.entries[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	f.hits++
	return true
}

func (f *fakeCache) Set(_ context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.entries[key] = raw
	f.sets++
}

type dashboardFixture struct {
	channels  *mockChannelRepo
	videos    *mockVideoRepo
	snapshots *mockSnapshotRepo
	stats     *mockStatsRepo
	cache     *fakeCache
	router    *gin.Engine
}

func newDashboardFixture() *dashboardFixture {
	gin.SetMode(gin.TestMode)

	f := &dashboardFixture{
		channels:  new(mockChannelRepo),
		videos:    new(mockVideoRepo),
		snapshots: new(mockSnapshotRepo),
		stats:     new(mockStatsRepo),
		cache:     newFakeCache(),
	}

	h := NewDashboardHandler(f.channels, f.videos, f.snapshots, f.stats, f.cache, testChannelID)
	router := gin.New()
	router.GET("/api/channel", h.GetChannel)
	router.GET("/api/stats", h.GetStats)
	router.GET("/api/channel-stats", h.GetChannelStats)
	router.GET("/api/videos", h.ListVideos)
	router.GET("/api/years", h.GetYears)
	router.GET("/api/monthly-channel-stats", h.GetMonthlyStats)
	router.GET("/api/yearly-stats", h.GetYearlyStats)
	router.GET("/api/highlight-videos", h.GetHighlightVideos)
	router.GET("/api/top-videos", h.GetTopVideos)
	router.GET("/api/top-videos-by-month", h.GetTopVideosByMonth)
	router.GET("/api/most-viewed-videos", h.GetMostViewedVideos)
	router.GET("/api/monthly-stats-all", h.GetMonthlyStatsAll)
	f.router = router
	return f
}

func (f *dashboardFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestGetChannel(t *testing.T) {
	t.Parallel()

	t.Run("returns channel row", func(t *testing.T) {
		f := newDashboardFixture()
		f.channels.On("GetChannelByID", mock.Anything, testChannelID).Return(&models.Channel{
			ChannelID:       testChannelID,
			Title:           "Test Channel",
			SubscriberCount: 1234,
		}, nil)

		rec := f.get(t, "/api/channel")

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Channel
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, testChannelID, got.ChannelID)
		assert.Equal(t, int64(1234), got.SubscriberCount)
		assert.Equal(t, 1, f.cache.sets)
	})

	t.Run("404 when no channel row", func(t *testing.T) {
		f := newDashboardFixture()
		f.channels.On("GetChannelByID", mock.Anything, testChannelID).Return(nil, db.ErrNotFound)

		rec := f.get(t, "/api/channel")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No channel data found.")
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		f := newDashboardFixture()
		f.channels.On("GetChannelByID", mock.Anything, testChannelID).Return(&models.Channel{
			ChannelID: testChannelID,
		}, nil).Once()

		first := f.get(t, "/api/channel")
		second := f.get(t, "/api/channel")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, 1, f.cache.hits)
		f.channels.AssertNumberOfCalls(t, "GetChannelByID", 1)
	})
}

func TestListVideos(t *testing.T) {
	t.Parallel()

	t.Run("passes query params through to the repository", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("ListVideos", mock.Anything, testChannelID, mock.MatchedBy(func(filters *repository.VideoFilters) bool {
			return filters.Page == 2 &&
				filters.Limit == 10 &&
				filters.Sort == "view_count" &&
				filters.SortDirection == "ASC" &&
				filters.Year == "2024"
		})).Return([]*models.Video{{VideoID: "v1"}}, 51, nil)

		rec := f.get(t, "/api/videos?page=2&limit=10&sort=view_count&sortDirection=ASC&year=2024")

		require.Equal(t, http.StatusOK, rec.Code)
		var got VideoListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 51, got.Total)
		assert.Equal(t, 2, got.Page)
		assert.Len(t, got.Videos, 1)
	})

	t.Run("defaults apply when params are absent or invalid", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("ListVideos", mock.Anything, testChannelID, mock.MatchedBy(func(filters *repository.VideoFilters) bool {
			return filters.Page == 1 && filters.Limit == 50 && filters.Sort == "published_at"
		})).Return([]*models.Video{}, 0, nil)

		rec := f.get(t, "/api/videos?page=bogus")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("different params use different cache keys", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("ListVideos", mock.Anything, testChannelID, mock.Anything).Return([]*models.Video{}, 0, nil)

		f.get(t, "/api/videos?page=1")
		f.get(t, "/api/videos?page=2")

		f.videos.AssertNumberOfCalls(t, "ListVideos", 2)
	})
}

func TestGetYearlyStats(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture()
	f.stats.On("YearlyStats", mock.Anything, testChannelID).Return(map[string]*repository.PeriodStats{
		"2023": {ViewCount: 100, LikeCount: 10, CommentCount: 5, EngagementRate: 15},
		"2024": {ViewCount: 200, LikeCount: 20, CommentCount: 10, EngagementRate: 5},
		"2025": {ViewCount: 50, LikeCount: 0, CommentCount: 0, EngagementRate: 0},
	}, nil)

	rec := f.get(t, "/api/yearly-stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]*repository.PeriodStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	all := got["All"]
	require.NotNil(t, all)
	assert.Equal(t, int64(350), all.ViewCount)
	assert.Equal(t, int64(30), all.LikeCount)
	assert.Equal(t, int64(15), all.CommentCount)
	// Zero-rate years are excluded from the average.
	assert.InDelta(t, 10.0, all.EngagementRate, 0.001)
}

func TestGetHighlightVideos(t *testing.T) {
	t.Parallel()

	t.Run("returns highlights", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("HighlightVideos", mock.Anything, testChannelID).Return(&repository.Highlights{
			Latest:    &models.Video{VideoID: "new"},
			MostLiked: &models.Video{VideoID: "liked"},
		}, nil)

		rec := f.get(t, "/api/highlight-videos")

		require.Equal(t, http.StatusOK, rec.Code)
		var got repository.Highlights
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "new", got.Latest.VideoID)
	})

	t.Run("404 when the channel has no videos", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("HighlightVideos", mock.Anything, testChannelID).Return(&repository.Highlights{}, nil)

		rec := f.get(t, "/api/highlight-videos")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetTopVideos(t *testing.T) {
	t.Parallel()

	t.Run("returns trimmed projections", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosByViews", mock.Anything, testChannelID, topVideosSince, topVideosLimit).
			Return([]*models.Video{
				{VideoID: "v1", Title: "Big hit", ViewCount: 9000, LikeCount: 100, CommentCount: 50, EngagementRate: 1.67},
			}, nil)

		rec := f.get(t, "/api/top-videos")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []TopVideo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "v1", got[0].VideoID)
		assert.Equal(t, int64(9000), got[0].Views)
	})

	t.Run("404 when empty", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosByViews", mock.Anything, testChannelID, topVideosSince, topVideosLimit).
			Return([]*models.Video{}, nil)

		rec := f.get(t, "/api/top-videos")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetTopVideosByMonth(t *testing.T) {
	t.Parallel()

	monthStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("returns the month's top videos", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosInRange", mock.Anything, testChannelID, monthStart, monthEnd, topVideosLimit).
			Return([]*models.Video{
				{VideoID: "v1", Title: "March hit", ViewCount: 5000, LikeCount: 300, CommentCount: 40, EngagementRate: 6.8},
			}, nil)

		rec := f.get(t, "/api/top-videos-by-month?month=2024-03")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []TopVideo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "v1", got[0].VideoID)
		assert.Equal(t, int64(5000), got[0].Views)
	})

	t.Run("400 on malformed month", func(t *testing.T) {
		f := newDashboardFixture()

		for _, path := range []string{
			"/api/top-videos-by-month",
			"/api/top-videos-by-month?month=2024-3",
			"/api/top-videos-by-month?month=2024-13",
			"/api/top-videos-by-month?month=march",
		} {
			rec := f.get(t, path)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		}
		f.videos.AssertNotCalled(t, "TopVideosInRange")
	})

	t.Run("404 when the month has no videos", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosInRange", mock.Anything, testChannelID, monthStart, monthEnd, topVideosLimit).
			Return([]*models.Video{}, nil)

		rec := f.get(t, "/api/top-videos-by-month?month=2024-03")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetMostViewedVideos(t *testing.T) {
	t.Parallel()

	monthStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("returns full rows capped at five", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosInRange", mock.Anything, testChannelID, monthStart, monthEnd, mostViewedLimit).
			Return([]*models.Video{
				{VideoID: "v1", ChannelID: testChannelID, Title: "March hit", Description: "full row", ViewCount: 5000},
			}, nil)

		rec := f.get(t, "/api/most-viewed-videos?year=2024&month=03")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []*models.Video
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "full row", got[0].Description)
	})

	t.Run("400 on malformed year or month", func(t *testing.T) {
		f := newDashboardFixture()

		for _, path := range []string{
			"/api/most-viewed-videos",
			"/api/most-viewed-videos?year=2024",
			"/api/most-viewed-videos?year=2024&month=3",
			"/api/most-viewed-videos?year=24&month=03",
		} {
			rec := f.get(t, path)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		}
		f.videos.AssertNotCalled(t, "TopVideosInRange")
	})

	t.Run("404 when the month has no videos", func(t *testing.T) {
		f := newDashboardFixture()
		f.videos.On("TopVideosInRange", mock.Anything, testChannelID, monthStart, monthEnd, mostViewedLimit).
			Return([]*models.Video{}, nil)

		rec := f.get(t, "/api/most-viewed-videos?year=2024&month=03")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetMonthlyStatsAll(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture()
	f.stats.On("MonthlyStats", mock.Anything, testChannelID).Return(map[string]*repository.PeriodStats{
		"2023-05": {ViewCount: 2000, LikeCount: 150, CommentCount: 30},
		"2023-11": {ViewCount: 800, LikeCount: 40, CommentCount: 10},
		"2024-01": {ViewCount: 500, LikeCount: 25, CommentCount: 5},
	}, nil)

	rec := f.get(t, "/api/monthly-stats-all")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]map[string]*MonthTotals
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Len(t, got, 2)
	require.Len(t, got["2023"], 2)
	assert.Equal(t, int64(2000), got["2023"]["05"].TotalViews)
	assert.Equal(t, int64(150), got["2023"]["05"].LikeCount)
	assert.Equal(t, int64(10), got["2023"]["11"].CommentCount)
	assert.Equal(t, int64(500), got["2024"]["01"].TotalViews)
}

func TestGetYears(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture()
	f.stats.On("Years", mock.Anything, testChannelID).Return([]string{"2025", "2024"}, nil)

	rec := f.get(t, "/api/years")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"2025", "2024"}, got)
}

func TestGetChannelStats(t *testing.T) {
	t.Parallel()

	f := newDashboardFixture()
	f.snapshots.On("ListSnapshots", mock.Anything, testChannelID).Return([]*models.StatSnapshot{
		{ChannelID: testChannelID, Date: "2026-08-31", Views: 1000},
		{ChannelID: testChannelID, Date: "2026-09-01", Views: 1100},
	}, nil)

	rec := f.get(t, "/api/channel-stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []*models.StatSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "2026-09-01", got[1].Date)
}
