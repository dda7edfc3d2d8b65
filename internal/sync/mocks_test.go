package sync

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/repository"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/youtube"
)

type mockRemoteClient struct {
	mock.Mock
}

func (m *mockRemoteClient) GetChannel(ctx context.Context, channelID string) (*youtube.ChannelInfo, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtube.ChannelInfo), args.Error(1)
}

func (m *mockRemoteClient) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*youtube.PlaylistPage, error) {
	args := m.Called(ctx, playlistID, pageToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtube.PlaylistPage), args.Error(1)
}

func (m *mockRemoteClient) VideosBatch(ctx context.Context, videoIDs []string) ([]*models.Video, error) {
	args := m.Called(ctx, videoIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

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
