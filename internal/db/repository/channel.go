package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
)

// ChannelRepository defines operations for managing the tracked channel.
type ChannelRepository interface {
	// UpsertChannel creates the channel row or overwrites all mutable fields.
	UpsertChannel(ctx context.Context, channel *models.Channel) error

	// GetChannelByID retrieves a single channel by ID.
	GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error)

	// ChannelLastUpdated returns the last_updated timestamp for the channel.
	// Returns db.ErrNotFound when no row exists yet.
	ChannelLastUpdated(ctx context.Context, channelID string) (time.Time, error)
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

func (r *channelRepository) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channel_info (channel_id, title, description, logo_url, view_count, subscriber_count, video_count, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (channel_id) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    logo_url = EXCLUDED.logo_url,
		    view_count = EXCLUDED.view_count,
		    subscriber_count = EXCLUDED.subscriber_count,
		    video_count = EXCLUDED.video_count,
		    last_updated = EXCLUDED.last_updated
	`

	_, err := r.pool.Exec(ctx, query,
		channel.ChannelID,
		channel.Title,
		channel.Description,
		channel.LogoURL,
		channel.ViewCount,
		channel.SubscriberCount,
		channel.VideoCount,
		channel.LastUpdated,
	)
	if err != nil {
		return db.WrapError(err, "upsert channel")
	}

	return nil
}

func (r *channelRepository) GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error) {
	query := `
		SELECT channel_id, title, description, logo_url, view_count, subscriber_count, video_count, last_updated
		FROM channel_info
		WHERE channel_id = $1
	`

	channel := &models.Channel{}
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&channel.ChannelID,
		&channel.Title,
		&channel.Description,
		&channel.LogoURL,
		&channel.ViewCount,
		&channel.SubscriberCount,
		&channel.VideoCount,
		&channel.LastUpdated,
	)
	if err != nil {
		return nil, db.WrapError(err, "get channel by id")
	}

	return channel, nil
}

func (r *channelRepository) ChannelLastUpdated(ctx context.Context, channelID string) (time.Time, error) {
	query := `SELECT last_updated FROM channel_info WHERE channel_id = $1`

	var lastUpdated time.Time
	err := r.pool.QueryRow(ctx, query, channelID).Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, db.WrapError(err, "get channel last updated")
	}

	return lastUpdated, nil
}
