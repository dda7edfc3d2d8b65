package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
)

// SnapshotRepository defines operations for the channel stat time series.
type SnapshotRepository interface {
	// InsertSnapshotIfAbsent appends the snapshot unless one already exists
	// for the same (channel, date). Returns true when a row was written;
	// the first snapshot of a day is never overwritten.
	InsertSnapshotIfAbsent(ctx context.Context, snapshot *models.StatSnapshot) (bool, error)

	// ListSnapshots returns the channel's snapshot series ordered by date.
	ListSnapshots(ctx context.Context, channelID string) ([]*models.StatSnapshot, error)
}

type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

func (r *snapshotRepository) InsertSnapshotIfAbsent(ctx context.Context, snapshot *models.StatSnapshot) (bool, error) {
	query := `
		INSERT INTO channel_stats (channel_id, date, views, subscribers, videos, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (channel_id, date) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		snapshot.ChannelID,
		snapshot.Date,
		snapshot.Views,
		snapshot.Subscribers,
		snapshot.Videos,
		snapshot.LastUpdated,
	)
	if err != nil {
		return false, db.WrapError(err, "insert stat snapshot")
	}

	return tag.RowsAffected() > 0, nil
}

func (r *snapshotRepository) ListSnapshots(ctx context.Context, channelID string) ([]*models.StatSnapshot, error) {
	query := `
		SELECT id, channel_id, to_char(date, 'YYYY-MM-DD'), views, subscribers, videos, last_updated
		FROM channel_stats
		WHERE channel_id = $1
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, db.WrapError(err, "list stat snapshots")
	}
	defer rows.Close()

	var snapshots []*models.StatSnapshot
	for rows.Next() {
		s := &models.StatSnapshot{}
		err := rows.Scan(&s.ID, &s.ChannelID, &s.Date, &s.Views, &s.Subscribers, &s.Videos, &s.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan stat snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stat snapshots: %w", err)
	}

	return snapshots, nil
}
