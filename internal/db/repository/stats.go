package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
)

// StatsRepository defines aggregate queries over the video table for the
// dashboard's chart endpoints.
type StatsRepository interface {
	// Years returns the distinct publish years, newest first.
	Years(ctx context.Context, channelID string) ([]string, error)

	// MonthlyStats returns per-month aggregates keyed by YYYY-MM.
	MonthlyStats(ctx context.Context, channelID string) (map[string]*PeriodStats, error)

	// YearlyStats returns per-year aggregates keyed by YYYY.
	YearlyStats(ctx context.Context, channelID string) (map[string]*PeriodStats, error)
}

// PeriodStats aggregates a calendar period's video counters.
type PeriodStats struct {
	ViewCount      int64   `json:"view_count"`
	LikeCount      int64   `json:"like_count"`
	CommentCount   int64   `json:"comment_count"`
	EngagementRate float64 `json:"engagement_rate"`
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Years(ctx context.Context, channelID string) ([]string, error) {
	query := `
		SELECT DISTINCT to_char(published_at, 'YYYY') AS year
		FROM videos
		WHERE channel_id = $1
		ORDER BY year DESC
	`

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, db.WrapError(err, "list years")
	}
	defer rows.Close()

	var years []string
	for rows.Next() {
		var year string
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}

	return years, nil
}

func (r *statsRepository) MonthlyStats(ctx context.Context, channelID string) (map[string]*PeriodStats, error) {
	return r.periodStats(ctx, channelID, "YYYY-MM")
}

func (r *statsRepository) YearlyStats(ctx context.Context, channelID string) (map[string]*PeriodStats, error) {
	return r.periodStats(ctx, channelID, "YYYY")
}

func (r *statsRepository) periodStats(ctx context.Context, channelID, format string) (map[string]*PeriodStats, error) {
	query := fmt.Sprintf(`
		SELECT
			to_char(published_at, '%s') AS period,
			SUM(view_count),
			SUM(like_count),
			SUM(comment_count),
			AVG(engagement_rate)
		FROM videos
		WHERE channel_id = $1
		GROUP BY period
		ORDER BY period
	`, format)

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, db.WrapError(err, "aggregate period stats")
	}
	defer rows.Close()

	result := make(map[string]*PeriodStats)
	for rows.Next() {
		var period string
		stats := &PeriodStats{}
		err := rows.Scan(&period, &stats.ViewCount, &stats.LikeCount, &stats.CommentCount, &stats.EngagementRate)
		if err != nil {
			return nil, fmt.Errorf("scan period stats: %w", err)
		}
		result[period] = stats
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period stats: %w", err)
	}

	return result, nil
}
