package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/db"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/db/models"
)

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// UpsertVideoBatch writes every video in one transaction, overwriting all
	// mutable fields of rows that already exist. Engagement rate is recomputed
	// from the counters before each write. A failure rolls back the whole batch.
	UpsertVideoBatch(ctx context.Context, videos []*models.Video) error

	// InsertVideoBatchIfAbsent writes every video in one transaction but skips
	// ids that already exist; stored rows are never modified.
	InsertVideoBatchIfAbsent(ctx context.Context, videos []*models.Video) (int, error)

	// LatestPublishedAt returns the newest published_at among the channel's
	// stored videos, or the zero time when none exist.
	LatestPublishedAt(ctx context.Context, channelID string) (time.Time, error)

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)

	// ListVideos retrieves a page of videos with sorting and optional
	// year/month filters. Returns the page and the total row count.
	ListVideos(ctx context.Context, channelID string, filters *VideoFilters) ([]*models.Video, int, error)

	// HighlightVideos returns the latest, most liked, and most commented
	// videos. Entries are nil when the channel has no videos.
	HighlightVideos(ctx context.Context, channelID string) (*Highlights, error)

	// TopVideosByViews returns the channel's most viewed videos published at
	// or after the given time.
	TopVideosByViews(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.Video, error)

	// TopVideosInRange returns the channel's most viewed videos published in
	// the half-open interval [start, end).
	TopVideosInRange(ctx context.Context, channelID string, start, end time.Time, limit int) ([]*models.Video, error)
}

// VideoFilters contains paging, sorting, and date filter options for listing videos.
type VideoFilters struct {
	Page          int
	Limit         int
	Sort          string
	SortDirection string
	Year          string // YYYY
	Month         string // YYYY-MM
}

// Highlights groups the dashboard's highlighted videos.
type Highlights struct {
	Latest        *models.Video `json:"latest"`
	MostLiked     *models.Video `json:"mostLiked"`
	MostCommented *models.Video `json:"mostCommented"`
}

// Sortable columns for ListVideos; anything else falls back to published_at.
var validSortColumns = map[string]bool{
	"published_at":    true,
	"last_updated":    true,
	"view_count":      true,
	"like_count":      true,
	"comment_count":   true,
	"engagement_rate": true,
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `video_id, channel_id, title, description, thumbnail_url, published_at, view_count, like_count, comment_count, duration, engagement_rate, last_updated`

func (r *videoRepository) UpsertVideoBatch(ctx context.Context, videos []*models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is safe to call even if committed

	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (video_id) DO UPDATE
		SET channel_id = EXCLUDED.channel_id,
		    title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    published_at = EXCLUDED.published_at,
		    view_count = EXCLUDED.view_count,
		    like_count = EXCLUDED.like_count,
		    comment_count = EXCLUDED.comment_count,
		    duration = EXCLUDED.duration,
		    engagement_rate = EXCLUDED.engagement_rate,
		    last_updated = EXCLUDED.last_updated
	`

	for _, video := range videos {
		video.ComputeEngagementRate()
		if _, err := tx.Exec(ctx, query, videoArgs(video)...); err != nil {
			return db.WrapError(err, "upsert video batch")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *videoRepository) InsertVideoBatchIfAbsent(ctx context.Context, videos []*models.Video) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (video_id) DO NOTHING
	`

	inserted := 0
	for _, video := range videos {
		video.ComputeEngagementRate()
		tag, err := tx.Exec(ctx, query, videoArgs(video)...)
		if err != nil {
			return 0, db.WrapError(err, "insert video batch")
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

func videoArgs(v *models.Video) []interface{} {
	return []interface{}{
		v.VideoID,
		v.ChannelID,
		v.Title,
		v.Description,
		v.ThumbnailURL,
		v.PublishedAt,
		v.ViewCount,
		v.LikeCount,
		v.CommentCount,
		v.Duration,
		v.EngagementRate,
		v.LastUpdated,
	}
}

func (r *videoRepository) LatestPublishedAt(ctx context.Context, channelID string) (time.Time, error) {
	query := `SELECT MAX(published_at) FROM videos WHERE channel_id = $1`

	var latest *time.Time
	err := r.pool.QueryRow(ctx, query, channelID).Scan(&latest)
	if err != nil {
		return time.Time{}, db.WrapError(err, "get latest published at")
	}

	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE video_id = $1`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(videoDests(video)...)
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) ListVideos(ctx context.Context, channelID string, filters *VideoFilters) ([]*models.Video, int, error) {
	sortColumn := "published_at"
	if validSortColumns[filters.Sort] {
		sortColumn = filters.Sort
	}

	direction := "DESC"
	if strings.EqualFold(filters.SortDirection, "ASC") {
		direction = "ASC"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	where := "WHERE channel_id = $1"
	args := []interface{}{channelID}
	argPos := 2

	if filters.Year != "" {
		where += fmt.Sprintf(" AND to_char(published_at, 'YYYY') = $%d", argPos)
		args = append(args, filters.Year)
		argPos++
	}
	if filters.Month != "" {
		where += fmt.Sprintf(" AND to_char(published_at, 'YYYY-MM') = $%d", argPos)
		args = append(args, filters.Month)
		argPos++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM videos %s", where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count videos")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM videos
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, videoColumns, where, sortColumn, direction, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.WrapError(err, "list videos")
	}
	defer rows.Close()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

func (r *videoRepository) HighlightVideos(ctx context.Context, channelID string) (*Highlights, error) {
	highlights := &Highlights{}

	selections := []struct {
		orderBy string
		dest    **models.Video
	}{
		{"published_at DESC", &highlights.Latest},
		{"like_count DESC", &highlights.MostLiked},
		{"comment_count DESC", &highlights.MostCommented},
	}

	for _, sel := range selections {
		query := fmt.Sprintf(`
			SELECT %s
			FROM videos
			WHERE channel_id = $1
			ORDER BY %s
			LIMIT 1
		`, videoColumns, sel.orderBy)

		video := &models.Video{}
		err := r.pool.QueryRow(ctx, query, channelID).Scan(videoDests(video)...)
		if err != nil {
			if db.IsNotFound(db.WrapError(err, "highlight")) {
				continue
			}
			return nil, db.WrapError(err, "get highlight videos")
		}
		*sel.dest = video
	}

	return highlights, nil
}

func (r *videoRepository) TopVideosByViews(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE channel_id = $1 AND published_at >= $2
		ORDER BY view_count DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, channelID, since, limit)
	if err != nil {
		return nil, db.WrapError(err, "get top videos")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) TopVideosInRange(ctx context.Context, channelID string, start, end time.Time, limit int) ([]*models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE channel_id = $1 AND published_at >= $2 AND published_at < $3
		ORDER BY view_count DESC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, channelID, start, end, limit)
	if err != nil {
		return nil, db.WrapError(err, "get top videos in range")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func videoDests(v *models.Video) []interface{} {
	return []interface{}{
		&v.VideoID,
		&v.ChannelID,
		&v.Title,
		&v.Description,
		&v.ThumbnailURL,
		&v.PublishedAt,
		&v.ViewCount,
		&v.LikeCount,
		&v.CommentCount,
		&v.Duration,
		&v.EngagementRate,
		&v.LastUpdated,
	}
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		if err := rows.Scan(videoDests(video)...); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
