package models

import "time"

// Video represents one video owned by the tracked channel.
type Video struct {
	VideoID        string    `db:"video_id" json:"video_id"`
	ChannelID      string    `db:"channel_id" json:"channel_id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	ThumbnailURL   string    `db:"thumbnail_url" json:"thumbnail_url"`
	PublishedAt    time.Time `db:"published_at" json:"published_at"`
	ViewCount      int64     `db:"view_count" json:"view_count"`
	LikeCount      int64     `db:"like_count" json:"like_count"`
	CommentCount   int64     `db:"comment_count" json:"comment_count"`
	Duration       string    `db:"duration" json:"duration"`
	EngagementRate float64   `db:"engagement_rate" json:"engagement_rate"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// EngagementRate computes (likes + comments) / views * 100. Views of zero
// yields zero rather than a division by zero. Upstream never supplies this
// value; it is always derived at write time.
func EngagementRate(likeCount, commentCount, viewCount int64) float64 {
	if viewCount <= 0 {
		return 0
	}
	return float64(likeCount+commentCount) / float64(viewCount) * 100
}

// ComputeEngagementRate refreshes the stored rate from the current counters.
func (v *Video) ComputeEngagementRate() {
	v.EngagementRate = EngagementRate(v.LikeCount, v.CommentCount, v.ViewCount)
}
