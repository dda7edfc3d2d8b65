package models

import "time"

// Channel represents the tracked YouTube channel, one row per channel id.
type Channel struct {
	ChannelID       string    `db:"channel_id" json:"channel_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	LogoURL         string    `db:"logo_url" json:"logo_url"`
	ViewCount       int64     `db:"view_count" json:"view_count"`
	SubscriberCount int64     `db:"subscriber_count" json:"subscriber_count"`
	VideoCount      int64     `db:"video_count" json:"video_count"`
	LastUpdated     time.Time `db:"last_updated" json:"last_updated"`
}

// NewChannel creates a Channel stamped with the current time.
func NewChannel(channelID, title, description, logoURL string, viewCount, subscriberCount, videoCount int64) *Channel {
	return &Channel{
		ChannelID:       channelID,
		Title:           title,
		Description:     description,
		LogoURL:         logoURL,
		ViewCount:       viewCount,
		SubscriberCount: subscriberCount,
		VideoCount:      videoCount,
		LastUpdated:     time.Now().UTC(),
	}
}
