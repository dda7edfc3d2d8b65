package models

import "time"

// StatSnapshot is one dated, immutable record of channel-level counters.
// At most one snapshot exists per (channel, calendar date); the first write
// of a day wins.
type StatSnapshot struct {
	ID          int64     `db:"id" json:"id"`
	ChannelID   string    `db:"channel_id" json:"channel_id"`
	Date        string    `db:"date" json:"date"` // YYYY-MM-DD
	Views       int64     `db:"views" json:"views"`
	Subscribers int64     `db:"subscribers" json:"subscribers"`
	Videos      int64     `db:"videos" json:"videos"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}

// SnapshotFromChannel builds today's snapshot from the channel's counters.
func SnapshotFromChannel(c *Channel) *StatSnapshot {
	return &StatSnapshot{
		ChannelID:   c.ChannelID,
		Date:        time.Now().UTC().Format("2006-01-02"),
		Views:       c.ViewCount,
		Subscribers: c.SubscriberCount,
		Videos:      c.VideoCount,
		LastUpdated: time.Now().UTC(),
	}
}
