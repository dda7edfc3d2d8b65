// Package validation checks YouTube identifier formats before they reach
// the API or the database.
package validation

import (
	"fmt"
	"regexp"
)

var (
	videoIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	channelIDRegex = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
)

// ValidateChannelID checks the canonical channel id format (UC + 22 chars).
func ValidateChannelID(channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel ID is required")
	}
	if !channelIDRegex.MatchString(channelID) {
		return fmt.Errorf("invalid channel ID format: %s", channelID)
	}
	return nil
}

// ValidateVideoID checks the 11-character video id format.
func ValidateVideoID(videoID string) error {
	if videoID == "" {
		return fmt.Errorf("video ID is required")
	}
	if !videoIDRegex.MatchString(videoID) {
		return fmt.Errorf("invalid video ID format: %s", videoID)
	}
	return nil
}
