package models

import "time"

// Video is a YouTube video discovered by the channel monitor.
type Video struct {
	VideoID       string     `json:"video_id"`
	Title         string     `json:"title"`
	ChannelID     string     `json:"channel_id"`
	ChannelTitle  string     `json:"channel_title"`
	PublishedAt   time.Time  `json:"published_at"`
	Description   string     `json:"description"`
	ThumbnailURL  string     `json:"thumbnail_url"`
	Processed     bool       `json:"processed"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	SchemaVersion int        `json:"schema_version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// WatchURL returns the public YouTube URL for the video.
func (v *Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}
