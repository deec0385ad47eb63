package models

import "time"

// NoKeyPoints is stored as the single key point when the model response
// contained no parseable key-points section.
const NoKeyPoints = "No key points extracted"

// Summary is the AI-generated summary of a video transcript.
type Summary struct {
	VideoID       string    `json:"video_id"`
	SummaryText   string    `json:"summary_text"`
	KeyPoints     []string  `json:"key_points"`
	ModelUsed     string    `json:"model_used"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
}
