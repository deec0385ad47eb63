package models

import (
	"sort"
	"strings"
	"time"
)

// TranscriptSegment is one timed caption line.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript stores the full caption track of a video as ordered segments.
type Transcript struct {
	VideoID       string              `json:"video_id"`
	Segments      []TranscriptSegment `json:"segments"`
	Language      string              `json:"language"`
	SchemaVersion int                 `json:"schema_version"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SortSegments orders segments by start time, keeping the original order for
// equal timestamps.
func (t *Transcript) SortSegments() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].Start < t.Segments[j].Start
	})
}

// FullText joins all segment texts with single spaces.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}
