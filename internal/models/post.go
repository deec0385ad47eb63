package models

import "time"

// PostStatus is the lifecycle state of a drafted post. The set is closed:
// draft -> reviewed -> published, with failed as a terminal branch from
// reviewed when publishing is rejected upstream.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusReviewed  PostStatus = "reviewed"
	StatusPublished PostStatus = "published"
	StatusFailed    PostStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReviewed, StatusPublished, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the status may move to next.
func (s PostStatus) CanTransition(next PostStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusReviewed
	case StatusReviewed:
		return next == StatusPublished || next == StatusFailed
	case StatusPublished, StatusFailed:
		return false
	}
	return false
}

// Post is a LinkedIn-style post drafted from a video summary.
type Post struct {
	VideoID       string     `json:"video_id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Status        PostStatus `json:"status"`
	VideoTitle    string     `json:"video_title"`
	VideoURL      string     `json:"video_url"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	PublishedURL  string     `json:"published_url,omitempty"`
	SchemaVersion int        `json:"schema_version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UpdateContent applies a reviewer's edits to the draft text.
func (p *Post) UpdateContent(title, content string) {
	if title != "" {
		p.Title = title
	}
	if content != "" {
		p.Content = content
	}
	p.UpdatedAt = time.Now().UTC()
}

// MarkReviewed records approval by the named reviewer. A reviewed post may
// be reviewed again (further edits before publishing); published and failed
// posts may not.
func (p *Post) MarkReviewed(reviewer string) bool {
	if p.Status != StatusDraft && p.Status != StatusReviewed {
		return false
	}
	now := time.Now().UTC()
	p.Status = StatusReviewed
	p.ReviewedAt = &now
	p.ReviewedBy = reviewer
	p.UpdatedAt = now
	return true
}

// MarkPublished records a successful publish with the resulting URL.
func (p *Post) MarkPublished(url string) bool {
	if !p.Status.CanTransition(StatusPublished) {
		return false
	}
	now := time.Now().UTC()
	p.Status = StatusPublished
	p.PublishedAt = &now
	p.PublishedURL = url
	p.UpdatedAt = now
	return true
}

// MarkFailed records a rejected publish attempt.
func (p *Post) MarkFailed() bool {
	if !p.Status.CanTransition(StatusFailed) {
		return false
	}
	p.Status = StatusFailed
	p.UpdatedAt = time.Now().UTC()
	return true
}
