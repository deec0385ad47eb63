package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PostStatus
		allowed  bool
	}{
		{StatusDraft, StatusReviewed, true},
		{StatusDraft, StatusPublished, false},
		{StatusDraft, StatusFailed, false},
		{StatusReviewed, StatusPublished, true},
		{StatusReviewed, StatusFailed, true},
		{StatusReviewed, StatusDraft, false},
		{StatusPublished, StatusReviewed, false},
		{StatusPublished, StatusFailed, false},
		{StatusFailed, StatusReviewed, false},
		{StatusFailed, StatusPublished, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPostLifecycle(t *testing.T) {
	p := &Post{VideoID: "abc123", Status: StatusDraft}

	require.False(t, p.MarkPublished("https://linkedin.com/feed/update/x"),
		"draft cannot be published directly")

	require.True(t, p.MarkReviewed("reviewer@example.com"))
	assert.Equal(t, StatusReviewed, p.Status)
	assert.Equal(t, "reviewer@example.com", p.ReviewedBy)
	require.NotNil(t, p.ReviewedAt)

	require.True(t, p.MarkPublished("https://linkedin.com/feed/update/x"))
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, "https://linkedin.com/feed/update/x", p.PublishedURL)
	require.NotNil(t, p.PublishedAt)

	assert.False(t, p.MarkFailed(), "published is terminal")
	assert.False(t, p.MarkReviewed("other@example.com"))
}

func TestReviewedPostCanBeReviewedAgain(t *testing.T) {
	p := &Post{VideoID: "abc123", Status: StatusDraft}
	require.True(t, p.MarkReviewed("first@example.com"))
	require.True(t, p.MarkReviewed("second@example.com"), "further edits before publishing are allowed")
	assert.Equal(t, "second@example.com", p.ReviewedBy)
}

func TestPostPublishFailure(t *testing.T) {
	p := &Post{VideoID: "abc123", Status: StatusReviewed}

	require.True(t, p.MarkFailed())
	assert.Equal(t, StatusFailed, p.Status)
	assert.False(t, p.MarkPublished("https://example.com"), "failed is terminal")
}

func TestUpdateContentKeepsExistingOnEmpty(t *testing.T) {
	p := &Post{Title: "old title", Content: "old content"}
	p.UpdateContent("", "new content")
	assert.Equal(t, "old title", p.Title)
	assert.Equal(t, "new content", p.Content)
}

func TestTranscriptFullTextAndSort(t *testing.T) {
	tr := &Transcript{Segments: []TranscriptSegment{
		{Text: "world", Start: 5.0, Duration: 2.0},
		{Text: "hello", Start: 0.0, Duration: 5.0},
	}}
	tr.SortSegments()
	assert.Equal(t, "hello world", tr.FullText())
}
