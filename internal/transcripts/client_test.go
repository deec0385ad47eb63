package transcripts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/internal/pipeline"
)

func TestFetchReturnsSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcripts/abc123", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		_, _ = w.Write([]byte(`{
			"video_id": "abc123",
			"language": "en",
			"segments": [
				{"text": "hello", "start": 0.0, "duration": 5.0},
				{"text": "world", "start": 5.0, "duration": 2.0}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "en", nil)
	segments, language, err := c.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "en", language)
	require.Len(t, segments, 2)
	assert.Equal(t, "hello", segments[0].Text)
	assert.Equal(t, 5.0, segments[1].Start)
}

func TestFetchNotFoundIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "en", nil)
	_, _, err := c.Fetch(context.Background(), "abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrTranscriptUnavailable))
}

func TestFetchEmptySegmentsIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"video_id": "abc123", "segments": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "en", nil)
	_, _, err := c.Fetch(context.Background(), "abc123")
	assert.True(t, errors.Is(err, pipeline.ErrTranscriptUnavailable))
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "en", nil)
	_, _, err := c.Fetch(context.Background(), "abc123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, pipeline.ErrTranscriptUnavailable))
}
