package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/pkg/queue"
)

type memStore struct {
	videos map[string]*models.Video
}

func (m *memStore) Get(_ context.Context, id string) (*models.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Upsert(_ context.Context, v *models.Video) error {
	m.videos[v.VideoID] = v
	return nil
}

type memQueue struct {
	enqueued []string
}

func (m *memQueue) Enqueue(_ context.Context, stage queue.Stage, videoID string) error {
	if stage != queue.StageExtract {
		panic("monitor must enqueue extract only")
	}
	m.enqueued = append(m.enqueued, videoID)
	return nil
}

const searchBody = `{
	"items": [
		{
			"id": {"videoId": "abc123"},
			"snippet": {
				"title": "Building Pipelines",
				"description": "A talk",
				"channelId": "UCx",
				"channelTitle": "Eng Channel",
				"publishedAt": "2026-08-27T10:00:00Z",
				"thumbnails": {"high": {"url": "https://i.ytimg.com/vi/abc123/hq.jpg"}}
			}
		}
	]
}`

func TestCheckOnceQueuesNewVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "UCx", r.URL.Query().Get("channelId"))
		assert.Equal(t, "date", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	st := &memStore{videos: map[string]*models.Video{}}
	q := &memQueue{}
	m := NewMonitor("key", "UCx", srv.URL, time.Hour, st, q, nil)

	n, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"abc123"}, q.enqueued)

	v := st.videos["abc123"]
	require.NotNil(t, v)
	assert.Equal(t, "Building Pipelines", v.Title)
	assert.Equal(t, "Eng Channel", v.ChannelTitle)
}

func TestCheckOnceSkipsKnownVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	st := &memStore{videos: map[string]*models.Video{}}
	q := &memQueue{}
	m := NewMonitor("key", "UCx", srv.URL, time.Hour, st, q, nil)

	_, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	n, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "a video already stored must not re-enter the pipeline")
	assert.Len(t, q.enqueued, 1)
}

func TestCheckOnceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	m := NewMonitor("key", "UCx", srv.URL, time.Hour,
		&memStore{videos: map[string]*models.Video{}}, &memQueue{}, nil)

	_, err := m.CheckOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
