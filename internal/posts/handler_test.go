package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/internal/middleware"
	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/internal/store"
)

type fakeStore struct {
	rows map[string]*models.Post
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.Post, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, status models.PostStatus, _ int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.rows {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) Upsert(_ context.Context, p *models.Post) error {
	cp := *p
	f.rows[p.VideoID] = &cp
	return nil
}

type fakePublisher struct {
	url string
	err error
}

func (f *fakePublisher) Publish(context.Context, *models.Post) (string, error) {
	return f.url, f.err
}

func setup(st *fakeStore, pub *fakePublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.CtxEmail, "reviewer@example.com")
		c.Set(middleware.CtxRole, "reviewer")
	})
	NewHandler(st, pub, nil).RegisterRoutes(r.Group("/api"))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func draftPost() *models.Post {
	return &models.Post{
		VideoID: "abc123",
		Title:   "Why queues matter",
		Content: "Queues let stages fail independently.",
		Status:  models.StatusDraft,
	}
}

func TestGetPost(t *testing.T) {
	st := &fakeStore{rows: map[string]*models.Post{"abc123": draftPost()}}
	r := setup(st, &fakePublisher{})

	w := do(r, http.MethodGet, "/api/posts/abc123", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/posts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostsRejectsUnknownStatus(t *testing.T) {
	st := &fakeStore{rows: map[string]*models.Post{}}
	r := setup(st, &fakePublisher{})

	w := do(r, http.MethodGet, "/api/posts?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewMarksReviewedWithEditorIdentity(t *testing.T) {
	st := &fakeStore{rows: map[string]*models.Post{"abc123": draftPost()}}
	r := setup(st, &fakePublisher{})

	w := do(r, http.MethodPut, "/api/posts/abc123",
		map[string]string{"content": "Edited by a human."})
	require.Equal(t, http.StatusOK, w.Code)

	saved := st.rows["abc123"]
	assert.Equal(t, models.StatusReviewed, saved.Status)
	assert.Equal(t, "Edited by a human.", saved.Content)
	assert.Equal(t, "reviewer@example.com", saved.ReviewedBy)
	require.NotNil(t, saved.ReviewedAt)
}

func TestReviewPublishedPostConflicts(t *testing.T) {
	p := draftPost()
	p.Status = models.StatusPublished
	st := &fakeStore{rows: map[string]*models.Post{"abc123": p}}
	r := setup(st, &fakePublisher{})

	w := do(r, http.MethodPut, "/api/posts/abc123", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPublishReviewedPost(t *testing.T) {
	p := draftPost()
	p.Status = models.StatusReviewed
	st := &fakeStore{rows: map[string]*models.Post{"abc123": p}}
	r := setup(st, &fakePublisher{url: "https://www.linkedin.com/feed/update/mock-abc123"})

	w := do(r, http.MethodPost, "/api/posts/abc123/publish", nil)
	require.Equal(t, http.StatusOK, w.Code)

	saved := st.rows["abc123"]
	assert.Equal(t, models.StatusPublished, saved.Status)
	assert.Equal(t, "https://www.linkedin.com/feed/update/mock-abc123", saved.PublishedURL)
	require.NotNil(t, saved.PublishedAt)
}

func TestPublishDraftConflicts(t *testing.T) {
	st := &fakeStore{rows: map[string]*models.Post{"abc123": draftPost()}}
	r := setup(st, &fakePublisher{url: "https://example.com"})

	w := do(r, http.MethodPost, "/api/posts/abc123/publish", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.StatusDraft, st.rows["abc123"].Status)
}

func TestPublishFailureMarksFailed(t *testing.T) {
	p := draftPost()
	p.Status = models.StatusReviewed
	st := &fakeStore{rows: map[string]*models.Post{"abc123": p}}
	r := setup(st, &fakePublisher{err: errors.New("api down")})

	w := do(r, http.MethodPost, "/api/posts/abc123/publish", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, models.StatusFailed, st.rows["abc123"].Status)

	// Failed is terminal: a second publish attempt conflicts.
	w = do(r, http.MethodPost, "/api/posts/abc123/publish", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
