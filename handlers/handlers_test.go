package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mashup/services"
	"mashup/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJobQueue satisfies services.JobQueue without running pipelines.
type stubJobQueue struct {
	jobs map[string]*types.MashupJob
}

func newStubJobQueue() *stubJobQueue {
	return &stubJobQueue{jobs: map[string]*types.MashupJob{}}
}

func (q *stubJobQueue) Start() {}

func (q *stubJobQueue) AddJob(req types.MashupRequest) *types.MashupJob {
	job := &types.MashupJob{
		ID:          "job-1",
		Status:      types.JobStatusQueued,
		Query:       req.Query,
		SourceCount: req.Count,
		Duration:    req.Duration,
		Email:       req.Email,
		CreatedAt:   time.Now(),
	}
	q.jobs[job.ID] = job
	return job
}

func (q *stubJobQueue) GetJob(id string) (*types.MashupJob, bool) {
	job, ok := q.jobs[id]
	return job, ok
}

func (q *stubJobQueue) GetAllJobs() []*types.MashupJob {
	jobs := make([]*types.MashupJob, 0, len(q.jobs))
	for _, j := range q.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

func (q *stubJobQueue) CancelJob(id string) bool {
	job, ok := q.jobs[id]
	if !ok || job.Status != types.JobStatusQueued {
		return false
	}
	job.Status = types.JobStatusCancelled
	return true
}

// stubResolver returns canned results.
type stubResolver struct {
	videos []types.Video
	err    error
}

func (r *stubResolver) Resolve(ctx context.Context, query string, max int) ([]types.Video, error) {
	return r.videos, r.err
}

func newTestRouter(queue services.JobQueue, resolver services.Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	mashupHandler := NewMashupHandler(queue, nil)
	searchHandler := NewSearchHandler(resolver)

	api := r.Group("/api")
	api.GET("/search", searchHandler.Search)
	api.POST("/mashups", mashupHandler.Create)
	api.GET("/mashups", mashupHandler.GetAllJobs)
	api.GET("/mashups/:jobId", mashupHandler.GetJob)
	api.DELETE("/mashups/:jobId", mashupHandler.CancelJob)
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func validRequest() map[string]any {
	return map[string]any{
		"query":    "some artist",
		"count":    12,
		"duration": 25,
		"email":    "user@example.com",
	}
}

func TestCreateMashupValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m map[string]any)
		expected int
	}{
		{"valid request", func(m map[string]any) {}, http.StatusCreated},
		{"missing query", func(m map[string]any) { delete(m, "query") }, http.StatusBadRequest},
		{"count below minimum", func(m map[string]any) { m["count"] = 5 }, http.StatusBadRequest},
		{"count above maximum", func(m map[string]any) { m["count"] = 500 }, http.StatusBadRequest},
		{"duration below minimum", func(m map[string]any) { m["duration"] = 10 }, http.StatusBadRequest},
		{"malformed email", func(m map[string]any) { m["email"] = "not-an-email" }, http.StatusBadRequest},
		{"missing email", func(m map[string]any) { delete(m, "email") }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newStubJobQueue(), &stubResolver{})

			body := validRequest()
			tt.mutate(body)
			w, response := doJSON(t, router, http.MethodPost, "/api/mashups", body)

			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusBadRequest {
				assert.Contains(t, response, "error")
			} else {
				assert.Contains(t, response, "job")
			}
		})
	}
}

func TestJobLifecycleEndpoints(t *testing.T) {
	queue := newStubJobQueue()
	router := newTestRouter(queue, &stubResolver{})

	w, response := doJSON(t, router, http.MethodPost, "/api/mashups", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	job := response["job"].(map[string]any)
	jobID := job["id"].(string)
	assert.Equal(t, "some artist", job["query"])
	assert.Equal(t, string(types.JobStatusQueued), job["status"])

	w, response = doJSON(t, router, http.MethodGet, "/api/mashups/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response, "job")

	w, _ = doJSON(t, router, http.MethodGet, "/api/mashups/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, response = doJSON(t, router, http.MethodGet, "/api/mashups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, response["total"])

	w, _ = doJSON(t, router, http.MethodDelete, "/api/mashups/"+jobID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Cancelled jobs cannot be cancelled again
	w, _ = doJSON(t, router, http.MethodDelete, "/api/mashups/"+jobID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	resolver := &stubResolver{videos: []types.Video{
		{Title: "Song A", URL: "https://youtube.test/a"},
		{Title: "Song B", URL: "https://youtube.test/b"},
	}}
	router := newTestRouter(newStubJobQueue(), resolver)

	w, response := doJSON(t, router, http.MethodGet, "/api/search?q=artist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "artist", response["query"])
	assert.Len(t, response["results"], 2)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(newStubJobQueue(), &stubResolver{})

	w, response := doJSON(t, router, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, response, "error")
}

func TestSearchRejectsBadMax(t *testing.T) {
	router := newTestRouter(newStubJobQueue(), &stubResolver{})

	w, _ := doJSON(t, router, http.MethodGet, "/api/search?q=x&max=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/api/search?q=x&max=999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchResolverFailure(t *testing.T) {
	router := newTestRouter(newStubJobQueue(), &stubResolver{err: errors.New("quota exceeded")})

	w, response := doJSON(t, router, http.MethodGet, "/api/search?q=artist", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, response, "error")
}
