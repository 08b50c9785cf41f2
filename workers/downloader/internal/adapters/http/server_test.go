package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	obmocks "vidcatalog/shared/observability/mocks"
	"vidcatalog/shared/retry"
	"vidcatalog/shared/storage/adapters/fs"
	"vidcatalog/workers/downloader/internal/catalog"
	"vidcatalog/workers/downloader/internal/domain"
	"vidcatalog/workers/downloader/internal/extractor"
	"vidcatalog/workers/downloader/internal/registry"
	"vidcatalog/workers/downloader/internal/service"
	"vidcatalog/workers/downloader/internal/usecase"
	"vidcatalog/workers/downloader/mocks"
)

// mockService is a mock implementation of Service
type mockService struct {
	mock.Mock
}

func (m *mockService) Submit(ctx context.Context, url string) (service.SubmitResult, error) {
	args := m.Called(ctx, url)
	result, _ := args.Get(0).(service.SubmitResult)
	return result, args.Error(1)
}

func (m *mockService) QueryStatus(id string) domain.JobStatus {
	args := m.Called(id)
	return args.Get(0).(domain.JobStatus)
}

func (m *mockService) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockService) ListCatalog(ctx context.Context) ([]domain.VideoRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.VideoRecord)
	return records, args.Error(1)
}

func (m *mockService) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockService) Jobs() map[domain.JobState]int {
	args := m.Called()
	jobs, _ := args.Get(0).(map[domain.JobState]int)
	return jobs
}

var sampleRecord = domain.VideoRecord{
	ID:          "abc123",
	Title:       "Go <Concurrency> Patterns",
	Duration:    3661,
	Uploader:    "golang",
	Description: "A talk",
	Filepath:    "downloads/abc123.mp4",
	Filesize:    1536,
	Thumbnail:   "https://i.ytimg.com/vi/abc123/hqdefault.jpg",
}

func newTestAdapter(svc Service, opts Options) http.Handler {
	cfg := config.DefaultHTTPConfig()
	return NewAdapter(svc, &cfg, opts, obmocks.NewNopProvider()).Handler()
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestIndex(t *testing.T) {
	t.Run("renders catalog", func(t *testing.T) {
		svc := new(mockService)
		svc.On("ListCatalog", mock.Anything).Return([]domain.VideoRecord{sampleRecord}, nil)

		rec := serve(newTestAdapter(svc, Options{}), http.MethodGet, "/")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		body := rec.Body.String()
		assert.Contains(t, body, "Go &lt;Concurrency&gt; Patterns")
		assert.Contains(t, body, "1h 1m 1s")
		assert.Contains(t, body, "1.5 KB")
		assert.Contains(t, body, "/downloads/abc123.mp4")
		assert.Contains(t, body, "hqdefault.jpg")
	})

	t.Run("empty catalog", func(t *testing.T) {
		svc := new(mockService)
		svc.On("ListCatalog", mock.Anything).Return([]domain.VideoRecord{}, nil)

		rec := serve(newTestAdapter(svc, Options{}), http.MethodGet, "/")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No videos downloaded yet.")
	})

	t.Run("catalog failure", func(t *testing.T) {
		svc := new(mockService)
		svc.On("ListCatalog", mock.Anything).Return(nil, domain.NewCorruptStoreError(errors.New("unexpected EOF")))

		rec := serve(newTestAdapter(svc, Options{}), http.MethodGet, "/")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "server error: catalog file is not valid JSON: unexpected EOF", decode(t, rec)["message"])
	})
}

func TestListVideos(t *testing.T) {
	svc := new(mockService)
	svc.On("ListCatalog", mock.Anything).Return([]domain.VideoRecord{sampleRecord}, nil)

	rec := serve(newTestAdapter(svc, Options{}), http.MethodGet, "/api/videos")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"videos":[{
		"id":"abc123",
		"title":"Go <Concurrency> Patterns",
		"duration":"1h 1m 1s",
		"filesize":"1.5 KB",
		"thumbnail":"https://i.ytimg.com/vi/abc123/hqdefault.jpg",
		"description":"A talk",
		"uploader":"golang",
		"filepath":"downloads/abc123.mp4",
		"media_url":"/downloads/abc123.mp4"
	}]}`, rec.Body.String())
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name     string
		result   service.SubmitResult
		err      error
		expected string
	}{
		{
			name:     "success",
			result:   service.SubmitResult{JobID: "abc123"},
			expected: `{"status":"success","video_id":"abc123"}`,
		},
		{
			name:     "invalid url",
			err:      domain.ErrInvalidURL,
			expected: `{"status":"error","message":"please enter a valid video link"}`,
		},
		{
			name:     "resolution failure",
			err:      domain.NewResolutionError(errors.New("Video unavailable")),
			expected: `{"status":"error","message":"failed to resolve video: Video unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("Submit", mock.Anything, "https://youtu.be/abc123").Return(tt.result, tt.err)

			rec := serve(newTestAdapter(svc, Options{}), http.MethodPost, "/download?url=https%3A%2F%2Fyoutu.be%2Fabc123")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDownload_MethodNotAllowed(t *testing.T) {
	rec := serve(newTestAdapter(new(mockService), Options{}), http.MethodGet, "/download?url=x")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.JobStatus
		expected string
	}{
		{"unknown", domain.NotFound(), `{"status":"not_found"}`},
		{"starting", domain.Starting(), `{"status":"starting"}`},
		{"downloading", domain.Downloading("50.0%", "2.0MiB/s", "00:10"),
			`{"status":"downloading","percentage":"50.0%","speed":"2.0MiB/s","eta":"00:10"}`},
		{"error", domain.Failed("download failed: boom"), `{"status":"error","message":"download failed: boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("QueryStatus", "abc123").Return(tt.status)

			rec := serve(newTestAdapter(svc, Options{}), http.MethodGet, "/progress/abc123")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
		})
	}
}

func TestDelete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(mockService)
		svc.On("DeleteRecord", mock.Anything, "abc123").Return(nil)

		rec := serve(newTestAdapter(svc, Options{}), http.MethodDelete, "/video/abc123")

		assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	})

	t.Run("io error", func(t *testing.T) {
		svc := new(mockService)
		svc.On("DeleteRecord", mock.Anything, "abc123").Return(domain.NewIOError("failed to delete media file", errors.New("permission denied")))

		rec := serve(newTestAdapter(svc, Options{}), http.MethodDelete, "/video/abc123")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"error","message":"failed to delete media file: permission denied"}`, rec.Body.String())
	})
}

func TestHealth(t *testing.T) {
	opts := Options{Handler: config.HandlerConfig{EnableHealth: true}}

	t.Run("healthy", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Health", mock.Anything).Return(nil)
		svc.On("Jobs").Return(map[domain.JobState]int{domain.StateCompleted: 2})

		rec := serve(newTestAdapter(svc, opts), http.MethodGet, "/health")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy","jobs":{"completed":2}}`, rec.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Health", mock.Anything).Return(errors.New("catalog unavailable"))

		rec := serve(newTestAdapter(svc, opts), http.MethodGet, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unhealthy", decode(t, rec)["status"])
	})

	t.Run("disabled", func(t *testing.T) {
		rec := serve(newTestAdapter(new(mockService), Options{}), http.MethodGet, "/health")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMediaFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123.mp4"), []byte("video-bytes"), 0o644))

	h := newTestAdapter(new(mockService), Options{MediaRoot: dir})

	rec := serve(h, http.MethodGet, "/downloads/abc123.mp4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video-bytes", rec.Body.String())

	rec = serve(h, http.MethodGet, "/downloads/missing.mp4")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAndRequestID(t *testing.T) {
	reg := prometheus.NewRegistry()
	provider := observability.NewProvider(&observability.Config{
		ServiceName: "test",
		LogLevel:    "error",
		LogOutput:   io.Discard,
		Registerer:  reg,
	})

	svc := new(mockService)
	svc.On("QueryStatus", "abc123").Return(domain.NotFound())

	cfg := config.DefaultHTTPConfig()
	h := NewAdapter(svc, &cfg, Options{
		Handler:  config.HandlerConfig{EnableMetrics: true, MetricsPath: "/metrics"},
		Gatherer: reg,
	}, provider).Handler()

	rec := serve(h, http.MethodGet, "/progress/abc123")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_processed_total{status="success",type="GET /progress/{id}"} 1`)
}

// End to end scenarios with the real orchestrator and a mocked extractor
func TestScenarios(t *testing.T) {
	newStack := func(t *testing.T) (http.Handler, *mocks.MockGateway, *service.Orchestrator) {
		dir := t.TempDir()
		media, err := fs.NewStorage(dir, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		require.NoError(t, err)

		gateway := new(mocks.MockGateway)
		orch := service.NewOrchestrator(service.Dependencies{
			Validator: usecase.NewURLValidator(config.DefaultAllowedHosts),
			Gateway:   gateway,
			Registry:  registry.New(),
			Catalog: catalog.NewStore(media, catalog.Options{
				CatalogKey: "videos.json",
				MediaDir:   "downloads",
				MediaExt:   ".mp4",
			}, obmocks.NewNopLogger(), obmocks.NewNopMetrics()),
			Media:   media,
			Logger:  obmocks.NewNopLogger(),
			Metrics: obmocks.NewNopMetrics(),
		}, service.Options{
			MediaDir:       "downloads",
			MediaExt:       ".mp4",
			ResolveTimeout: time.Second,
			Retry:          retry.Policy{MaxAttempts: 1},
		})

		return newTestAdapter(orch, Options{}), gateway, orch
	}

	t.Run("valid link is accepted and pollable before the fetch starts", func(t *testing.T) {
		h, gateway, orch := newStack(t)
		release := make(chan struct{})

		gateway.On("Resolve", mock.Anything, "https://youtu.be/abc123").Return(extractor.Metadata{ID: "abc123", Title: "t"}, nil)
		gateway.On("Fetch", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return(extractor.Metadata{}, errors.New("stopped"))

		rec := serve(h, http.MethodPost, "/download?url=https://youtu.be/abc123")
		assert.JSONEq(t, `{"status":"success","video_id":"abc123"}`, rec.Body.String())

		rec = serve(h, http.MethodGet, "/progress/abc123")
		assert.JSONEq(t, `{"status":"starting"}`, rec.Body.String())

		close(release)
		orch.Wait()
	})

	t.Run("delete with an encoded path id leaves other videos intact", func(t *testing.T) {
		h, gateway, orch := newStack(t)
		var mediaPath string

		meta := extractor.Metadata{ID: "other", Title: "Other"}
		gateway.On("Resolve", mock.Anything, "https://youtu.be/other").Return(meta, nil)
		gateway.On("Fetch", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				req := args.Get(1).(extractor.FetchRequest)
				mediaPath = req.OutputPath
				assert.NoError(t, os.MkdirAll(filepath.Dir(req.OutputPath), 0o755))
				assert.NoError(t, os.WriteFile(req.OutputPath, []byte("media"), 0o644))
			}).
			Return(meta, nil)

		serve(h, http.MethodPost, "/download?url=https://youtu.be/other")
		orch.Wait()
		require.FileExists(t, mediaPath)

		rec := serve(h, http.MethodDelete, "/video/zzz%2F..%2Fother")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = serve(h, http.MethodGet, "/api/videos")
		assert.Contains(t, rec.Body.String(), `"id":"other"`)
		assert.FileExists(t, mediaPath)
	})

	t.Run("foreign link is rejected without a job", func(t *testing.T) {
		h, gateway, _ := newStack(t)

		rec := serve(h, http.MethodPost, "/download?url=https://example.com/x")
		assert.JSONEq(t, `{"status":"error","message":"please enter a valid video link"}`, rec.Body.String())

		rec = serve(h, http.MethodGet, "/progress/x")
		assert.JSONEq(t, `{"status":"not_found"}`, rec.Body.String())

		gateway.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})
}
