package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"property-listing/internal/cleanup"
	"property-listing/internal/config"
	"property-listing/internal/database"
	"property-listing/internal/logging"
	"property-listing/internal/models"
	"property-listing/internal/ratelimit"
	"property-listing/internal/scheduler"
	"property-listing/internal/search"
	"property-listing/internal/upload"
)

func init() {
	gin.SetMode(gin.TestMode)
	logging.InitWithOutput(io.Discard, "error", "text")
}

type testServer struct {
	router    *gin.Engine
	store     database.PropertyStore
	dataFile  string
	uploadDir string
	indexer   *fakeIndexer
}

type serverOption func(*Dependencies)

func withRateLimiter(rl *ratelimit.RateLimiter) serverOption {
	return func(d *Dependencies) { d.RateLimiter = rl }
}

func withStore(store database.PropertyStore) serverOption {
	return func(d *Dependencies) { d.Store = store }
}

func withIndexer(idx search.Indexer) serverOption {
	return func(d *Dependencies) { d.Indexer = idx }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	root := t.TempDir()
	dataFile := filepath.Join(root, "properties.json")
	uploadDir := filepath.Join(root, "uploads")

	cfg := config.DefaultConfig()
	store := database.NewJSONStore(dataFile, false)
	storage := upload.NewLocalStorage(uploadDir)
	uploader := upload.New(storage, upload.Options{
		Field:        cfg.Uploads.Field,
		MaxFileBytes: cfg.Uploads.MaxFileBytes,
		AllowedTypes: cfg.Uploads.AllowedTypes,
	})
	indexer := &fakeIndexer{}

	deps := Dependencies{
		Store:    store,
		Uploader: uploader,
		Indexer:  indexer,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	deps.Cleanup = cleanup.NewService(deps.Store, storage)
	deps.Scheduler = scheduler.NewScheduler(deps.Cleanup, cfg.Cleanup)

	return &testServer{
		router:    NewRouter(deps),
		store:     deps.Store,
		dataFile:  dataFile,
		uploadDir: uploadDir,
		indexer:   indexer,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) delete(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodDelete, path, nil))
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) postMultipart(t *testing.T, fields map[string]string, files ...filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/properties", body)
	req.Header.Set("Content-Type", contentType)
	return s.do(req)
}

// create posts a property without an image and returns the decoded record
func (s *testServer) create(t *testing.T, name string) models.Property {
	t.Helper()
	w := s.postMultipart(t, map[string]string{"name": name, "price": "100", "location": "X", "sqft": "10"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func (s *testServer) uploadFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(s.uploadDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	msg, _ := body["message"].(string)
	return msg
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []int
	deleted []int
	hits    []models.Property
	err     error
}

func (f *fakeIndexer) IndexProperty(p *models.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.ID)
	return f.err
}

func (f *fakeIndexer) IndexProperties(properties []models.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range properties {
		f.indexed = append(f.indexed, p.ID)
	}
	return f.err
}

func (f *fakeIndexer) DeleteProperty(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndexer) Search(query string, limit int64) ([]models.Property, error) {
	return f.hits, f.err
}
