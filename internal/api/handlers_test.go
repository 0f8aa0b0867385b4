package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"babylog/internal/models"
	"babylog/internal/tempstore"
	"babylog/internal/worker"
)

type mockJobs struct {
	mu         sync.Mutex
	enqueued   []models.Submission
	enqueueErr error
}

func (m *mockJobs) Enqueue(sub models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, sub)
	return nil
}

func (m *mockJobs) submissions() []models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Submission(nil), m.enqueued...)
}

type mockRelay struct {
	mu    sync.Mutex
	calls [][4]string
	err   error
}

func (m *mockRelay) Submit(ctx context.Context, date, timeOfDay, logType, transcript string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, [4]string{date, timeOfDay, logType, transcript})
	return nil
}

type mockSheet struct {
	data []byte
	err  error
}

func (m *mockSheet) Fetch(ctx context.Context) ([]byte, error) {
	return m.data, m.err
}

func newTestServer(t *testing.T) (*gin.Engine, *tempstore.Store, *mockJobs, *mockRelay, *mockSheet) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := tempstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	jobs := &mockJobs{}
	relay := &mockRelay{}
	sheet := &mockSheet{data: []byte("a,b\n1,2\n")}
	handler := NewHandler(store, jobs, relay, sheet, 20<<20)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, store, jobs, relay, sheet
}

func doMultipartUpload(t *testing.T, router *gin.Engine, fileField, filename string, contents []byte, extra map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(contents); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/log-baby", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}

func tempDirEntries(t *testing.T, store *tempstore.Store) int {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	return len(entries)
}

func TestHealth(t *testing.T) {
	router, _, _, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Baby Log API is Online" {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestLogBabyAcceptsUpload(t *testing.T) {
	router, store, jobs, _, _ := newTestServer(t)

	rec := doMultipartUpload(t, router, "file", "feed.m4a", []byte("audio"), map[string]string{"activity": "Breastfeeding Left"})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "success" || body.Message != "Processing..." {
		t.Fatalf("unexpected ack: %#v", body)
	}

	subs := jobs.submissions()
	if len(subs) != 1 {
		t.Fatalf("expected one enqueued submission, got %d", len(subs))
	}
	if subs[0].Activity != "Breastfeeding Left" {
		t.Fatalf("activity field dropped: %#v", subs[0])
	}
	if subs[0].Date == "" || subs[0].Time == "" {
		t.Fatalf("submission missing timestamp: %#v", subs[0])
	}
	if tempDirEntries(t, store) != 1 {
		t.Fatalf("expected the temp file on disk until the job runs")
	}
	if _, err := os.Stat(subs[0].FilePath); err != nil {
		t.Fatalf("submission points at missing file: %v", err)
	}
}

func TestLogBabyMissingFile(t *testing.T) {
	router, store, jobs, _, _ := newTestServer(t)

	rec := doMultipartUpload(t, router, "", "", nil, map[string]string{"activity": "whatever"})
	assertStatus(t, rec, http.StatusBadRequest)
	if len(jobs.submissions()) != 0 {
		t.Fatalf("job enqueued for invalid upload")
	}
	if tempDirEntries(t, store) != 0 {
		t.Fatalf("temp file created for invalid upload")
	}
}

func TestLogBabyEmptyFilename(t *testing.T) {
	router, store, jobs, _, _ := newTestServer(t)

	rec := doMultipartUpload(t, router, "file", "", []byte("audio"), nil)
	assertStatus(t, rec, http.StatusBadRequest)
	if len(jobs.submissions()) != 0 || tempDirEntries(t, store) != 0 {
		t.Fatalf("upload with empty filename was processed")
	}
}

func TestLogBabyQueueFullRemovesTempFile(t *testing.T) {
	router, store, jobs, _, _ := newTestServer(t)
	jobs.enqueueErr = worker.ErrQueueFull

	rec := doMultipartUpload(t, router, "file", "feed.m4a", []byte("audio"), nil)
	assertStatus(t, rec, http.StatusTooManyRequests)
	if tempDirEntries(t, store) != 0 {
		t.Fatalf("temp file left behind after rejected enqueue")
	}
}

func TestLogButtonVerbatimType(t *testing.T) {
	router, _, _, relayMock, _ := newTestServer(t)

	rec := doJSONRequest(t, router, http.MethodPost, "/log-button", map[string]string{"type": "Nappy Change"})
	assertStatus(t, rec, http.StatusOK)

	relayMock.mu.Lock()
	defer relayMock.mu.Unlock()
	if len(relayMock.calls) != 1 {
		t.Fatalf("expected one relay call, got %d", len(relayMock.calls))
	}
	call := relayMock.calls[0]
	if call[2] != "Nappy Change" {
		t.Fatalf("log_type not carried verbatim: %q", call[2])
	}
	if call[3] != "Manual Button Log" {
		t.Fatalf("missing note did not fall back: %q", call[3])
	}
}

func TestLogButtonWithNote(t *testing.T) {
	router, _, _, relayMock, _ := newTestServer(t)

	rec := doJSONRequest(t, router, http.MethodPost, "/log-button", map[string]string{"type": "Start Burping", "note": "after second bottle"})
	assertStatus(t, rec, http.StatusOK)

	relayMock.mu.Lock()
	defer relayMock.mu.Unlock()
	if relayMock.calls[0][3] != "after second bottle" {
		t.Fatalf("note not carried: %q", relayMock.calls[0][3])
	}
}

func TestLogButtonValidationAndRelayFailure(t *testing.T) {
	router, _, _, relayMock, _ := newTestServer(t)

	rec := doJSONRequest(t, router, http.MethodPost, "/log-button", map[string]string{"note": "no type"})
	assertStatus(t, rec, http.StatusBadRequest)

	relayMock.err = errors.New("form unreachable")
	rec = doJSONRequest(t, router, http.MethodPost, "/log-button", map[string]string{"type": "Nappy Change"})
	assertStatus(t, rec, http.StatusInternalServerError)
}

func TestSheetDataProxy(t *testing.T) {
	router, _, _, _, sheet := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if rec.Body.String() != "a,b\n1,2\n" {
		t.Fatalf("unexpected csv body: %s", rec.Body.String())
	}

	sheet.err = errors.New("sheet unreachable")
	req = httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusInternalServerError)
}
