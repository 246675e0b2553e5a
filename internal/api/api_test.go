package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/llm"
	"github.com/carvtrainer/carvtrainer/internal/models"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/storage"
	"github.com/carvtrainer/carvtrainer/internal/trainer"
)

// pngBytes carries the PNG signature so content sniffing sees an image.
func pngBytes(tail string) []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, tail...)
}

// fakeVision is a canned model for handler tests.
type fakeVision struct {
	analysis json.RawMessage
	plan     string
	err      error
}

func (f *fakeVision) Analyze(_ context.Context, _ []llm.Image) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeVision) GeneratePlan(_ context.Context, _ json.RawMessage, _ string, _ int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.plan, nil
}

// testEnv sets up a temp library, SQLite DB, service, and router.
// authToken == "" means auth disabled.
func testEnv(t *testing.T, vision llm.Vision, authToken string) http.Handler {
	t.Helper()
	router, _ := testEnvWithLibrary(t, vision, authToken)
	return router
}

func testEnvWithLibrary(t *testing.T, vision llm.Vision, authToken string) (http.Handler, string) {
	t.Helper()

	libraryDir := t.TempDir()
	store, err := storage.NewFS(libraryDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "carvtrainer-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := progress.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := trainer.NewService(vision, db, store, nil, logger)
	router := NewRouter(svc, RouterConfig{
		AuthEnabled: authToken != "",
		Token:       authToken,
	}, nil)
	return router, libraryDir
}

// postImages sends a multipart request with the given files under "images".
func postImages(t *testing.T, router http.Handler, target string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.Copy(part, bytes.NewReader(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyze(t *testing.T) {
	vision := &fakeVision{analysis: json.RawMessage(`{"session_overview":{"ski_iq_range":{"average":121.5}},"biggest_limiter":"edge angle"}`)}
	router := testEnv(t, vision, "")

	w := postImages(t, router, "/analyze", map[string][]byte{
		"run1.png": pngBytes("one"),
		"run2.png": pngBytes("two"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze = %d, body = %s", w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.NumScreenshots != 2 {
		t.Errorf("num_screenshots = %d, want 2", resp.NumScreenshots)
	}
	if resp.SkiIQ != "121.5" {
		t.Errorf("ski_iq = %q, want 121.5", resp.SkiIQ)
	}
	if len(resp.Filenames) != 2 {
		t.Errorf("filenames = %v", resp.Filenames)
	}
	if resp.AnalyzedAt.IsZero() {
		t.Error("analyzed_at missing")
	}
}

func TestAnalyze_NoImages(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	w := postImages(t, router, "/analyze", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("analyze with no images = %d, want 400", w.Code)
	}
}

func TestAnalyze_NotAnImage(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	w := postImages(t, router, "/analyze", map[string][]byte{
		"fake.png": []byte("just some plain text pretending"),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-image content = %d, want 400", w.Code)
	}
}

func TestAnalyze_ModelErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.ErrInvalidAPIKey, http.StatusUnauthorized},
		{apperr.ErrRateLimited, http.StatusTooManyRequests},
		{apperr.ErrBadModelOutput, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := testEnv(t, &fakeVision{err: tc.err}, "")
		w := postImages(t, router, "/analyze", map[string][]byte{"a.png": pngBytes("x")})
		if w.Code != tc.want {
			t.Errorf("err %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestGeneratePlan(t *testing.T) {
	plan := "# Training Plan for Ski:IQ 121\n\n## Immediate Focus\nYour edge angle needs work.\n\n## 3 Key Drills\n\n### Drill 1: Railroad Tracks\n- Execution: roll both skis on edge\n"
	vision := &fakeVision{plan: plan}
	router := testEnv(t, vision, "")

	body, _ := json.Marshal(map[string]any{
		"analysis":        map[string]any{"session_overview": map[string]any{"ski_iq_range": map[string]any{"average": 121}}},
		"num_screenshots": 3,
	})
	req := httptest.NewRequest(http.MethodPost, "/plan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("plan = %d, body = %s", w.Code, w.Body.String())
	}

	var resp PlanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Plan != plan {
		t.Error("plan markdown not echoed")
	}
	if resp.SkiIQ != "121" {
		t.Errorf("ski_iq = %q", resp.SkiIQ)
	}
	if resp.Parsed == nil || resp.Parsed.Title != "Training Plan for Ski:IQ 121" {
		t.Errorf("parsed = %+v", resp.Parsed)
	}
	if len(resp.Parsed.Drills) != 1 || resp.Parsed.Drills[0].Name != "Railroad Tracks" {
		t.Errorf("drills = %+v", resp.Parsed.Drills)
	}
}

func TestGeneratePlan_MissingAnalysis(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	req := httptest.NewRequest(http.MethodPost, "/plan", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("plan without analysis = %d, want 400", w.Code)
	}
}

func TestParsePlan(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")

	body, _ := json.Marshal(map[string]string{
		"plan": "# My Plan\n\n## Progress Checkpoints\n- Week 1: hold a clean carve\n- Week 2: raise edge angle\n",
	})
	req := httptest.NewRequest(http.MethodPost, "/plan/parse", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("parse = %d, body = %s", w.Code, w.Body.String())
	}

	var parsed ParsedPlan
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Title != "My Plan" {
		t.Errorf("title = %q", parsed.Title)
	}
	if len(parsed.Checkpoints) != 2 {
		t.Errorf("checkpoints = %v", parsed.Checkpoints)
	}
}

func TestParsePlan_MissingPlan(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	req := httptest.NewRequest(http.MethodPost, "/plan/parse", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("parse without plan = %d, want 400", w.Code)
	}
}

func TestMetadata(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")

	w := postImages(t, router, "/metadata", map[string][]byte{
		"Screenshot 2024-01-15 at 10.30.00.png": pngBytes("a"),
		"plain.png":                             pngBytes("b"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("metadata = %d, body = %s", w.Code, w.Body.String())
	}

	var resp MetadataResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Metadata) != 2 {
		t.Fatalf("metadata entries = %d, want 2", len(resp.Metadata))
	}
	byName := make(map[string]FileMetadata)
	for _, m := range resp.Metadata {
		byName[m.Filename] = m
	}
	dated := byName["Screenshot 2024-01-15 at 10.30.00.png"]
	if dated.Source != models.SourceFilename || dated.Datetime == nil {
		t.Errorf("dated file metadata = %+v", dated)
	}
	if dated.Datetime != nil && dated.Datetime.Hour() != 10 {
		t.Errorf("hour = %d, want 10", dated.Datetime.Hour())
	}
	plain := byName["plain.png"]
	if plain.Datetime != nil || plain.Source != "" {
		t.Errorf("plain file metadata = %+v", plain)
	}
}

func TestProgressCRUD(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")

	// Create.
	body, _ := json.Marshal(map[string]any{
		"ski_iq":      "118",
		"plan":        "# Plan\n",
		"screenshots": []string{"2024/01/run.png"},
	})
	req := httptest.NewRequest(http.MethodPost, "/progress", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("entry ID not generated")
	}
	if created.Source != models.SourceUpload {
		t.Errorf("source = %q, want upload", created.Source)
	}
	if created.RecordedAt.IsZero() {
		t.Error("recorded_at not defaulted")
	}

	// Get.
	req = httptest.NewRequest(http.MethodGet, "/progress/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	// List.
	req = httptest.NewRequest(http.MethodGet, "/progress?limit=10", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var list EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Entries) != 1 {
		t.Errorf("list = %+v", list)
	}

	// Delete.
	req = httptest.NewRequest(http.MethodDelete, "/progress/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	// Get after delete → 404.
	req = httptest.NewRequest(http.MethodGet, "/progress/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestCreateEntry_Empty(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	req := httptest.NewRequest(http.MethodPost, "/progress", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty entry = %d, want 400", w.Code)
	}
}

func TestDeleteEntry_NotFound(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	req := httptest.NewRequest(http.MethodDelete, "/progress/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestUploadScreenshots(t *testing.T) {
	router, libraryDir := testEnvWithLibrary(t, &fakeVision{}, "")

	w := postImages(t, router, "/screenshots", map[string][]byte{"run.png": pngBytes("content")})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Stored) != 1 {
		t.Fatalf("stored = %+v", resp.Stored)
	}
	stored := resp.Stored[0]
	if stored.Path != filepath.Join("undated", "run.png") {
		t.Errorf("path = %q", stored.Path)
	}

	// File landed in the library.
	if _, err := os.Stat(filepath.Join(libraryDir, stored.Path)); err != nil {
		t.Errorf("file not in library: %v", err)
	}

	// Same content again is skipped.
	w = postImages(t, router, "/screenshots", map[string][]byte{"copy.png": pngBytes("content")})
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate upload = %d, body = %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Stored) != 0 || len(resp.Skipped) != 1 {
		t.Errorf("duplicate result = %+v", resp)
	}

	// List shows one screenshot.
	req := httptest.NewRequest(http.MethodGet, "/screenshots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var list ScreenshotListResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Screenshots) != 1 {
		t.Errorf("screenshots = %+v", list.Screenshots)
	}

	// Delete it.
	req = httptest.NewRequest(http.MethodDelete, "/screenshots/"+stored.Path, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(libraryDir, stored.Path)); !os.IsNotExist(err) {
		t.Error("file still in library after delete")
	}
}

func TestDeleteScreenshot_NotFound(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")
	req := httptest.NewRequest(http.MethodDelete, "/screenshots/nope.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, &fakeVision{}, "")

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// sseRouter creates a router with a stub SSE handler to test auth on /events.
func sseRouter(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()

	libraryDir := t.TempDir()
	store, err := storage.NewFS(libraryDir)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "carvtrainer-sse-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := progress.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := trainer.NewService(&fakeVision{}, db, store, nil, logger)

	// Minimal SSE handler stub — writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, RouterConfig{AuthEnabled: authEnabled, Token: token}, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := sseRouter(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := sseRouter(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
