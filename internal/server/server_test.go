package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taanya/pylearn/internal/auth"
	"github.com/taanya/pylearn/internal/embedding"
	"github.com/taanya/pylearn/internal/exercise"
	"github.com/taanya/pylearn/internal/home"
	"github.com/taanya/pylearn/internal/server/endpoints"
	"github.com/taanya/pylearn/internal/store"
	"github.com/taanya/pylearn/internal/svcctx"
)

const (
	testUser     = "taanya"
	testPassword = "correct-horse"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	st := store.New(h, logger)

	authn, err := auth.New(auth.Config{
		Store:    st,
		Secret:   "server-test-secret",
		TokenTTL: time.Hour,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("auth.New() error = %v", err)
	}
	if err := authn.EnsureUser(testUser, testPassword); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	guard := embedding.NewGuard(embedding.GuardConfig{Logger: logger})
	generator := exercise.NewGenerator(exercise.GeneratorConfig{
		Provider:       embedding.NewMockProvider(),
		Guard:          guard,
		Cache:          embedding.NewCache(h.EmbeddingCachePath(), logger),
		Library:        exercise.NewLibrary(exercise.DefaultTemplates()),
		Logger:         logger,
		RetryBaseDelay: time.Millisecond,
	})

	srv, err := New(Config{
		Services: &svcctx.Services{
			Generator:     generator,
			Store:         st,
			Authenticator: authn,
			Logger:        logger,
			Home:          h,
		},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

// doRequest runs a request through the full middleware chain.
func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server) string {
	t.Helper()

	rec := doRequest(t, srv, "POST", "/auth/login", "", endpoints.LoginRequest{
		Username: testUser,
		Password: testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp endpoints.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestHealthWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStatusReportsGenerator(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var status endpoints.StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Generator.Backend != "mock" {
		t.Errorf("Generator.Backend = %q, want %q", status.Generator.Backend, "mock")
	}
	if status.Generator.Templates == 0 {
		t.Error("Generator.Templates = 0, want > 0")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/auth/login", "", endpoints.LoginRequest{
		Username: testUser,
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{"POST", "/exercises/generate"},
		{"GET", "/exercises"},
		{"GET", "/progress"},
		{"GET", "/models/availability"},
		{"GET", "/pdfs"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := doRequest(t, srv, tc.method, tc.path, "", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
			}
		})
	}
}

func TestRejectsGarbageToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/progress", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGenerateSubmitProgressFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Generate an exercise.
	rec := doRequest(t, srv, "POST", "/exercises/generate", token, endpoints.GenerateRequest{
		Topic:      "loops",
		Difficulty: "beginner",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var genResp endpoints.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&genResp); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if genResp.Exercise == nil {
		t.Fatal("generate returned nil exercise")
	}
	if genResp.Exercise.Topic != "loops" {
		t.Errorf("exercise.Topic = %q, want %q", genResp.Exercise.Topic, "loops")
	}
	if genResp.Exercise.Fallback {
		t.Errorf("exercise degraded to fallback with a healthy backend: %s", genResp.Warning)
	}

	// The exercise is stored and retrievable.
	rec = doRequest(t, srv, "GET", "/exercises/"+genResp.Exercise.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get exercise status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, "GET", "/exercises", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list exercises status = %d", rec.Code)
	}

	// Submit a solution.
	rec = doRequest(t, srv, "POST", "/exercises/"+genResp.Exercise.ID+"/submit", token, endpoints.SubmitRequest{
		Code: genResp.Exercise.Solution,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result exercise.ValidationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode validation result: %v", err)
	}

	// The attempt shows up in progress.
	rec = doRequest(t, srv, "GET", "/progress", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var progress store.Progress
	if err := json.NewDecoder(rec.Body).Decode(&progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if len(progress.Attempts) != 1 {
		t.Fatalf("progress has %d attempts, want 1", len(progress.Attempts))
	}
	if progress.Attempts[0].ExerciseID != genResp.Exercise.ID {
		t.Errorf("attempt exercise = %q, want %q", progress.Attempts[0].ExerciseID, genResp.Exercise.ID)
	}
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "POST", "/exercises/generate", token, endpoints.GenerateRequest{
		Topic: "loops",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("generate without difficulty status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetUnknownExercise(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "GET", "/exercises/no-such-id", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAvailabilityHealthyBackend(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "GET", "/models/availability", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp endpoints.AvailabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if !resp.Available {
		t.Errorf("Available = false, want true: %+v", resp)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv := newTestServer(t)
	srv.limiter = NewRateLimiter(1)

	rec := doRequest(t, srv, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, srv, "GET", "/health", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
}

func TestReadyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp endpoints.ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
	if resp.Templates == 0 {
		t.Error("Templates = 0, want > 0")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "GET", "/progress", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress before logout status = %d", rec.Code)
	}

	rec = doRequest(t, srv, "POST", "/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, "GET", "/progress", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("progress after logout status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestDeleteExerciseEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "POST", "/exercises/generate", token, endpoints.GenerateRequest{
		Topic:      "variables",
		Difficulty: "beginner",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var genResp endpoints.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&genResp); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(t, srv, "DELETE", "/exercises/"+genResp.Exercise.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, "GET", "/exercises/"+genResp.Exercise.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doRequest(t, srv, "DELETE", "/exercises/"+genResp.Exercise.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListExercisesFilter(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	for _, req := range []endpoints.GenerateRequest{
		{Topic: "loops", Difficulty: "beginner"},
		{Topic: "variables", Difficulty: "beginner"},
	} {
		rec := doRequest(t, srv, "POST", "/exercises/generate", token, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("generate %s status = %d, body = %s", req.Topic, rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, srv, "GET", "/exercises?topic=loops", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list status = %d", rec.Code)
	}
	var resp endpoints.ListExercisesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	for _, ex := range resp.Exercises {
		if ex.Topic != "loops" {
			t.Errorf("filtered list contains topic %q", ex.Topic)
		}
	}
	if resp.Count == 0 {
		t.Error("filtered list is empty, want the loops exercise")
	}
}

func TestGenerateRandomSource(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "POST", "/exercises/generate", token, endpoints.GenerateRequest{
		Topic:      "loops",
		Difficulty: "beginner",
		Source:     string(exercise.SourceRandomTemplate),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var genResp endpoints.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&genResp); err != nil {
		t.Fatal(err)
	}
	if genResp.Exercise.Source != exercise.SourceRandomTemplate {
		t.Errorf("Source = %q, want %q", genResp.Exercise.Source, exercise.SourceRandomTemplate)
	}

	rec = doRequest(t, srv, "POST", "/exercises/generate", token, endpoints.GenerateRequest{
		Topic:      "loops",
		Difficulty: "beginner",
		Source:     "tarot_cards",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown source status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "GET", "/preferences", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get preferences status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var prefs store.Preferences
	if err := json.NewDecoder(rec.Body).Decode(&prefs); err != nil {
		t.Fatal(err)
	}
	if prefs != *store.DefaultPreferences() {
		t.Errorf("fresh store preferences = %+v, want defaults", prefs)
	}

	prefs.Theme = "light"
	prefs.FontSize = 16
	rec = doRequest(t, srv, "POST", "/preferences/update", token, prefs)
	if rec.Code != http.StatusOK {
		t.Fatalf("update preferences status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, "GET", "/preferences", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get after update status = %d", rec.Code)
	}
	var updated store.Preferences
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated != prefs {
		t.Errorf("stored preferences = %+v, want %+v", updated, prefs)
	}
}

func TestPreferencesValidation(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	t.Run("invalid theme", func(t *testing.T) {
		p := store.DefaultPreferences()
		p.Theme = "solarized"
		rec := doRequest(t, srv, "POST", "/preferences/update", token, p)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("font size out of range", func(t *testing.T) {
		p := store.DefaultPreferences()
		p.FontSize = 64
		rec := doRequest(t, srv, "POST", "/preferences/update", token, p)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestDeleteUnknownDocument(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	rec := doRequest(t, srv, "DELETE", "/pdfs/no-such-doc", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("plain text, not a pdf")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/pdfs/upload", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}
