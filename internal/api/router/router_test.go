package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/api/handler"
	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/provider"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/database"
)

const secret = "router-test-secret"

type echoText struct{}

func (echoText) Generate(ctx context.Context, req provider.TextRequest) (string, error) {
	return "generated: " + req.Prompt, nil
}

type staticImages struct{}

func (staticImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return []byte("png"), nil
}

type memoryHost struct{ n int }

func (h *memoryHost) Upload(ctx context.Context, r io.Reader, opts provider.UploadOptions) (*provider.HostedImage, error) {
	h.n++
	id := fmt.Sprintf("%s/%d", opts.Folder, h.n)
	return &provider.HostedImage{PublicID: id, SecureURL: "https://img.test/" + id}, nil
}

func (h *memoryHost) TransformURL(publicID, transformation string) (string, error) {
	return "https://img.test/" + transformation + "/" + publicID, nil
}

type noPDF struct{}

func (noPDF) ExtractText(ctx context.Context, data []byte) (string, error) {
	return "", provider.ErrNoText
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 3000, Mode: "test", AllowOrigins: []string{"http://localhost:5173"}, MaxUploadBytes: 12 << 20},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true, LogLevel: "silent"},
		Auth:     config.AuthConfig{Secret: secret, PlansClaim: "plans"},
		Usage:    config.UsageConfig{Backend: "database", FreeLimit: 10},
		Feed:     config.FeedConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond},
		Timeouts: config.TimeoutConfig{
			Ledger: time.Second, Storage: time.Second, TextGen: time.Second,
			ImageGen: time.Second, Upload: time.Second, PDFExtract: time.Second,
		},
		Swagger: config.SwaggerConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	verifier, err := auth.NewVerifier(cfg.Auth)
	require.NoError(t, err)

	ledger := repository.NewDBUsageLedger(db)
	creations := service.NewCreationService(repository.NewCreationRepository(db), cfg.Timeouts.Storage,
		service.FeedRetry{MaxAttempts: cfg.Feed.MaxAttempts, InitialBackoff: cfg.Feed.InitialBackoff})
	generation := service.NewGenerationService(creations, ledger, service.Providers{
		Text:   echoText{},
		Images: staticImages{},
		Host:   &memoryHost{},
		PDF:    noPDF{},
	}, cfg.Timeouts, cfg.Usage.FreeLimit)

	return Setup(Deps{
		Config:   cfg,
		Handler:  handler.New(creations, generation, nil),
		Verifier: verifier,
		Gate:     service.NewUsageGate(ledger, cfg.Timeouts.Ledger),
	})
}

func token(t *testing.T, sub string, plans ...string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "exp": time.Now().Add(time.Hour).Unix()}
	if len(plans) > 0 {
		claims["plans"] = plans
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func call(t *testing.T, h http.Handler, method, path, tok, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "Server is Live", w.Body.String())

	code, body := call(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/user/toggle-like-creation")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/user/get-published-creations", "/api/user/get-user-creations"} {
		code, body := call(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, false, body["success"])
	}
	code, _ := call(t, srv, http.MethodPost, "/api/ai/generate-blog-title", "garbage", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestFreeTierLimitEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, "free-user")

	for i := 0; i < 10; i++ {
		code, body := call(t, srv, http.MethodPost, "/api/ai/generate-blog-title", tok, `{"prompt":"go tips"}`)
		require.Equal(t, http.StatusOK, code, "call %d: %v", i+1, body)
	}
	code, body := call(t, srv, http.MethodPost, "/api/ai/generate-blog-title", tok, `{"prompt":"go tips"}`)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "Limit Reached Upgrade to continue.", body["message"])

	code, body = call(t, srv, http.MethodGet, "/api/user/get-user-creations", tok, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, body["count"])

	code, body = call(t, srv, http.MethodPost, "/api/ai/generate-image", tok, `{"prompt":"fox"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "This feature is only available for premium subscriptions.", body["message"])
}

func TestPublishAndLikeEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	owner := token(t, "owner", "premium")

	code, body := call(t, srv, http.MethodPost, "/api/ai/generate-image", owner, `{"prompt":"fox","publish":true}`)
	require.Equal(t, http.StatusOK, code, body)
	code, _ = call(t, srv, http.MethodPost, "/api/ai/generate-image", owner, `{"prompt":"private fox"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, srv, http.MethodGet, "/api/user/get-published-creations", token(t, "viewer"), "")
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, body["count"])
	item := body["creations"].([]any)[0].(map[string]any)
	assert.Equal(t, "fox", item["prompt"])
	assert.Equal(t, "Anonymous User", item["creator_username"])
	assert.Equal(t, []any{}, item["likes"])
	id := item["id"].(string)

	like := fmt.Sprintf(`{"id":%q}`, id)
	code, body = call(t, srv, http.MethodPost, "/api/user/toggle-like-creation", token(t, "alice"), like)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Creation Liked", body["message"])
	code, body = call(t, srv, http.MethodPost, "/api/user/toggle-like-creation", token(t, "bob"), like)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["likesCount"])
	code, body = call(t, srv, http.MethodPost, "/api/user/toggle-like-creation", token(t, "alice"), like)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Creation Unliked", body["message"])
	assert.Equal(t, false, body["hasLiked"])
	assert.Equal(t, []any{"bob"}, body["likes"])

	code, body = call(t, srv, http.MethodPost, "/api/user/toggle-like-creation", token(t, "alice"), `{"id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Creation not found", body["message"])
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)
	call(t, srv, http.MethodGet, "/health", "", "")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "creation_studio_http_requests_total")
}
