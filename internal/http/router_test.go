package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-songcard-backend/internal/app"
	"github.com/tbourn/go-songcard-backend/internal/config"
	"github.com/tbourn/go-songcard-backend/internal/http/middleware"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

// --- test app helper (pure-Go sqlite, no CGO) ---
func newTestApp(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		APIBasePath:    "/api",
		PublicBaseURL:  "https://songcards.app",
		RateRPS:        100,
		RateBurst:      10,
		IdempotencyTTL: time.Hour,
		RateLimit:      config.RateLimitConfig{Store: config.RateStoreMemory},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := app.Build(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("app.Build: %v", err)
	}
	r := gin.New()
	RegisterRoutes(r, a)
	return r, a
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "198.51.100.23:4321"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const cardBody = `{
	"recipientName": "Sam",
	"personalityTraits": ["funny", "kind"],
	"interests": ["hiking"],
	"relationship": "friend",
	"musicStyle": "upbeat_pop",
	"themeId": "classic",
	"senderName": "Alex"
}`

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestApp(t, nil)

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Features["lyrics"] || health.Features["email"] {
		t.Fatalf("unexpected health: %+v", health)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w = do(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = do(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	r, _ := newTestApp(t, func(c *config.Config) {
		c.CORS.AllowedOrigins = []string{"http://example.com"}
	})

	w := do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_GzipAndSwagger(t *testing.T) {
	r, _ := newTestApp(t, func(c *config.Config) { c.SwaggerEnabled = true })

	w := do(r, http.MethodGet, "/health", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers=%v", w.Header())
	}
	if w = do(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/index.html = %d", w.Code)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	r, a := newTestApp(t, nil)
	sqlDB, err := a.DB.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /health with closed db = %d; want 503", w.Code)
	}
}

type createResp struct {
	Success bool `json:"success"`
	Card    struct {
		ID      string `json:"id"`
		ShareID string `json:"shareId"`
		Status  string `json:"status"`
	} `json:"card"`
}

func TestCards_CreateGetAndReplay(t *testing.T) {
	r, _ := newTestApp(t, nil)

	w := do(r, http.MethodPost, "/api/cards", cardBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/cards = %d body=%s", w.Code, w.Body.String())
	}
	var created createResp
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Success || len(created.Card.ID) != 21 || len(created.Card.ShareID) != 12 || created.Card.Status != "pending" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	w = do(r, http.MethodGet, "/api/cards/"+created.Card.ShareID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET by share id = %d", w.Code)
	}
	var got struct {
		Card struct {
			ID       string `json:"id"`
			Occasion string `json:"occasion"`
		} `json:"card"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Card.ID != created.Card.ID || got.Card.Occasion != "birthday" {
		t.Fatalf("unexpected card: %+v", got.Card)
	}

	// Same key twice: the second call replays the first card.
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "retry-1"}
	first := do(r, http.MethodPost, "/api/cards", cardBody, hdr)
	second := do(r, http.MethodPost, "/api/cards", cardBody, hdr)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("idempotent posts = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get(headerReplayed) != "true" {
		t.Fatalf("expected replay header on second call")
	}
	var a, b createResp
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.Card.ID != b.Card.ID {
		t.Fatalf("replay returned a different card: %s vs %s", a.Card.ID, b.Card.ID)
	}

	if w = do(r, http.MethodGet, "/api/cards/short", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET malformed key = %d; want 404", w.Code)
	}
}

func TestCards_CreateRateLimited(t *testing.T) {
	r, _ := newTestApp(t, nil)

	for i := 0; i < 5; i++ {
		if w := do(r, http.MethodPost, "/api/cards", cardBody, nil); w.Code != http.StatusCreated {
			t.Fatalf("create #%d = %d", i+1, w.Code)
		}
	}
	w := do(r, http.MethodPost, "/api/cards", cardBody, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th create = %d; want 429", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" || w.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("missing rate limit headers: %v", w.Header())
	}
}

func TestGeneration_FeatureUnavailable(t *testing.T) {
	r, _ := newTestApp(t, nil)

	w := do(r, http.MethodPost, "/api/cards", cardBody, nil)
	var created createResp
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	body := fmt.Sprintf(`{"cardId":%q}`, created.Card.ID)
	if w = do(r, http.MethodPost, "/api/generate-lyrics", body, nil); w.Code != http.StatusNotImplemented {
		t.Fatalf("generate-lyrics without key = %d; want 501", w.Code)
	}
	if w = do(r, http.MethodPost, "/api/generate-lyrics", `{"cardId":`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("generate-lyrics bad json = %d; want 400", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
