package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supportmatch/internal/utils"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func token(t *testing.T, userID, userType string) string {
	t.Helper()
	tok, err := utils.GenerateAccessToken(userID, userType, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return tok
}

func identityRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID)+"|"+c.GetString(ContextUserType))
	})
	router.GET("/", handlers...)
	return router
}

func do(router http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	router := identityRouter(AuthRequired(testSecret))

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + token(t, "u1", utils.UserTypeSurvivor), http.StatusOK, "u1|survivor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, tt.header)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	router := identityRouter(OptionalAuth(testSecret))

	if rec := do(router, ""); rec.Code != http.StatusOK || rec.Body.String() != "|" {
		t.Errorf("anonymous = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(router, "Bearer "+token(t, "u2", utils.UserTypeSurvivor)); rec.Body.String() != "u2|survivor" {
		t.Errorf("authenticated body = %q", rec.Body.String())
	}
	if rec := do(router, "Bearer broken"); rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", rec.Code)
	}
}

func TestProviderRequired(t *testing.T) {
	router := identityRouter(AuthRequired(testSecret), ProviderRequired())

	if rec := do(router, "Bearer "+token(t, "p1", utils.UserTypeNGO)); rec.Code != http.StatusOK {
		t.Errorf("ngo status = %d, want 200", rec.Code)
	}
	if rec := do(router, "Bearer "+token(t, "p2", utils.UserTypeProfessional)); rec.Code != http.StatusOK {
		t.Errorf("professional status = %d, want 200", rec.Code)
	}
	if rec := do(router, "Bearer "+token(t, "s1", utils.UserTypeSurvivor)); rec.Code != http.StatusForbidden {
		t.Errorf("survivor status = %d, want 403", rec.Code)
	}
}

func TestWebSocketQueryToken(t *testing.T) {
	router := identityRouter(AuthRequired(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/?token="+token(t, "u3", utils.UserTypeSurvivor), nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u3|survivor" {
		t.Errorf("upgrade with query token = %d %q", rec.Code, rec.Body.String())
	}

	// Plain requests must use the header.
	req = httptest.NewRequest(http.MethodGet, "/?token="+token(t, "u3", utils.UserTypeSurvivor), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("query token without upgrade status = %d, want 401", rec.Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), CORSMiddleware([]string{"https://dash.example.org"}), LoggingMiddleware(logger.NewNop()))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://dash.example.org")
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Body.String() != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not propagated: body %q header %q", rec.Body.String(), rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://dash.example.org" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("preflight from unknown origin = %d, allow %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(cache.NewLocalRateLimiter(), 2, logger.NewNop()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}
