package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grocerly/groupbuy/internal/http/response"
	"github.com/grocerly/groupbuy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name             string
		origin           string
		allowed          []string
		allowCredentials bool
		want             string
	}{
		{"wildcard without credentials", "https://a.example", []string{"*"}, false, "*"},
		{"wildcard with credentials echoes origin", "https://a.example", []string{"*"}, true, "https://a.example"},
		{"exact match", "https://a.example", []string{"https://a.example"}, true, "https://a.example"},
		{"no match", "https://evil.example", []string{"https://a.example"}, true, ""},
		{"empty origin non-wildcard", "", []string{"https://a.example"}, false, ""},
		{"no allowed origins", "https://a.example", nil, false, ""},
	}
	for _, tc := range cases {
		got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.allowCredentials)
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"pong": true})
	})

	// Generated when absent.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id header")
	}

	// Echoed when supplied.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestCustomerJWTAuthMiddleware(t *testing.T) {
	const secret = "unit-test-secret-key-0123456789abcdef"

	r := gin.New()
	r.Use(CustomerJWTAuthMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		response.Success(c, gin.H{"customer_id": c.GetString("customer_id")})
	})

	// Missing header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %d", resp.StatusCode)
	}

	// Garbage token.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected unauthorized code for bad token, got %d", resp.StatusCode)
	}

	// Valid token sets the customer identity.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.CustomerJWTClaims{
		CustomerID: "cust-1",
		Name:       "Asha",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("expected success, got %d (%s)", resp.StatusCode, resp.Msg)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["customer_id"] != "cust-1" {
		t.Fatalf("expected customer id in payload, got %+v", resp.Data)
	}
}

func TestCustomerJWTAuthMiddlewareRejectsExpired(t *testing.T) {
	const secret = "unit-test-secret-key-0123456789abcdef"

	r := gin.New()
	r.Use(CustomerJWTAuthMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		response.Success(c, nil)
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.CustomerJWTClaims{
		CustomerID: "cust-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected unauthorized code for expired token, got %d", resp.StatusCode)
	}
}

func TestCronTokenMiddleware(t *testing.T) {
	newRouter := func(token string) *gin.Engine {
		r := gin.New()
		r.Use(CronTokenMiddleware(token))
		r.POST("/sweep", func(c *gin.Context) {
			response.Success(c, gin.H{"ok": true})
		})
		return r
	}

	// Unset token disables the endpoint entirely.
	w := httptest.NewRecorder()
	newRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sweep", nil))
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeForbidden {
		t.Fatalf("expected forbidden when token unset, got %d", resp.StatusCode)
	}

	r := newRouter("cron-secret")

	// Wrong token.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sweep", nil)
	req.Header.Set("X-Cron-Token", "wrong")
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeForbidden {
		t.Fatalf("expected forbidden for wrong token, got %d", resp.StatusCode)
	}

	// Valid token passes.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sweep", nil)
	req.Header.Set("X-Cron-Token", "cron-secret")
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeOK {
		t.Fatalf("expected success for valid token, got %d (%s)", resp.StatusCode, resp.Msg)
	}
}
