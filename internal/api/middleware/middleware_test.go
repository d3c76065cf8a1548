package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"http://localhost:4200/", " https://stocks.example.com ", ""})

	assert.True(t, p.Allows("http://localhost:4200"))
	assert.True(t, p.Allows("https://stocks.example.com"))
	assert.False(t, p.Allows("http://evil.example"))
	assert.False(t, p.Allows(""))

	wildcard := NewOriginPolicy([]string{"*"})
	assert.True(t, wildcard.Allows("http://evil.example"))
}

func TestOriginPolicy_CheckRequest(t *testing.T) {
	p := NewOriginPolicy([]string{"http://localhost:4200"})

	req := httptest.NewRequest(http.MethodGet, "/notificationHub", nil)
	assert.True(t, p.CheckRequest(req), "non-browser clients send no Origin")

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, p.CheckRequest(req))
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, validRequestID("abc-123"))
	assert.False(t, validRequestID(""))
	assert.False(t, validRequestID("has space"))
	assert.False(t, validRequestID("line\nbreak"))
	assert.False(t, validRequestID(strings.Repeat("x", maxRequestIDLength+1)))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "client-id-1", rec.Body.String())
	assert.Equal(t, "client-id-1", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id", rec.Body.String())
	assert.Len(t, rec.Body.String(), 36)
}

func TestLoggedPath_RedactsAccessToken(t *testing.T) {
	u, err := url.Parse("/notificationHub?access_token=secret.jwt.value&x=1")
	require.NoError(t, err)

	got := loggedPath(u)
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "access_token=REDACTED")
	assert.Contains(t, got, "x=1")

	u, err = url.Parse("/api/stock")
	require.NoError(t, err)
	assert.Equal(t, "/api/stock", loggedPath(u))
}

func TestLogging_RouteAndStockCode(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), Logging(LoggingConfig{AccessLogger: &logger, SkipRoutes: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/stock/:code", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stock/TSC", nil))
	line := buf.String()
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"route":"/api/stock/:code"`)
	assert.Contains(t, line, `"stock_code":"TSC"`)
	assert.Contains(t, line, `"status":404`)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), RequestID())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

type stubParser map[string]string

func (p stubParser) Parse(token string) (string, error) {
	if subject, ok := p[token]; ok {
		return subject, nil
	}
	return "", assert.AnError
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(Auth(stubParser{"good": "alice"}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSubject(c)) })

	tests := []struct {
		name    string
		header  string
		target  string
		status  int
		subject string
	}{
		{"missing", "", "/", http.StatusUnauthorized, ""},
		{"bearer", "Bearer good", "/", http.StatusOK, "alice"},
		{"query param", "", "/?access_token=good", http.StatusOK, "alice"},
		{"invalid", "Bearer bad", "/", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", "/", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.subject != "" {
				assert.Equal(t, tt.subject, rec.Body.String())
			}
		})
	}
}
