package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(t *testing.T, opt SecurityOptions, prep func(*http.Request), pre gin.HandlerFunc) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	if prep != nil {
		prep(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecurity(t, SecurityOptions{}, nil, nil)
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Errorf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	withRID := func(c *gin.Context) {
		c.Header(requestIDHeader, "rid")
		c.Next()
	}
	h := serveSecurity(t, SecurityOptions{}, nil, withRID)
	if got := h.Get("Access-Control-Expose-Headers"); got != requestIDHeader {
		t.Fatalf("expose = %q", got)
	}

	withExisting := func(c *gin.Context) {
		c.Header(requestIDHeader, "rid")
		c.Header("Access-Control-Expose-Headers", "ETag")
		c.Next()
	}
	h = serveSecurity(t, SecurityOptions{}, nil, withExisting)
	if got := h.Get("Access-Control-Expose-Headers"); got != "ETag, "+requestIDHeader {
		t.Fatalf("expose = %q", got)
	}
}

func TestSecurityHeaders_Optional(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}

	h := serveSecurity(t, opt, func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, nil)
	if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=3600;") {
		t.Fatalf("HSTS = %q", got)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Permissions-Policy") == "" {
		t.Fatalf("optional headers missing: %v", h)
	}

	h = serveSecurity(t, opt, nil, nil)
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	h = serveSecurity(t, SecurityOptions{EnableHSTS: true}, func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "HTTPS")
	}, nil)
	if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=15552000;") {
		t.Fatalf("default HSTS = %q", got)
	}
}
