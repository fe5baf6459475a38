// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It never logs
// bodies. Secret-bearing headers are masked and bot tokens or e-mail
// addresses that leak into paths or query strings are scrubbed.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds header names to the built-in mask list
// (Authorization, Cookie, Set-Cookie, X-Telegram-Bot-Api-Secret-Token).
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// Telegram bot tokens look like 123456789:AA...; the id part alone is harmless.
	botTokenRE = regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{20,}`)
	emailRE    = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Secret-looking query parameters keep their name and lose their value.
	secretParamRE = regexp.MustCompile(`(?i)\b(token|secret|key|api_key|access_token)=[^&]*`)
)

// redact scrubs s. Tokens go first so that their digits are not half-eaten by
// later patterns.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = botTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	s = secretParamRE.ReplaceAllString(s, "${1}=[REDACTED]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

// RedactingLogger logs one line per request at info, warn (4xx) or error
// (5xx) and installs a request-scoped logger for LoggerFrom.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		strings.ToLower(HeaderTelegramSecret): {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = redact(c.Request.URL.Path)
		}
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		reqLog := log.With().
			Str("request_id", asString(c.Value(requestIDKey))).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &reqLog)

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = reqLog.Error()
		case status >= 400:
			ev = reqLog.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("query", redact(c.Request.URL.RawQuery)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
