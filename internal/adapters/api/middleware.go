package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
)

const (
	apiKeyHeader       = "x-netbox-pdns-api-key"
	hubSignatureHeader = "x-hub-signature-256"
	legacySigHeader    = "x-signature-256"
)

// AuthMiddleware enforces the api-key (and, when configured, HMAC
// signature) credential check required of every mutating webhook endpoint.
func AuthMiddleware(apiKey, webhookSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(apiKeyHeader)
			if !constantTimeEqual(got, apiKey) {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing api key")
				return
			}

			if webhookSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "Bad Request", "unable to read request body")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			sig := r.Header.Get(hubSignatureHeader)
			if sig == "" {
				sig = r.Header.Get(legacySigHeader)
			}
			if !validSignature(sig, webhookSecret, body) {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validSignature(header, secret string, body []byte) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return constantTimeEqual(header, want)
}

// constantTimeEqual reports whether a and b are equal without leaking their
// content through timing. A length mismatch returns false at once, so the
// length itself is observable in timing; subtle.ConstantTimeCompare also
// returns 0 immediately for inputs of different length.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RateLimitMiddleware rejects requests exceeding the route class's
// per-source-IP budget with 429 and sets the X-RateLimit-* headers.
func RateLimitMiddleware(limiter *rateLimiter, class string, rule limitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := sourceIP(r)
			ok, remaining, resetAt := limiter.allow(class, ip, rule)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rule.perMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))

			if !ok {
				metrics.WebhookRateLimitRejections.WithLabelValues(class).Inc()
				detail := fmt.Sprintf("%d per minute", rule.perMinute)
				writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded", detail)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs each request's method, path, status and latency,
// matching the structured slog style the rest of the engine uses.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "source_ip", sourceIP(r))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSONError(w http.ResponseWriter, status int, errMsg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errMsg, "detail": detail})
}
