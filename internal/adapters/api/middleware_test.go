package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	middleware := AuthMiddleware("correct-key", "")
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Missing API Key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/zones/create", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Wrong API Key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/zones/create", nil)
		req.Header.Set(apiKeyHeader, "wrong-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Correct API Key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/zones/create", nil)
		req.Header.Set(apiKeyHeader, "correct-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
	})
}

func TestAuthMiddleware_RequiresSignatureWhenSecretConfigured(t *testing.T) {
	middleware := AuthMiddleware("correct-key", "shared-secret")
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	body := []byte(`{"id":1,"name":"example.com"}`)

	t.Run("Missing Signature", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/zones/update", bytes.NewReader(body))
		req.Header.Set(apiKeyHeader, "correct-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Valid Signature", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte("shared-secret"))
		mac.Write(body)
		sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

		req := httptest.NewRequest("POST", "/zones/update", bytes.NewReader(body))
		req.Header.Set(apiKeyHeader, "correct-key")
		req.Header.Set(hubSignatureHeader, sig)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("Tampered Body Invalidates Signature", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte("shared-secret"))
		mac.Write(body)
		sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

		req := httptest.NewRequest("POST", "/zones/update", bytes.NewReader([]byte(`{"id":1,"name":"other.com"}`)))
		req.Header.Set(apiKeyHeader, "correct-key")
		req.Header.Set(hubSignatureHeader, sig)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newRateLimiter()
	middleware := RateLimitMiddleware(limiter, "zones", limitRule{perMinute: 1})
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest("POST", "/zones/create", nil)
	req1.RemoteAddr = "10.0.0.1:5555"
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req1)
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr1.Code)
	}

	req2 := httptest.NewRequest("POST", "/zones/create", nil)
	req2.RemoteAddr = "10.0.0.1:5555"
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusTooManyRequests {
		t.Errorf("expected second request to be rate limited, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("expected X-RateLimit-Limit header to be set, got %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
}
