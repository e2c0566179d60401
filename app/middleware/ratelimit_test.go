package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-academy/app/middleware"
)

func TestNewRateLimiter_InvalidFormat(t *testing.T) {
	if _, err := middleware.NewRateLimiter("ten-per-minute"); err == nil {
		t.Fatalf("expected error for malformed rate")
	}
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	l, err := middleware.NewRateLimiter("2-M")
	if err != nil {
		t.Fatalf("failed to build limiter: %v", err)
	}

	e := echo.New()
	e.Use(middleware.RateLimit(l))
	e.GET("/", okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", codes[2])
	}
}

func TestRateLimit_KeysByClientIP(t *testing.T) {
	l, err := middleware.NewRateLimiter("1-M")
	if err != nil {
		t.Fatalf("failed to build limiter: %v", err)
	}

	e := echo.New()
	e.Use(middleware.RateLimit(l))
	e.GET("/", okHandler)

	for _, addr := range []string{"203.0.113.7:1", "203.0.113.8:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected %s to pass, got %d", addr, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "1" {
			t.Fatalf("expected limit header, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	}
}
