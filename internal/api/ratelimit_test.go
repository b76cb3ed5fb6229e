package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	r.RemoteAddr = "10.0.0.1:12345"

	if got := GetClientIP(r); got != "203.0.113.5" {
		t.Errorf("GetClientIP = %q, want %q", got, "203.0.113.5")
	}
}

func TestGetClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.9:54321"

	if got := GetClientIP(r); got != "198.51.100.9" {
		t.Errorf("GetClientIP = %q, want %q", got, "198.51.100.9")
	}
}

func TestIsAllowedOriginLocalhostAlwaysAllowed(t *testing.T) {
	if !IsAllowedOrigin(nil, "http://localhost:3000") {
		t.Error("localhost origin should always be allowed")
	}
	if IsAllowedOrigin(nil, "") {
		t.Error("empty origin should be rejected")
	}
}

func TestIsAllowedOriginAllowList(t *testing.T) {
	allowed := []string{"https://example.com"}
	if !IsAllowedOrigin(allowed, "https://example.com") {
		t.Error("exact allow-list match should be accepted")
	}
	if IsAllowedOrigin(allowed, "https://evil.com") {
		t.Error("origin outside the allow-list should be rejected")
	}
}

func TestIPRateLimiterAllowsThenRejects(t *testing.T) {
	rl := NewIPRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request under burst should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("second immediate request should be rejected once the burst is spent")
	}
	stats := rl.GetStats()
	if stats["allowed"] != 1 || stats["rejected"] != 1 {
		t.Errorf("stats = %+v, want allowed=1 rejected=1", stats)
	}
}
