package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Error("request beyond burst should be denied")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Fatal("first request for key a should be allowed")
	}
	if l.Allow("a") {
		t.Error("second request for key a should be denied")
	}
	if !l.Allow("b") {
		t.Error("first request for key b should be allowed")
	}
}

func TestLimiterReset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("key should be exhausted")
	}

	l.Reset("key")
	if !l.Allow("key") {
		t.Error("key should be allowed after reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "203.0.113.9:54321",
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2"},
			want:       "198.51.100.2",
		},
		{
			name:       "x-forwarded-for chain uses first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:       "198.51.100.2",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "192.0.2.7"},
			want:       "192.0.2.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiterBlocksEmailBeforeIP(t *testing.T) {
	ll := NewLoginLimiter(2, time.Minute)

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "203.0.113.9:1000"

	for i := 0; i < 2; i++ {
		ok, reason := ll.Check(r, "pat@oak.edu")
		if !ok {
			t.Fatalf("attempt %d blocked: %s", i+1, reason)
		}
	}

	ok, _ := ll.Check(r, "pat@oak.edu")
	if ok {
		t.Error("third attempt for same email should be blocked")
	}

	// Different email from the same IP still has allowance left.
	ok, reason := ll.Check(r, "other@oak.edu")
	if !ok {
		t.Errorf("different email should still be allowed: %s", reason)
	}
}

func TestLoginLimiterResetEmail(t *testing.T) {
	ll := NewLoginLimiter(1, time.Minute)

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "203.0.113.9:1000"

	ll.Check(r, "Pat@Oak.edu")
	if ok, _ := ll.Check(r, "pat@oak.edu"); ok {
		t.Fatal("email should be exhausted")
	}

	ll.ResetEmail("PAT@OAK.EDU")

	// Fresh IP so only the email bucket is under test.
	r.RemoteAddr = "203.0.113.10:1000"
	if ok, _ := ll.Check(r, "pat@oak.edu"); !ok {
		t.Error("email should be allowed after reset")
	}
}
