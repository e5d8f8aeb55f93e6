package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")
	token := g.Token("session-1")

	if token == "" {
		t.Fatal("Token() returned empty token")
	}
	if !g.Valid("session-1", token) {
		t.Error("Valid() rejected its own token")
	}
	if g.Valid("session-2", token) {
		t.Error("Valid() accepted a token for another session")
	}
	if g.Valid("", "") {
		t.Error("Valid() accepted an empty binding")
	}
	if NewCSRFGenerator("other").Valid("session-1", token) {
		t.Error("Valid() accepted a token signed with another secret")
	}
}

func TestEnsureSeed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()
	seed := EnsureSeed(w, r)
	if seed == "" || len(w.Result().Cookies()) != 1 {
		t.Fatalf("EnsureSeed() = %q, cookies %v", seed, w.Result().Cookies())
	}

	r2 := httptest.NewRequest(http.MethodGet, "/login", nil)
	r2.AddCookie(&http.Cookie{Name: CSRFSeedCookie, Value: "existing"})
	w2 := httptest.NewRecorder()
	if got := EnsureSeed(w2, r2); got != "existing" {
		t.Errorf("EnsureSeed() = %q, want existing seed", got)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("EnsureSeed() should not reset an existing seed")
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request within the window should be refused")
	}
	if !rl.Allow("b") {
		t.Error("other clients have their own window")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("request in a new window should be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.2"}, "10.0.0.1:5555", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "10.0.0.1:5555", "5.6.7.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSecureRequest(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsSecureRequest(plain) {
		t.Error("plain HTTP request reported as secure")
	}

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if !IsSecureRequest(proxied) {
		t.Error("X-Forwarded-Proto https not detected")
	}

	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	if !IsSecureRequest(direct) {
		t.Error("TLS request not detected")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !CheckPassword(hash, "password123") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
