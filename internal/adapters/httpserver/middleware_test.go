package httpserver

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	want := []string{"outer", "inner", "handler"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.allow("ip-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("ip-1") {
		t.Error("4th request should be rate-limited")
	}
	if !rl.allow("ip-2") {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := newRateLimiter(1, 50*time.Millisecond)
	rl.allow("ip")
	if rl.allow("ip") {
		t.Error("should be limited inside window")
	}
	time.Sleep(80 * time.Millisecond)
	if !rl.allow("ip") {
		t.Error("should be allowed after window expiry")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status %d, want 429", rec.Code)
	}
}

func TestPublicRateLimitOnlyNamedPaths(t *testing.T) {
	h := PublicRateLimit(map[string]int{"/cart/checkout": 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.168.1.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if send("/cart/checkout") != http.StatusOK {
		t.Fatal("first checkout should pass")
	}
	if send("/cart/checkout") != http.StatusTooManyRequests {
		t.Error("second checkout should be limited")
	}
	for i := 0; i < 5; i++ {
		if send("/cart") != http.StatusOK {
			t.Fatal("unlisted path must not be limited")
		}
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"x-forwarded-for single", "10.0.0.1", "192.168.1.1:1234", "10.0.0.1"},
		{"x-forwarded-for multiple", "10.0.0.1, 172.16.0.1", "192.168.1.1:1234", "10.0.0.1"},
		{"remote addr", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr no port", "", "192.168.1.1", "192.168.1.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := clientIP(req); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestIDSetAndPreserved(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("request id = %q, want the inbound one", got)
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", rec.Code)
	}
}

func TestGzipWhenAccepted(t *testing.T) {
	h := Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello hello hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatal("response not gzipped")
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(zr)
	if string(body) != "hello hello hello" {
		t.Errorf("body = %q", body)
	}

	// no Accept-Encoding means plain body
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("gzipped without Accept-Encoding")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	s := &Server{adminSecret: []byte("secret"), adminAllowed: map[string]struct{}{"ops@example.com": {}}}
	tok, _, err := s.issueAdminToken("ops@example.com", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	email, err := s.verifyAdminToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if email != "ops@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestAdminTokenRejections(t *testing.T) {
	s := &Server{adminSecret: []byte("secret"), adminAllowed: map[string]struct{}{"ops@example.com": {}}}
	expired, _, _ := s.issueAdminToken("ops@example.com", -time.Minute)
	valid, _, _ := s.issueAdminToken("ops@example.com", time.Minute)
	other := &Server{adminSecret: []byte("other"), adminAllowed: s.adminAllowed}
	foreign, _, _ := other.issueAdminToken("ops@example.com", time.Minute)
	disallowed, _, _ := s.issueAdminToken("intruder@example.com", time.Minute)

	cases := []struct {
		name string
		tok  string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"not allowed", disallowed},
		{"garbage", "a.b"},
		{"tampered", valid + "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.verifyAdminToken(tc.tok); err == nil {
				t.Error("token accepted")
			}
		})
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") {
		t.Error("equal strings rejected")
	}
	if secureCompare("abc", "abd") || secureCompare("abc", "abcd") {
		t.Error("unequal strings accepted")
	}
}
