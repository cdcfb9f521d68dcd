package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"console/cmd/internal/backend/backendtest"
)

func TestRuntimeBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "explicit localhost", in: "127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{name: "bind all v4", in: "0.0.0.0:8080", want: "http://127.0.0.1:8080"},
		{name: "bind all v6", in: "[::]:9090", want: "http://127.0.0.1:9090"},
		{name: "ipv6 host", in: "[2001:db8::1]:9090", want: "http://[2001:db8::1]:9090"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := runtimeBaseURL(tc.in)
			if got != tc.want {
				t.Fatalf("runtimeBaseURL(%q)=%q want=%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWSBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "http://127.0.0.1:8080", want: "ws://127.0.0.1:8080"},
		{in: "https://console.example.com", want: "wss://console.example.com"},
		{in: "127.0.0.1:8080", want: "ws://127.0.0.1:8080"},
	}

	for _, tc := range cases {
		got := wsBaseURL(tc.in)
		if got != tc.want {
			t.Fatalf("wsBaseURL(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{APIBaseURL: "http://backend/api", LogFormat: "auto"}},
		{name: "missing base url", cfg: Config{}, wantErr: true},
		{name: "relative base url", cfg: Config{APIBaseURL: "/api"}, wantErr: true},
		{name: "bad log format", cfg: Config{APIBaseURL: "http://backend/api", LogFormat: "xml"}, wantErr: true},
	}

	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: Validate()=%v wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONSOLE_API_BASE_URL", "https://backend.example.com/api/")
	t.Setenv("CONSOLE_BOTS", "Discord=http://discord:8080/health, Telegram")
	t.Setenv("CONSOLE_REFRESH_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.BaseURL().String(); got != "https://backend.example.com/api" {
		t.Fatalf("BaseURL()=%q", got)
	}
	if len(cfg.Bots) != 2 || cfg.Bots[1] != "Telegram" {
		t.Fatalf("unexpected bots: %v", cfg.Bots)
	}
	if cfg.RefreshTimeout.String() != "3s" || cfg.IdentityRefetch.String() != "5m0s" {
		t.Fatalf("unexpected timeouts: refresh=%s refetch=%s", cfg.RefreshTimeout, cfg.IdentityRefetch)
	}
}

func TestAppServesGatedConsole(t *testing.T) {
	be := backendtest.New()
	defer be.Close()

	cfg := Config{APIBaseURL: be.APIURL(), LogFormat: "json"}
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	hc := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	get := func(path string) (*http.Response, string) {
		t.Helper()
		resp, err := hc.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer func() { _ = resp.Body.Close() }()
		b, _ := io.ReadAll(resp.Body)
		return resp, string(b)
	}

	if resp, _ := get("/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
	if resp, _ := get("/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz before first identity query: %d", resp.StatusCode)
	}
	if resp, body := get("/apps"); resp.StatusCode != http.StatusAccepted || !strings.Contains(body, "loading") {
		t.Fatalf("expected loading placeholder, got %d %s", resp.StatusCode, body)
	}

	a.identity.Refetch(context.Background())

	if resp, _ := get("/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: %d", resp.StatusCode)
	}
	if resp, _ := get("/apps"); resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect to login, got %d", resp.StatusCode)
	}

	body := []byte(`{"username":"` + backendtest.Username + `","password":"` + backendtest.Password + `"}`)
	resp, err := hc.Post(srv.URL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" || resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing middleware headers: %v", resp.Header)
	}

	if resp, body := get("/me"); resp.StatusCode != http.StatusOK || !strings.Contains(body, `"refresh_cookie":true`) {
		t.Fatalf("me: %d %s", resp.StatusCode, body)
	}

	be.ExpireAccess()
	if resp, _ := get("/apps"); resp.StatusCode != http.StatusOK {
		t.Fatalf("apps after login: %d", resp.StatusCode)
	}

	post := func(contentType, origin string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/users", strings.NewReader(`{"username":"mallory"}`))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", contentType)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := hc.Do(req)
		if err != nil {
			t.Fatalf("POST /users: %v", err)
		}
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	if got := post("text/plain", "https://attacker.test"); got != http.StatusForbidden {
		t.Fatalf("cross-origin form post: expected 403, got %d", got)
	}
	if got := post("text/plain", srv.URL); got != http.StatusUnsupportedMediaType {
		t.Fatalf("same-origin text/plain post: expected 415, got %d", got)
	}

	_, metrics := get("/metrics")
	for _, want := range []string{"console_client_requests_total", "console_client_refresh_total", "go_goroutines"} {
		if !strings.Contains(metrics, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
}
