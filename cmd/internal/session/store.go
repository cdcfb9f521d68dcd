package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultAccessCookie  = "AccessToken"
	DefaultRefreshCookie = "RefreshToken"
)

// Session reports which backend credentials are currently held.
type Session struct {
	AccessCookiePresent  bool
	RefreshCookiePresent bool
}

// Config names the cookies the backend issues and the origin they belong to.
type Config struct {
	// BaseURL is the backend origin; the access marker is looked up for this URL.
	BaseURL *url.URL
	// RefreshURL is the refresh endpoint. Backends often scope the refresh
	// cookie to that path, so the refresh marker is looked up here.
	// Defaults to BaseURL.
	RefreshURL *url.URL

	AccessCookie  string
	RefreshCookie string
}

// Store is an http.CookieJar that can be cleared and inspected for session markers.
// It is safe for concurrent use.
type Store struct {
	cfg Config

	mu  sync.RWMutex
	jar *cookiejar.Jar
}

// NewStore builds an empty store for the given backend.
func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.AccessCookie) == "" {
		cfg.AccessCookie = DefaultAccessCookie
	}
	if strings.TrimSpace(cfg.RefreshCookie) == "" {
		cfg.RefreshCookie = DefaultRefreshCookie
	}
	if cfg.BaseURL == nil {
		return nil, ErrConfig
	}
	if cfg.RefreshURL == nil {
		cfg.RefreshURL = cfg.BaseURL
	}

	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// SetCookies implements http.CookieJar.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	return jar.Cookies(u)
}

// AccessMarker returns the access cookie value if one is held.
func (s *Store) AccessMarker() (string, bool) {
	return s.lookup(s.cfg.BaseURL, s.cfg.AccessCookie)
}

// RefreshMarker returns the refresh cookie value if one is held.
func (s *Store) RefreshMarker() (string, bool) {
	return s.lookup(s.cfg.RefreshURL, s.cfg.RefreshCookie)
}

// Snapshot reports marker presence without exposing values.
func (s *Store) Snapshot() Session {
	_, access := s.AccessMarker()
	_, refresh := s.RefreshMarker()
	return Session{AccessCookiePresent: access, RefreshCookiePresent: refresh}
}

// Clear drops every cookie held for every host.
func (s *Store) Clear() {
	jar, err := newJar()
	if err != nil {
		// cookiejar.New only fails on invalid options; ours are static.
		panic(err)
	}
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()
}

func (s *Store) lookup(u *url.URL, name string) (string, bool) {
	for _, c := range s.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
