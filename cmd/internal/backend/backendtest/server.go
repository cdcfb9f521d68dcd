// Package backendtest runs an in-process admin backend for tests.
//
// It issues access and refresh cookies on login, rotates the access cookie on
// refresh, and serves small in-memory collections for every console resource.
// Counters and switches let tests force access expiry and refresh failures.
package backendtest

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

const (
	AccessCookie  = "AccessToken"
	RefreshCookie = "RefreshToken"

	// RefreshCookiePath scopes the refresh cookie to the auth endpoints.
	RefreshCookiePath = "/api/auth"

	Username = "admin"
	Password = "admin-password"
)

// Server is a fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	access   map[string]bool
	refresh  map[string]bool
	users    []wireUser
	apps     []record
	games    []record
	notes    []record
	settings []record
	seq      int

	RefreshCalls atomic.Int32
	LogoutCalls  atomic.Int32

	// RefreshStatus, when non-zero, is returned by every refresh call.
	RefreshStatus atomic.Int32
	// LogoutStatus, when non-zero, is returned by every logout call.
	LogoutStatus atomic.Int32
}

type record map[string]any

type wireUser struct {
	ID                string  `json:"id"`
	IsBot             bool    `json:"is_bot"`
	FirstName         string  `json:"first_name"`
	LastName          *string `json:"last_name"`
	Username          *string `json:"username"`
	LanguageCode      *string `json:"language_code"`
	IsPremium         *bool   `json:"is_premium"`
	AddedToAttachMenu bool    `json:"added_to_attach_menu"`
	APIKey            string  `json:"apiKey"`
	Role              string  `json:"role"`
}

// New starts a fake backend whose API lives under /api. Callers must Close it.
func New() *Server {
	s := &Server{
		access:  make(map[string]bool),
		refresh: make(map[string]bool),
	}
	s.seed()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/users/me", s.authed(s.handleMe))
	mux.HandleFunc("GET /api/users", s.authed(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.authed(s.handleCreateUser))
	mux.HandleFunc("PATCH /api/users/{id}", s.authed(s.handleUpdateUser))

	s.collection(mux, "apps", &s.apps)
	s.collection(mux, "games", &s.games)
	s.collection(mux, "patch-notes", &s.notes)
	s.collection(mux, "settings", &s.settings)

	s.Server = httptest.NewServer(mux)
	return s
}

// APIURL is the base URL console clients should use.
func (s *Server) APIURL() string { return s.URL + "/api" }

// ExpireAccess invalidates every issued access cookie; refresh cookies stay valid.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	s.access = make(map[string]bool)
	s.mu.Unlock()
}

// RevokeAll invalidates every access and refresh cookie.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.access = make(map[string]bool)
	s.refresh = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Server) seed() {
	faker := gofakeit.New(42)

	admin := Username
	s.users = append(s.users, wireUser{
		ID:        "u-admin",
		FirstName: "Console",
		Username:  &admin,
		APIKey:    faker.UUID(),
		Role:      "ADMIN",
	})
	for i := 0; i < 3; i++ {
		uname := faker.Username()
		s.users = append(s.users, wireUser{
			ID:        "u-" + strconv.Itoa(i+1),
			FirstName: faker.FirstName(),
			Username:  &uname,
			APIKey:    faker.UUID(),
			Role:      "USER",
		})
	}
	for i := 0; i < 2; i++ {
		s.apps = append(s.apps, record{"id": s.nextID("app"), "name": faker.AppName()})
	}
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

// ---- auth ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	if body.Username != Username || body.Password != Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	access, refresh := newToken(), newToken()
	s.mu.Lock()
	s.access[access] = true
	s.refresh[refresh] = true
	s.mu.Unlock()

	setCookie(w, AccessCookie, access, "/")
	setCookie(w, RefreshCookie, refresh, RefreshCookiePath)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.RefreshCalls.Add(1)

	if st := int(s.RefreshStatus.Load()); st != 0 {
		writeError(w, st, "refresh_failed", "refresh rejected")
		return
	}

	c, err := r.Cookie(RefreshCookie)
	s.mu.Lock()
	ok := err == nil && s.refresh[c.Value]
	var access string
	if ok {
		access = newToken()
		s.access[access] = true
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_refresh", "invalid refresh token")
		return
	}
	setCookie(w, AccessCookie, access, "/")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.LogoutCalls.Add(1)

	if st := int(s.LogoutStatus.Load()); st != 0 {
		writeError(w, st, "logout_failed", "logout failed")
		return
	}

	s.mu.Lock()
	if c, err := r.Cookie(AccessCookie); err == nil {
		delete(s.access, c.Value)
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		delete(s.refresh, c.Value)
	}
	s.mu.Unlock()

	expireCookie(w, AccessCookie, "/")
	expireCookie(w, RefreshCookie, RefreshCookiePath)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(AccessCookie)
		s.mu.Lock()
		ok := err == nil && s.access[c.Value]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "access token expired or missing")
			return
		}
		next(w, r)
	}
}

// ---- users ----

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	me := s.users[0]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, me)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := append([]wireUser(nil), s.users...)
	s.mu.Unlock()
	writePage(w, r, users, "pageCount")
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid user")
		return
	}

	s.mu.Lock()
	u := wireUser{ID: s.nextID("u"), FirstName: body.Email, Username: &body.Email, APIKey: newToken(), Role: body.Role}
	s.users = append(s.users, u)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid body")
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = body.Role
			writeJSON(w, http.StatusOK, s.users[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "user not found")
}

// ---- generic collections ----

func (s *Server) collection(mux *http.ServeMux, name string, items *[]record) {
	base := "/api/" + name
	mux.HandleFunc("GET "+base, s.authed(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := filterRecords(*items, r)
		s.mu.Unlock()
		if name == "settings" {
			writeJSON(w, http.StatusOK, out)
			return
		}
		writePage(w, r, out, "totalPages")
	}))
	mux.HandleFunc("GET "+base+"/{id}", s.authed(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := indexOf(*items, r.PathValue("id")); i >= 0 {
			writeJSON(w, http.StatusOK, (*items)[i])
			return
		}
		writeError(w, http.StatusNotFound, "not_found", name+" not found")
	}))
	mux.HandleFunc("POST "+base, s.authed(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := readRecord(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		rec["id"] = s.nextID(strings.TrimSuffix(name, "s"))
		*items = append(*items, rec)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, rec)
	}))
	mux.HandleFunc("PATCH "+base+"/{id}", s.authed(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := readRecord(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		i := indexOf(*items, r.PathValue("id"))
		if i < 0 {
			writeError(w, http.StatusNotFound, "not_found", name+" not found")
			return
		}
		for k, v := range rec {
			(*items)[i][k] = v
		}
		writeJSON(w, http.StatusOK, (*items)[i])
	}))
	mux.HandleFunc("DELETE "+base+"/{id}", s.authed(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := indexOf(*items, r.PathValue("id"))
		if i < 0 {
			writeError(w, http.StatusNotFound, "not_found", name+" not found")
			return
		}
		*items = append((*items)[:i], (*items)[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}))
}

// readRecord accepts JSON and multipart bodies. Multipart "appIds[]" fields become "appIds".
func readRecord(w http.ResponseWriter, r *http.Request) (record, bool) {
	rec := record{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
			return nil, false
		}
		for k, vs := range r.MultipartForm.Value {
			if strings.HasSuffix(k, "[]") {
				rec[strings.TrimSuffix(k, "[]")] = vs
				continue
			}
			rec[k] = vs[0]
		}
		if fh := r.MultipartForm.File["image"]; len(fh) > 0 {
			rec["imageUrl"] = "/uploads/" + fh[0].Filename
		}
		return rec, true
	}
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return nil, false
	}
	return rec, true
}

func filterRecords(items []record, r *http.Request) []record {
	out := make([]record, 0, len(items))
	for _, it := range items {
		if app := r.URL.Query().Get("appId"); app != "" && !matches(it, "appId", "appIds", app) {
			continue
		}
		if game := r.URL.Query().Get("gameId"); game != "" && !matches(it, "gameId", "", game) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(rec record, key, listKey, want string) bool {
	if v, ok := rec[key].(string); ok && v == want {
		return true
	}
	if listKey == "" {
		return false
	}
	switch ids := rec[listKey].(type) {
	case []string:
		for _, id := range ids {
			if id == want {
				return true
			}
		}
	case []any:
		for _, id := range ids {
			if id == want {
				return true
			}
		}
	}
	return false
}

func indexOf(items []record, id string) int {
	for i, it := range items {
		if it["id"] == id {
			return i
		}
	}
	return -1
}

// ---- encoding helpers ----

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, totalField string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	start := min((page-1)*limit, len(items))
	end := min(start+limit, len(items))
	pages := (len(items) + limit - 1) / limit

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     items[start:end],
		"total":    len(items),
		"page":     page,
		"limit":    limit,
		totalField: pages,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func setCookie(w http.ResponseWriter, name, value, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func newToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
