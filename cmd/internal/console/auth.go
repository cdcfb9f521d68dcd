package console

import (
	"context"
	"errors"
	"net/http"

	"console/cmd/internal/client"
	"console/cmd/internal/forms"
)

type loginView struct {
	View   string   `json:"view"`
	Fields []string `json:"fields"`
}

type loginResponse struct {
	User     any    `json:"user"`
	Redirect string `json:"redirect"`
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) handleLoginView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, loginView{View: "login", Fields: []string{"username", "password"}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form forms.Login
	if err := decodeJSON(w, r, 64<<10, &form); err != nil {
		if errors.Is(err, errUnsupportedMediaType) {
			writeDecodeError(w, err, "invalid_json")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	if !validate(w, form) {
		return
	}

	key := clientKey(r)
	if blocked, retry := h.throttle.check(key); blocked {
		h.log.Warn("console.login.throttled", "client", key, "retry_after", retry)
		writeRateLimited(w, retry)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.viewTimeout)
	defer cancel()

	if err := h.api.Login(ctx, form.Credentials()); err != nil {
		if errors.Is(err, client.ErrAuthExpired) {
			h.throttle.fail(key)
			h.log.Info("console.login.rejected", "username", form.Credentials().Username)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "wrong username or password")
			return
		}
		h.writeBackendError(w, r, err)
		return
	}

	snap := h.identity.Refetch(ctx)
	if snap.User == nil {
		err := snap.Err
		if err == nil {
			err = ctx.Err()
		}
		h.writeBackendError(w, r, err)
		return
	}

	h.throttle.reset(key)
	h.log.Info("console.login.ok", "user_id", snap.User.ID)
	writeJSON(w, http.StatusOK, loginResponse{User: snap.User, Redirect: "/"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.viewTimeout)
	defer cancel()

	res := h.api.Logout(ctx)
	h.identity.Forget()

	out := logoutResponse{Success: res.Success}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request) {
	snap := h.identity.Snapshot()
	body := map[string]any{"user": snap.User}
	if h.session != nil {
		m := h.session.Snapshot()
		body["session"] = sessionView{Access: m.AccessCookiePresent, Refresh: m.RefreshCookiePresent}
	}
	writeJSON(w, http.StatusOK, body)
}

type sessionView struct {
	Access  bool `json:"access_cookie"`
	Refresh bool `json:"refresh_cookie"`
}
