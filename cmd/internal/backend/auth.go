package backend

import (
	"context"
	"net/http"
)

// Credentials is the login body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for session cookies. A 401 here means bad
// credentials and is returned as is; it never triggers a session refresh.
func (a *API) Login(ctx context.Context, creds Credentials) error {
	return a.sendJSON(ctx, http.MethodPost, "/auth/login", creds, nil)
}

// LogoutResult reports whether the backend acknowledged the logout.
// The local session is cleared either way.
type LogoutResult struct {
	Success bool
	Err     error
}

// Logout ends the session on the backend, best effort, and always clears it locally.
func (a *API) Logout(ctx context.Context) LogoutResult {
	err := a.sendJSON(ctx, http.MethodPost, "/auth/logout", struct{}{}, nil)
	if a.session != nil {
		a.session.Clear()
	}
	if err != nil {
		a.log.Warn("auth.logout.fail", "err", err)
		return LogoutResult{Err: err}
	}
	a.log.Info("auth.logout.ok")
	return LogoutResult{Success: true}
}
