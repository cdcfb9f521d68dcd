package console

import (
	"context"
	"errors"
	"net/http"

	"console/cmd/internal/client"
	"console/cmd/internal/forms"
)

// writeBackendError maps a backend failure to a console response.
// Auth failures also invalidate the cached identity so the gate redirects next time.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		se *client.StatusError
		ne *client.NetworkError
	)

	switch {
	case errors.Is(err, client.ErrSessionInvalid):
		h.identity.Invalidate(err)
		writeError(w, http.StatusUnauthorized, "session_invalid", "session expired, sign in again")
	case errors.Is(err, client.ErrAuthExpired):
		h.identity.Invalidate(err)
		writeError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "backend_timeout", "backend did not answer in time")
	case errors.Is(err, context.Canceled):
		// Operator went away; nothing useful to write.
	case errors.As(err, &se):
		if se.Status >= http.StatusInternalServerError {
			h.log.Error("console.backend.fail", "method", se.Method, "path", se.Path, "status", se.Status, "view", r.URL.Path)
			writeError(w, http.StatusBadGateway, "backend_error", "backend failed")
			return
		}
		writeError(w, se.Status, "backend_rejected", http.StatusText(se.Status))
	case errors.As(err, &ne):
		h.log.Error("console.backend.unreachable", "method", ne.Method, "path", ne.Path, "err", ne.Err)
		writeError(w, http.StatusBadGateway, "backend_unreachable", "backend unreachable")
	default:
		h.log.Error("console.fail", "view", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// validate writes a 422 and returns false when form is invalid.
func validate(w http.ResponseWriter, form interface{ Validate() error }) bool {
	err := form.Validate()
	if err == nil {
		return true
	}
	if fields := forms.FieldErrors(err); fields != nil {
		writeInvalid(w, fields)
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
	return false
}
