package backend

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"console/cmd/internal/client"
)

// Doer is the client surface the API needs.
type Doer interface {
	Do(ctx context.Context, req client.Request) (*client.Response, error)
}

// SessionClearer drops the locally held session.
type SessionClearer interface {
	Clear()
}

// API groups the backend resources behind one client.
type API struct {
	c       Doer
	session SessionClearer
	log     *slog.Logger
}

// New builds an API. session may be nil when logout is never used.
func New(c Doer, session SessionClearer, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{c: c, session: session, log: log}
}

func (a *API) getJSON(ctx context.Context, p string, q url.Values, dst any) error {
	resp, err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: p, Query: q})
	if err != nil {
		return err
	}
	return resp.JSON(dst)
}

func (a *API) sendJSON(ctx context.Context, method, p string, body, dst any) error {
	req, err := client.JSONRequest(method, p, body)
	if err != nil {
		return err
	}
	resp, err := a.c.Do(ctx, req)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return resp.JSON(dst)
}

func (a *API) delete(ctx context.Context, p string) error {
	_, err := a.c.Do(ctx, client.Request{Method: http.MethodDelete, Path: p})
	return err
}

func resourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
