package console

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"console/cmd/internal/backend"
)

type dashboard struct {
	User       *backend.User                   `json:"user"`
	Apps       listResponse[backend.App]       `json:"apps"`
	Games      listResponse[backend.Game]      `json:"games"`
	PatchNotes listResponse[backend.PatchNote] `json:"patchNotes"`
}

// handleDashboard loads the first page of every collection concurrently.
// One failing list fails the view.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	var (
		apps  backend.Paginated[backend.App]
		games backend.Paginated[backend.Game]
		notes backend.Paginated[backend.PatchNote]
	)
	page := backend.Page{Page: 1, Limit: backend.DefaultPageLimit}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		apps, err = h.api.ListApps(gctx, page)
		return err
	})
	g.Go(func() (err error) {
		games, err = h.api.ListGames(gctx, backend.GameQuery{Page: page})
		return err
	})
	g.Go(func() (err error) {
		notes, err = h.api.ListPatchNotes(gctx, page)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard{
		User:       h.identity.Snapshot().User,
		Apps:       listOf(apps),
		Games:      listOf(games),
		PatchNotes: listOf(notes),
	})
}
