package backend

import (
	"context"
	"net/http"
)

// PatchNote is a release note attached to a game.
type PatchNote struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Version     *string `json:"version"`
	ReleaseDate string  `json:"releaseDate"`
	GameID      string  `json:"gameId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// PatchNoteInput is the create/update body of a patch note.
type PatchNoteInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Version     string `json:"version,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	AppID       string `json:"appId,omitempty"`
	GameID      string `json:"gameId"`
}

// ListPatchNotes returns one page of patch notes.
func (a *API) ListPatchNotes(ctx context.Context, page Page) (Paginated[PatchNote], error) {
	var out Paginated[PatchNote]
	err := a.getJSON(ctx, "/patch-notes", page.Values(), &out)
	return out, err
}

// CreatePatchNote publishes a patch note.
func (a *API) CreatePatchNote(ctx context.Context, in PatchNoteInput) (PatchNote, error) {
	var out PatchNote
	err := a.sendJSON(ctx, http.MethodPost, "/patch-notes", in, &out)
	return out, err
}

// UpdatePatchNote edits a patch note.
func (a *API) UpdatePatchNote(ctx context.Context, id string, in PatchNoteInput) (PatchNote, error) {
	var out PatchNote
	err := a.sendJSON(ctx, http.MethodPatch, resourcePath("/patch-notes", id), in, &out)
	return out, err
}

// DeletePatchNote removes a patch note.
func (a *API) DeletePatchNote(ctx context.Context, id string) error {
	return a.delete(ctx, resourcePath("/patch-notes", id))
}
