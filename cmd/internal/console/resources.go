package console

import (
	"context"
	"net/http"
	"strings"

	"console/cmd/internal/backend"
	"console/cmd/internal/forms"
)

type listResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func listOf[T any](p backend.Paginated[T]) listResponse[T] {
	items := p.Data
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, TotalPages: p.Pages()}
}

func (h *Handler) viewContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.viewTimeout)
}

func badForm(w http.ResponseWriter, err error) {
	writeDecodeError(w, err, "invalid_form")
}

// Apps.

func (h *Handler) handleListApps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	page, err := h.api.ListApps(ctx, pageFromQuery(r))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(page))
}

func (h *Handler) decodeApp(w http.ResponseWriter, r *http.Request) (backend.AppInput, bool) {
	var form forms.App
	image, err := decodeForm(w, r, &form, func(get func(string) []string) {
		form.Name = first(get("name"))
	})
	if err != nil {
		badForm(w, err)
		return backend.AppInput{}, false
	}
	if !validate(w, form) {
		return backend.AppInput{}, false
	}
	return form.Input(image), true
}

func (h *Handler) handleCreateApp(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeApp(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	app, err := h.api.CreateApp(ctx, in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.app.created", "app_id", app.ID)
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleUpdateApp(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeApp(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	app, err := h.api.UpdateApp(ctx, r.PathValue("id"), in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	if err := h.api.DeleteApp(ctx, r.PathValue("id")); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.app.deleted", "app_id", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// Games.

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	q := backend.GameQuery{Page: pageFromQuery(r), AppID: strings.TrimSpace(r.URL.Query().Get("appId"))}
	page, err := h.api.ListGames(ctx, q)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(page))
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	game, err := h.api.GetGame(ctx, r.PathValue("id"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) decodeGame(w http.ResponseWriter, r *http.Request) (backend.GameInput, bool) {
	var form forms.Game
	image, err := decodeForm(w, r, &form, func(get func(string) []string) {
		form.Name = first(get("name"))
		form.Version = first(get("version"))
		form.AppIDs = get("appIds")
	})
	if err != nil {
		badForm(w, err)
		return backend.GameInput{}, false
	}
	if !validate(w, form) {
		return backend.GameInput{}, false
	}
	return form.Input(image), true
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGame(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	game, err := h.api.CreateGame(ctx, in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.game.created", "game_id", game.ID)
	writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGame(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	game, err := h.api.UpdateGame(ctx, r.PathValue("id"), in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	if err := h.api.DeleteGame(ctx, r.PathValue("id")); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.game.deleted", "game_id", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// Patch notes.

func (h *Handler) handleListPatchNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	page, err := h.api.ListPatchNotes(ctx, pageFromQuery(r))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(page))
}

func (h *Handler) decodePatchNote(w http.ResponseWriter, r *http.Request) (backend.PatchNoteInput, bool) {
	var form forms.PatchNote
	if err := decodeJSON(w, r, 1<<20, &form); err != nil {
		badForm(w, err)
		return backend.PatchNoteInput{}, false
	}
	if !validate(w, form) {
		return backend.PatchNoteInput{}, false
	}
	return form.Input(), true
}

func (h *Handler) handleCreatePatchNote(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePatchNote(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	note, err := h.api.CreatePatchNote(ctx, in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) handleUpdatePatchNote(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePatchNote(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	note, err := h.api.UpdatePatchNote(ctx, r.PathValue("id"), in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) handleDeletePatchNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	if err := h.api.DeletePatchNote(ctx, r.PathValue("id")); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Users.

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.viewContext(r)
	defer cancel()

	page, err := h.api.ListUsers(ctx, pageFromQuery(r))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(page))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var form forms.CreateUser
	if err := decodeJSON(w, r, 64<<10, &form); err != nil {
		badForm(w, err)
		return
	}
	if !validate(w, form) {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	user, err := h.api.CreateUser(ctx, form.Input())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.user.created", "user_id", user.ID, "role", form.Role)
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var form forms.UserRole
	if err := decodeJSON(w, r, 64<<10, &form); err != nil {
		badForm(w, err)
		return
	}
	if !validate(w, form) {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	id := r.PathValue("id")
	if err := h.api.UpdateUserRole(ctx, id, form.Role); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.log.Info("console.user.role", "user_id", id, "role", form.Role)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "role": form.Role})
}

// Settings.

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	appID, gameID := strings.TrimSpace(q.Get("appId")), strings.TrimSpace(q.Get("gameId"))
	if appID == "" || gameID == "" {
		writeInvalid(w, map[string]string{"appId": "select an app", "gameId": "select a game"})
		return
	}

	ctx, cancel := h.viewContext(r)
	defer cancel()

	settings, err := h.api.ListSettings(ctx, appID, gameID)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if settings == nil {
		settings = []backend.Setting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": settings})
}

func (h *Handler) decodeSetting(w http.ResponseWriter, r *http.Request) (backend.SettingInput, bool) {
	var form forms.Setting
	if err := decodeJSON(w, r, 64<<10, &form); err != nil {
		badForm(w, err)
		return backend.SettingInput{}, false
	}
	if !validate(w, form) {
		return backend.SettingInput{}, false
	}
	return form.Input(), true
}

func (h *Handler) handleCreateSetting(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeSetting(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	s, err := h.api.CreateSetting(ctx, in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeSetting(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.viewContext(r)
	defer cancel()

	s, err := h.api.UpdateSetting(ctx, r.PathValue("id"), in)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
