package backend

import (
	"context"
	"net/http"
	"strings"
)

// Game is a game published to one or more apps.
type Game struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	AppIDs   []string `json:"appIds"`
	AppNames []string `json:"appNames"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// GameQuery filters the game list.
type GameQuery struct {
	Page
	AppID string
}

// GameInput is the create/update form of a game.
type GameInput struct {
	Name    string
	AppIDs  []string
	Version string
	Image   *Upload
}

func (in GameInput) fields() []formField {
	fields := []formField{{name: "name", value: in.Name}}
	for _, id := range in.AppIDs {
		fields = append(fields, formField{name: "appIds[]", value: id})
	}
	if v := strings.TrimSpace(in.Version); v != "" {
		fields = append(fields, formField{name: "version", value: v})
	}
	return fields
}

// ListGames returns one page of games, optionally limited to one app.
func (a *API) ListGames(ctx context.Context, q GameQuery) (Paginated[Game], error) {
	v := q.Page.Values()
	if id := strings.TrimSpace(q.AppID); id != "" {
		v.Set("appId", id)
	}
	var out Paginated[Game]
	err := a.getJSON(ctx, "/games", v, &out)
	return out, err
}

// GetGame returns a single game.
func (a *API) GetGame(ctx context.Context, id string) (Game, error) {
	var out Game
	err := a.getJSON(ctx, resourcePath("/games", id), nil, &out)
	return out, err
}

// CreateGame creates a game.
func (a *API) CreateGame(ctx context.Context, in GameInput) (Game, error) {
	var out Game
	err := a.doMultipart(ctx, http.MethodPost, "/games", in.fields(), in.Image, &out)
	return out, err
}

// UpdateGame replaces a game's fields and, when given, its image.
func (a *API) UpdateGame(ctx context.Context, id string, in GameInput) (Game, error) {
	var out Game
	err := a.doMultipart(ctx, http.MethodPatch, resourcePath("/games", id), in.fields(), in.Image, &out)
	return out, err
}

// DeleteGame removes a game.
func (a *API) DeleteGame(ctx context.Context, id string) error {
	return a.delete(ctx, resourcePath("/games", id))
}
