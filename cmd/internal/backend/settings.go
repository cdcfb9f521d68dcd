package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Setting tells a bot executor how to update a game inside one app.
type Setting struct {
	ID            string `json:"id"`
	ExecutorName  string `json:"executorName"`
	UpdateCommand string `json:"updateCommand"`
	GameID        string `json:"gameId"`
	AppID         string `json:"appId"`
}

// SettingInput is the create/update body of a setting.
type SettingInput struct {
	ExecutorName  string `json:"executorName"`
	UpdateCommand string `json:"updateCommand"`
	GameID        string `json:"gameId,omitempty"`
	AppID         string `json:"appId,omitempty"`
}

// ListSettings returns the settings of a game inside an app.
func (a *API) ListSettings(ctx context.Context, appID, gameID string) ([]Setting, error) {
	q := url.Values{}
	if appID != "" {
		q.Set("appId", appID)
	}
	if gameID != "" {
		q.Set("gameId", gameID)
	}
	var out []Setting
	err := a.getJSON(ctx, "/settings", q, &out)
	return out, err
}

// CreateSetting adds a setting.
func (a *API) CreateSetting(ctx context.Context, in SettingInput) (Setting, error) {
	var out Setting
	err := a.sendJSON(ctx, http.MethodPost, "/settings", in, &out)
	return out, err
}

// UpdateSetting edits a setting.
func (a *API) UpdateSetting(ctx context.Context, id string, in SettingInput) (Setting, error) {
	var out Setting
	err := a.sendJSON(ctx, http.MethodPatch, resourcePath("/settings", id), in, &out)
	return out, err
}
