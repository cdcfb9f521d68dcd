package backend

import (
	"context"
	"net/http"
)

// App is a client application games are published to.
type App struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// AppInput is the create/update form of an app.
type AppInput struct {
	Name  string
	Image *Upload
}

func (in AppInput) fields() []formField {
	return []formField{{name: "name", value: in.Name}}
}

// ListApps returns one page of apps.
func (a *API) ListApps(ctx context.Context, page Page) (Paginated[App], error) {
	var out Paginated[App]
	err := a.getJSON(ctx, "/apps", page.Values(), &out)
	return out, err
}

// CreateApp creates an app with an optional image.
func (a *API) CreateApp(ctx context.Context, in AppInput) (App, error) {
	var out App
	err := a.doMultipart(ctx, http.MethodPost, "/apps", in.fields(), in.Image, &out)
	return out, err
}

// UpdateApp replaces an app's name and, when given, its image.
func (a *API) UpdateApp(ctx context.Context, id string, in AppInput) (App, error) {
	var out App
	err := a.doMultipart(ctx, http.MethodPatch, resourcePath("/apps", id), in.fields(), in.Image, &out)
	return out, err
}

// DeleteApp removes an app.
func (a *API) DeleteApp(ctx context.Context, id string) error {
	return a.delete(ctx, resourcePath("/apps", id))
}
