// Package forms validates the console's input forms before they reach the backend.
package forms

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"console/cmd/internal/backend"
)

var roleRule = validation.In(backend.RoleAdmin, backend.RoleUser, backend.RoleGuest).Error("must be one of ADMIN, USER, GUEST")

// Login is the login form.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f Login) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required.Error("username must not be empty")),
		validation.Field(&f.Password, validation.Required.Error("password must not be empty")),
	)
}

func (f Login) Credentials() backend.Credentials {
	return backend.Credentials{Username: strings.TrimSpace(f.Username), Password: f.Password}
}

// App is the add/edit app form.
type App struct {
	Name string `json:"name"`
}

func (f App) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required.Error("app name is required"), validation.Length(1, 120)),
	)
}

func (f App) Input(image *backend.Upload) backend.AppInput {
	return backend.AppInput{Name: strings.TrimSpace(f.Name), Image: image}
}

// Game is the add/edit game form.
type Game struct {
	Name    string   `json:"name"`
	AppIDs  []string `json:"appIds"`
	Version string   `json:"version"`
}

func (f Game) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required.Error("game name is required")),
		validation.Field(&f.AppIDs, validation.Required.Error("select at least one app")),
		validation.Field(&f.Version, validation.Length(0, 32)),
	)
}

func (f Game) Input(image *backend.Upload) backend.GameInput {
	return backend.GameInput{Name: strings.TrimSpace(f.Name), AppIDs: f.AppIDs, Version: f.Version, Image: image}
}

// PatchNote is the add/edit patch note form.
type PatchNote struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Version     string `json:"version"`
	ReleaseDate string `json:"releaseDate"`
	AppID       string `json:"appId"`
	GameID      string `json:"gameId"`
}

func (f PatchNote) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("title is required")),
		validation.Field(&f.Content, validation.Required.Error("content is required")),
		validation.Field(&f.ReleaseDate, validation.Date("2006-01-02").Error("must be a date like 2024-01-31")),
		validation.Field(&f.AppID, validation.Required.Error("select an app")),
		validation.Field(&f.GameID, validation.Required.Error("select a game")),
	)
}

func (f PatchNote) Input() backend.PatchNoteInput {
	return backend.PatchNoteInput{
		Title:       strings.TrimSpace(f.Title),
		Content:     f.Content,
		Version:     strings.TrimSpace(f.Version),
		ReleaseDate: f.ReleaseDate,
		AppID:       f.AppID,
		GameID:      f.GameID,
	}
}

// CreateUser is the add user form.
type CreateUser struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Role     backend.Role `json:"role"`
}

func (f CreateUser) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required.Error("email is required"), is.Email.Error("invalid email")),
		validation.Field(&f.Password, validation.Required.Error("password is required"), validation.Length(6, 0).Error("password must be at least 6 characters")),
		validation.Field(&f.Role, validation.Required, roleRule),
	)
}

func (f CreateUser) Input() backend.CreateUserInput {
	return backend.CreateUserInput{Email: strings.TrimSpace(f.Email), Password: f.Password, Role: f.Role}
}

// UserRole is the edit user form.
type UserRole struct {
	Role backend.Role `json:"role"`
}

func (f UserRole) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Role, validation.Required, roleRule),
	)
}

// Setting is the per-game executor settings form.
type Setting struct {
	ExecutorName  string `json:"executorName"`
	UpdateCommand string `json:"updateCommand"`
	GameID        string `json:"gameId"`
	AppID         string `json:"appId"`
}

func (f Setting) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ExecutorName, validation.Required.Error("executor name is required")),
		validation.Field(&f.UpdateCommand, validation.Required.Error("update command is required")),
		validation.Field(&f.GameID, validation.Required),
		validation.Field(&f.AppID, validation.Required),
	)
}

func (f Setting) Input() backend.SettingInput {
	return backend.SettingInput{
		ExecutorName:  strings.TrimSpace(f.ExecutorName),
		UpdateCommand: strings.TrimSpace(f.UpdateCommand),
		GameID:        f.GameID,
		AppID:         f.AppID,
	}
}

// FieldErrors flattens validation errors into field -> message.
// It returns nil when err carries no field errors.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		out[field] = ferr.Error()
	}
	return out
}
