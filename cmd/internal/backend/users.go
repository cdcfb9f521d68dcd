package backend

import (
	"context"
	"net/http"
	"strconv"
)

// Role is a console user's permission level.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleGuest Role = "GUEST"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// User is the console's view of a backend user.
type User struct {
	ID                string `json:"id"`
	IsBot             bool   `json:"isBot"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName,omitempty"`
	Username          string `json:"username,omitempty"`
	LanguageCode      string `json:"languageCode,omitempty"`
	IsPremium         string `json:"isPremium,omitempty"`
	AddedToAttachMenu string `json:"addedToAttachMenu,omitempty"`
	APIKey            string `json:"apiKey"`
	Role              Role   `json:"role"`
}

// WireUser is the backend's snake_case user record.
type WireUser struct {
	ID                string  `json:"id"`
	IsBot             bool    `json:"is_bot"`
	FirstName         string  `json:"first_name"`
	LastName          *string `json:"last_name"`
	Username          *string `json:"username"`
	LanguageCode      *string `json:"language_code"`
	IsPremium         *bool   `json:"is_premium"`
	AddedToAttachMenu bool    `json:"added_to_attach_menu"`
	APIKey            string  `json:"apiKey"`
	Role              Role    `json:"role"`
}

// AdaptUser converts a wire record. Null and empty optionals become "".
// IsPremium is "true"/"false" when the backend sent a value;
// AddedToAttachMenu is "true" only when set.
func AdaptUser(w WireUser) User {
	u := User{
		ID:           w.ID,
		IsBot:        w.IsBot,
		FirstName:    w.FirstName,
		LastName:     deref(w.LastName),
		Username:     deref(w.Username),
		LanguageCode: deref(w.LanguageCode),
		APIKey:       w.APIKey,
		Role:         w.Role,
	}
	if w.IsPremium != nil {
		u.IsPremium = strconv.FormatBool(*w.IsPremium)
	}
	if w.AddedToAttachMenu {
		u.AddedToAttachMenu = "true"
	}
	return u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Me returns the user the current session belongs to.
func (a *API) Me(ctx context.Context) (User, error) {
	var w WireUser
	if err := a.getJSON(ctx, "/users/me", nil, &w); err != nil {
		return User{}, err
	}
	return AdaptUser(w), nil
}

// ListUsers returns one page of users.
func (a *API) ListUsers(ctx context.Context, page Page) (Paginated[User], error) {
	var wire Paginated[WireUser]
	if err := a.getJSON(ctx, "/users", page.Values(), &wire); err != nil {
		return Paginated[User]{}, err
	}

	out := Paginated[User]{
		Data:       make([]User, 0, len(wire.Data)),
		Total:      wire.Total,
		Page:       wire.Page,
		Limit:      wire.Limit,
		TotalPages: wire.TotalPages,
		PageCount:  wire.PageCount,
	}
	for _, w := range wire.Data {
		out.Data = append(out.Data, AdaptUser(w))
	}
	return out, nil
}

// CreateUserInput is the body of a user creation.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// CreateUser creates a console user.
func (a *API) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	var w WireUser
	if err := a.sendJSON(ctx, http.MethodPost, "/users", in, &w); err != nil {
		return User{}, err
	}
	return AdaptUser(w), nil
}

// UpdateUserRole changes a user's role.
func (a *API) UpdateUserRole(ctx context.Context, id string, role Role) error {
	return a.sendJSON(ctx, http.MethodPatch, resourcePath("/users", id), map[string]Role{"role": role}, nil)
}
