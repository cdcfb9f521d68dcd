package forms

import (
	"testing"

	"console/cmd/internal/backend"
)

type validator interface{ Validate() error }

func TestForms(t *testing.T) {
	cases := []struct {
		name       string
		form       validator
		wantFields []string
	}{
		{name: "login ok", form: Login{Username: "admin", Password: "x"}},
		{name: "login empty", form: Login{}, wantFields: []string{"username", "password"}},
		{name: "app ok", form: App{Name: "Telegram"}},
		{name: "app empty", form: App{}, wantFields: []string{"name"}},
		{name: "game ok", form: Game{Name: "Snake", AppIDs: []string{"a1"}}},
		{name: "game without apps", form: Game{Name: "Snake"}, wantFields: []string{"appIds"}},
		{name: "patch note ok", form: PatchNote{Title: "t", Content: "c", AppID: "a", GameID: "g", ReleaseDate: "2024-03-01"}},
		{name: "patch note bad date", form: PatchNote{Title: "t", Content: "c", AppID: "a", GameID: "g", ReleaseDate: "March"}, wantFields: []string{"releaseDate"}},
		{name: "patch note empty", form: PatchNote{}, wantFields: []string{"title", "content", "appId", "gameId"}},
		{name: "user ok", form: CreateUser{Email: "a@b.co", Password: "secret", Role: backend.RoleGuest}},
		{name: "user bad", form: CreateUser{Email: "nope", Password: "123", Role: "ROOT"}, wantFields: []string{"email", "password", "role"}},
		{name: "role ok", form: UserRole{Role: backend.RoleAdmin}},
		{name: "role missing", form: UserRole{}, wantFields: []string{"role"}},
		{name: "setting ok", form: Setting{ExecutorName: "bot", UpdateCommand: "/u", GameID: "g", AppID: "a"}},
		{name: "setting empty", form: Setting{}, wantFields: []string{"executorName", "updateCommand", "gameId", "appId"}},
	}

	for _, tc := range cases {
		err := tc.form.Validate()
		if len(tc.wantFields) == 0 {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}

		fields := FieldErrors(err)
		if len(fields) != len(tc.wantFields) {
			t.Fatalf("%s: got fields %v want %v", tc.name, fields, tc.wantFields)
		}
		for _, f := range tc.wantFields {
			if fields[f] == "" {
				t.Fatalf("%s: missing error for %q in %v", tc.name, f, fields)
			}
		}
	}
}

func TestFieldErrors_NonValidation(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Fatalf("nil error must produce nil map")
	}
}

func TestLoginCredentialsTrim(t *testing.T) {
	c := Login{Username: "  admin ", Password: " pw "}.Credentials()
	if c.Username != "admin" || c.Password != " pw " {
		t.Fatalf("unexpected credentials: %+v", c)
	}
}
