package backend

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestAdaptUser(t *testing.T) {
	cases := []struct {
		name string
		in   WireUser
		want User
	}{
		{
			name: "all optionals present",
			in: WireUser{
				ID: "1", IsBot: true, FirstName: "Ann",
				LastName: strPtr("Lee"), Username: strPtr("ann"), LanguageCode: strPtr("en"),
				IsPremium: boolPtr(false), AddedToAttachMenu: true,
				APIKey: "k", Role: RoleAdmin,
			},
			want: User{
				ID: "1", IsBot: true, FirstName: "Ann",
				LastName: "Lee", Username: "ann", LanguageCode: "en",
				IsPremium: "false", AddedToAttachMenu: "true",
				APIKey: "k", Role: RoleAdmin,
			},
		},
		{
			name: "nulls and empty strings dropped",
			in: WireUser{
				ID: "2", FirstName: "Bob",
				LastName: nil, Username: strPtr(""),
				APIKey: "k2", Role: RoleGuest,
			},
			want: User{ID: "2", FirstName: "Bob", APIKey: "k2", Role: RoleGuest},
		},
		{
			name: "premium true",
			in:   WireUser{ID: "3", IsPremium: boolPtr(true), Role: RoleUser},
			want: User{ID: "3", IsPremium: "true", Role: RoleUser},
		},
	}

	for _, tc := range cases {
		if got := AdaptUser(tc.in); got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestWireUser_DecodesSnakeCase(t *testing.T) {
	raw := `{"id":"9","is_bot":false,"first_name":"Eve","last_name":null,"username":"eve",
		"language_code":null,"is_premium":null,"added_to_attach_menu":false,"apiKey":"x","role":"USER"}`

	var w WireUser
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	u := AdaptUser(w)
	if u.FirstName != "Eve" || u.Username != "eve" || u.LastName != "" || u.IsPremium != "" || u.Role != RoleUser {
		t.Fatalf("unexpected adaptation: %+v", u)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleUser, RoleGuest} {
		if !r.Valid() {
			t.Fatalf("%s must be valid", r)
		}
	}
	if Role("ROOT").Valid() || Role("").Valid() {
		t.Fatalf("unknown roles must be invalid")
	}
}
