package gate

import (
	"errors"
	"testing"

	"console/cmd/internal/backend"
	"console/cmd/internal/client"
)

func TestDerive(t *testing.T) {
	u := &backend.User{ID: "1"}
	authErr := &client.StatusError{Status: 401}
	netErr := &client.NetworkError{Err: errors.New("dial")}

	cases := []struct {
		name string
		snap Snapshot
		want State
	}{
		{name: "never fetched", snap: Snapshot{}, want: Loading},
		{name: "first fetch in flight", snap: Snapshot{Fetching: true}, want: Loading},
		{name: "user", snap: Snapshot{User: u}, want: Authenticated},
		{name: "user while refetching", snap: Snapshot{User: u, Fetching: true}, want: Authenticated},
		{name: "auth error", snap: Snapshot{Err: authErr}, want: Unauthenticated},
		{name: "refresh failed", snap: Snapshot{Err: &client.RefreshError{Cause: &client.StatusError{Status: 403}}}, want: Unauthenticated},
		{name: "network error without user", snap: Snapshot{Err: netErr}, want: Unauthenticated},
		{name: "error while refetching", snap: Snapshot{Err: authErr, Fetching: true}, want: Loading},
	}

	for _, tc := range cases {
		if got := Derive(tc.snap); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestDecide(t *testing.T) {
	r := DefaultRoutes

	cases := []struct {
		state State
		path  string
		want  Decision
	}{
		{state: Loading, path: "/apps", want: Decision{Action: Placeholder}},
		{state: Loading, path: "/login", want: Decision{Action: Placeholder}},
		{state: Unauthenticated, path: "/apps", want: Decision{Action: Redirect, Location: "/login"}},
		{state: Unauthenticated, path: "/", want: Decision{Action: Redirect, Location: "/login"}},
		{state: Unauthenticated, path: "/login", want: Decision{Action: Render}},
		{state: Authenticated, path: "/login", want: Decision{Action: Redirect, Location: "/"}},
		{state: Authenticated, path: "/games", want: Decision{Action: Render}},
		{state: Authenticated, path: "/", want: Decision{Action: Render}},
	}

	for _, tc := range cases {
		if got := Decide(tc.state, tc.path, r); got != tc.want {
			t.Fatalf("state=%s path=%s: got %+v want %+v", tc.state, tc.path, got, tc.want)
		}
	}
}
