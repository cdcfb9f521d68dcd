package gate

import (
	"errors"
	"time"

	"console/cmd/internal/backend"
	"console/cmd/internal/client"
)

// State is the authentication state the gate acts on.
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// Snapshot is the cached result of the identity query.
type Snapshot struct {
	User      *backend.User
	Err       error
	Fetching  bool
	FetchedAt time.Time
}

// Derive maps a snapshot to a gate state.
// A cached user wins; with no user, an in-flight or never-run query is Loading
// and a settled error is Unauthenticated.
func Derive(s Snapshot) State {
	switch {
	case s.User != nil:
		return Authenticated
	case s.Fetching:
		return Loading
	case s.Err != nil:
		return Unauthenticated
	default:
		return Loading
	}
}

// Action is what the gate does with a request.
type Action int

const (
	Render Action = iota
	Placeholder
	Redirect
)

// Decision is the gate's verdict for one request.
type Decision struct {
	Action   Action
	Location string
}

// Routes names the two views the gate redirects between.
type Routes struct {
	Login string
	Home  string
}

// DefaultRoutes matches the console's own view paths.
var DefaultRoutes = Routes{Login: "/login", Home: "/"}

// Decide applies the gate rules for state and the requested path.
func Decide(state State, path string, routes Routes) Decision {
	onLogin := path == routes.Login

	switch state {
	case Loading:
		return Decision{Action: Placeholder}
	case Unauthenticated:
		if !onLogin {
			return Decision{Action: Redirect, Location: routes.Login}
		}
	case Authenticated:
		if onLogin {
			return Decision{Action: Redirect, Location: routes.Home}
		}
	}
	return Decision{Action: Render}
}

// isAuthFailure reports errors that mean the identity is gone for good,
// as opposed to transient failures that keep the cached user.
func isAuthFailure(err error) bool {
	return client.IsAuthError(err) || errors.Is(err, ErrSignedOut) || errors.Is(err, ErrNoSession)
}
