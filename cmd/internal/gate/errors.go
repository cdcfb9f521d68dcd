package gate

import "errors"

// ErrSignedOut marks an identity dropped locally by logout.
var ErrSignedOut = errors.New("signed out")

// ErrNoSession marks an identity query skipped because no session cookie is held.
var ErrNoSession = errors.New("no session cookies")
