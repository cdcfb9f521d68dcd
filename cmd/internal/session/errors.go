package session

import "errors"

// ErrConfig is returned for invalid store configuration.
var ErrConfig = errors.New("session: invalid config")
