// Package client is the console's HTTP client for the admin backend.
//
// Every call carries the session cookies and declares Accept: application/json.
// When a call fails with 401 the client refreshes the session once and replays
// the call. Concurrent 401s share a single refresh: the first caller performs
// it, later callers queue behind it and are released together when it settles.
//
// The login and refresh endpoints are never intercepted, and a replayed call
// that fails with 401 again is returned as is.
package client
