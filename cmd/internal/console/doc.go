// Package console serves the operator-facing views of the admin console.
//
// Each view is a JSON document backed by one or more backend calls. Views sit
// behind the auth gate; the login view is the only one reachable while signed out.
// /events streams gate state changes over WebSocket.
package console
