// Package session holds the console's backend session.
//
// The backend authenticates the console with cookies (an access cookie and a
// refresh cookie). Store keeps them in a cookie jar shared by every outbound
// request and exposes only their presence; token contents are never parsed.
package session
