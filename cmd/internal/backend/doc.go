// Package backend is the typed surface of the admin REST API: auth, users,
// apps, games, patch notes and per-game settings.
//
// Every call goes through the session-aware client, so access expiry is
// recovered transparently; callers only see errors the client could not recover.
package backend
