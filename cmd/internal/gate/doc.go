// Package gate decides, per request, whether a console view is rendered,
// replaced by a loading placeholder, or redirected.
//
// The decision is derived from a cached "who am I" query and the requested
// path only. Nothing in this package mutates the session.
package gate
