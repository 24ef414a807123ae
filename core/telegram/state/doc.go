// Package state keeps per-user conversation sessions in memory and serializes
// work for a single user with a keyed lock. It knows nothing about the
// session payload, so any bot can store its own draft type in it.
package state
