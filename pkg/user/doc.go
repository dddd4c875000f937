// Package user exposes user administration: listing, profile edits, role
// assignment, activation and deletion. Every change records the session
// user as last_modified_by.
package user
