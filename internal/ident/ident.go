// Package ident issues opaque identifiers for new workspaces and items.
package ident

import "github.com/google/uuid"

// New returns a fresh random identifier
func New() string {
	return uuid.New().String()
}
