package models

import (
	"time"

	"golang.org/x/text/cases"
)

// NameEntry is a submitted name and the time it was first registered.
type NameEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NameKey is the case-folded form two names are compared by.
// "Alice", "ALICE" and "alice" share one key.
func NameKey(name string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Fold().String(name)
}

// Key returns NameKey(e.Name).
func (e NameEntry) Key() string {
	return NameKey(e.Name)
}
