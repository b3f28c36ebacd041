// Package store holds document text for an edit session. Every store is
// last-write-wins and keeps a single document.
package store

import "errors"

// ErrNotFound is returned when the document does not exist yet.
var ErrNotFound = errors.New("store: document not found")

// Store reads and writes the full text of one document.
type Store interface {
	DocumentText() (string, error)
	SetDocumentText(text string) error
}
