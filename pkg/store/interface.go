package store

import (
	"errors"

	"github.com/mcclellann/loanbook/pkg/models"
)

// ErrNotExist is returned by Load when nothing has been saved yet.
var ErrNotExist = errors.New("document does not exist")

// Storage persists the whole loan book as a single document. Implementations
// rewrite everything on Save; there are no partial writes.
type Storage interface {
	Load() (*models.Document, error)
	Save(doc *models.Document) error

	Close() error
}
