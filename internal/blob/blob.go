// Package blob abstracts file storage for job files and chat attachments.
package blob

import (
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	// Put writes the object under key, creating parent folders as needed.
	Put(key string, r io.Reader) error
	// Get opens the object for reading. The caller closes it.
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
