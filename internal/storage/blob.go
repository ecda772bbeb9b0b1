package storage

import (
	"errors"
	"io"
)

var ErrNotExist = errors.New("blob does not exist")

// BlobStore holds static assets (question and hint images) by slash-separated key.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
}
