/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package storage archives finished recordings to durable object
// storage, either a local directory tree or an S3 bucket.
package storage

import (
	"context"
	"io"
)

// ObjectStore abstracts the recording archive.
type ObjectStore interface {
	// Put streams an object to the archive under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens an archived object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an archived object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
