// Package objectstore stages files in a bucket that the warehouse can read from and
// export to. Two backends exist: an S3-compatible bucket reached through minio-go and
// a local directory used for offline runs and tests.
package objectstore

import (
	"context"
	"path"
	"strings"
)

// Store is the bucket the pipeline uploads staged files to and exports CSVs into.
type Store interface {
	// Ensure makes sure the bucket and the given key prefixes are usable.
	Ensure(ctx context.Context, prefixes ...string) error
	// Upload copies a local file to key, replacing any existing object.
	Upload(ctx context.Context, key, localPath string, meta map[string]string) error
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// URI returns the location of key (or a key pattern) as seen by the warehouse.
	URI(key string) string
}

// Key joins a logical prefix (e.g. "incoming") and a file name into an object key.
func Key(prefix, name string) string {
	return path.Join(strings.Trim(prefix, "/"), name)
}
