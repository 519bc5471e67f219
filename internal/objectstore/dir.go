package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore is a Store backed by a local directory. Object metadata is not persisted.
type DirStore struct {
	root string
}

// NewDir returns a DirStore rooted at root, made absolute so warehouse URIs do not
// depend on the working directory.
func NewDir(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bucket directory: %w", err)
	}
	return &DirStore{root: abs}, nil
}

func (s *DirStore) Ensure(_ context.Context, prefixes ...string) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}
	for _, p := range prefixes {
		if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(p)), 0755); err != nil {
			return fmt.Errorf("failed to create prefix %s: %w", p, err)
		}
	}
	return nil
}

func (s *DirStore) Upload(ctx context.Context, key, localPath string, _ map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	dst := s.URI(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to copy %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", key, err)
	}
	return nil
}

func (s *DirStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.URI(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}

func (s *DirStore) URI(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
