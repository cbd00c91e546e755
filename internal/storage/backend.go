// Package storage persists uploaded documents and resolves their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Backend stores objects under keys. Put on an existing key overwrites it.
type Backend interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	URL(key string) string
}

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// LocalBackend writes objects to a directory served at a public base URL.
type LocalBackend struct {
	root    string
	baseURL string
}

// NewLocalBackend creates the root directory if needed.
func NewLocalBackend(root, baseURL string) (*LocalBackend, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalBackend{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory objects are written to.
func (b *LocalBackend) Root() string {
	return b.root
}

// Put writes data atomically: a temp file in the target directory is renamed over the key.
// Once published, any sibling object with the same name but a different
// extension is removed, so re-uploading a document as another format leaves
// a single object per key stem.
func (b *LocalBackend) Put(ctx context.Context, key, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set object permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to publish object: %w", err)
	}
	return removeSuperseded(dir, filepath.Base(target))
}

func removeSuperseded(dir, keep string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list object directory: %w", err)
	}
	stem := strings.TrimSuffix(keep, filepath.Ext(keep))
	for _, e := range entries {
		name := e.Name()
		if name == keep || !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) != stem {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove superseded object %s: %w", name, err)
		}
	}
	return nil
}

// URL returns the public address of key.
func (b *LocalBackend) URL(key string) string {
	return b.baseURL + "/" + key
}

func (b *LocalBackend) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(b.root, filepath.FromSlash(clean[1:])), nil
}
