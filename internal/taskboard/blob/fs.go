package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FS stores blobs on the local filesystem under a single root
// directory. Keys map to file paths; the public URL prefix is prepended
// verbatim, so the HTTP layer must serve the root under that prefix.
type FS struct {
	root      string
	urlPrefix string
}

// NewFS creates the root directory if missing.
func NewFS(root, urlPrefix string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &FS{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// resolve rejects keys that would escape the root.
func (f *FS) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("blob: empty key")
	}
	return filepath.Join(f.root, filepath.FromSlash(clean)), nil
}

func (f *FS) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	dst, err := f.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	// Write to a temp file first so a failed upload never leaves a
	// half-written blob at the final key.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, err
	}
	return n, nil
}

func (f *FS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	src, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return file, err
}

func (f *FS) Delete(ctx context.Context, key string) error {
	target, err := f.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(target)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FS) URL(key string) string {
	return f.urlPrefix + path.Clean("/"+key)
}

// Root is the directory the HTTP layer serves for downloads.
func (f *FS) Root() string { return f.root }
