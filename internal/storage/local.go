package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files into a single directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir when it does not exist
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("unable to create directory %s: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

func (l *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	ref, err := uniqueName(name)
	if err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(l.dir, ref))
	if err != nil {
		return "", fmt.Errorf("unable to create the file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, &ctxReader{ctx: ctx, r: r}); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("unable to save the file: %w", err)
	}
	return ref, nil
}

func (l *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := l.path(ref)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (l *LocalStore) Delete(ctx context.Context, ref string) error {
	path, err := l.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path resolves ref inside the storage directory
func (l *LocalStore) path(ref string) (string, error) {
	if !validRef(ref) {
		return "", ErrInvalidName
	}
	p := filepath.Join(l.dir, ref)
	if !strings.HasPrefix(p, l.dir+string(os.PathSeparator)) {
		return "", ErrInvalidName
	}
	return p, nil
}

// ctxReader stops a copy once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
