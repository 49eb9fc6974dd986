// Package storage keeps uploaded photos and documents and hands back opaque references.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"

	"facility-planner/internal/config"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
	ErrTooLarge    = errors.New("file size exceeds the allowed limit")
)

// Store is implemented by the local filesystem and MinIO backends
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// New builds the configured backend
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "minio":
		return NewMinioStore(cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// uniqueName prefixes the sanitized base name so uploads never overwrite each other
func uniqueName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", ErrInvalidName
	}
	return uuid.NewString() + "-" + base, nil
}

// validRef rejects references that would escape the storage root
func validRef(ref string) bool {
	if ref == "" || strings.Contains(ref, "..") || strings.ContainsAny(ref, "/\\") {
		return false
	}
	return filepath.Clean(ref) == ref
}

// ContentType guesses the MIME type from the reference's extension
func ContentType(ref string) string {
	if ct := mime.TypeByExtension(filepath.Ext(ref)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// FailedUpload names a file that could not be stored
type FailedUpload struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadResult holds the references of stored files in input order. Failed files are left out
// of Refs and listed in Failed.
type UploadResult struct {
	Refs   []string       `json:"refs"`
	Failed []FailedUpload `json:"failed,omitempty"`
}

// UploadAll stores the files concurrently. A failure of one file does not affect the others.
func UploadAll(ctx context.Context, s Store, files []*multipart.FileHeader, maxSize int64) UploadResult {
	refs := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, fh := range files {
		wg.Add(1)
		go func(i int, fh *multipart.FileHeader) {
			defer wg.Done()
			refs[i], errs[i] = uploadOne(ctx, s, fh, maxSize)
		}(i, fh)
	}
	wg.Wait()

	result := UploadResult{Refs: []string{}}
	for i, fh := range files {
		if errs[i] != nil {
			log.WithError(errs[i]).Warnf("Storage: upload of %s failed", fh.Filename)
			result.Failed = append(result.Failed, FailedUpload{Name: fh.Filename, Error: errs[i].Error()})
			continue
		}
		result.Refs = append(result.Refs, refs[i])
	}
	return result
}

func uploadOne(ctx context.Context, s Store, fh *multipart.FileHeader, maxSize int64) (string, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentType(fh.Filename)
	}
	return s.Put(ctx, fh.Filename, src, fh.Size, contentType)
}
