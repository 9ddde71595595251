// Package storage persists uploaded bytes and hands back opaque handles.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a handle does not resolve to a stored blob.
	ErrNotFound = errors.New("blob not found")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
	// ErrInvalidHandle is returned for handles that could escape the root.
	ErrInvalidHandle = errors.New("invalid blob handle")
)

// BlobStore persists attachment and document bytes.
type BlobStore interface {
	Save(ctx context.Context, r io.Reader, suggestedName string) (handle string, size int64, err error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}

// LocalStore keeps blobs as files under one root directory.
type LocalStore struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes, now: time.Now}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client file name to a safe base name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	if len(base) > 100 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:100-len(ext)] + ext
	}
	return base
}

// Save writes r under a unique handle: YYYYMMDD_HHMMSS_<prefix>_<short-uuid>_<name>.
// suggestedName may carry a "<prefix>/" segment naming the uploader.
func (s *LocalStore) Save(ctx context.Context, r io.Reader, suggestedName string) (string, int64, error) {
	prefix, name := "", suggestedName
	if i := strings.Index(suggestedName, "/"); i > 0 {
		prefix, name = SanitizeName(suggestedName[:i]), suggestedName[i+1:]
	}
	parts := []string{s.now().UTC().Format("20060102_150405")}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, uuid.NewString()[:8], SanitizeName(name))
	handle := strings.Join(parts, "_")

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	path := filepath.Join(s.root, handle)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, err := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write blob: %w", err)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("close blob: %w", closeErr)
	case s.maxBytes > 0 && size > s.maxBytes:
		_ = os.Remove(path)
		return "", 0, ErrTooLarge
	}
	return handle, size, nil
}

// Open returns a reader for the blob.
func (s *LocalStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	path, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the blob. Missing blobs are not an error.
func (s *LocalStore) Delete(_ context.Context, handle string) error {
	path, err := s.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) || strings.HasPrefix(handle, ".") {
		return "", ErrInvalidHandle
	}
	return filepath.Join(s.root, handle), nil
}

// AllowedExtension reports whether name ends in one of exts (without dots, case-insensitive).
func AllowedExtension(name string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range exts {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(allowed), "."), ext) {
			return true
		}
	}
	return false
}
