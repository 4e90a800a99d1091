// Package blob stores source audio and exported training data in a bucket,
// either a directory on disk or a Google Cloud Storage bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
)

// ErrObjectNotFound is returned when an object path does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Bucket is a flat namespace of objects addressed by slash-separated paths.
type Bucket interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open builds the bucket selected by storage.backend.
func Open(ctx context.Context, cfg *config.Config) (Bucket, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		return NewLocalBucket(cfg.Storage.LocalDir)
	case config.StorageBackendGCS:
		return NewGCSBucket(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// ReadAll downloads an object fully into memory.
func ReadAll(ctx context.Context, bucket Bucket, path string) ([]byte, error) {
	rc, err := bucket.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", path, err)
	}
	return data, nil
}

// DeletePrefix removes every object under prefix and returns how many were deleted.
// Objects that vanish between listing and deletion are ignored.
func DeletePrefix(ctx context.Context, bucket Bucket, prefix string) (int, error) {
	paths, err := bucket.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, path := range paths {
		if err := bucket.Delete(ctx, path); err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Join builds an object path from segments, dropping empty ones.
func Join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.Trim(part, "/"); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.Join(cleaned, "/")
}

func cleanPath(path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", errors.New("object path is empty")
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return "", fmt.Errorf("object path %q escapes the bucket", path)
		}
	}
	return path, nil
}
