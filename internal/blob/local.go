package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBucket keeps objects as files below a root directory.
type LocalBucket struct {
	root string
}

// NewLocalBucket creates root if needed and returns a bucket rooted there.
func NewLocalBucket(root string) (*LocalBucket, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local bucket root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &LocalBucket{root: root}, nil
}

// Root returns the directory backing the bucket.
func (b *LocalBucket) Root() string {
	return b.root
}

func (b *LocalBucket) resolve(path string) (string, error) {
	cleaned, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(cleaned)), nil
}

func (b *LocalBucket) Upload(ctx context.Context, path string, r io.Reader, _ string) error {
	target, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write object %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("commit object %q: %w", path, err)
	}
	return nil
}

func (b *LocalBucket) Download(_ context.Context, path string) (io.ReadCloser, error) {
	target, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", path, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", path, err)
	}
	return f, nil
}

func (b *LocalBucket) Exists(_ context.Context, path string) (bool, error) {
	target, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %q: %w", path, err)
	}
	return !info.IsDir(), nil
}

func (b *LocalBucket) Delete(_ context.Context, path string) error {
	target, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%q: %w", path, ErrObjectNotFound)
		}
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

// List returns object paths starting with prefix, sorted.
func (b *LocalBucket) List(_ context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimLeft(prefix, "/")
	var paths []string
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (b *LocalBucket) Close() error { return nil }
