package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBucket stores objects in a Google Cloud Storage bucket.
type GCSBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// NewGCSBucket connects to the named bucket. An empty credentialsFile uses
// application default credentials.
func NewGCSBucket(ctx context.Context, name, credentialsFile string) (*GCSBucket, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("gcs bucket name is empty")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBucket{client: client, bucket: client.Bucket(name), name: name}, nil
}

// Name returns the bucket name.
func (b *GCSBucket) Name() string {
	return b.name
}

func (b *GCSBucket) Upload(ctx context.Context, path string, r io.Reader, contentType string) error {
	cleaned, err := cleanPath(path)
	if err != nil {
		return err
	}
	w := b.bucket.Object(cleaned).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s/%s: %w", b.name, cleaned, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s/%s: %w", b.name, cleaned, err)
	}
	return nil
}

func (b *GCSBucket) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	cleaned, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	rc, err := b.bucket.Object(cleaned).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", b.name, cleaned, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", b.name, cleaned, err)
	}
	return rc, nil
}

func (b *GCSBucket) Exists(ctx context.Context, path string) (bool, error) {
	cleaned, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	_, err = b.bucket.Object(cleaned).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s/%s: %w", b.name, cleaned, err)
	}
	return true, nil
}

func (b *GCSBucket) Delete(ctx context.Context, path string) error {
	cleaned, err := cleanPath(path)
	if err != nil {
		return err
	}
	err = b.bucket.Object(cleaned).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s/%s: %w", b.name, cleaned, ErrObjectNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", b.name, cleaned, err)
	}
	return nil
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: strings.TrimLeft(prefix, "/")})
	var paths []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", b.name, prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

func (b *GCSBucket) Close() error {
	return b.client.Close()
}
