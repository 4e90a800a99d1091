package testsupport

import (
	"bytes"
	"context"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
)

// MustOpenBucket returns a local bucket rooted at the config's storage dir.
func MustOpenBucket(t testing.TB, cfg *config.Config) *blob.LocalBucket {
	t.Helper()
	bucket, err := blob.NewLocalBucket(cfg.Storage.LocalDir)
	if err != nil {
		t.Fatalf("blob.NewLocalBucket: %v", err)
	}
	return bucket
}

// PutObject uploads data to path or fails the test.
func PutObject(t testing.TB, bucket blob.Bucket, path string, data []byte) {
	t.Helper()
	if err := bucket.Upload(context.Background(), path, bytes.NewReader(data), ""); err != nil {
		t.Fatalf("upload %s: %v", path, err)
	}
}
