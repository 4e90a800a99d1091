package blob_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/testsupport"
)

func TestOpenLocalBucket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bucket, err := blob.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer bucket.Close()
	if _, ok := bucket.(*blob.LocalBucket); !ok {
		t.Fatalf("expected local bucket, got %T", bucket)
	}

	cfg.Storage.Backend = "s3"
	if _, err := blob.Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestLocalBucketRoundTrip(t *testing.T) {
	bucket, err := blob.NewLocalBucket(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBucket: %v", err)
	}
	ctx := context.Background()

	if err := bucket.Upload(ctx, "source-audios/a.wav", strings.NewReader("RIFF"), "audio/wav"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	exists, err := bucket.Exists(ctx, "source-audios/a.wav")
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got %v (%v)", exists, err)
	}
	data, err := blob.ReadAll(ctx, bucket, "/source-audios/a.wav")
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("unexpected download %q (%v)", data, err)
	}

	if _, err := bucket.Download(ctx, "source-audios/missing.wav"); !errors.Is(err, blob.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if exists, _ := bucket.Exists(ctx, "source-audios"); exists {
		t.Fatal("directories should not count as objects")
	}
	if err := bucket.Upload(ctx, "../escape.txt", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestDeletePrefix(t *testing.T) {
	bucket, err := blob.NewLocalBucket(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBucket: %v", err)
	}
	ctx := context.Background()
	for _, path := range []string{
		"training/spk/audio-1/s1.wav",
		"training/spk/audio-1/s1.txt",
		"training/spk/audio-10/s2.wav",
		"source-audios/audio-1.wav",
	} {
		if err := bucket.Upload(ctx, path, strings.NewReader(path), ""); err != nil {
			t.Fatalf("Upload %s: %v", path, err)
		}
	}

	listed, err := bucket.List(ctx, "training/spk/audio-1/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 || listed[0] != "training/spk/audio-1/s1.txt" {
		t.Fatalf("unexpected listing %v", listed)
	}

	deleted, err := blob.DeletePrefix(ctx, bucket, "training/spk/audio-1/")
	if err != nil || deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d (%v)", deleted, err)
	}
	remaining, _ := bucket.List(ctx, "")
	if len(remaining) != 2 {
		t.Fatalf("expected sibling prefix and source audio to survive, got %v", remaining)
	}
	if err := bucket.Delete(ctx, "training/spk/audio-1/s1.wav"); !errors.Is(err, blob.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound on second delete, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	if got := blob.Join("training/", "", "/spk", "a.wav"); got != "training/spk/a.wav" {
		t.Fatalf("Join = %q", got)
	}
}
