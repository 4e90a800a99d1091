package testsupport

import (
	"context"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenDocStore opens a docstore.Store for tests and registers cleanup.
func MustOpenDocStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSourceAudio creates a source audio document pointing at storagePath.
func NewSourceAudio(t testing.TB, store *docstore.Store, storagePath, subtitle string) *docstore.SourceAudio {
	t.Helper()

	audio, err := store.CreateSourceAudio(context.Background(), docstore.SourceAudio{
		Name:           "test audio",
		StorageRefPath: storagePath,
		Subtitle:       subtitle,
	})
	if err != nil {
		t.Fatalf("store.CreateSourceAudio: %v", err)
	}
	return audio
}
