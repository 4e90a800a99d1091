package services_test

import (
	"context"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTaskID(ctx, 42)
	ctx = services.WithSourceAudioID(ctx, "src-1")
	ctx = services.WithStage(ctx, "align")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TaskIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected task id: %v %v", id, ok)
	}
	if id, ok := services.SourceAudioIDFromContext(ctx); !ok || id != "src-1" {
		t.Fatalf("unexpected source audio id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "align" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithSourceAudioID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.SourceAudioIDFromContext(ctx); ok {
		t.Fatal("expected no source audio value")
	}
}
