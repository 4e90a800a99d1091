package intake_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/intake"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/testsupport"
)

type fakeDownloader struct {
	content []byte
	calls   int
}

func (f *fakeDownloader) Download(_ context.Context, url, workDir string) (string, error) {
	f.calls++
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(workDir, "video.wav")
	return path, os.WriteFile(path, f.content, 0o644)
}

type fixture struct {
	svc        *intake.Service
	tasks      *queue.Store
	downloader *fakeDownloader
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	docs := testsupport.MustOpenDocStore(t, cfg)
	tasks := testsupport.MustOpenStore(t, cfg)
	bucket := testsupport.MustOpenBucket(t, cfg)
	downloader := &fakeDownloader{content: testsupport.WAV(t, make([]float32, 160), 16000)}
	return fixture{
		svc:        intake.NewService(cfg, docs, tasks, bucket, downloader, logging.NewNop()),
		tasks:      tasks,
		downloader: downloader,
	}
}

func TestPushExistingSourceAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	docs := testsupport.MustOpenDocStore(t, cfg)
	tasks := testsupport.MustOpenStore(t, cfg)
	svc := intake.NewService(cfg, docs, tasks, testsupport.MustOpenBucket(t, cfg), nil, logging.NewNop())
	source := testsupport.NewSourceAudio(t, docs, "source-audios/a.wav", "xin chao")

	result, err := svc.Push(context.Background(), intake.PushRequest{SourceAudioUID: source.ID})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if result.SourceAudioUID != source.ID {
		t.Fatalf("unexpected source id %q", result.SourceAudioUID)
	}
	if result.TaskName != "projects/test-project/locations/asia-southeast1/queues/test-queue/tasks/1" {
		t.Fatalf("unexpected task name %q", result.TaskName)
	}

	task, err := tasks.GetByID(context.Background(), result.TaskID)
	if err != nil || task == nil {
		t.Fatalf("GetByID: %v %v", task, err)
	}
	if task.TargetURL != cfg.Queue.TargetURL || task.DispatchDeadlineSeconds != 1800 {
		t.Fatalf("unexpected task %+v", task)
	}
	var payload queue.Payload
	if err := task.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.SourceAudioUID != source.ID || payload.AudioPath != "source-audios/a.wav" || payload.Text != "xin chao" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPushValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Push(context.Background(), intake.PushRequest{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.Push(context.Background(), intake.PushRequest{SourceAudioUID: "missing"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestPushVideoCreatesAndReusesSourceAudio(t *testing.T) {
	f := newFixture(t)
	req := intake.PushRequest{YouTubeURL: "https://youtu.be/86G-Yiy7nR4", Name: "talk", SpeakerID: "spk-1"}

	first, err := f.svc.Push(context.Background(), req)
	if err != nil {
		t.Fatalf("first Push failed: %v", err)
	}
	second, err := f.svc.Push(context.Background(), req)
	if err != nil {
		t.Fatalf("second Push failed: %v", err)
	}
	if f.downloader.calls != 2 {
		t.Fatalf("expected two downloads, got %d", f.downloader.calls)
	}
	if first.SourceAudioUID != second.SourceAudioUID {
		t.Fatalf("expected identical content to reuse the source audio: %s vs %s", first.SourceAudioUID, second.SourceAudioUID)
	}
	if first.TaskID == second.TaskID {
		t.Fatal("expected a task per push")
	}

	task, _ := f.tasks.GetByID(context.Background(), first.TaskID)
	var payload queue.Payload
	if err := task.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if !strings.HasPrefix(payload.AudioPath, "source-audios/") || !strings.HasSuffix(payload.AudioPath, ".wav") {
		t.Fatalf("unexpected storage path %q", payload.AudioPath)
	}
}

func TestCreateSourceAudioCreatesSpeakerAndQueues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	docs := testsupport.MustOpenDocStore(t, cfg)
	tasks := testsupport.MustOpenStore(t, cfg)
	bucket := testsupport.MustOpenBucket(t, cfg)
	testsupport.PutObject(t, bucket, "source-audios/upload.wav", testsupport.WAV(t, make([]float32, 160), 16000))
	svc := intake.NewService(cfg, docs, tasks, bucket, nil, logging.NewNop())

	result, err := svc.CreateSourceAudio(context.Background(), intake.CreateRequest{
		Name:           "lesson 1",
		StorageRefPath: "source-audios/upload.wav",
		Subtitle:       "xin chao cac ban",
		Speaker:        intake.SpeakerRef{Name: "Lan"},
	})
	if err != nil {
		t.Fatalf("CreateSourceAudio failed: %v", err)
	}

	source, err := docs.GetSourceAudio(context.Background(), result.ID)
	if err != nil || source == nil {
		t.Fatalf("GetSourceAudio: %v %v", source, err)
	}
	if source.SpeakerID == "" || source.IsAnnotated || source.PreProcessDone || source.ContentHash == "" {
		t.Fatalf("unexpected source audio %+v", source)
	}
	speaker, err := docs.GetSpeaker(context.Background(), source.SpeakerID)
	if err != nil || speaker == nil || speaker.Name != "Lan" {
		t.Fatalf("expected speaker Lan, got %+v %v", speaker, err)
	}
	if result.Task.SourceAudioUID != result.ID {
		t.Fatalf("expected queued task for the new source audio, got %+v", result.Task)
	}
}

func TestCreateSourceAudioValidation(t *testing.T) {
	f := newFixture(t)
	tests := []intake.CreateRequest{
		{},
		{StorageRefPath: "source-audios/missing.wav", Speaker: intake.SpeakerRef{Name: "x"}},
	}
	for i, req := range tests {
		if _, err := f.svc.CreateSourceAudio(context.Background(), req); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}
