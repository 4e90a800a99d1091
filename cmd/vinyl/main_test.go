package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, apiBind string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"PORT", "ASR_PREDICT_URL", "CREATE_SNIPPET_URL", "PROJECT_ID", "QUEUE_NAME", "VINYL_API_TOKEN", "OPENAI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(key, "")
	}

	cfg := testsupport.NewConfig(t)
	if apiBind != "" {
		cfg.Paths.APIBind = apiBind
	}
	configPath := filepath.Join(homeDir, ".config", "vinyl", "config.toml")
	writeTestConfig(t, configPath, cfg)

	loaded, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return &cliTestEnv{cfg: loaded, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\napi_token = \"secret-token\"\n\n[queue]\nproject_id = %q\nqueue_name = %q\n\n[storage]\nlocal_dir = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Queue.ProjectID,
		cfg.Queue.QueueName,
		cfg.Storage.LocalDir,
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	var tasks []*queue.Task
	for _, uid := range []string{"source-a", "source-b"} {
		task, err := store.Enqueue(ctx, queue.NewTask{
			QueueName:      env.cfg.Queue.QueueName,
			SourceAudioUID: uid,
			TargetURL:      env.cfg.Queue.TargetURL,
			Payload:        queue.Payload{SourceAudioUID: uid, AudioPath: uid + ".wav"},
		})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		tasks = append(tasks, task)
	}
	tasks[1].Status = queue.StatusFailed
	tasks[1].ErrorMessage = "target returned 500"
	if err := store.Update(ctx, tasks[1]); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "source-a")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var listed []api.Task
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list json: %v\n%s", err, out)
	}
	if len(listed) != 1 || listed[0].SourceAudioUID != "source-b" {
		t.Fatalf("unexpected failed tasks %+v", listed)
	}
	requireContains(t, listed[0].Name, "projects/test-project/locations/asia-southeast1/queues/test-queue/tasks/")

	out, _, err = runCLI(t, []string{"queue", "show", fmt.Sprint(tasks[1].ID)}, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "target returned 500")

	if _, _, err := runCLI(t, []string{"queue", "show", "999"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown task")
	}

	out, _, err = runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed tasks")

	if _, _, err := runCLI(t, []string{"queue", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without flags to be refused")
	}
	if _, _, err := runCLI(t, []string{"queue", "clear", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	out, _, err = runCLI(t, []string{"queue", "clear", "--status", "pending"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 2 pending tasks")
}

func TestCLISourcesCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")
	docs := testsupport.MustOpenDocStore(t, env.cfg)
	source := testsupport.NewSourceAudio(t, docs, "source-audios/a.wav", "xin chao")
	if _, err := docs.ReplaceSnippets(context.Background(), source.ID, []docstore.Snippet{
		{StartTime: 0.5, EndTime: 1.25, Text: "xin chao"},
	}); err != nil {
		t.Fatalf("ReplaceSnippets: %v", err)
	}

	out, _, err := runCLI(t, []string{"sources", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("sources list: %v", err)
	}
	requireContains(t, out, source.ID)
	requireContains(t, out, "source-audios/a.wav")

	out, _, err = runCLI(t, []string{"sources", "show", source.ID}, env.configPath)
	if err != nil {
		t.Fatalf("sources show: %v", err)
	}
	requireContains(t, out, "1.250")
	requireContains(t, out, "xin chao")

	if _, _, err := runCLI(t, []string{"sources", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown source audio")
	}
}

func TestCLISourcesSpeakerAndAnnotation(t *testing.T) {
	env := setupCLITestEnv(t, "")
	ctx := context.Background()
	docs := testsupport.MustOpenDocStore(t, env.cfg)
	source := testsupport.NewSourceAudio(t, docs, "source-audios/b.wav", "mot hai")
	speaker, err := docs.CreateSpeaker(ctx, "Lan")
	if err != nil {
		t.Fatalf("CreateSpeaker: %v", err)
	}
	tasks := testsupport.MustOpenStore(t, env.cfg)
	task, err := tasks.Enqueue(ctx, queue.NewTask{
		QueueName:      env.cfg.Queue.QueueName,
		SourceAudioUID: source.ID,
		TargetURL:      env.cfg.Queue.TargetURL,
		Payload:        queue.Payload{SourceAudioUID: source.ID, AudioPath: "b.wav"},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := tasks.Enqueue(ctx, queue.NewTask{
		QueueName:      env.cfg.Queue.QueueName,
		SourceAudioUID: "other-source",
		TargetURL:      env.cfg.Queue.TargetURL,
		Payload:        queue.Payload{SourceAudioUID: "other-source", AudioPath: "c.wav"},
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"sources", "speakers"}, env.configPath)
	if err != nil {
		t.Fatalf("sources speakers: %v", err)
	}
	requireContains(t, out, speaker.ID)
	requireContains(t, out, "Lan")

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "unknown speaker", args: []string{"sources", "set-speaker", source.ID, "nobody"}, wantErr: true},
		{name: "unknown source", args: []string{"sources", "set-speaker", "missing", speaker.ID}, wantErr: true},
		{name: "assign speaker", args: []string{"sources", "set-speaker", source.ID, speaker.ID}},
		{name: "unknown source annotate", args: []string{"sources", "annotate", "missing"}, wantErr: true},
		{name: "annotate", args: []string{"sources", "annotate", source.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if tt.wantErr && err == nil {
				t.Fatalf("expected %v to fail", tt.args)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
		})
	}

	out, _, err = runCLI(t, []string{"sources", "show", source.ID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sources show: %v", err)
	}
	var detail struct {
		SpeakerID   string `json:"speakerId"`
		IsAnnotated bool   `json:"isAnnotated"`
		Speaker     *struct {
			Name string `json:"name"`
		} `json:"speaker"`
		Tasks []api.Task `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode show json: %v\n%s", err, out)
	}
	if detail.SpeakerID != speaker.ID || detail.Speaker == nil || detail.Speaker.Name != "Lan" {
		t.Fatalf("expected speaker Lan, got %+v", detail)
	}
	if !detail.IsAnnotated {
		t.Fatal("expected source audio to be annotated")
	}
	if len(detail.Tasks) != 1 || detail.Tasks[0].ID != task.ID {
		t.Fatalf("expected only task %d, got %+v", task.ID, detail.Tasks)
	}

	if _, _, err := runCLI(t, []string{"sources", "annotate", source.ID, "--unset"}, env.configPath); err != nil {
		t.Fatalf("sources annotate --unset: %v", err)
	}
	updated, err := docs.GetSourceAudio(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetSourceAudio: %v", err)
	}
	if updated.IsAnnotated {
		t.Fatal("expected annotated flag to be cleared")
	}

	out, _, err = runCLI(t, []string{"sources", "show", source.ID}, env.configPath)
	if err != nil {
		t.Fatalf("sources show: %v", err)
	}
	requireContains(t, out, "Lan ("+speaker.ID+")")
	requireContains(t, out, "pending")
}

func TestCLIAlign(t *testing.T) {
	out, _, err := runCLI(t, []string{"align", "--hypothesis", "world how are", "--reference", "hello world how are you today", "--json"}, "")
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	var result struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
		Found bool    `json:"found"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode align json: %v\n%s", err, out)
	}
	if !result.Found || result.Text != "world how are" || result.Score != 0 {
		t.Fatalf("unexpected alignment %+v", result)
	}

	out, _, err = runCLI(t, []string{"align", "--hypothesis", "one two three", "--reference", "one"}, "")
	if err != nil {
		t.Fatalf("align short reference: %v", err)
	}
	requireContains(t, out, "No reference window matched")

	if _, _, err := runCLI(t, []string{"align", "--reference", "x"}, ""); err == nil {
		t.Fatal("expected missing hypothesis to be rejected")
	}
}

func TestCLISegment(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := filepath.Join(env.baseDir, "speech.wav")
	testsupport.WriteWAV(t, path, testsupport.Speech(16000,
		testsupport.Span{Seconds: 0.5},
		testsupport.Span{Seconds: 0.5, Tone: true},
		testsupport.Span{Seconds: 1},
		testsupport.Span{Seconds: 0.5, Tone: true},
		testsupport.Span{Seconds: 0.5},
	), 16000)

	out, _, err := runCLI(t, []string{"segment", path, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	var rows []segmentRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode segment json: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 segments, got %+v", rows)
	}
	if rows[0].SampleEnd > rows[1].SampleStart {
		t.Fatalf("segments overlap: %+v", rows)
	}

	silent := filepath.Join(env.baseDir, "silence.wav")
	testsupport.WriteWAV(t, silent, make([]float32, 16000), 16000)
	out, _, err = runCLI(t, []string{"segment", silent}, env.configPath)
	if err != nil {
		t.Fatalf("segment silence: %v", err)
	}
	requireContains(t, out, "No speech found")
}

func TestCLIConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")

	target := filepath.Join(env.baseDir, "sample", "vinyl.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[segmenter]")
	requireContains(t, out, redacted)
	if strings.Contains(out, "secret-token") {
		t.Fatalf("expected api token to be redacted:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestCLIStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.DaemonStatus{
			Running: true,
			PID:     1234,
			Listen:  "127.0.0.1:8080",
			Worker: api.WorkerStatus{
				Running:    true,
				QueuePath:  "projects/p/locations/l/queues/q",
				QueueStats: map[string]int{"pending": 3},
			},
			Dependencies: []api.DependencyStatus{
				{Name: "yt-dlp", Command: "yt-dlp", Optional: true, Detail: `binary "yt-dlp" not found`},
			},
		})
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, strings.TrimPrefix(srv.URL, "http://"))
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "pid 1234")
	requireContains(t, out, "projects/p/locations/l/queues/q")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "[INFO] 3")
}
