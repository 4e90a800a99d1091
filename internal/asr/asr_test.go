package asr_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/asr"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/testsupport"
)

func TestClientPredictUploadsSegment(t *testing.T) {
	wav := testsupport.WAV(t, testsupport.Speech(16000, testsupport.Span{Seconds: 0.1, Tone: true}), 16000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != asr.PredictRoute {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if !bytes.Equal(body, wav) {
			t.Errorf("uploaded bytes differ from segment")
		}
		_ = json.NewEncoder(w).Encode(asr.Prediction{Prediction: "xin chao"})
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPredictURL(srv.URL+"/"))
	client := asr.NewClient(cfg, logging.NewNop())
	text, err := client.Predict(context.Background(), wav, client.Endpoint("reference"))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if text != "xin chao" {
		t.Fatalf("unexpected prediction %q", text)
	}
}

func TestClientPredictToleratesBadResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html", http.StatusBadGateway, "<html>bad gateway</html>"},
		{"missing field", http.StatusOK, `{"text":"nope"}`},
		{"wrong type", http.StatusOK, `{"prediction":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithPredictURL(srv.URL))
			client := asr.NewClient(cfg, logging.NewNop())
			text, err := client.Predict(context.Background(), []byte("RIFF"), client.Endpoint("ref"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if text != "" {
				t.Fatalf("expected empty prediction, got %q", text)
			}
		})
	}
}

func TestClientPredictTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPredictURL(url))
	client := asr.NewClient(cfg, logging.NewNop())
	if _, err := client.Predict(context.Background(), []byte("RIFF"), client.Endpoint("ref")); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestClientEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPredictURL("http://asr.local:9000"))
	cfg.ASR.FallbackURL = "https://fallback.example.com/stt"
	client := asr.NewClient(cfg, logging.NewNop())

	if got := client.Endpoint("some text"); got != "http://asr.local:9000/asr-predict" {
		t.Fatalf("unexpected primary endpoint %q", got)
	}
	if got := client.Endpoint(""); got != "https://fallback.example.com/stt" {
		t.Fatalf("unexpected fallback endpoint %q", got)
	}

	cfg.ASR.FallbackURL = ""
	client = asr.NewClient(cfg, logging.NewNop())
	if got := client.Endpoint(""); got != "http://asr.local:9000/asr-predict" {
		t.Fatalf("expected primary endpoint without fallback, got %q", got)
	}
}

func TestCommandRecognizerAppendsSegmentPath(t *testing.T) {
	var gotName string
	var gotArgs []string
	rec, err := asr.NewCommandRecognizer([]string{"transcribe", "--lang", "vi"}, t.TempDir())
	if err != nil {
		t.Fatalf("NewCommandRecognizer failed: %v", err)
	}
	rec.WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		data, err := os.ReadFile(args[len(args)-1])
		if err != nil {
			t.Errorf("segment file missing: %v", err)
		}
		if _, err := audio.DecodeWAVBytes(data); err != nil {
			t.Errorf("segment is not a wav: %v", err)
		}
		return []byte("  mot hai ba\n"), nil
	})

	text, err := rec.Recognize(context.Background(), audio.Signal{Samples: make([]float32, 1600), SampleRate: 16000})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "mot hai ba" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotName != "transcribe" || len(gotArgs) != 3 || gotArgs[0] != "--lang" || !strings.HasSuffix(gotArgs[2], "audio.wav") {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
}

func TestCommandRecognizerFailure(t *testing.T) {
	rec, err := asr.NewCommandRecognizer([]string{"transcribe"}, "")
	if err != nil {
		t.Fatalf("NewCommandRecognizer failed: %v", err)
	}
	rec.WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 2")
	})
	_, err = rec.Recognize(context.Background(), audio.Signal{Samples: make([]float32, 10), SampleRate: 16000})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNewRecognizerValidatesEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.ASR.Engine = config.EngineCommand
	cfg.ASR.EngineCommand = nil
	if _, err := asr.NewRecognizer(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty command, got %v", err)
	}

	cfg.ASR.Engine = config.EngineOpenAI
	cfg.ASR.OpenAIAPIKey = ""
	if _, err := asr.NewRecognizer(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing key, got %v", err)
	}

	cfg.ASR.OpenAIAPIKey = "sk-test"
	rec, err := asr.NewRecognizer(cfg)
	if err != nil {
		t.Fatalf("expected openai recognizer, got %v", err)
	}
	if _, ok := rec.(*asr.OpenAIRecognizer); !ok {
		t.Fatalf("unexpected recognizer type %T", rec)
	}
}

func TestOpenAIRecognizerUsesTranscriptionAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello there "}`))
	}))
	defer srv.Close()

	rec, err := asr.NewOpenAIRecognizer("sk-test", srv.URL+"/v1", "whisper-1")
	if err != nil {
		t.Fatalf("NewOpenAIRecognizer failed: %v", err)
	}
	text, err := rec.Recognize(context.Background(), audio.Signal{Samples: make([]float32, 160), SampleRate: 16000})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text %q", text)
	}
}

type stubRecognizer struct {
	text     string
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	rates    []int
	lengths  []int
}

func (s *stubRecognizer) Recognize(_ context.Context, sig audio.Signal) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.rates = append(s.rates, sig.SampleRate)
	s.lengths = append(s.lengths, len(sig.Samples))
	s.mu.Unlock()
	return s.text, nil
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "audio.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestServerPredictFromUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubRecognizer{text: "xin chao"}
	handler := asr.NewServer(cfg, stub, logging.NewNop()).Handler()

	// 8 kHz upload must be resampled to the configured 16 kHz.
	wav := testsupport.WAV(t, make([]float32, 800), 8000)
	body, contentType := multipartBody(t, "file", wav)
	req := httptest.NewRequest(http.MethodPost, "/asr-predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp asr.Prediction
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Prediction != "xin chao" {
		t.Fatalf("unexpected prediction %q", resp.Prediction)
	}
	if stub.rates[0] != 16000 || stub.lengths[0] != 1600 {
		t.Fatalf("expected resampled signal, got rate=%d len=%d", stub.rates[0], stub.lengths[0])
	}
}

func TestServerPredictFromArray(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubRecognizer{text: "ok"}
	handler := asr.NewServer(cfg, stub, logging.NewNop()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/asr-predict", strings.NewReader(`{"audio_array":[0.1,-0.1,0.2]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lengths[0] != 3 {
		t.Fatalf("expected 3 samples, got %d", stub.lengths[0])
	}
}

func TestServerPredictFromRawPCM(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	tests := []struct {
		name       string
		query      string
		body       []byte
		wantCode   int
		wantLength int
	}{
		{name: "configured rate", body: []byte{0x00, 0x40, 0x00, 0xc0}, wantCode: http.StatusOK, wantLength: 2},
		{name: "odd trailing byte", body: []byte{0x00, 0x40, 0x00, 0xc0, 0x01}, wantCode: http.StatusOK, wantLength: 2},
		{name: "resampled", query: "?rate=8000", body: make([]byte, 1600), wantCode: http.StatusOK, wantLength: 1600},
		{name: "bad rate", query: "?rate=zero", body: make([]byte, 4), wantCode: http.StatusBadRequest},
		{name: "empty", body: nil, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRecognizer{text: "pcm"}
			handler := asr.NewServer(cfg, stub, logging.NewNop()).Handler()
			req := httptest.NewRequest(http.MethodPost, "/asr-predict"+tt.query, bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "audio/l16")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if stub.rates[0] != cfg.ASR.SampleRate || stub.lengths[0] != tt.wantLength {
				t.Fatalf("expected rate=%d len=%d, got rate=%d len=%d",
					cfg.ASR.SampleRate, tt.wantLength, stub.rates[0], stub.lengths[0])
			}
		})
	}
}

func TestServerRejectsBadBodies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := asr.NewServer(cfg, &stubRecognizer{}, logging.NewNop()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/asr-predict", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected json error body, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/asr-predict", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestServerSerializesInference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubRecognizer{text: "x"}
	handler := asr.NewServer(cfg, stub, logging.NewNop()).Handler()

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/asr-predict", strings.NewReader(`{"audio_array":[0]}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		}()
	}
	wg.Wait()
	if peak := stub.peak.Load(); peak != 1 {
		t.Fatalf("expected one inference at a time, saw %d", peak)
	}
}

func TestServerStartAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := asr.NewServer(cfg, &stubRecognizer{}, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Stop()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
