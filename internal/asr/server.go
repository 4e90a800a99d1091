package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

const maxUploadBytes = 256 << 20

type arrayRequest struct {
	AudioArray []float32 `json:"audio_array"`
}

// Server is the ASR backend HTTP service.
type Server struct {
	bind       string
	sampleRate int
	logger     *slog.Logger
	recognizer Recognizer
	loader     *audio.Loader

	// one inference at a time
	inferMu sync.Mutex

	listener net.Listener
	server   *http.Server
}

// NewServer wires a recognizer behind the /asr-predict route.
func NewServer(cfg *config.Config, recognizer Recognizer, logger *slog.Logger) *Server {
	s := &Server{
		bind:       cfg.Paths.ASRBind,
		sampleRate: cfg.ASR.SampleRate,
		logger:     logging.NewComponentLogger(logger, "asr-server"),
		recognizer: recognizer,
		loader:     audio.NewLoader(cfg.YouTube.FFmpegBinary),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      cfg.ASRTimeout(),
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// WithLoader swaps the audio loader. Intended for tests.
func (s *Server) WithLoader(loader *audio.Loader) *Server {
	if loader != nil {
		s.loader = loader
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(PredictRoute, s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Start listens on asr_bind and serves until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("asr listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("asr server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("asr server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	sig, err := s.readSignal(w, r)
	if err != nil {
		s.logger.Warn("rejecting predict request", logging.Error(err))
		api.WriteError(w, err)
		return
	}

	start := time.Now()
	s.inferMu.Lock()
	text, err := s.recognizer.Recognize(r.Context(), sig)
	s.inferMu.Unlock()
	if err != nil {
		s.logger.Error("inference failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "asr_inference_failed"),
		)
		api.WriteError(w, err)
		return
	}
	s.logger.Debug("inference complete",
		logging.Duration("audio", sig.Duration()),
		logging.Duration("elapsed", time.Since(start)),
		logging.Int("chars", len(text)),
	)
	api.WriteJSON(w, http.StatusOK, Prediction{Prediction: text})
}

func (s *Server) readSignal(w http.ResponseWriter, r *http.Request) (audio.Signal, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "read upload", "could not read file", err)
			}
			sig, err := s.loader.LoadBytes(r.Context(), data, s.sampleRate)
			if err != nil {
				return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "decode upload", "unsupported audio", err)
			}
			return sig, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "parse form", "invalid multipart body", err)
		}
	}
	if mediaType == "audio/l16" || mediaType == "application/octet-stream" {
		return s.readPCM(r)
	}

	var req arrayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "decode body", "expected a file upload or audio_array", err)
	}
	return audio.Signal{Samples: req.AudioArray, SampleRate: s.sampleRate}, nil
}

// readPCM accepts raw little-endian 16-bit mono PCM. The source rate comes from
// the rate query parameter and defaults to the configured rate.
func (s *Server) readPCM(r *http.Request) (audio.Signal, error) {
	rate := s.sampleRate
	if raw := r.URL.Query().Get("rate"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "parse rate", "rate must be a positive integer", err)
		}
		rate = v
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "read body", "could not read pcm body", err)
	}
	if len(data) < 2 {
		return audio.Signal{}, services.Wrap(services.ErrValidation, "asr-server", "read body", "empty pcm body", nil)
	}
	sig := audio.Signal{Samples: audio.BytesToFloat32(data), SampleRate: rate}
	return audio.Resample(sig, s.sampleRate), nil
}
