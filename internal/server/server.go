package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/intake"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/pipeline"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/snippets"
)

const maxUploadBytes = 512 << 20

// Route paths served by the orchestration API.
const (
	RoutePushQueue           = "/push-queue"
	RoutePredictionList      = "/asr-prediction-list"
	RouteSnippets            = "/snippets"
	RouteSourceAudios        = "/source-audios"
	RouteSliceSnippet        = "/slice-snippet"
	RouteClearSnippetsBinary = "/clear-snippets-binary"
	RouteStatus              = "/api/status"
	RouteQueue               = "/api/queue"
)

// StatusFunc reports the running service's status.
type StatusFunc func(ctx context.Context) api.DaemonStatus

// Services are the collaborators behind the routes.
type Services struct {
	Intake    *intake.Service
	Loader    *pipeline.Loader
	Processor *pipeline.Processor
	Snippets  *snippets.Service
	Queue     *api.QueueService
	Status    StatusFunc
}

// Server is the orchestration HTTP API.
type Server struct {
	bind   string
	token  string
	logger *slog.Logger
	svc    Services

	listener net.Listener
	server   *http.Server
}

// New builds the server. It returns an error when a required service is missing.
func New(cfg *config.Config, svc Services, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if svc.Intake == nil || svc.Loader == nil || svc.Processor == nil || svc.Snippets == nil || svc.Queue == nil {
		return nil, errors.New("server: intake, loader, processor, snippets and queue services are required")
	}
	s := &Server{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  cfg.Paths.APIToken,
		logger: logging.NewComponentLogger(logger, "api-server"),
		svc:    svc,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      cfg.DispatchDeadline() + time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with CORS, recovery and request ids applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(RoutePushQueue, s.handlePushQueue).Methods(http.MethodPost)
	r.HandleFunc(RoutePredictionList, authMiddleware(s.token, s.handlePredictionList)).Methods(http.MethodPost)
	r.HandleFunc(RouteSnippets, s.handleCreateSnippets).Methods(http.MethodPost)
	r.HandleFunc(RouteSourceAudios, s.handleCreateSourceAudio).Methods(http.MethodPost)
	r.HandleFunc(RouteSliceSnippet, s.handleSliceSnippet).Methods(http.MethodPost)
	r.HandleFunc(RouteClearSnippetsBinary, s.handleClearSnippetsBinary).Methods(http.MethodPost)
	r.HandleFunc(RouteStatus, s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(RouteQueue, s.handleQueue).Methods(http.MethodGet)
	r.HandleFunc(RouteQueue+"/{id:[0-9]+}", s.handleQueueItem).Methods(http.MethodGet)
	r.Use(requestContext(s.logger))

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", HeaderRequestID}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}

// Start listens on api_bind and serves until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
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
