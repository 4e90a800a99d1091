package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// HeaderRequestID carries the correlation id in and out of the API.
const HeaderRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestContext stamps a request id on the context and logs the outcome.
func requestContext(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := services.WithRequestID(r.Context(), id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []logging.Attr{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rec.status),
				logging.Duration("elapsed", time.Since(start)),
			}
			log := logging.WithContext(ctx, logger)
			if rec.status >= http.StatusInternalServerError {
				log.Warn("request failed", logging.Args(attrs...)...)
				return
			}
			log.Debug("request served", logging.Args(attrs...)...)
		})
	}
}

// recoveryLogger adapts slog to the gorilla/handlers recovery logger.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(values ...any) {
	l.logger.Error("handler panic",
		logging.String("panic", strings.TrimSpace(fmt.Sprintln(values...))),
		logging.String(logging.FieldEventType, "handler_panic"),
	)
}
