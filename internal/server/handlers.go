package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/intake"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/pipeline"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/snippets"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/worker"
)

// PushResponse acknowledges a queued source audio.
type PushResponse struct {
	Message string             `json:"message"`
	Task    *intake.PushResult `json:"task,omitempty"`
}

// PredictionListResponse carries the aligned records for one source audio.
type PredictionListResponse struct {
	Data []snippets.Record `json:"data"`
}

func (s *Server) handlePushQueue(w http.ResponseWriter, r *http.Request) {
	var req intake.PushRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.Intake.Push(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, PushResponse{Message: "ok", Task: &result})
}

func (s *Server) handlePredictionList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if taskName := r.Header.Get(worker.HeaderTaskName); taskName != "" {
		logging.WithContext(ctx, s.logger).Info("processing queued task",
			logging.String("task_name", taskName),
			logging.String("retry_count", r.Header.Get(worker.HeaderTaskRetryCount)),
		)
	}

	req, err := s.readPredictionRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	records, err := s.svc.Processor.Process(ctx, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, PredictionListResponse{Data: records})
}

func (s *Server) readPredictionRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return pipeline.Request{}, services.Wrap(services.ErrValidation, "api-server", "parse form", "a file field is required", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return pipeline.Request{}, services.Wrap(services.ErrValidation, "api-server", "read upload", "could not read file", err)
		}
		return s.svc.Loader.FromUpload(r.Context(), data, r.FormValue("speech"))
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return pipeline.Request{}, services.Wrap(services.ErrValidation, "api-server", "read body", "could not read request body", err)
	}
	return s.svc.Loader.FromJSON(r.Context(), body)
}

func (s *Server) handleCreateSnippets(w http.ResponseWriter, r *http.Request) {
	var req snippets.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.Snippets.Create(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreateSourceAudio(w http.ResponseWriter, r *http.Request) {
	var req intake.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.Intake.CreateSourceAudio(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSliceSnippet(w http.ResponseWriter, r *http.Request) {
	var req snippets.SliceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.Snippets.Slice(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearSnippetsBinary(w http.ResponseWriter, r *http.Request) {
	var req snippets.ClearRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.Snippets.ClearBinary(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.svc.Status == nil {
		api.WriteJSON(w, http.StatusOK, api.DaemonStatus{Running: true})
		return
	}
	api.WriteJSON(w, http.StatusOK, s.svc.Status(r.Context()))
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			api.WriteMessage(w, http.StatusBadRequest, "unknown status "+strconv.Quote(trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.svc.Queue.List(r.Context(), statuses...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
}

func (s *Server) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		api.WriteMessage(w, http.StatusBadRequest, "invalid queue item id")
		return
	}
	item, err := s.svc.Queue.Describe(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if item == nil {
		api.WriteMessage(w, http.StatusNotFound, "queue item not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	log := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request error",
			logging.String("path", r.URL.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "request_error"),
		)
	} else {
		log.Info("request rejected", logging.String("path", r.URL.Path), logging.Error(err))
	}
	api.WriteError(w, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Wrap(services.ErrValidation, "api-server", "decode body", "request body is empty", err)
		}
		return services.Wrap(services.ErrValidation, "api-server", "decode body", "invalid json body", err)
	}
	return nil
}
