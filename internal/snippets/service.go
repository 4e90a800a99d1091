package snippets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// byteOrderMark prefixes exported transcripts so editors detect UTF-8.
const byteOrderMark = "\ufeff"

// Service implements the sink and training-data export.
type Service struct {
	store      *docstore.Store
	bucket     blob.Bucket
	loader     *audio.Loader
	prefix     string
	sampleRate int
	logger     *slog.Logger
}

// NewService wires the store and bucket used by the sink.
func NewService(cfg *config.Config, store *docstore.Store, bucket blob.Bucket, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		bucket:     bucket,
		loader:     audio.NewLoader(cfg.YouTube.FFmpegBinary),
		prefix:     cfg.Snippets.TrainingDataPrefix,
		sampleRate: cfg.ASR.SampleRate,
		logger:     logging.NewComponentLogger(logger, "snippets"),
	}
}

// WithLoader swaps the audio loader. Intended for tests.
func (s *Service) WithLoader(loader *audio.Loader) *Service {
	if loader != nil {
		s.loader = loader
	}
	return s
}

// Create replaces the snippet list of a source audio and marks it
// pre-processed. It returns the updated document.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*docstore.SourceAudio, error) {
	uid := strings.TrimSpace(req.SourceAudioUID)
	if uid == "" {
		return nil, services.Wrap(services.ErrValidation, "snippets", "create", "sourceAudioUid is required", nil)
	}
	source, err := s.store.GetSourceAudio(ctx, uid)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, services.Wrap(services.ErrValidation, "snippets", "create", "can not find source audio data", nil)
	}

	items := make([]docstore.Snippet, 0, len(req.Snippets))
	for _, in := range req.Snippets {
		text := in.Subtitle
		if in.Text != nil {
			text = *in.Text
		}
		items = append(items, docstore.Snippet{
			StartTime: in.StartTime.InexactFloat64(),
			EndTime:   in.EndTime.InexactFloat64(),
			Text:      text,
		})
	}

	stored, err := s.store.ReplaceSnippets(ctx, uid, items)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkPreProcessed(ctx, uid); err != nil {
		return nil, err
	}

	updated, err := s.store.GetSourceAudio(ctx, uid)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, services.Wrap(services.ErrNotFound, "snippets", "create", "source audio disappeared", nil)
	}
	updated.Snippets = stored
	s.logger.Info("snippets stored",
		logging.SourceAudioID(uid),
		logging.Int("count", len(stored)),
	)
	return updated, nil
}

// TrainingDir is the object prefix for a source audio's exported snippets.
func (s *Service) TrainingDir(speakerID, sourceAudioID string) string {
	return blob.Join(s.prefix, speakerID, sourceAudioID) + "/"
}

// Slice cuts one snippet out of its source audio and uploads the WAV and
// transcript pair.
func (s *Service) Slice(ctx context.Context, req SliceRequest) (SliceResult, error) {
	required := [][2]string{
		{"sourceAudioId", req.SourceAudioID},
		{"speakerId", req.SpeakerID},
		{"sourceAudioRefPath", req.SourceAudioRefPath},
		{"snippet.id", req.Snippet.ID},
	}
	for _, field := range required {
		if strings.TrimSpace(field[1]) == "" {
			return SliceResult{}, services.Wrap(services.ErrValidation, "snippets", "slice", field[0]+" is required", nil)
		}
	}
	if req.Snippet.EndTime <= req.Snippet.StartTime {
		return SliceResult{}, services.Wrap(services.ErrValidation, "snippets", "slice",
			fmt.Sprintf("snippet %s has an empty time range", req.Snippet.ID), nil)
	}

	data, err := blob.ReadAll(ctx, s.bucket, req.SourceAudioRefPath)
	if errors.Is(err, blob.ErrObjectNotFound) {
		return SliceResult{}, services.Wrap(services.ErrValidation, "snippets", "slice", "no source audio ref found", err)
	}
	if err != nil {
		return SliceResult{}, err
	}
	sig, err := s.loader.LoadBytes(ctx, data, s.sampleRate)
	if err != nil {
		return SliceResult{}, services.Wrap(services.ErrExternalTool, "snippets", "slice", "decode source audio", err)
	}
	cut := sig.Slice(req.Snippet.StartTime, req.Snippet.EndTime)
	wav, err := audio.EncodeWAV(cut.Samples, cut.SampleRate)
	if err != nil {
		return SliceResult{}, err
	}

	dir := s.TrainingDir(req.SpeakerID, req.SourceAudioID)
	result := SliceResult{
		AudioPath: dir + req.Snippet.ID + ".wav",
		TextPath:  dir + req.Snippet.ID + ".txt",
	}
	if err := s.bucket.Upload(ctx, result.AudioPath, bytes.NewReader(wav), "audio/wav"); err != nil {
		return SliceResult{}, fmt.Errorf("upload snippet audio: %w", err)
	}
	text := strings.NewReader(byteOrderMark + req.Snippet.Text)
	if err := s.bucket.Upload(ctx, result.TextPath, text, "text/plain; charset=utf-8"); err != nil {
		return SliceResult{}, fmt.Errorf("upload snippet text: %w", err)
	}
	return result, nil
}

// ClearBinary removes every exported snippet file of a source audio.
func (s *Service) ClearBinary(ctx context.Context, req ClearRequest) (ClearResult, error) {
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.SpeakerID) == "" {
		return ClearResult{}, services.Wrap(services.ErrValidation, "snippets", "clear", "id and speakerId are required", nil)
	}
	if strings.TrimSpace(req.StorageRefPath) == "" {
		return ClearResult{}, services.Wrap(services.ErrValidation, "snippets", "clear", "no source audio ref found", nil)
	}
	exists, err := s.bucket.Exists(ctx, req.StorageRefPath)
	if err != nil {
		return ClearResult{}, err
	}
	if !exists {
		return ClearResult{}, services.Wrap(services.ErrValidation, "snippets", "clear", "no source audio ref found", nil)
	}
	deleted, err := blob.DeletePrefix(ctx, s.bucket, s.TrainingDir(req.SpeakerID, req.ID))
	if err != nil {
		return ClearResult{Deleted: deleted}, err
	}
	s.logger.Info("training data cleared",
		logging.SourceAudioID(req.ID),
		logging.Int("deleted", deleted),
	)
	return ClearResult{Deleted: deleted}, nil
}
