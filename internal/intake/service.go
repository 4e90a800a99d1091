package intake

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// Downloader fetches a video's audio as a WAV file.
type Downloader interface {
	Download(ctx context.Context, url, workDir string) (string, error)
}

// PushRequest is the /push-queue body.
type PushRequest struct {
	SourceAudioUID string `json:"sourceAudioUid"`
	YouTubeURL     string `json:"youtubeURL"`
	Name           string `json:"name"`
	SpeakerID      string `json:"speakerId"`
}

// PushResult identifies the queued task.
type PushResult struct {
	TaskID         int64  `json:"taskId"`
	TaskName       string `json:"taskName"`
	SourceAudioUID string `json:"sourceAudioUid"`
}

// SpeakerRef names an existing speaker by id or a new one by name.
type SpeakerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateRequest registers an uploaded object as a source audio.
type CreateRequest struct {
	Name           string     `json:"name"`
	StorageRefPath string     `json:"storageRefPath"`
	Subtitle       string     `json:"subtitle"`
	Speaker        SpeakerRef `json:"speaker"`
}

// CreateResult is the new source audio with the task queued for it.
type CreateResult struct {
	ID   string     `json:"id"`
	Task PushResult `json:"task"`
}

// Service implements intake.
type Service struct {
	cfg        *config.Config
	docs       *docstore.Store
	tasks      *queue.Store
	bucket     blob.Bucket
	downloader Downloader
	logger     *slog.Logger
}

// NewService wires intake. downloader may be nil when video URLs are not accepted.
func NewService(cfg *config.Config, docs *docstore.Store, tasks *queue.Store, bucket blob.Bucket, downloader Downloader, logger *slog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		docs:       docs,
		tasks:      tasks,
		bucket:     bucket,
		downloader: downloader,
		logger:     logging.NewComponentLogger(logger, "intake"),
	}
}

// Push queues a source audio for processing.
func (s *Service) Push(ctx context.Context, req PushRequest) (PushResult, error) {
	uid := strings.TrimSpace(req.SourceAudioUID)
	url := strings.TrimSpace(req.YouTubeURL)

	var (
		source *docstore.SourceAudio
		err    error
	)
	switch {
	case uid == "" && url != "":
		source, err = s.importVideo(ctx, req)
	case uid == "":
		err = services.Wrap(services.ErrValidation, "intake", "push", "sourceAudioUid or youtubeURL is required", nil)
	default:
		source, err = s.docs.GetSourceAudio(ctx, uid)
		if err == nil && source == nil {
			err = services.Wrap(services.ErrNotFound, "intake", "push", fmt.Sprintf("source audio %s not found", uid), nil)
		}
	}
	if err != nil {
		return PushResult{}, err
	}

	task, err := s.tasks.Enqueue(ctx, queue.NewTask{
		QueueName:      s.cfg.Queue.QueueName,
		SourceAudioUID: source.ID,
		TargetURL:      s.cfg.Queue.TargetURL,
		Payload: queue.Payload{
			SourceAudioUID: source.ID,
			AudioPath:      source.StorageRefPath,
			Text:           source.Subtitle,
		},
		DispatchDeadline: s.cfg.DispatchDeadline(),
	})
	if err != nil {
		return PushResult{}, fmt.Errorf("enqueue task: %w", err)
	}
	result := PushResult{
		TaskID:         task.ID,
		TaskName:       task.Name(s.cfg.QueuePath()),
		SourceAudioUID: source.ID,
	}
	s.logger.Info("created task",
		logging.String("task_name", result.TaskName),
		logging.SourceAudioID(source.ID),
		logging.Event("task_created"),
	)
	return result, nil
}

func (s *Service) importVideo(ctx context.Context, req PushRequest) (*docstore.SourceAudio, error) {
	if s.downloader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "import video", "video downloads are not configured", nil)
	}
	workDir := filepath.Join(s.cfg.WorkDir(), uuid.NewString())
	defer os.RemoveAll(workDir)

	path, err := s.downloader.Download(ctx, req.YouTubeURL, workDir)
	if err != nil {
		return nil, err
	}
	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	if existing, err := s.docs.FindSourceAudioByHash(ctx, hash); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Info("reusing source audio with identical content",
			logging.SourceAudioID(existing.ID),
			logging.String("youtube_url", req.YouTubeURL),
		)
		return existing, nil
	}

	storagePath := blob.Join(s.cfg.Storage.SourceAudioPrefix, uuid.NewString()+".wav")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}
	defer file.Close()
	if err := s.bucket.Upload(ctx, storagePath, file, "audio/wav"); err != nil {
		return nil, fmt.Errorf("upload source audio: %w", err)
	}

	return s.docs.CreateSourceAudio(ctx, docstore.SourceAudio{
		Name:           req.Name,
		StorageRefPath: storagePath,
		SpeakerID:      req.SpeakerID,
		YouTubeURL:     req.YouTubeURL,
		ContentHash:    hash,
	})
}

// CreateSourceAudio registers an uploaded object, creating the speaker when
// only a name is given, and queues it.
func (s *Service) CreateSourceAudio(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if strings.TrimSpace(req.StorageRefPath) == "" {
		return CreateResult{}, services.Wrap(services.ErrValidation, "intake", "create source audio", "storageRefPath is required", nil)
	}
	exists, err := s.bucket.Exists(ctx, req.StorageRefPath)
	if err != nil {
		return CreateResult{}, err
	}
	if !exists {
		return CreateResult{}, services.Wrap(services.ErrValidation, "intake", "create source audio", "no source audio's file found", nil)
	}

	speakerID := strings.TrimSpace(req.Speaker.ID)
	if speakerID == "" {
		if strings.TrimSpace(req.Speaker.Name) == "" {
			return CreateResult{}, services.Wrap(services.ErrValidation, "intake", "create source audio", "speaker id or name is required", nil)
		}
		speaker, err := s.docs.CreateSpeaker(ctx, req.Speaker.Name)
		if err != nil {
			return CreateResult{}, err
		}
		speakerID = speaker.ID
	}

	hash, err := s.hashObject(ctx, req.StorageRefPath)
	if err != nil {
		return CreateResult{}, err
	}
	source, err := s.docs.CreateSourceAudio(ctx, docstore.SourceAudio{
		Name:           req.Name,
		StorageRefPath: req.StorageRefPath,
		Subtitle:       req.Subtitle,
		SpeakerID:      speakerID,
		ContentHash:    hash,
	})
	if err != nil {
		return CreateResult{}, err
	}

	task, err := s.Push(ctx, PushRequest{SourceAudioUID: source.ID})
	if err != nil {
		return CreateResult{ID: source.ID}, err
	}
	return CreateResult{ID: source.ID, Task: task}, nil
}

func (s *Service) hashObject(ctx context.Context, path string) (string, error) {
	rc, err := s.bucket.Download(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return contentHash(rc)
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open download: %w", err)
	}
	defer file.Close()
	return contentHash(file)
}
