package services

import "context"

type contextKey string

const (
	taskIDKey        contextKey = "task_id"
	sourceAudioIDKey contextKey = "source_audio_uid"
	stageKey         contextKey = "stage"
	requestIDKey     contextKey = "request_id"
)

// WithTaskID annotates context with the queue task identifier.
func WithTaskID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the queue task identifier if present.
func TaskIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(taskIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithSourceAudioID annotates context with the source audio being processed.
func WithSourceAudioID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceAudioIDKey, id)
}

// SourceAudioIDFromContext returns the source audio id if present.
func SourceAudioIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceAudioIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
