package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/align"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/dispatch"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/segment"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/snippets"
)

// secondsPrecision bounds the decimal places of rendered times.
const secondsPrecision = 16

// Predictor is the ASR client surface used by the processor.
type Predictor interface {
	Endpoint(reference string) string
	Predict(ctx context.Context, wav []byte, url string) (string, error)
}

// Sink receives finished snippet batches.
type Sink interface {
	Create(ctx context.Context, req snippets.Request) (json.RawMessage, error)
}

// SnippetCounter reports how many snippets a source audio already has.
type SnippetCounter interface {
	CountSnippets(ctx context.Context, sourceAudioUID string, limit int) (int, error)
}

// Request is a loaded source audio ready for processing.
type Request struct {
	Signal         audio.Signal
	Reference      string
	TopDB          float64
	SourceAudioUID string
}

// Processor runs the segment, predict, align pipeline.
type Processor struct {
	predictor   Predictor
	sink        Sink
	counter     SnippetCounter
	aligner     align.Aligner
	logger      *slog.Logger
	concurrency int
	segmenter   segment.Options
	threshold   int
	lookupLimit int
}

// NewProcessor wires the collaborators. counter and sink may be nil when
// batches are never forwarded.
func NewProcessor(cfg *config.Config, predictor Predictor, sink Sink, counter SnippetCounter, logger *slog.Logger) *Processor {
	return &Processor{
		predictor:   predictor,
		sink:        sink,
		counter:     counter,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		concurrency: cfg.ASR.Concurrency,
		segmenter: segment.Options{
			TopDB:       cfg.Segmenter.TopDB,
			FrameLength: cfg.Segmenter.FrameLength,
			HopLength:   cfg.Segmenter.HopLength,
		},
		threshold:   cfg.Snippets.DuplicateThreshold,
		lookupLimit: cfg.Snippets.LookupLimit,
	}
}

// Process returns one record per non-silent segment, in signal order.
func (p *Processor) Process(ctx context.Context, req Request) ([]snippets.Record, error) {
	if req.Signal.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "process", "signal has no sample rate", nil)
	}
	if req.SourceAudioUID != "" {
		ctx = services.WithSourceAudioID(ctx, req.SourceAudioUID)
	}
	logger := logging.WithContext(ctx, p.logger)

	opts := p.segmenter
	if req.TopDB > 0 {
		opts.TopDB = req.TopDB
	}
	segments := segment.Cut(req.Signal.Samples, segment.Split(req.Signal.Samples, opts))
	logger.Info("audio split",
		logging.Int("segments", len(segments)),
		logging.Float64("top_db", opts.TopDB),
		logging.Duration("audio", req.Signal.Duration()),
	)

	url := p.predictor.Endpoint(req.Reference)
	rate := req.Signal.SampleRate
	calls := make([]dispatch.Call[snippets.Record], len(segments))
	for i, seg := range segments {
		calls[i] = func(ctx context.Context) (snippets.Record, error) {
			return p.predictSegment(ctx, seg, rate, req.Reference, url)
		}
	}

	start := time.Now()
	records, err := dispatch.Gather(ctx, p.concurrency, calls)
	if err != nil {
		return nil, fmt.Errorf("predict segments: %w", err)
	}
	if records == nil {
		records = []snippets.Record{}
	}
	logger.Info("segments predicted",
		logging.Int("segments", len(records)),
		logging.Int("waves", len(dispatch.Waves(len(calls), p.concurrency))),
		logging.Duration("elapsed", time.Since(start)),
	)

	if req.SourceAudioUID != "" {
		if err := p.forward(ctx, logger, req.SourceAudioUID, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (p *Processor) predictSegment(ctx context.Context, seg segment.Segment, rate int, reference, url string) (snippets.Record, error) {
	wav, err := audio.EncodeWAV(seg.Samples, rate)
	if err != nil {
		return snippets.Record{}, err
	}
	prediction, err := p.predictor.Predict(ctx, wav, url)
	if err != nil {
		return snippets.Record{}, err
	}
	subtitle := prediction
	if reference != "" {
		subtitle = p.aligner.Align(prediction, reference).Text
	}
	return snippets.Record{
		Prediction:  prediction,
		Subtitle:    subtitle,
		StartTime:   FormatSeconds(seg.Start, rate),
		SampleStart: strconv.Itoa(seg.Start),
		SampleEnd:   strconv.Itoa(seg.End),
		EndTime:     FormatSeconds(seg.End, rate),
		RealText:    subtitle,
	}, nil
}

// forward sends the batch to the sink unless the source audio already holds
// enough snippets. A failed lookup counts as no snippets.
func (p *Processor) forward(ctx context.Context, logger *slog.Logger, uid string, records []snippets.Record) error {
	if p.sink == nil {
		return nil
	}
	existing := 0
	if p.counter != nil {
		count, err := p.counter.CountSnippets(ctx, uid, p.lookupLimit)
		if err != nil {
			logging.WarnWithContext(logger, "snippet lookup failed; assuming none exist", "snippet_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check document store access"),
				logging.String(logging.FieldImpact, "snippet batch may be stored twice"),
			)
		} else {
			existing = count
		}
	}
	if existing >= p.threshold {
		logger.Info("snippets already exist; skipping sink",
			logging.Int("existing", existing),
			logging.Int("threshold", p.threshold),
		)
		return nil
	}
	if _, err := p.sink.Create(ctx, snippets.Request{SourceAudioUID: uid, Snippets: records}); err != nil {
		return fmt.Errorf("create snippets: %w", err)
	}
	logger.Info("snippet batch forwarded", logging.Int("snippets", len(records)))
	return nil
}

// FormatSeconds renders sample/rate as a decimal string. Whole numbers keep a
// trailing ".0".
func FormatSeconds(sample, rate int) string {
	value := decimal.NewFromInt(int64(sample)).DivRound(decimal.NewFromInt(int64(rate)), secondsPrecision)
	text := value.String()
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}
