package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// ErrNotWAV reports input that is not a PCM RIFF/WAVE stream.
var ErrNotWAV = errors.New("not a pcm wav stream")

const wavFormatPCM = 1

// Signal is a mono sample buffer in the range [-1, 1].
type Signal struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length of the signal.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Slice returns the part of the signal between two offsets in seconds. The
// bounds are clamped to the signal.
func (s Signal) Slice(startSeconds, endSeconds float64) Signal {
	start := clampIndex(int(math.Round(startSeconds*float64(s.SampleRate))), len(s.Samples))
	end := clampIndex(int(math.Round(endSeconds*float64(s.SampleRate))), len(s.Samples))
	if end < start {
		end = start
	}
	return Signal{Samples: s.Samples[start:end], SampleRate: s.SampleRate}
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n)
}

// DecodeWAV reads a PCM WAV stream and downmixes it to mono.
func DecodeWAV(r io.ReadSeeker) (Signal, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Signal{}, ErrNotWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Signal{}, fmt.Errorf("%w: audio format %d", ErrNotWAV, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("decode wav: %w", err)
	}
	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		return Signal{}, fmt.Errorf("decode wav: invalid channel count %d", channels)
	}
	depth := int(dec.BitDepth)
	if depth <= 0 || depth > 32 {
		return Signal{}, fmt.Errorf("decode wav: unsupported bit depth %d", depth)
	}

	scale := float64(int64(1) << (depth - 1))
	offset := 0
	if depth == 8 {
		// 8-bit PCM is unsigned
		offset = 128
	}
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch] - offset
		}
		samples[i] = float32(float64(sum) / float64(channels) / scale)
	}
	return Signal{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// DecodeWAVBytes is DecodeWAV over an in-memory file.
func DecodeWAVBytes(data []byte) (Signal, error) {
	return DecodeWAV(bytes.NewReader(data))
}

// EncodeWAV renders samples as a 16-bit mono PCM WAV file.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("encode wav: invalid sample rate %d", sampleRate)
	}
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           Float32ToPCM16(samples),
		SourceBitDepth: 16,
	}

	out := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(out, sampleRate, 16, 1, wavFormatPCM)
	if err := encoder.Write(buffer); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	data, err := io.ReadAll(out.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading wav into memory: %w", err)
	}
	return data, nil
}
