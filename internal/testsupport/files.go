package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Span describes a stretch of a synthetic signal: Tone seconds of a 440 Hz sine
// (or silence when Tone is false) lasting Seconds.
type Span struct {
	Seconds float64
	Tone    bool
}

// Speech builds a mono signal alternating tone bursts and silence, standing in
// for utterances separated by pauses.
func Speech(rate int, spans ...Span) []float32 {
	var samples []float32
	for _, span := range spans {
		n := int(span.Seconds * float64(rate))
		for i := 0; i < n; i++ {
			if span.Tone {
				samples = append(samples, float32(0.5*math.Sin(2*math.Pi*440*float64(i)/float64(rate))))
			} else {
				samples = append(samples, 0)
			}
		}
	}
	return samples
}

// WAV encodes samples as 16-bit mono WAV bytes.
func WAV(t testing.TB, samples []float32, rate int) []byte {
	t.Helper()

	data, err := audio.EncodeWAV(samples, rate)
	if err != nil {
		t.Fatalf("audio.EncodeWAV: %v", err)
	}
	return data
}

// WriteWAV writes samples as a WAV file at path.
func WriteWAV(t testing.TB, path string, samples []float32, rate int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, WAV(t, samples, rate), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
