package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFFmpegBinary is used when a Loader is built without one.
const DefaultFFmpegBinary = "ffmpeg"

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// RunCommand is the default CommandRunner backed by os/exec.
func RunCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Loader turns audio files of any container into mono signals.
type Loader struct {
	ffmpegBinary string
	run          CommandRunner
}

// NewLoader builds a Loader around the given ffmpeg binary.
func NewLoader(ffmpegBinary string) *Loader {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = DefaultFFmpegBinary
	}
	return &Loader{ffmpegBinary: ffmpegBinary, run: RunCommand}
}

// WithRunner swaps the command runner. Intended for tests.
func (l *Loader) WithRunner(run CommandRunner) *Loader {
	if run != nil {
		l.run = run
	}
	return l
}

// Transcode converts src into a mono PCM WAV at rate, written to dest.
func (l *Loader) Transcode(ctx context.Context, src, dest string, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("transcode: invalid sample rate %d", rate)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dest,
	}
	if output, err := l.run(ctx, l.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg transcode: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// LoadFile decodes path into a mono signal at rate. WAV files are decoded in
// process and resampled if needed; other formats go through ffmpeg.
func (l *Loader) LoadFile(ctx context.Context, path string, rate int) (Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Signal{}, fmt.Errorf("read audio: %w", err)
	}
	sig, err := DecodeWAVBytes(data)
	if err == nil {
		return Resample(sig, rate), nil
	}
	if !errors.Is(err, ErrNotWAV) {
		return Signal{}, err
	}

	tmpDir, err := os.MkdirTemp("", "vinyl-audio-")
	if err != nil {
		return Signal{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dest := filepath.Join(tmpDir, "decoded.wav")
	if err := l.Transcode(ctx, path, dest, rate); err != nil {
		return Signal{}, err
	}
	converted, err := os.ReadFile(dest)
	if err != nil {
		return Signal{}, fmt.Errorf("read transcoded audio: %w", err)
	}
	sig, err = DecodeWAVBytes(converted)
	if err != nil {
		return Signal{}, err
	}
	return Resample(sig, rate), nil
}

// LoadBytes is LoadFile for in-memory content such as uploads or blobs.
func (l *Loader) LoadBytes(ctx context.Context, data []byte, rate int) (Signal, error) {
	if sig, err := DecodeWAV(bytes.NewReader(data)); err == nil {
		return Resample(sig, rate), nil
	} else if !errors.Is(err, ErrNotWAV) {
		return Signal{}, err
	}

	tmp, err := os.CreateTemp("", "vinyl-upload-*")
	if err != nil {
		return Signal{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Signal{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Signal{}, fmt.Errorf("close temp file: %w", err)
	}
	return l.LoadFile(ctx, tmp.Name(), rate)
}
