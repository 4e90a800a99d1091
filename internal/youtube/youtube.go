// Package youtube fetches the audio track of a video URL as a mono WAV.
package youtube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

var videoIDPattern = regexp.MustCompile(`^.*((youtu.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

// VideoID extracts the 11 character video id from the common URL shapes.
func VideoID(url string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(strings.TrimSpace(url))
	if match == nil || len(match[7]) != 11 {
		return "", false
	}
	return match[7], true
}

// Downloader wraps yt-dlp and ffmpeg.
type Downloader struct {
	ytdlpBinary string
	sampleRate  int
	run         audio.CommandRunner
	loader      *audio.Loader
}

// NewDownloader reads binaries and the target rate from cfg.
func NewDownloader(cfg *config.Config) *Downloader {
	return &Downloader{
		ytdlpBinary: cfg.YouTube.YtDlpBinary,
		sampleRate:  cfg.ASR.SampleRate,
		run:         audio.RunCommand,
		loader:      audio.NewLoader(cfg.YouTube.FFmpegBinary),
	}
}

// WithRunner swaps the command runner for both tools. Intended for tests.
func (d *Downloader) WithRunner(run audio.CommandRunner) *Downloader {
	if run != nil {
		d.run = run
		d.loader.WithRunner(run)
	}
	return d
}

// Download fetches the best audio-only stream of url into workDir and
// converts it to a mono WAV. It returns the WAV path.
func (d *Downloader) Download(ctx context.Context, url, workDir string) (string, error) {
	id, ok := VideoID(url)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "youtube", "parse url", fmt.Sprintf("not a video url: %q", url), nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	template := filepath.Join(workDir, id+".source.%(ext)s")
	output, err := d.run(ctx, d.ytdlpBinary,
		"--format", "bestaudio",
		"--no-playlist",
		"--no-progress",
		"--output", template,
		"--print", "after_move:filepath",
		url,
	)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "youtube", "yt-dlp",
			strings.TrimSpace(string(output)), err)
	}
	source, err := downloadedPath(string(output), workDir, id)
	if err != nil {
		return "", err
	}
	defer os.Remove(source)

	dest := filepath.Join(workDir, id+".wav")
	if err := d.loader.Transcode(ctx, source, dest, d.sampleRate); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "youtube", "ffmpeg", "convert download", err)
	}
	return dest, nil
}

// downloadedPath prefers the path yt-dlp printed and falls back to the
// output template when the print line is missing.
func downloadedPath(output, workDir, id string) (string, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		break
	}
	matches, err := filepath.Glob(filepath.Join(workDir, id+".source.*"))
	if err != nil {
		return "", fmt.Errorf("find download: %w", err)
	}
	if len(matches) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "youtube", "yt-dlp", "download produced no file", nil)
	}
	return matches[0], nil
}
