package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
)

// Requirement defines an external binary vinyl shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ServiceRequirements lists the binaries used by the orchestration service.
// WAV input decodes natively, so ffmpeg is only needed for other formats.
func ServiceRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.YouTube.FFmpegBinary,
			Description: "Decodes non-WAV uploads and downloaded video audio",
			Optional:    true,
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.YouTube.YtDlpBinary,
			Description: "Downloads audio for youtubeURL pushes",
			Optional:    true,
		},
	}
}

// ASRRequirements lists the binaries used by the ASR backend.
func ASRRequirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{{
		Name:        "FFmpeg",
		Command:     cfg.YouTube.FFmpegBinary,
		Description: "Decodes non-WAV uploads",
		Optional:    true,
	}}
	if cfg.ASR.Engine == config.EngineCommand {
		command := ""
		if len(cfg.ASR.EngineCommand) > 0 {
			command = cfg.ASR.EngineCommand[0]
		}
		reqs = append(reqs, Requirement{
			Name:        "ASR engine",
			Command:     command,
			Description: "Transcribes one WAV segment per invocation",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
