package video

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// ProbeDuration asks ffprobe for the container duration of path. It returns
// 0 when ffprobe is unavailable or the output cannot be parsed.
func ProbeDuration(ctx context.Context, path string) float64 {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		slog.Warn("probe: ffprobe failed", "path", path, "error", err)
		return 0
	}

	return parseDuration(string(output))
}

func parseDuration(output string) float64 {
	durationStr := strings.TrimSpace(output)
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil || duration <= 0 {
		return 0
	}
	return duration
}
