package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sociallink/internal/metrics"
	"strings"
	"time"
)

// maxOutputInError bounds how much transcoder output ends up in an error
const maxOutputInError = 2048

// CommandRunner runs an external program and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Transcoder drives the ffmpeg binary
type Transcoder struct {
	path   string
	runner CommandRunner
	logger *slog.Logger
}

var _ port.Transcoder = (*Transcoder)(nil)

// NewTranscoder creates a transcoder calling the binary at path. A nil runner
// executes the real process.
func NewTranscoder(path string, runner CommandRunner, logger *slog.Logger) *Transcoder {
	if runner == nil {
		runner = execRunner{}
	}
	if path == "" {
		path = "ffmpeg"
	}
	return &Transcoder{path: path, runner: runner, logger: logger}
}

// Transcode converts the input into an H.264/AAC mp4 no taller than the profile allows
func (t *Transcoder) Transcode(ctx context.Context, inputPath string, outputPath string, profile domain.TranscodeProfile) error {
	args := Args(inputPath, outputPath, profile)

	start := time.Now()
	out, err := t.runner.Run(ctx, t.path, args...)
	elapsed := time.Since(start)
	metrics.RecordTranscode(elapsed, err)

	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(out))
	}
	t.logger.Debug("transcode finished", "input", inputPath, "duration", elapsed)
	return nil
}

// Args builds the ffmpeg command line
func Args(inputPath, outputPath string, profile domain.TranscodeProfile) []string {
	maxHeight := profile.MaxHeight
	if maxHeight <= 0 {
		maxHeight = 720
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:'min(%d,trunc(ih/2)*2)'", maxHeight),
		"-c:v", "libx264",
		"-preset", "veryfast",
	}
	if profile.VideoBitrate != "" {
		args = append(args, "-b:v", profile.VideoBitrate)
	}
	args = append(args, "-c:a", "aac")
	if profile.AudioBitrate != "" {
		args = append(args, "-b:a", profile.AudioBitrate)
	}
	return append(args, "-movflags", "+faststart", outputPath)
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutputInError {
		s = s[len(s)-maxOutputInError:]
	}
	return s
}
