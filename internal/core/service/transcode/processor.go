package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	rawPrefix = "raw-"
	outPrefix = "out-"

	// OutputKeyPrefix is where transcoded videos are stored
	OutputKeyPrefix = "posts/"
	outputMimeType  = "video/mp4"
)

type processor struct {
	storage    port.ObjectStorage
	transcoder port.Transcoder
	profile    domain.TranscodeProfile
	timeout    time.Duration
	workDir    string
	logger     *slog.Logger
}

// NewProcessor creates the media processor. Temporary files live under cfg.WorkDir.
func NewProcessor(storage port.ObjectStorage, transcoder port.Transcoder, cfg config.TranscodeConfig, logger *slog.Logger) (port.MediaProcessor, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	return &processor{
		storage:    storage,
		transcoder: transcoder,
		profile: domain.TranscodeProfile{
			MaxHeight:    cfg.MaxHeight,
			VideoBitrate: cfg.VideoBitrate,
			AudioBitrate: cfg.AudioBitrate,
		},
		timeout: cfg.Timeout,
		workDir: cfg.WorkDir,
		logger:  logger,
	}, nil
}

// ProcessURL downloads the source object, then behaves like ProcessStream
func (p *processor) ProcessURL(ctx context.Context, sourceURL string, originalName string) (string, error) {
	body, err := p.storage.Open(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to open source media: %w", err)
	}
	defer body.Close()

	return p.ProcessStream(ctx, body, originalName)
}

// ProcessStream spools body to disk, transcodes it and uploads the result.
// Both temporary files are removed on every path.
func (p *processor) ProcessStream(ctx context.Context, body io.Reader, originalName string) (string, error) {
	rawPath, err := p.spool(body, originalName)
	if rawPath != "" {
		defer p.remove(rawPath)
	}
	if err != nil {
		return "", err
	}

	out, err := os.CreateTemp(p.workDir, outPrefix+"*.mp4")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer p.remove(outPath)

	if err := p.transcode(ctx, rawPath, outPath); err != nil {
		return "", err
	}

	return p.upload(ctx, outPath)
}

func (p *processor) spool(body io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	raw, err := os.CreateTemp(p.workDir, rawPrefix+"*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create spool file: %w", err)
	}
	defer raw.Close()

	if _, err := io.Copy(raw, body); err != nil {
		return raw.Name(), fmt.Errorf("failed to spool source media: %w", err)
	}
	return raw.Name(), nil
}

func (p *processor) transcode(ctx context.Context, inputPath string, outputPath string) error {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.transcoder.Transcode(tctx, inputPath, outputPath, p.profile)
	if err == nil {
		return nil
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s", domain.ErrTranscodeTimeout, p.timeout)
	}
	return fmt.Errorf("transcode failed: %w", err)
}

func (p *processor) upload(ctx context.Context, outPath string) (string, error) {
	f, err := os.Open(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to open transcoded file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat transcoded file: %w", err)
	}

	key := OutputKeyPrefix + uuid.NewString() + ".mp4"
	url, err := p.storage.Put(ctx, key, f, info.Size(), outputMimeType)
	if err != nil {
		return "", fmt.Errorf("failed to upload transcoded media: %w", err)
	}
	return url, nil
}

func (p *processor) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("failed to remove temporary file", "path", path, "error", err)
	}
}

// PurgeWorkDir removes temporary files left behind by a crashed worker. It must run
// before the worker starts consuming.
func PurgeWorkDir(workDir string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read work dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasPrefix(name, rawPrefix) || strings.HasPrefix(name, outPrefix)) {
			continue
		}
		if err := os.Remove(filepath.Join(workDir, name)); err != nil {
			logger.Warn("failed to purge leftover file", "file", name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
