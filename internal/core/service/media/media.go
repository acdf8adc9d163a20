package media

import (
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"strings"
)

// RawKeyPrefix is where untranscoded uploads wait for the worker
const RawKeyPrefix = "posts/raw/"

const imageKeyPrefix = "posts/"

type mediaService struct {
	uow       port.UnitOfWork
	storage   port.ObjectStorage
	queue     port.JobQueue
	processor port.MediaProcessor
	uploadCfg config.UploadConfig
	logger    *slog.Logger
}

// NewMediaService creates a new media service. queue may be nil, videos are then
// transcoded inline.
func NewMediaService(uow port.UnitOfWork, storage port.ObjectStorage, queue port.JobQueue, processor port.MediaProcessor, cfg config.UploadConfig, logger *slog.Logger) port.MediaService {
	return &mediaService{
		uow:       uow,
		storage:   storage,
		queue:     queue,
		processor: processor,
		uploadCfg: cfg,
		logger:    logger,
	}
}

// AllowedMediaMimeTypes is a whitelist of supported media MIME types and their extensions.
var AllowedMediaMimeTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
	"image/heic": {".heic"},

	"video/mp4":        {".mp4"},
	"video/webm":       {".webm"},
	"video/quicktime":  {".mov"},
	"video/x-msvideo":  {".avi"},
	"video/x-matroska": {".mkv"},
	"video/3gpp":       {".3gp"},
}

// validateMediaFile resolves the media type of an upload from its declared content
// type, checking the extension against it
func validateMediaFile(filename string, contentType string) (domain.MediaType, string, error) {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return domain.MediaTypeUnknown, "", fmt.Errorf("%w: invalid content type %q", domain.ErrUnsupportedMedia, contentType)
	}

	allowedExts, ok := AllowedMediaMimeTypes[mimeType]
	if !ok {
		return domain.MediaTypeUnknown, "", fmt.Errorf("%w: mime type %s", domain.ErrUnsupportedMedia, mimeType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedExts {
		if ext == allowed {
			return mediaTypeFromMime(mimeType), mimeType, nil
		}
	}
	return domain.MediaTypeUnknown, "", fmt.Errorf("%w: extension %q is not allowed for %s", domain.ErrUnsupportedMedia, ext, mimeType)
}

func mediaTypeFromMime(mimeType string) domain.MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return domain.MediaTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return domain.MediaTypeVideo
	default:
		return domain.MediaTypeUnknown
	}
}
