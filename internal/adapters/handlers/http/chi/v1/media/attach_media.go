package media

import (
	"errors"
	"net/http"
	"sociallink/internal/adapters/handlers/http/chi/authctx"
	"sociallink/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// MediaFormField is the multipart field carrying the file
	MediaFormField = "media"
	// multipartOverhead leaves room for boundaries and part headers
	multipartOverhead = 1 << 20
	// memoryLimit is how much of the upload is kept in memory before spilling to disk
	memoryLimit = 32 << 20
)

// AttachMediaV1 stores the uploaded file as the media of one of the caller's posts.
// Videos queued for transcoding answer 202.
func (h *HandlerV1) AttachMediaV1(w http.ResponseWriter, r *http.Request) {
	userID, ok := authctx.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, domain.ErrMediaTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(MediaFormField)
	if err != nil {
		http.Error(w, "media file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	media, err := h.mediaService.AttachMedia(r.Context(), userID, postID, domain.MediaUpload{
		Body:     file,
		Size:     header.Size,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	})
	switch {
	case errors.Is(err, domain.ErrUnsupportedMedia):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, domain.ErrMediaTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrPostNotFound):
		http.Error(w, "post not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrPostProcessing):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		h.logger.Error("error attaching media", "error", err, "postID", postID, "userID", userID)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
	case media.Status == domain.ProcessingStatusPending:
		h.writeJSON(w, http.StatusAccepted, media)
	default:
		h.writeJSON(w, http.StatusOK, media)
	}
}
