package domain

import (
	"io"

	"github.com/google/uuid"
)

// ProcessingStatus represents the transcoding state of a post's media
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// Terminal reports whether no worker will move the status any further
func (s ProcessingStatus) Terminal() bool {
	return s == ProcessingStatusCompleted || s == ProcessingStatusFailed
}

// MediaType represents the kind of media attached to a post
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeUnknown MediaType = "unknown"
)

// PostMedia is the {mediaUrl, mediaType, processingStatus} triple of a post.
// MediaURL is only stable when Status is completed; while pending or processing
// it still points at the untranscoded original.
type PostMedia struct {
	PostID   uuid.UUID        `json:"postId"`
	OwnerID  uuid.UUID        `json:"ownerId"`
	MediaURL string           `json:"mediaUrl,omitempty"`
	Type     MediaType        `json:"mediaType,omitempty"`
	Status   ProcessingStatus `json:"processingStatus,omitempty"`
}

// MediaUpload is an incoming upload stream
type MediaUpload struct {
	Body     io.Reader
	Size     int64
	Filename string
	MimeType string
}

// TranscodeJob is a durable queue entry, one per video upload that needs transcoding
type TranscodeJob struct {
	PostID       uuid.UUID `json:"postId" validate:"required"`
	SourceURL    string    `json:"fileUrl" validate:"required,url"`
	OriginalName string    `json:"originalName" validate:"required"`
	MimeType     string    `json:"mimetype" validate:"required"`
	OwnerID      uuid.UUID `json:"userId" validate:"required"`
}

// DedupID identifies the upload a job belongs to
func (j TranscodeJob) DedupID() string {
	return j.PostID.String() + ":" + j.SourceURL
}

// TranscodeProfile bounds the output of the transcoder
type TranscodeProfile struct {
	MaxHeight    int
	VideoBitrate string
	AudioBitrate string
}

// DeleteOutcome is the result of an object deletion
type DeleteOutcome string

const (
	DeleteOutcomeDeleted     DeleteOutcome = "deleted"
	DeleteOutcomeAlreadyGone DeleteOutcome = "already_gone"
	DeleteOutcomeInvalidURL  DeleteOutcome = "invalid_url"
)
