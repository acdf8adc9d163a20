package domain

import "errors"

// ErrNotificationNotFound is an error thrown when a notification does not exist or is not owned by the caller
var ErrNotificationNotFound = errors.New("notification not found")

// ErrPostNotFound is an error thrown when a post does not exist or is not owned by the caller
var ErrPostNotFound = errors.New("post not found")

// ErrUserNotFound is an error thrown when user is not found
var ErrUserNotFound = errors.New("user not found")

// ErrMessageNotFound is an error thrown when a message does not exist or the caller is not its recipient
var ErrMessageNotFound = errors.New("message not found")

// ErrInvalidPayload is an error thrown when an inbound event payload is malformed
var ErrInvalidPayload = errors.New("invalid payload")

// ErrUnknownEvent is an error thrown when an inbound event has no handler
var ErrUnknownEvent = errors.New("unknown event")

// ErrRateLimited is an error thrown when a session sends events too fast
var ErrRateLimited = errors.New("rate limited")

// ErrUnauthorized is an error thrown when a credential is missing or invalid
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidJob is an error thrown when a queued job can never succeed and must not be redelivered
var ErrInvalidJob = errors.New("invalid job")

// ErrTranscodeTimeout is an error thrown when the external transcoder exceeds its deadline
var ErrTranscodeTimeout = errors.New("transcode timed out")

// ErrUnsupportedMedia is an error thrown when an upload has a mime type or extension we do not accept
var ErrUnsupportedMedia = errors.New("unsupported media")

// ErrMediaTooLarge is an error thrown when an upload exceeds the configured size
var ErrMediaTooLarge = errors.New("media too large")

// ErrPostProcessing is an error thrown when a new upload targets a post whose video is being transcoded
var ErrPostProcessing = errors.New("post media is processing")

// ErrInvalidStorageURL is an error thrown when a URL does not belong to the configured bucket
var ErrInvalidStorageURL = errors.New("invalid storage url")

// ErrSessionClosed is an error thrown when writing to a closed session
var ErrSessionClosed = errors.New("session closed")

// ErrSessionBackpressure is an error thrown when a session send buffer is full
var ErrSessionBackpressure = errors.New("session send buffer full")

// ErrRealtimeNotInitialized is an error thrown when the real-time layer is used before construction
var ErrRealtimeNotInitialized = errors.New("realtime layer not initialized")
