package port

import (
	"context"
	"sociallink/internal/core/domain"
)

// EventConsumer is an interface to define a durable queue consumer (nats, kafka, ...)
type EventConsumer interface {
	Subscribe(ctx context.Context, handler MessageService) error
	Close() error
}

// MessageService is an interface to define message handling.
// Returning an error wrapping domain.ErrInvalidJob stops redelivery.
type MessageService interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// JobQueue is the producer side of the transcoding queue
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.TranscodeJob) error
}
