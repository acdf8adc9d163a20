package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher enqueues transcode jobs on the JetStream work queue
type Publisher struct {
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// NewPublisher makes sure the stream exists and returns a job queue bound to it
func NewPublisher(ctx context.Context, conn *nats.Conn, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	if _, err := EnsureStream(ctx, js, cfg); err != nil {
		return nil, err
	}
	return &Publisher{js: js, subject: cfg.Subject, logger: logger}, nil
}

var _ port.JobQueue = (*Publisher)(nil)

// Enqueue publishes the job. The same upload published twice inside the
// duplicate window is stored once.
func (p *Publisher) Enqueue(ctx context.Context, job domain.TranscodeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode transcode job: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(job.DedupID()))
	if err != nil {
		return fmt.Errorf("failed to publish transcode job: %w", err)
	}
	if ack.Duplicate {
		p.logger.Info("transcode job already queued", "post_id", job.PostID, "seq", ack.Sequence)
		return nil
	}
	p.logger.Debug("transcode job queued", "post_id", job.PostID, "seq", ack.Sequence)
	return nil
}
