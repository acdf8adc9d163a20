package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sociallink/internal/metrics"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAckWait = 30 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// Consumer pulls transcode jobs and settles each one according to the handler result
type Consumer struct {
	logger   *slog.Logger
	js       jetstream.JetStream
	config   config.NATSConfig
	iter     jetstream.MessagesContext
	inflight *errgroup.Group
	done     chan struct{}
}

// NewNATSConsumer creates a new consumer on an existing connection
func NewNATSConsumer(conn *nats.Conn, cfg config.NATSConfig, logger *slog.Logger) (*Consumer, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = defaultAckWait
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Consumer{
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

var _ port.EventConsumer = (*Consumer)(nil)

// Subscribe subscribes to stream and handles messages with at most Workers in flight
func (n *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	if _, err := EnsureStream(ctx, n.js, n.config); err != nil {
		return err
	}

	consumerCfg := jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: n.config.Subject,
		AckWait:       n.config.AckWait,
		MaxDeliver:    n.config.MaxDeliver,
		MaxAckPending: n.config.Workers,
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, consumerCfg)
	if err != nil {
		return err
	}

	iter, err := cons.Messages(jetstream.PullMaxMessages(n.config.Workers))
	if err != nil {
		return err
	}
	n.iter = iter

	g := &errgroup.Group{}
	g.SetLimit(n.config.Workers)
	n.inflight = g
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		n.logger.Info("NATS subscription started", "stream", n.config.StreamName, "workers", n.config.Workers)
		for {
			msg, err := iter.Next()
			if err != nil {
				if errors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
					n.logger.Info("NATS subscription stopped")
					return
				}
				n.logger.Error("failed to receive message", "error", err)
				return
			}

			// blocks while every worker is busy
			g.Go(func() error {
				n.handle(ctx, handler, msg)
				return nil
			})
		}
	}()
	return nil
}

func (n *Consumer) handle(ctx context.Context, handler port.MessageService, msg jetstream.Msg) {
	logger := n.logger
	var delivered uint64 = 1
	if meta, err := msg.Metadata(); err == nil {
		delivered = meta.NumDelivered
		logger = logger.With("seq", meta.Sequence.Stream, "delivered", delivered)
	}

	stop := n.keepAlive(msg, logger)
	handleErr := handler.HandleMessage(ctx, msg.Data())
	stop()

	switch {
	case handleErr == nil:
		if err := msg.Ack(); err != nil {
			logger.Error("failed to ack message", "error", err)
		}
		metrics.QueueMessagesTotal.WithLabelValues(metrics.OutcomeAck).Inc()
	case errors.Is(handleErr, domain.ErrInvalidJob):
		logger.Warn("dropping invalid job", "error", handleErr)
		if err := msg.TermWithReason(handleErr.Error()); err != nil {
			logger.Error("failed to term message", "error", err)
		}
		metrics.QueueMessagesTotal.WithLabelValues(metrics.OutcomeTerm).Inc()
	default:
		delay := RetryDelay(n.config.RetryDelay, delivered)
		logger.Warn("failed to handle message", "error", handleErr, "retry_in", delay)
		if err := msg.NakWithDelay(delay); err != nil {
			logger.Error("failed to nak message", "error", err)
		}
		metrics.QueueMessagesTotal.WithLabelValues(metrics.OutcomeNak).Inc()
	}
}

// keepAlive extends the ack deadline while a long transcode is running
func (n *Consumer) keepAlive(msg jetstream.Msg, logger *slog.Logger) func() {
	ticker := time.NewTicker(n.config.AckWait / 2)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					logger.Warn("failed to extend ack deadline", "error", err)
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(quit)
	}
}

// RetryDelay doubles base for every previous delivery, capped at five minutes
func RetryDelay(base time.Duration, delivered uint64) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := uint64(1); i < delivered; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// Close stops pulling and waits for in-flight jobs. The connection is left open.
func (n *Consumer) Close() error {
	if n.iter != nil {
		n.iter.Stop()
	}
	if n.done != nil {
		<-n.done
	}
	if n.inflight != nil {
		return n.inflight.Wait()
	}
	return nil
}
