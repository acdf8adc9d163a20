package webpush

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	wp "github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"
)

const (
	defaultSubscriber = "mailto:noreply@example.com"
	// pushTTL is how long the push service keeps an undelivered message, in seconds
	pushTTL = 24 * 60 * 60
)

// Sender delivers web push notifications signed with the VAPID key pair
type Sender struct {
	options wp.Options
	logger  *slog.Logger
}

var _ port.PushSender = (*Sender)(nil)

// Enabled reports whether both VAPID keys are configured
func Enabled(cfg config.PushConfig) bool {
	return cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != ""
}

// NewSender creates a push sender. client may be nil.
func NewSender(cfg config.PushConfig, client *http.Client, logger *slog.Logger) *Sender {
	subscriber := cfg.Subscriber
	if subscriber == "" {
		subscriber = defaultSubscriber
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Sender{
		options: wp.Options{
			HTTPClient:      client,
			Subscriber:      subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             pushTTL,
			Urgency:         wp.UrgencyNormal,
		},
		logger: logger,
	}
}

func (s *Sender) Send(ctx context.Context, subscription domain.PushSubscription, payload domain.PushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	sub := &wp.Subscription{
		Endpoint: subscription.Endpoint,
		Keys: wp.Keys{
			P256dh: subscription.Keys.P256dh,
			Auth:   subscription.Keys.Auth,
		},
	}
	opts := s.options
	resp, err := wp.SendNotificationWithContext(ctx, body, sub, &opts)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		// 404 and 410 mean the browser dropped the subscription
		return fmt.Errorf("push service rejected notification: %s", resp.Status)
	}
	return nil
}
