// Package nats carries real-time events between API processes. Frames travel over
// core NATS subjects; session membership lives in a JetStream key-value bucket
// whose entries expire when a process stops refreshing them.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sociallink/internal/config"
	"sociallink/internal/core/port"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	subjectPrefix = "realtime."
	// claim keys live outside the "<channel>.<node>" membership space
	claimPrefix = "presence."
)

// Backbone implements port.Backbone on top of a shared NATS connection
type Backbone struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	nodeID string
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	members map[string]int
	// claims holds the revision of every presence claim this node created
	claims map[string]uint64

	stop chan struct{}
	done chan struct{}
}

var _ port.Backbone = (*Backbone)(nil)

// NewBackbone creates the membership bucket if needed and starts refreshing this
// node's entries
func NewBackbone(ctx context.Context, conn *nats.Conn, cfg config.BackboneConfig, logger *slog.Logger) (*Backbone, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}

	ttl := cfg.MembershipTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.KVBucket,
		TTL:     ttl,
		Storage: jetstream.MemoryStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open membership bucket %s: %w", cfg.KVBucket, err)
	}

	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	b := &Backbone{
		conn:    conn,
		kv:      kv,
		nodeID:  nodeID,
		ttl:     ttl,
		logger:  logger.With("node", nodeID),
		members: make(map[string]int),
		claims:  make(map[string]uint64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.refreshLoop()
	return b, nil
}

// NodeID identifies this process in the membership bucket
func (b *Backbone) NodeID() string {
	return b.nodeID
}

func (b *Backbone) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.conn.Publish(subjectPrefix+channel, payload); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

func (b *Backbone) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) (port.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub, err := b.conn.Subscribe(subjectPrefix+channel, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	// the subscription must be known to the server before the caller reports
	// the session as reachable
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return sub, nil
}

// MembershipCount sums the session counts every node recorded for the channel
func (b *Backbone) MembershipCount(ctx context.Context, channel string) (int, error) {
	watcher, err := b.kv.Watch(ctx, channel+".*", jetstream.IgnoreDeletes())
	if err != nil {
		return 0, fmt.Errorf("failed to watch membership of %s: %w", channel, err)
	}
	defer func() {
		_ = watcher.Stop()
	}()

	total := 0
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case entry, ok := <-watcher.Updates():
			if !ok || entry == nil {
				return total, nil
			}
			n, err := strconv.Atoi(string(entry.Value()))
			if err != nil {
				b.logger.Warn("ignoring malformed membership entry", "key", entry.Key(), "error", err)
				continue
			}
			total += n
		}
	}
}

// SetMembership records the local session count for the channel. Zero removes the entry.
func (b *Backbone) SetMembership(ctx context.Context, channel string, sessions int) error {
	b.mu.Lock()
	if sessions > 0 {
		b.members[channel] = sessions
	} else {
		delete(b.members, channel)
	}
	b.mu.Unlock()

	return b.writeMembership(ctx, channel, sessions)
}

func (b *Backbone) writeMembership(ctx context.Context, channel string, sessions int) error {
	key := b.key(channel)
	if sessions <= 0 {
		if err := b.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("failed to clear membership %s: %w", key, err)
		}
		return nil
	}
	if _, err := b.kv.Put(ctx, key, []byte(strconv.Itoa(sessions))); err != nil {
		return fmt.Errorf("failed to write membership %s: %w", key, err)
	}
	return nil
}

// ClaimPresence creates the channel's claim key. The bucket rejects a second
// create, so only one node wins while the key exists.
func (b *Backbone) ClaimPresence(ctx context.Context, channel string) (bool, error) {
	key := claimPrefix + channel
	rev, err := b.kv.Create(ctx, key, []byte(b.nodeID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim presence %s: %w", key, err)
	}

	b.mu.Lock()
	b.claims[key] = rev
	b.mu.Unlock()
	return true, nil
}

// ReleasePresence deletes the claim key at the revision read, so of several
// concurrent releases only one succeeds.
func (b *Backbone) ReleasePresence(ctx context.Context, channel string) (bool, error) {
	key := claimPrefix + channel
	b.mu.Lock()
	delete(b.claims, key)
	b.mu.Unlock()

	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read presence claim %s: %w", key, err)
	}
	if err := b.kv.Delete(ctx, key, jetstream.LastRevision(entry.Revision())); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to release presence %s: %w", key, err)
	}
	return true, nil
}

// refreshClaims rewrites the claims this node still owns. A claim that changed
// revision was released or taken over elsewhere and is forgotten.
func (b *Backbone) refreshClaims(ctx context.Context) {
	b.mu.Lock()
	snapshot := make(map[string]uint64, len(b.claims))
	for key, rev := range b.claims {
		snapshot[key] = rev
	}
	b.mu.Unlock()

	for key, rev := range snapshot {
		newRev, err := b.kv.Update(ctx, key, []byte(b.nodeID), rev)
		b.mu.Lock()
		if current, ok := b.claims[key]; ok && current == rev {
			if err != nil {
				delete(b.claims, key)
			} else {
				b.claims[key] = newRev
			}
		}
		b.mu.Unlock()
		if err != nil {
			b.logger.Warn("dropping presence claim", "key", key, "error", err)
		}
	}
}

func (b *Backbone) key(channel string) string {
	return channel + "." + b.nodeID
}

// refreshLoop rewrites every local entry before the bucket TTL drops it
func (b *Backbone) refreshLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			snapshot := make(map[string]int, len(b.members))
			for channel, n := range b.members {
				snapshot[channel] = n
			}
			b.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), b.ttl/3)
			for channel, n := range snapshot {
				if err := b.writeMembership(ctx, channel, n); err != nil {
					b.logger.Warn("failed to refresh membership", "channel", channel, "error", err)
				}
			}
			b.refreshClaims(ctx)
			cancel()
		}
	}
}

// Close stops refreshing and removes this node's entries and claims. The connection is left open.
func (b *Backbone) Close(ctx context.Context) error {
	close(b.stop)
	<-b.done

	b.mu.Lock()
	channels := make([]string, 0, len(b.members))
	for channel := range b.members {
		channels = append(channels, channel)
	}
	b.members = make(map[string]int)
	claims := b.claims
	b.claims = make(map[string]uint64)
	b.mu.Unlock()

	var errs []error
	for _, channel := range channels {
		if err := b.writeMembership(ctx, channel, 0); err != nil {
			errs = append(errs, err)
		}
	}
	for key, rev := range claims {
		err := b.kv.Delete(ctx, key, jetstream.LastRevision(rev))
		if err != nil && !errors.Is(err, jetstream.ErrKeyExists) && !errors.Is(err, jetstream.ErrKeyNotFound) {
			errs = append(errs, fmt.Errorf("failed to release presence %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
