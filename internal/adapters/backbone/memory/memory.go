// Package memory is an in-process backbone. Several nodes created from one Hub
// behave like processes sharing a pub/sub server, which makes multi-node
// deployments reproducible inside a single test binary.
package memory

import (
	"context"
	"sociallink/internal/core/port"
	"sync"
)

// Hub is the shared state of all nodes
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[string]map[int]func([]byte)
	members map[string]map[string]int
	claims  map[string]string
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[string]map[int]func([]byte)),
		members: make(map[string]map[string]int),
		claims:  make(map[string]string),
	}
}

// Node returns the backbone as seen from one process
func (h *Hub) Node(nodeID string) *Backbone {
	return &Backbone{hub: h, nodeID: nodeID}
}

// Backbone implements port.Backbone on top of a Hub
type Backbone struct {
	hub    *Hub
	nodeID string
}

// Publish delivers synchronously to every subscriber of the channel
func (b *Backbone) Publish(_ context.Context, channel string, payload []byte) error {
	b.hub.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.hub.subs[channel]))
	for _, h := range b.hub.subs[channel] {
		handlers = append(handlers, h)
	}
	b.hub.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// Subscribe registers a handler for the channel
func (b *Backbone) Subscribe(_ context.Context, channel string, handler func(payload []byte)) (port.Subscription, error) {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()

	b.hub.nextID++
	id := b.hub.nextID
	if b.hub.subs[channel] == nil {
		b.hub.subs[channel] = make(map[int]func([]byte))
	}
	b.hub.subs[channel][id] = handler
	return &subscription{hub: b.hub, channel: channel, id: id}, nil
}

// MembershipCount sums the sessions every node recorded for the channel
func (b *Backbone) MembershipCount(_ context.Context, channel string) (int, error) {
	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()

	total := 0
	for _, n := range b.hub.members[channel] {
		total += n
	}
	return total, nil
}

// SetMembership records this node's session count for the channel
func (b *Backbone) SetMembership(_ context.Context, channel string, sessions int) error {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()

	if sessions <= 0 {
		delete(b.hub.members[channel], b.nodeID)
		if len(b.hub.members[channel]) == 0 {
			delete(b.hub.members, channel)
		}
		return nil
	}
	if b.hub.members[channel] == nil {
		b.hub.members[channel] = make(map[string]int)
	}
	b.hub.members[channel][b.nodeID] = sessions
	return nil
}

// ClaimPresence succeeds for the first caller until the claim is released
func (b *Backbone) ClaimPresence(_ context.Context, channel string) (bool, error) {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()

	if _, taken := b.hub.claims[channel]; taken {
		return false, nil
	}
	b.hub.claims[channel] = b.nodeID
	return true, nil
}

// ReleasePresence succeeds for the first caller while a claim exists
func (b *Backbone) ReleasePresence(_ context.Context, channel string) (bool, error) {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()

	if _, taken := b.hub.claims[channel]; !taken {
		return false, nil
	}
	delete(b.hub.claims, channel)
	return true, nil
}

type subscription struct {
	hub     *Hub
	channel string
	id      int
}

func (s *subscription) Unsubscribe() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	delete(s.hub.subs[s.channel], s.id)
	if len(s.hub.subs[s.channel]) == 0 {
		delete(s.hub.subs, s.channel)
	}
	return nil
}
