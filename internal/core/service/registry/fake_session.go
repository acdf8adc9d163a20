package registry

import (
	"sociallink/internal/core/domain"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FakeSession is an in-memory port.Session recording every frame it receives
type FakeSession struct {
	id     string
	userID uuid.UUID
	mu     sync.Mutex
	frames []domain.Envelope
	err    error
}

// NewFakeSession creates a FakeSession for the user
func NewFakeSession(userID uuid.UUID) *FakeSession {
	return &FakeSession{id: uuid.NewString(), userID: userID}
}

func (f *FakeSession) ID() string {
	return f.id
}

func (f *FakeSession) UserID() uuid.UUID {
	return f.userID
}

func (f *FakeSession) Send(env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, env)
	return nil
}

// FailWith makes every following Send return err
func (f *FakeSession) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Frames returns the frames received so far
func (f *FakeSession) Frames() []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Envelope(nil), f.frames...)
}

// Events returns the frames received for one event name
func (f *FakeSession) Events(event string) []domain.Envelope {
	var out []domain.Envelope
	for _, frame := range f.Frames() {
		if frame.Event == event {
			out = append(out, frame)
		}
	}
	return out
}

// Decode unmarshals the data of a frame into v
func Decode(frame domain.Envelope, v any) error {
	return json.Unmarshal(frame.Data, v)
}
