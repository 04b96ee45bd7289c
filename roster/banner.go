package roster

import (
	"sync"
	"time"

	"github.com/jmcleod/clubdesk/internal/uuid"
)

// DismissAfter is how long a banner message stays visible.
const DismissAfter = 5 * time.Second

// Kind classifies a banner message.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "success"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Message is one transient user-visible message.
type Message struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Banner holds at most one message. Each Show replaces the previous message
// and schedules its own dismissal; a dismissal only clears the message it was
// scheduled for.
type Banner struct {
	after AfterFunc
	ttl   time.Duration

	mu      sync.Mutex
	current *Message
	timer   Timer
}

// NewBanner creates an empty Banner. A nil after uses time.AfterFunc.
func NewBanner(after AfterFunc, ttl time.Duration) *Banner {
	if after == nil {
		after = realAfterFunc
	}
	return &Banner{after: after, ttl: ttl}
}

// Show replaces the current message and returns it.
func (b *Banner) Show(kind Kind, text string) Message {
	msg := Message{ID: uuid.New(), Kind: kind, Text: text}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.current = &msg
	b.timer = b.after(b.ttl, func() { b.Dismiss(msg.ID) })
	return msg
}

// Current returns the visible message, if any.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Message{}, false
	}
	return *b.current, true
}

// Dismiss hides the message with the given ID. It is a no-op if another
// message has replaced it.
func (b *Banner) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.current.ID != id {
		return
	}
	b.current = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Stop cancels any pending dismissal without hiding the message.
func (b *Banner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
