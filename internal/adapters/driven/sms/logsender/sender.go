// Package logsender provides an SMS sender that logs messages instead of
// delivering them. It backs local runs and the call simulator.
package logsender

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// Ensure Sender implements the interface.
var _ driven.SMSSender = (*Sender)(nil)

// DefaultOutboxSize is how many messages the outbox keeps.
const DefaultOutboxSize = 100

// Message is a text message that would have been sent.
type Message struct {
	To     string
	Body   string
	SentAt time.Time
}

// Sender records messages in a bounded outbox.
type Sender struct {
	mu     sync.Mutex
	outbox []Message
	size   int
	clock  func() time.Time
}

// New creates a sender keeping at most size messages. A non-positive
// size uses DefaultOutboxSize.
func New(size int) *Sender {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Sender{size: size, clock: time.Now}
}

// SendSMS logs the message and keeps it in the outbox.
func (s *Sender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: sms recipient is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	s.outbox = append(s.outbox, Message{To: to, Body: body, SentAt: s.clock()})
	if over := len(s.outbox) - s.size; over > 0 {
		s.outbox = append(s.outbox[:0:0], s.outbox[over:]...)
	}
	s.mu.Unlock()

	logger.Info("SMS to %s: %s", to, body)
	return nil
}

// Last returns the most recent message sent to a number.
func (s *Sender) Last(to string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.outbox) - 1; i >= 0; i-- {
		if s.outbox[i].To == to {
			return s.outbox[i], true
		}
	}
	return Message{}, false
}

// Outbox returns a copy of the kept messages, oldest first.
func (s *Sender) Outbox() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.outbox...)
}
