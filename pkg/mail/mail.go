package mail

import (
	"context"
	"fmt"
	"sync"

	"forum/pkg/logger"
)

type Sender interface {
	SendOTP(ctx context.Context, identity, code string) error
}

// ConsoleSender writes codes to the log instead of delivering email.
type ConsoleSender struct{}

func (ConsoleSender) SendOTP(ctx context.Context, identity, code string) error {
	logger.Log(ctx).Infof("mail: password reset code for %s is %s (valid 10 minutes)", identity, code)
	return nil
}

type Message struct {
	To   string
	Code string
}

// Outbox keeps sent codes in memory.
type Outbox struct {
	mu   sync.Mutex
	sent []Message
	Fail error
}

func (o *Outbox) SendOTP(_ context.Context, identity, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Fail != nil {
		return fmt.Errorf("mail: can't deliver to %s: %w", identity, o.Fail)
	}
	o.sent = append(o.sent, Message{To: identity, Code: code})
	return nil
}

// Last returns the latest message sent to identity.
func (o *Outbox) Last(identity string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == identity {
			return o.sent[i], true
		}
	}
	return Message{}, false
}
