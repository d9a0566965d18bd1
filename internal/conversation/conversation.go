package conversation

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"chatshop/internal/transport/chat"
)

// Acknowledger answers inline button presses so the client stops its spinner.
type Acknowledger interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Conversation reads a Mailbox through typed waits. Every wait discards items
// it does not want, returns ErrCancelled on Cancel when cancellable, and
// returns a *StopError on Stop, on inactivity timeout or when ctx is done.
type Conversation struct {
	box     *Mailbox
	timeout time.Duration
	ack     Acknowledger
	log     *zap.Logger
}

// New wraps box. timeout is the inactivity limit of a single wait; 0 disables it.
func New(box *Mailbox, timeout time.Duration, ack Acknowledger, log *zap.Logger) *Conversation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversation{box: box, timeout: timeout, ack: ack, log: log}
}

func await[T any](ctx context.Context, c *Conversation, cancellable bool, match func(Item) (T, bool)) (T, error) {
	var zero T
	for {
		it := c.box.Get(ctx, c.timeout)
		switch v := it.(type) {
		case Stop:
			return zero, &StopError{Reason: v.Reason}
		case Cancel:
			if cancellable {
				return zero, ErrCancelled
			}
			continue
		}
		if out, ok := match(it); ok {
			return out, nil
		}
		c.log.Debug("conversation: item discarded")
	}
}

// Text waits for a message whose text is one of options, or any non-empty
// text when options is empty.
func (c *Conversation) Text(ctx context.Context, cancellable bool, options ...string) (string, error) {
	return await(ctx, c, cancellable, func(it Item) (string, bool) {
		m, ok := it.(Message)
		if !ok || m.Text == "" {
			return "", false
		}
		if len(options) == 0 {
			return m.Text, true
		}
		for _, o := range options {
			if m.Text == o {
				return m.Text, true
			}
		}
		return "", false
	})
}

// Regex waits for a text message matching re and returns the first capture
// group, or the whole match when re has no groups.
func (c *Conversation) Regex(ctx context.Context, re *regexp.Regexp, cancellable bool) (string, error) {
	return await(ctx, c, cancellable, func(it Item) (string, bool) {
		m, ok := it.(Message)
		if !ok || m.Text == "" {
			return "", false
		}
		sub := re.FindStringSubmatch(m.Text)
		if sub == nil {
			return "", false
		}
		if len(sub) > 1 {
			return sub[1], true
		}
		return sub[0], true
	})
}

// Photo waits for a message carrying a photo and returns its sizes.
func (c *Conversation) Photo(ctx context.Context, cancellable bool) ([]chat.PhotoSize, error) {
	return await(ctx, c, cancellable, func(it Item) ([]chat.PhotoSize, bool) {
		m, ok := it.(Message)
		if !ok || len(m.Photos) == 0 {
			return nil, false
		}
		return m.Photos, true
	})
}

// Callback waits for an inline button press and acknowledges it.
func (c *Conversation) Callback(ctx context.Context, cancellable bool) (chat.Callback, error) {
	cb, err := await(ctx, c, cancellable, func(it Item) (chat.Callback, bool) {
		cb, ok := it.(Callback)
		return cb.Callback, ok
	})
	if err != nil {
		return cb, err
	}
	if c.ack != nil {
		if aerr := c.ack.AnswerCallback(ctx, cb.ID); aerr != nil {
			c.log.Warn("conversation: answer callback failed", zap.String("callback", cb.ID), zap.Error(aerr))
		}
	}
	return cb, nil
}

// PreCheckout waits for the payment provider's pre-checkout query.
func (c *Conversation) PreCheckout(ctx context.Context, cancellable bool) (chat.PreCheckout, error) {
	return await(ctx, c, cancellable, func(it Item) (chat.PreCheckout, bool) {
		p, ok := it.(PreCheckout)
		return p.PreCheckout, ok
	})
}

// Payment waits for the confirmation message of a completed payment.
func (c *Conversation) Payment(ctx context.Context, cancellable bool) (chat.SuccessfulPayment, error) {
	return await(ctx, c, cancellable, func(it Item) (chat.SuccessfulPayment, bool) {
		m, ok := it.(Message)
		if !ok || m.Payment == nil {
			return chat.SuccessfulPayment{}, false
		}
		return *m.Payment, true
	})
}
