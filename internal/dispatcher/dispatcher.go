// Package dispatcher polls the chat transport and routes every inbound update
// to the conversation owning its chat.
package dispatcher

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chatshop/internal/conversation"
	"chatshop/internal/i18n"
	"chatshop/internal/transport/chat"
)

// CancelData is the callback data of every inline cancel button.
const CancelData = "cmd_cancel"

// Conversation is the dispatcher's handle on one chat's actor.
type Conversation interface {
	Start(ctx context.Context)
	Deliver(it conversation.Item)
	// Stop blocks until the conversation has ended.
	Stop(reason string)
	Done() <-chan struct{}
	Ready() bool
	InvoicePayload() string
	CancelLabel() string
}

// Spawner builds, but does not start, the conversation of a chat.
type Spawner func(chatID int64, from chat.User) Conversation

type Options struct {
	PollTimeout time.Duration
	RetryDelay  time.Duration
	// ShutdownGrace bounds how long Run waits for conversations to stop
	// before cancelling their context.
	ShutdownGrace time.Duration
	Log           *zap.Logger
}

// Dispatcher owns the chat id to conversation table. Only the Run goroutine
// touches it.
type Dispatcher struct {
	poller chat.Poller
	tr     chat.Transport
	spawn  Spawner
	loc    *i18n.Localizer
	opts   Options
	log    *zap.Logger

	convs  map[int64]Conversation
	offset int
}

// New builds a dispatcher. loc renders the notices sent before any
// conversation exists, in the default language.
func New(p chat.Poller, tr chat.Transport, spawn Spawner, loc *i18n.Localizer, opts Options) *Dispatcher {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 10 * time.Second
	}
	return &Dispatcher{
		poller: p,
		tr:     tr,
		spawn:  spawn,
		loc:    loc,
		opts:   opts,
		log:    opts.Log.Named("dispatcher"),
		convs:  map[int64]Conversation{},
	}
}

// Run polls until ctx is cancelled, then stops every conversation with
// reason shutdown and waits for them.
func (d *Dispatcher) Run(ctx context.Context) error {
	convCtx, cancelConvs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelConvs()
	defer d.shutdown(cancelConvs)

	d.log.Info("dispatcher started", zap.Duration("poll_timeout", d.opts.PollTimeout))
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := d.poller.Updates(ctx, d.offset, d.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			pollErrors.Inc()
			d.log.Warn("polling failed", zap.Error(err), zap.Duration("retry_in", d.opts.RetryDelay))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d.opts.RetryDelay):
			}
			continue
		}

		d.reap()
		for _, u := range updates {
			d.route(ctx, convCtx, u)
		}
		// advance only once the whole batch is handed off
		if len(updates) > 0 {
			d.offset = updates[len(updates)-1].ID + 1
		}
		activeChats.Set(float64(len(d.convs)))
	}
}

func (d *Dispatcher) route(ctx, convCtx context.Context, u chat.Update) {
	switch {
	case u.Message != nil:
		updatesReceived.WithLabelValues("message").Inc()
		d.routeMessage(ctx, convCtx, *u.Message)
	case u.Callback != nil:
		updatesReceived.WithLabelValues("callback").Inc()
		d.routeCallback(ctx, *u.Callback)
	case u.PreCheckout != nil:
		updatesReceived.WithLabelValues("pre_checkout").Inc()
		d.routePreCheckout(ctx, *u.PreCheckout)
	default:
		updatesReceived.WithLabelValues("other").Inc()
	}
}

func (d *Dispatcher) routeMessage(ctx, convCtx context.Context, m chat.Message) {
	if !m.Private {
		d.reject(ctx, m.ChatID, "nonprivate", "error_nonprivate_chat", false)
		return
	}
	if strings.HasPrefix(m.Text, "/start") {
		d.replace(convCtx, m.ChatID, m.From)
		return
	}
	c, ok := d.ready(ctx, m.ChatID)
	if !ok {
		return
	}
	if m.Text != "" && m.Text == c.CancelLabel() {
		d.log.Debug("cancel forwarded", zap.Int64("chat_id", m.ChatID))
		c.Deliver(conversation.Cancel{})
		return
	}
	d.log.Debug("message forwarded", zap.Int64("chat_id", m.ChatID))
	c.Deliver(conversation.Message{Message: m})
}

func (d *Dispatcher) routeCallback(ctx context.Context, cb chat.Callback) {
	if !cb.Private {
		d.reject(ctx, cb.ChatID, "nonprivate", "error_nonprivate_chat", false)
		d.answer(ctx, cb.ID)
		return
	}
	c, ok := d.ready(ctx, cb.ChatID)
	if !ok {
		d.answer(ctx, cb.ID)
		return
	}
	if cb.Data == CancelData {
		d.log.Debug("cancel forwarded", zap.Int64("chat_id", cb.ChatID))
		c.Deliver(conversation.Cancel{})
		d.answer(ctx, cb.ID)
		return
	}
	d.log.Debug("callback forwarded", zap.Int64("chat_id", cb.ChatID), zap.String("data", cb.Data))
	c.Deliver(conversation.Callback{Callback: cb})
}

// routePreCheckout forwards a pre-checkout only to the conversation whose
// outstanding invoice carries the same token; anything else is refused here.
func (d *Dispatcher) routePreCheckout(ctx context.Context, q chat.PreCheckout) {
	c, ok := d.lookup(q.From.ID)
	if !ok || q.InvoicePayload == "" || c.InvoicePayload() != q.InvoicePayload {
		rejected.WithLabelValues("invoice_expired").Inc()
		d.log.Debug("pre-checkout for an expired invoice", zap.Int64("chat_id", q.From.ID))
		if err := d.tr.AnswerPreCheckout(ctx, q.ID, false, d.loc.Get("error_invoice_expired")); err != nil {
			d.log.Warn("pre-checkout refusal not delivered", zap.Error(err))
		}
		return
	}
	d.log.Debug("pre-checkout forwarded", zap.Int64("chat_id", q.From.ID))
	c.Deliver(conversation.PreCheckout{PreCheckout: q})
}

// replace stops the chat's running conversation, if any, waits for it and
// starts a fresh one.
func (d *Dispatcher) replace(convCtx context.Context, chatID int64, from chat.User) {
	if old, ok := d.convs[chatID]; ok {
		d.log.Debug("replacing conversation", zap.Int64("chat_id", chatID))
		old.Stop(conversation.ReasonReplaced)
		delete(d.convs, chatID)
	}
	d.log.Info("conversation started", zap.Int64("chat_id", chatID))
	c := d.spawn(chatID, from)
	c.Start(convCtx)
	d.convs[chatID] = c
	conversationsStarted.Inc()
}

// lookup returns the live conversation of a chat, dropping a finished one.
func (d *Dispatcher) lookup(chatID int64) (Conversation, bool) {
	c, ok := d.convs[chatID]
	if !ok {
		return nil, false
	}
	select {
	case <-c.Done():
		delete(d.convs, chatID)
		return nil, false
	default:
		return c, true
	}
}

// ready returns the conversation able to take an item, telling the user why
// when there is none. The item is dropped in that case.
func (d *Dispatcher) ready(ctx context.Context, chatID int64) (Conversation, bool) {
	c, ok := d.lookup(chatID)
	if !ok {
		d.reject(ctx, chatID, "no_conversation", "error_no_worker_for_chat", true)
		return nil, false
	}
	if !c.Ready() {
		d.reject(ctx, chatID, "not_ready", "error_worker_not_ready", true)
		return nil, false
	}
	return c, true
}

func (d *Dispatcher) reject(ctx context.Context, chatID int64, reason, key string, removeKeyboard bool) {
	rejected.WithLabelValues(reason).Inc()
	d.log.Debug("update rejected", zap.Int64("chat_id", chatID), zap.String("reason", reason))
	if _, err := d.tr.Send(ctx, chat.Outgoing{ChatID: chatID, Text: d.loc.Get(key), RemoveKeyboard: removeKeyboard}); err != nil {
		d.log.Warn("notice not delivered", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID string) {
	if err := d.tr.AnswerCallback(ctx, callbackID); err != nil {
		d.log.Warn("callback not answered", zap.Error(err))
	}
}

// reap forgets conversations that ended on their own.
func (d *Dispatcher) reap() {
	for id, c := range d.convs {
		select {
		case <-c.Done():
			delete(d.convs, id)
		default:
		}
	}
}

func (d *Dispatcher) shutdown(cancelConvs context.CancelFunc) {
	d.log.Info("stopping conversations", zap.Int("count", len(d.convs)))
	var g errgroup.Group
	for _, c := range d.convs {
		g.Go(func() error {
			c.Stop(conversation.ReasonShutdown)
			return nil
		})
	}
	stopped := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(d.opts.ShutdownGrace):
		d.log.Warn("conversations still running after grace period, cancelling")
		cancelConvs()
		<-stopped
	}
	clear(d.convs)
	activeChats.Set(0)
	d.log.Info("dispatcher stopped")
}
