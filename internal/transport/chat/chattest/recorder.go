// Package chattest provides an in-memory chat transport for tests.
package chattest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chatshop/internal/transport/chat"
)

type Sent struct {
	ID int
	chat.Outgoing
}

type Edit struct {
	Kind      string // text, caption or inline
	ChatID    int64
	MessageID int
	Text      string
	Inline    chat.InlineKeyboard
}

type PreCheckoutAnswer struct {
	QueryID string
	OK      bool
	Error   string
}

// Recorder implements chat.Poller and chat.Transport. Outbound calls are
// recorded; inbound batches are queued with Push.
type Recorder struct {
	mu        sync.Mutex
	nextID    int
	sent      []Sent
	edits     []Edit
	deleted   []int
	invoices  []chat.Invoice
	documents []chat.Document
	preAnswer []PreCheckoutAnswer
	cbAnswers []string
	offsets   []int
	batches   [][]chat.Update
	pushed    chan struct{}

	// Files is served by Download.
	Files map[string][]byte
	// SendErr, when set, fails every Send.
	SendErr error
}

func New() *Recorder {
	return &Recorder{nextID: 1000, pushed: make(chan struct{}, 1), Files: map[string][]byte{}}
}

// Push queues one batch for Updates.
func (r *Recorder) Push(batch ...chat.Update) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	select {
	case r.pushed <- struct{}{}:
	default:
	}
}

func (r *Recorder) Updates(ctx context.Context, offset int, _ time.Duration) ([]chat.Update, error) {
	r.mu.Lock()
	r.offsets = append(r.offsets, offset)
	r.mu.Unlock()
	for {
		r.mu.Lock()
		if len(r.batches) > 0 {
			b := r.batches[0]
			r.batches = r.batches[1:]
			r.mu.Unlock()
			return b, nil
		}
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.pushed:
		}
	}
}

func (r *Recorder) id() int {
	r.nextID++
	return r.nextID
}

func (r *Recorder) Send(_ context.Context, m chat.Outgoing) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return 0, r.SendErr
	}
	id := r.id()
	r.sent = append(r.sent, Sent{ID: id, Outgoing: m})
	return id, nil
}

func (r *Recorder) edit(e Edit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, e)
	return nil
}

func (r *Recorder) EditText(_ context.Context, chatID int64, messageID int, text string, inline chat.InlineKeyboard) error {
	return r.edit(Edit{Kind: "text", ChatID: chatID, MessageID: messageID, Text: text, Inline: inline})
}

func (r *Recorder) EditCaption(_ context.Context, chatID int64, messageID int, caption string, inline chat.InlineKeyboard) error {
	return r.edit(Edit{Kind: "caption", ChatID: chatID, MessageID: messageID, Text: caption, Inline: inline})
}

func (r *Recorder) EditInline(_ context.Context, chatID int64, messageID int, inline chat.InlineKeyboard) error {
	return r.edit(Edit{Kind: "inline", ChatID: chatID, MessageID: messageID, Inline: inline})
}

func (r *Recorder) Delete(_ context.Context, _ int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, messageID)
	return nil
}

func (r *Recorder) SendInvoice(_ context.Context, inv chat.Invoice) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = append(r.invoices, inv)
	return r.id(), nil
}

func (r *Recorder) SendDocument(_ context.Context, d chat.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, d)
	return nil
}

func (r *Recorder) AnswerPreCheckout(_ context.Context, queryID string, ok bool, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preAnswer = append(r.preAnswer, PreCheckoutAnswer{QueryID: queryID, OK: ok, Error: errMsg})
	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cbAnswers = append(r.cbAnswers, callbackID)
	return nil
}

func (r *Recorder) Download(_ context.Context, fileID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.Files[fileID]
	if !ok {
		return nil, errors.New("chattest: unknown file " + fileID)
	}
	return b, nil
}

// Messages returns every message sent to chatID, in order.
func (r *Recorder) Messages(chatID int64) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sent
	for _, s := range r.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the newest message sent to chatID.
func (r *Recorder) Last(chatID int64) (Sent, bool) {
	m := r.Messages(chatID)
	if len(m) == 0 {
		return Sent{}, false
	}
	return m[len(m)-1], true
}

// Find returns the newest message to chatID containing substr.
func (r *Recorder) Find(chatID int64, substr string) (Sent, bool) {
	m := r.Messages(chatID)
	for i := len(m) - 1; i >= 0; i-- {
		if strings.Contains(m[i].Text, substr) {
			return m[i], true
		}
	}
	return Sent{}, false
}

func (r *Recorder) Edits() []Edit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edit(nil), r.edits...)
}

func (r *Recorder) Deleted() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.deleted...)
}

func (r *Recorder) Invoices() []chat.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Invoice(nil), r.invoices...)
}

func (r *Recorder) Documents() []chat.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Document(nil), r.documents...)
}

func (r *Recorder) PreCheckoutAnswers() []PreCheckoutAnswer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PreCheckoutAnswer(nil), r.preAnswer...)
}

func (r *Recorder) CallbackAnswers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cbAnswers...)
}

// Offsets returns the offsets passed to Updates, in call order.
func (r *Recorder) Offsets() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.offsets...)
}

// Eventually polls cond until it holds or a few seconds pass.
func Eventually(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// WaitText waits for a message to chatID containing substr and returns it.
func (r *Recorder) WaitText(t testing.TB, chatID int64, substr string) Sent {
	t.Helper()
	var got Sent
	Eventually(t, "message containing "+substr, func() bool {
		var ok bool
		got, ok = r.Find(chatID, substr)
		return ok
	})
	return got
}

// Count is the number of messages sent to chatID so far.
func (r *Recorder) Count(chatID int64) int { return len(r.Messages(chatID)) }

// WaitTextAfter is WaitText restricted to messages sent after the first n.
func (r *Recorder) WaitTextAfter(t testing.TB, chatID int64, n int, substr string) Sent {
	t.Helper()
	var got Sent
	Eventually(t, "new message containing "+substr, func() bool {
		m := r.Messages(chatID)
		for i := n; i < len(m); i++ {
			if strings.Contains(m[i].Text, substr) {
				got = m[i]
				return true
			}
		}
		return false
	})
	return got
}
