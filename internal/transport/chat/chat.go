// Package chat is the messaging capability consumed by the dispatcher and the
// conversations. Types here are platform neutral; telegram.go binds them to
// the Telegram Bot API.
package chat

import (
	"context"
	"time"
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

type PhotoSize struct {
	FileID   string
	Width    int
	Height   int
	FileSize int
}

// OrderInfo holds what the payer typed into the invoice form.
type OrderInfo struct {
	Name  string
	Phone string
	Email string
}

type SuccessfulPayment struct {
	Currency         string
	TotalAmount      int64
	InvoicePayload   string
	TelegramChargeID string
	ProviderChargeID string
	OrderInfo        OrderInfo
}

type Message struct {
	ID      int
	ChatID  int64
	Private bool
	From    User
	Text    string
	Photos  []PhotoSize
	Payment *SuccessfulPayment
}

// Callback is a press on an inline keyboard button.
type Callback struct {
	ID        string
	ChatID    int64
	Private   bool
	From      User
	MessageID int
	Data      string
}

type PreCheckout struct {
	ID             string
	From           User
	Currency       string
	TotalAmount    int64
	InvoicePayload string
	OrderInfo      OrderInfo
}

// Update is one inbound item. Exactly one of the pointers is set.
type Update struct {
	ID          int
	Message     *Message
	Callback    *Callback
	PreCheckout *PreCheckout
}

// ChatID returns the chat an update belongs to. Pre-checkout queries carry no
// chat; for private chats the chat id equals the sender id.
func (u Update) ChatID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.ChatID
	case u.Callback != nil:
		return u.Callback.ChatID
	case u.PreCheckout != nil:
		return u.PreCheckout.From.ID
	}
	return 0
}

// From returns the sender of an update.
func (u Update) From() User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.Callback != nil:
		return u.Callback.From
	case u.PreCheckout != nil:
		return u.PreCheckout.From
	}
	return User{}
}

// Private reports whether the update comes from a one-to-one chat.
func (u Update) Private() bool {
	switch {
	case u.Message != nil:
		return u.Message.Private
	case u.Callback != nil:
		return u.Callback.Private
	}
	return u.PreCheckout != nil
}

// Keyboard is a reply keyboard: rows of button labels sent back as text.
type Keyboard [][]string

type InlineButton struct {
	Text string
	Data string
	Pay  bool
}

type InlineKeyboard [][]InlineButton

// Button builds a callback button.
func Button(text, data string) InlineButton { return InlineButton{Text: text, Data: data} }

// Row is a convenience for single-button rows.
func Row(b ...InlineButton) []InlineButton { return b }

// Outgoing is a text message, or a photo with caption when PhotoFileID is set.
type Outgoing struct {
	ChatID         int64
	Text           string
	PhotoFileID    string
	Keyboard       Keyboard
	Inline         InlineKeyboard
	RemoveKeyboard bool
}

type Price struct {
	Label  string
	Amount int64
}

type Invoice struct {
	ChatID        int64
	Title         string
	Description   string
	Payload       string
	ProviderToken string
	Currency      string
	Prices        []Price
	NeedName      bool
	NeedPhone     bool
	NeedEmail     bool
	Inline        InlineKeyboard
}

// Document is a file sent to a chat.
type Document struct {
	ChatID  int64
	Name    string
	Data    []byte
	Caption string
}

// Poller fetches inbound updates with id >= offset, waiting up to timeout.
type Poller interface {
	Updates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error)
}

// Transport is the outbound side. Message ids returned by Send are the ones
// later reported in Callback.MessageID.
type Transport interface {
	Send(ctx context.Context, m Outgoing) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, inline InlineKeyboard) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string, inline InlineKeyboard) error
	EditInline(ctx context.Context, chatID int64, messageID int, inline InlineKeyboard) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	SendInvoice(ctx context.Context, inv Invoice) (int, error)
	SendDocument(ctx context.Context, d Document) error
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error
	AnswerCallback(ctx context.Context, callbackID string) error
	Download(ctx context.Context, fileID string) ([]byte, error)
}
