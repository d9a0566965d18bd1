package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type TelegramOptions struct {
	Token string
	// SendRate caps outbound calls per second across all chats; 0 disables the cap.
	SendRate float64
	Burst    int
	Log      *zap.Logger
}

// TelegramClient implements Poller and Transport on top of the Bot API.
type TelegramClient struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	http    *http.Client
	log     *zap.Logger
}

// NewTelegramClient validates the token with a getMe call.
func NewTelegramClient(o TelegramOptions) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(o.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if o.SendRate > 0 {
		lim = rate.NewLimiter(rate.Limit(o.SendRate), max(1, o.Burst))
	}
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	l.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	return &TelegramClient{
		bot:     bot,
		limiter: lim,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     l,
	}, nil
}

func (c *TelegramClient) Username() string { return c.bot.Self.UserName }

func (c *TelegramClient) Updates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error) {
	type result struct {
		raw []tgbotapi.Update
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := c.bot.GetUpdates(tgbotapi.UpdateConfig{
			Offset:         offset,
			Timeout:        int(timeout / time.Second),
			AllowedUpdates: []string{"message", "callback_query", "pre_checkout_query"},
		})
		ch <- result{raw, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("telegram: getUpdates: %w", r.err)
		}
		out := make([]Update, 0, len(r.raw))
		for _, u := range r.raw {
			out = append(out, convertUpdate(u))
		}
		return out, nil
	}
}

func (c *TelegramClient) Send(ctx context.Context, m Outgoing) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	var cfg tgbotapi.Chattable
	markup := replyMarkup(m)
	if m.PhotoFileID != "" {
		p := tgbotapi.NewPhoto(m.ChatID, tgbotapi.FileID(m.PhotoFileID))
		p.Caption = m.Text
		p.ParseMode = tgbotapi.ModeHTML
		p.ReplyMarkup = markup
		cfg = p
	} else {
		msg := tgbotapi.NewMessage(m.ChatID, m.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = markup
		cfg = msg
	}
	sent, err := c.bot.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("telegram: send to %d: %w", m.ChatID, err)
	}
	return sent.MessageID, nil
}

func (c *TelegramClient) EditText(ctx context.Context, chatID int64, messageID int, text string, inline InlineKeyboard) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeHTML
	e.ReplyMarkup = inlineMarkup(inline)
	return c.request(e, "editMessageText")
}

func (c *TelegramClient) EditCaption(ctx context.Context, chatID int64, messageID int, caption string, inline InlineKeyboard) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	e := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	e.ParseMode = tgbotapi.ModeHTML
	e.ReplyMarkup = inlineMarkup(inline)
	return c.request(e, "editMessageCaption")
}

func (c *TelegramClient) EditInline(ctx context.Context, chatID int64, messageID int, inline InlineKeyboard) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	markup := tgbotapi.NewInlineKeyboardMarkup()
	if m := inlineMarkup(inline); m != nil {
		markup = *m
	}
	return c.request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup), "editMessageReplyMarkup")
}

func (c *TelegramClient) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.request(tgbotapi.NewDeleteMessage(chatID, messageID), "deleteMessage")
}

func (c *TelegramClient) SendInvoice(ctx context.Context, inv Invoice) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	prices := make([]tgbotapi.LabeledPrice, 0, len(inv.Prices))
	for _, p := range inv.Prices {
		prices = append(prices, tgbotapi.LabeledPrice{Label: p.Label, Amount: int(p.Amount)})
	}
	cfg := tgbotapi.NewInvoice(inv.ChatID, inv.Title, inv.Description, inv.Payload, inv.ProviderToken, "", inv.Currency, prices)
	cfg.NeedName = inv.NeedName
	cfg.NeedPhoneNumber = inv.NeedPhone
	cfg.NeedEmail = inv.NeedEmail
	// the API rejects a null tip list
	cfg.SuggestedTipAmounts = []int{}
	if m := inlineMarkup(inv.Inline); m != nil {
		cfg.ReplyMarkup = *m
	}
	sent, err := c.bot.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("telegram: sendInvoice to %d: %w", inv.ChatID, err)
	}
	return sent.MessageID, nil
}

func (c *TelegramClient) SendDocument(ctx context.Context, d Document) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(d.ChatID, tgbotapi.FileBytes{Name: d.Name, Bytes: d.Data})
	doc.Caption = d.Caption
	doc.ParseMode = tgbotapi.ModeHTML
	if _, err := c.bot.Send(doc); err != nil {
		return fmt.Errorf("telegram: sendDocument to %d: %w", d.ChatID, err)
	}
	return nil
}

func (c *TelegramClient) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.request(tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: queryID, OK: ok, ErrorMessage: errMsg}, "answerPreCheckoutQuery")
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.request(tgbotapi.NewCallback(callbackID, ""), "answerCallbackQuery")
}

func (c *TelegramClient) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram: getFile %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

const notModified = "message is not modified"

func (c *TelegramClient) request(cfg tgbotapi.Chattable, method string) error {
	_, err := c.bot.Request(cfg)
	if err == nil {
		return nil
	}
	// re-rendering identical content is harmless
	if strings.Contains(err.Error(), notModified) {
		c.log.Debug("telegram: edit skipped", zap.String("method", method))
		return nil
	}
	return fmt.Errorf("telegram: %s: %w", method, err)
}

func replyMarkup(m Outgoing) any {
	switch {
	case len(m.Inline) > 0:
		return *inlineMarkup(m.Inline)
	case len(m.Keyboard) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Keyboard))
		for _, r := range m.Keyboard {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, label := range r {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, row)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	case m.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}

func inlineMarkup(k InlineKeyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(k) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(k))
	for _, r := range k {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.Pay {
				row = append(row, tgbotapi.InlineKeyboardButton{Text: b.Text, Pay: true})
				continue
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func convertUser(u *tgbotapi.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.UserName,
		LanguageCode: u.LanguageCode,
	}
}

func convertOrderInfo(o *tgbotapi.OrderInfo) OrderInfo {
	if o == nil {
		return OrderInfo{}
	}
	return OrderInfo{Name: o.Name, Phone: o.PhoneNumber, Email: o.Email}
}

func convertMessage(m *tgbotapi.Message) *Message {
	out := &Message{ID: m.MessageID, From: convertUser(m.From), Text: m.Text}
	if m.Chat != nil {
		out.ChatID = m.Chat.ID
		out.Private = m.Chat.IsPrivate()
	}
	for _, p := range m.Photo {
		out.Photos = append(out.Photos, PhotoSize{FileID: p.FileID, Width: p.Width, Height: p.Height, FileSize: p.FileSize})
	}
	if sp := m.SuccessfulPayment; sp != nil {
		out.Payment = &SuccessfulPayment{
			Currency:         sp.Currency,
			TotalAmount:      int64(sp.TotalAmount),
			InvoicePayload:   sp.InvoicePayload,
			TelegramChargeID: sp.TelegramPaymentChargeID,
			ProviderChargeID: sp.ProviderPaymentChargeID,
			OrderInfo:        convertOrderInfo(sp.OrderInfo),
		}
	}
	return out
}

func convertUpdate(u tgbotapi.Update) Update {
	out := Update{ID: u.UpdateID}
	switch {
	case u.Message != nil:
		out.Message = convertMessage(u.Message)
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		cb := &Callback{ID: cq.ID, From: convertUser(cq.From), Data: cq.Data}
		if cq.Message != nil {
			cb.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				cb.ChatID = cq.Message.Chat.ID
				cb.Private = cq.Message.Chat.IsPrivate()
			}
		}
		out.Callback = cb
	case u.PreCheckoutQuery != nil:
		pq := u.PreCheckoutQuery
		out.PreCheckout = &PreCheckout{
			ID:             pq.ID,
			From:           convertUser(pq.From),
			Currency:       pq.Currency,
			TotalAmount:    int64(pq.TotalAmount),
			InvoicePayload: pq.InvoicePayload,
			OrderInfo:      convertOrderInfo(pq.OrderInfo),
		}
	}
	return out
}
