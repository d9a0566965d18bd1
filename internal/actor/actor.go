// Package actor runs the conversation of one chat: bootstrap, the customer
// and admin menus and every sub-dialogue reachable from them.
package actor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chatshop/internal/blob"
	"chatshop/internal/conversation"
	"chatshop/internal/core/config"
	"chatshop/internal/domain"
	"chatshop/internal/events"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

// Settings are the shop options a conversation reads.
type Settings struct {
	Currency         domain.Currency
	Fees             domain.FeeSchedule
	CardToken        string
	CardMin          domain.Money
	CardMax          domain.Money
	Presets          []domain.Money
	NeedName         bool
	NeedPhone        bool
	NeedEmail        bool
	Welcome          bool
	RefillOnCheckout bool
	DefaultLanguage  string
	Timeout          time.Duration
}

func NewSettings(c *config.Config) Settings {
	cc := c.Payments.CreditCard
	presets := make([]domain.Money, 0, len(cc.Presets))
	for _, p := range cc.Presets {
		presets = append(presets, domain.Money(p))
	}
	return Settings{
		Currency:         domain.Currency{Code: c.Payments.CurrencyCode, Exponent: c.Payments.CurrencyExp, Symbol: c.Payments.CurrencySymbol},
		Fees:             domain.FeeSchedule{Percentage: cc.FeePercentage, Fixed: domain.Money(cc.FeeFixed)},
		CardToken:        cc.Token,
		CardMin:          domain.Money(cc.MinAmount),
		CardMax:          domain.Money(cc.MaxAmount),
		Presets:          presets,
		NeedName:         cc.NameRequired,
		NeedPhone:        cc.PhoneRequired,
		NeedEmail:        cc.EmailRequired,
		Welcome:          c.Appearance.DisplayWelcomeMessage,
		RefillOnCheckout: c.Appearance.RefillOnCheckout,
		DefaultLanguage:  c.Language.Default,
		Timeout:          c.Telegram.ConversationTimeout(),
	}
}

// Deps are shared by every actor. Images and Events may be nil.
type Deps struct {
	Transport chat.Transport
	Shop      *shop.Service
	Bundle    *i18n.Bundle
	Images    blob.Storage
	Events    events.Publisher
	Settings  Settings
	Log       *zap.Logger
}

// Actor owns the mailbox of one chat. Everything but the exported methods
// runs on the actor goroutine only.
type Actor struct {
	chatID int64
	from   chat.User
	deps   Deps
	set    Settings
	tr     chat.Transport
	shop   *shop.Service
	box    *conversation.Mailbox
	conv   *conversation.Conversation
	log    *zap.Logger

	ready       atomic.Bool
	mu          sync.Mutex
	payload     string
	cancelLabel string
	done        chan struct{}

	user  *domain.User
	admin *domain.Admin
	loc   *i18n.Localizer
}

func New(chatID int64, from chat.User, d Deps) *Actor {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	log := d.Log.With(zap.Int64("chat_id", chatID))
	box := conversation.NewMailbox()
	return &Actor{
		chatID: chatID,
		from:   from,
		deps:   d,
		set:    d.Settings,
		tr:     d.Transport,
		shop:   d.Shop.Session(),
		box:    box,
		conv:   conversation.New(box, d.Settings.Timeout, d.Transport, log),
		log:    log,
		done:   make(chan struct{}),
	}
}

// Start runs the conversation until it stops, fails or ctx is cancelled.
func (a *Actor) Start(ctx context.Context) {
	activeConversations.Inc()
	go a.run(ctx)
}

// Deliver enqueues an item; it never blocks.
func (a *Actor) Deliver(it conversation.Item) { a.box.Put(it) }

// Stop asks the conversation to end at its next wait and blocks until it has.
func (a *Actor) Stop(reason string) {
	a.box.Put(conversation.Stop{Reason: reason})
	<-a.done
}

func (a *Actor) Done() <-chan struct{} { return a.done }

// Ready reports whether bootstrap finished.
func (a *Actor) Ready() bool { return a.ready.Load() }

// InvoicePayload is the token of the invoice currently awaiting payment, or "".
func (a *Actor) InvoicePayload() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.payload
}

// CancelLabel is the localized text that cancels the current wait.
func (a *Actor) CancelLabel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelLabel
}

func (a *Actor) setPayload(p string) {
	a.mu.Lock()
	a.payload = p
	a.mu.Unlock()
}

func (a *Actor) run(ctx context.Context) {
	defer close(a.done)
	defer activeConversations.Dec()

	err := a.safeRun(ctx)
	if stop, ok := conversation.AsStop(err); ok {
		a.gracefulStop(ctx, stop.Reason)
		return
	}
	conversationsEnded.WithLabelValues("failed").Inc()
	a.log.Error("conversation failed", zap.Error(err))
	a.fatal(ctx)
}

func (a *Actor) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if err := a.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	a.ready.Store(true)
	a.log.Debug("conversation ready", zap.Bool("admin", a.admin != nil))

	if a.set.Welcome {
		if _, err := a.say(ctx, a.loc.Get("conversation_after_start")); err != nil {
			return err
		}
	}
	if a.admin != nil {
		err = a.adminMenu(ctx)
	} else {
		err = a.userMenu(ctx, false)
	}
	if err == nil {
		err = errors.New("menu returned")
	}
	return err
}

func (a *Actor) bootstrap(ctx context.Context) error {
	lang := a.deps.Bundle.Pick(a.from.LanguageCode, a.set.DefaultLanguage)
	id, err := a.shop.Bootstrap(ctx, shop.Profile{
		ID:        a.from.ID,
		FirstName: a.from.FirstName,
		LastName:  a.from.LastName,
		Username:  a.from.Username,
	}, lang)
	if err != nil {
		return err
	}
	if id.Created {
		a.log.Info("user created", zap.String("user", id.User.Identifiable()))
	}
	if id.Promoted {
		a.log.Warn("user promoted to owner, no other admins existed", zap.String("user", id.User.Identifiable()))
	}
	a.user, a.admin = id.User, id.Admin
	return a.localize(ctx)
}

// localize builds the localizer for the user's language, resetting a
// language that is no longer enabled.
func (a *Actor) localize(ctx context.Context) error {
	if !a.deps.Bundle.IsEnabled(a.user.Language) {
		a.log.Debug("language not enabled, using default", zap.String("language", a.user.Language))
		a.user.Language = a.set.DefaultLanguage
		if err := a.shop.SetLanguage(ctx, a.user.ID, a.user.Language); err != nil {
			return err
		}
	}
	a.loc = a.deps.Bundle.Localizer(a.user.Language, i18n.Args{
		"user_string":     html.EscapeString(a.user.String()),
		"user_full_name":  html.EscapeString(a.user.FullName()),
		"user_first_name": html.EscapeString(a.user.FirstName),
		"today":           time.Now().Format("Mon 02 Jan 2006"),
	})
	a.mu.Lock()
	a.cancelLabel = a.loc.Get("menu_cancel")
	a.mu.Unlock()
	return nil
}

// refreshUser reloads the user row so credit reflects writes made elsewhere.
func (a *Actor) refreshUser(ctx context.Context) error {
	u, err := a.shop.User(ctx, a.user.ID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d vanished", a.user.ID)
	}
	a.user = u
	return nil
}

func (a *Actor) gracefulStop(ctx context.Context, reason string) {
	conversationsEnded.WithLabelValues(reason).Inc()
	a.log.Debug("conversation stopped", zap.String("reason", reason))
	if reason != conversation.ReasonTimeout || a.loc == nil {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	if _, err := a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: a.loc.Get("conversation_expired"), RemoveKeyboard: true}); err != nil {
		a.log.Warn("expiry notice not delivered", zap.Error(err))
	}
}

func (a *Actor) fatal(ctx context.Context) {
	loc := a.loc
	if loc == nil {
		loc = a.deps.Bundle.Localizer(a.set.DefaultLanguage, nil)
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	if _, err := a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: loc.Get("fatal_conversation_exception"), RemoveKeyboard: true}); err != nil {
		a.log.Warn("failure notice not delivered", zap.Error(err))
	}
}

// detached keeps ctx values but survives its cancellation, for last words
// sent while the process shuts down.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}

// cancelled maps a Cancel back to a normal return into the enclosing menu.
func cancelled(err error) error {
	if errors.Is(err, conversation.ErrCancelled) {
		return nil
	}
	return err
}
