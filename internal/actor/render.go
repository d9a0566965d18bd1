package actor

import (
	"context"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chatshop/internal/domain"
	"chatshop/internal/i18n"
	"chatshop/internal/transport/chat"
)

const dateLayout = "2006-01-02 15:04"

// say sends text to the conversation's own chat. Failures are returned: a
// prompt that never arrives would leave the user stuck.
func (a *Actor) say(ctx context.Context, text string) (int, error) {
	return a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: text})
}

func (a *Actor) sayKeyboard(ctx context.Context, text string, kb chat.Keyboard) (int, error) {
	return a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: text, Keyboard: kb})
}

func (a *Actor) sayInline(ctx context.Context, text string, kb chat.InlineKeyboard) (int, error) {
	return a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: text, Inline: kb})
}

// notify delivers a message to another chat. Failures are logged only.
func (a *Actor) notify(ctx context.Context, m chat.Outgoing) {
	if _, err := a.tr.Send(ctx, m); err != nil {
		a.log.Warn("notification not delivered", zap.Int64("to", m.ChatID), zap.Error(err))
	}
}

// edit re-renders a message; a failed edit leaves the old rendering in place.
func (a *Actor) edit(ctx context.Context, messageID int, text string, kb chat.InlineKeyboard) {
	if err := a.tr.EditText(ctx, a.chatID, messageID, text, kb); err != nil {
		a.log.Warn("edit failed", zap.Int("message_id", messageID), zap.Error(err))
	}
}

func (a *Actor) money(m domain.Money) string {
	return a.loc.Get("currency_format", i18n.Args{"symbol": a.set.Currency.Symbol, "value": a.set.Currency.Format(m)})
}

// keyboard lays out one button per row.
func keyboard(labels ...string) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(labels))
	for _, l := range labels {
		kb = append(kb, []string{l})
	}
	return kb
}

func (a *Actor) cancelInline() chat.InlineKeyboard {
	return chat.InlineKeyboard{chat.Row(chat.Button(a.loc.Get("menu_cancel"), dataCancel))}
}

func (a *Actor) skipInline() chat.InlineKeyboard {
	return chat.InlineKeyboard{chat.Row(chat.Button(a.loc.Get("menu_skip"), dataCancel))}
}

func (a *Actor) productText(p domain.Product, qty int) string {
	price := a.loc.Get("text_not_for_sale")
	if p.Price != nil {
		price = a.money(*p.Price)
	}
	cart := ""
	if qty > 0 {
		cart = a.loc.Get("in_cart_format", i18n.Args{"quantity": qty})
	}
	return a.loc.Get("product_format", i18n.Args{
		"name":        html.EscapeString(p.Name),
		"description": html.EscapeString(p.Description),
		"price":       price,
		"cart":        cart,
	})
}

func (a *Actor) itemLine(name string, qty int, subtotal domain.Money) string {
	return a.loc.Get("order_item_format", i18n.Args{
		"quantity": qty,
		"name":     html.EscapeString(name),
		"subtotal": a.money(subtotal),
	})
}

// orderText renders an order. Shopkeepers also see who placed it.
func (a *Actor) orderText(o *domain.Order, forShopkeeper bool) string {
	type group struct {
		name  string
		qty   int
		price domain.Money
	}
	var groups []*group
	byProduct := map[uint64]*group{}
	for _, it := range o.Items {
		g, ok := byProduct[it.ProductID]
		if !ok {
			g = &group{name: it.Product.Name, price: it.Product.PriceOrZero()}
			byProduct[it.ProductID] = g
			groups = append(groups, g)
		}
		g.qty++
	}
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, a.itemLine(g.name, g.qty, g.price.Mul(g.qty)))
	}

	status := a.loc.Get("text_not_delivered")
	switch {
	case o.DeliveryDate != nil:
		status = a.loc.Get("text_completed", i18n.Args{"date": o.DeliveryDate.Format(dateLayout)})
	case o.RefundDate != nil:
		status = a.loc.Get("text_refunded", i18n.Args{
			"date":   o.RefundDate.Format(dateLayout),
			"reason": html.EscapeString(o.RefundReason),
		})
	}
	user := ""
	if forShopkeeper {
		user = html.EscapeString(o.User.String())
	}
	return a.loc.Get("order_format", i18n.Args{
		"id":     o.ID,
		"date":   o.CreationDate.Format(dateLayout),
		"user":   user,
		"items":  strings.Join(lines, "\n"),
		"value":  a.money(o.Total()),
		"notes":  html.EscapeString(o.Notes),
		"status": status,
	})
}

func (a *Actor) transactionText(t *domain.Transaction) string {
	refunded := ""
	if t.Refunded {
		refunded = a.loc.Get("text_transaction_refunded")
	}
	user := t.User.String()
	if t.User.ID == 0 {
		user = "user_" + strconv.FormatInt(t.UserID, 10)
	}
	return a.loc.Get("transaction_format", i18n.Args{
		"id":       t.ID,
		"user":     html.EscapeString(user),
		"value":    a.money(t.Value),
		"provider": html.EscapeString(t.Provider),
		"notes":    html.EscapeString(t.Notes),
		"refunded": refunded,
	})
}
