package actor

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chatshop/internal/conversation"
	"chatshop/internal/domain"
	"chatshop/internal/events"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

// orderMenu shows every product for sale with cart controls, then asks for
// notes and places the order.
func (a *Actor) orderMenu(ctx context.Context) error {
	products, err := a.shop.Catalog(ctx)
	if err != nil {
		return err
	}
	cart := shop.NewCart()
	for _, p := range shop.ForSale(products) {
		id, err := a.tr.Send(ctx, chat.Outgoing{
			ChatID:      a.chatID,
			Text:        a.productText(p, 0),
			PhotoFileID: p.ImageFileID,
			Inline:      a.productInline(0),
		})
		if err != nil {
			return err
		}
		cart.Track(id, p)
	}
	summaryID, err := a.sayInline(ctx, a.loc.Get("conversation_cart_actions"), a.cartInline(cart))
	if err != nil {
		return err
	}

	for done := false; !done; {
		cb, err := a.conv.Callback(ctx, true)
		if err != nil {
			return err
		}
		var qty int
		var ok bool
		switch cb.Data {
		case dataCartCancel:
			return nil
		case dataCartDone:
			done = !cart.Empty()
			continue
		case dataCartAdd:
			qty, ok = cart.Add(cb.MessageID)
		case dataCartRemove:
			qty, ok = cart.Remove(cb.MessageID)
		}
		if !ok {
			continue
		}
		line, _ := cart.Line(cb.MessageID)
		a.renderProduct(ctx, cb.MessageID, line.Product, qty)
		a.edit(ctx, summaryID, a.cartSummary(cart), a.cartInline(cart))
	}

	notes, err := a.askNotes(ctx)
	if err != nil {
		return err
	}
	return a.checkout(ctx, cart, notes)
}

func (a *Actor) productInline(qty int) chat.InlineKeyboard {
	row := chat.Row(chat.Button(a.loc.Get("menu_add_to_cart"), dataCartAdd))
	if qty > 0 {
		row = append(row, chat.Button(a.loc.Get("menu_remove_from_cart"), dataCartRemove))
	}
	return chat.InlineKeyboard{row}
}

func (a *Actor) cartInline(cart *shop.Cart) chat.InlineKeyboard {
	kb := chat.InlineKeyboard{chat.Row(chat.Button(a.loc.Get("menu_cancel"), dataCartCancel))}
	if !cart.Empty() {
		kb = append(kb, chat.Row(chat.Button(a.loc.Get("menu_done"), dataCartDone)))
	}
	return kb
}

func (a *Actor) renderProduct(ctx context.Context, messageID int, p domain.Product, qty int) {
	text, kb := a.productText(p, qty), a.productInline(qty)
	var err error
	if p.ImageFileID != "" {
		err = a.tr.EditCaption(ctx, a.chatID, messageID, text, kb)
	} else {
		err = a.tr.EditText(ctx, a.chatID, messageID, text, kb)
	}
	if err != nil {
		a.log.Warn("product re-render failed", zap.Int("message_id", messageID), zap.Error(err))
	}
}

func (a *Actor) cartSummary(cart *shop.Cart) string {
	if cart.Empty() {
		return a.loc.Get("conversation_cart_actions")
	}
	var b strings.Builder
	for _, l := range cart.Lines() {
		b.WriteString(a.itemLine(l.Product.Name, l.Quantity, l.Subtotal()))
		b.WriteString("\n")
	}
	return a.loc.Get("conversation_confirm_cart", i18n.Args{
		"product_list": b.String(),
		"total_cost":   a.money(cart.Total()),
	})
}

// askNotes returns the order notes; skipping yields an empty note.
func (a *Actor) askNotes(ctx context.Context) (string, error) {
	if _, err := a.sayInline(ctx, a.loc.Get("ask_order_notes"), a.skipInline()); err != nil {
		return "", err
	}
	notes, err := a.conv.Text(ctx, true)
	if errors.Is(err, conversation.ErrCancelled) {
		return "", nil
	}
	return notes, err
}

// checkout places the order, topping up by card first when the shop allows
// it and the shortfall fits the card limits. Without enough credit nothing
// is written.
func (a *Actor) checkout(ctx context.Context, cart *shop.Cart, notes string) error {
	if err := a.refreshUser(ctx); err != nil {
		return err
	}
	total := cart.Total()
	warned := false
	if shortfall := total.Sub(a.user.Credit); shortfall.IsPositive() {
		if _, err := a.say(ctx, a.loc.Get("error_not_enough_credit")); err != nil {
			return err
		}
		warned = true
		if a.canRefill(shortfall) {
			if err := a.makePayment(ctx, shortfall); cancelled(err) != nil {
				return err
			}
		}
	}

	order, err := a.shop.PlaceOrder(ctx, a.user.ID, cart.Lines(), notes)
	switch {
	case errors.Is(err, shop.ErrInsufficientCredit):
		a.log.Info("order abandoned, insufficient credit", zap.Int64("total", total.Int64()))
		if !warned {
			_, err = a.say(ctx, a.loc.Get("error_not_enough_credit"))
			return err
		}
		return nil
	case err != nil:
		return err
	}
	ordersPlaced.Inc()
	a.log.Info("order placed", zap.Uint64("order_id", order.ID), zap.Int64("total", total.Int64()))

	if _, err := a.say(ctx, a.loc.Get("success_order_created", i18n.Args{"order": a.orderText(order, false)})); err != nil {
		return err
	}
	a.notifyShopkeepers(ctx, order)
	a.deps.Events.Publish(ctx, events.OrderEvent(events.OrderPlaced, order))
	return nil
}

func (a *Actor) canRefill(shortfall domain.Money) bool {
	return a.set.CardToken != "" && a.set.RefillOnCheckout &&
		shortfall.Cmp(a.set.CardMin) >= 0 && shortfall.Cmp(a.set.CardMax) <= 0
}

// notifyShopkeepers sends a new order to every admin in live mode.
func (a *Actor) notifyShopkeepers(ctx context.Context, o *domain.Order) {
	admins, err := a.shop.LiveAdmins(ctx)
	if err != nil {
		a.log.Warn("live admins lookup failed", zap.Error(err))
		return
	}
	text := a.loc.Get("notification_order_placed", i18n.Args{"order": a.orderText(o, true)})
	for _, adm := range admins {
		a.notify(ctx, chat.Outgoing{ChatID: adm.UserID, Text: text, Inline: a.orderInline(o.ID)})
	}
}

func (a *Actor) orderInline(id uint64) chat.InlineKeyboard {
	return chat.InlineKeyboard{
		chat.Row(chat.Button(a.loc.Get("menu_complete"), orderAction(actionComplete, id))),
		chat.Row(chat.Button(a.loc.Get("menu_refund"), orderAction(actionRefund, id))),
	}
}
