package actor

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatshop/internal/domain"
	"chatshop/internal/events"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

var amountPattern = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)

// addCreditMenu lets the user pick how to top up the wallet.
func (a *Actor) addCreditMenu(ctx context.Context) error {
	rows := [][]string{{"menu_cash"}}
	if a.set.CardToken != "" {
		rows = append(rows, []string{"menu_credit_card"})
	}
	rows = append(rows, []string{"menu_cancel"})
	choice, err := a.choose(ctx, a.loc.Get("conversation_payment_method"), true, rows...)
	if err != nil {
		return err
	}
	switch choice {
	case "menu_cash":
		_, err = a.say(ctx, a.loc.Get("payment_cash", i18n.Args{"user_cash_id": a.user.Identifiable()}))
		return err
	case "menu_credit_card":
		return a.addCreditCard(ctx)
	}
	return nil
}

// addCreditCard asks for an amount within the card limits and collects it.
func (a *Actor) addCreditCard(ctx context.Context) error {
	labels := make([]string, 0, len(a.set.Presets)+1)
	for _, p := range a.set.Presets {
		labels = append(labels, a.money(p))
	}
	labels = append(labels, a.loc.Get("menu_cancel"))

	for {
		if _, err := a.sayKeyboard(ctx, a.loc.Get("payment_cc_amount"), keyboard(labels...)); err != nil {
			return err
		}
		raw, err := a.conv.Regex(ctx, amountPattern, true)
		if err != nil {
			return err
		}
		amount, err := a.set.Currency.Parse(raw)
		if err != nil {
			continue
		}
		switch {
		case amount.Cmp(a.set.CardMax) > 0:
			_, err = a.say(ctx, a.loc.Get("error_payment_amount_over_max", i18n.Args{"max_amount": a.money(a.set.CardMax)}))
		case amount.Cmp(a.set.CardMin) < 0:
			_, err = a.say(ctx, a.loc.Get("error_payment_amount_under_min", i18n.Args{"min_amount": a.money(a.set.CardMin)}))
		default:
			return a.makePayment(ctx, amount)
		}
		if err != nil {
			return err
		}
	}
}

// makePayment issues an invoice for amount plus the card fee and records the
// payment once confirmed. Only a pre-checkout carrying the invoice token is
// routed here; cancelling before it arrives writes nothing.
func (a *Actor) makePayment(ctx context.Context, amount domain.Money) error {
	token := uuid.NewString()
	a.setPayload(token)
	defer a.setPayload("")

	fee := a.set.Fees.Fee(amount)
	prices := []chat.Price{{Label: a.loc.Get("payment_invoice_label"), Amount: amount.Int64()}}
	if fee.IsPositive() {
		prices = append(prices, chat.Price{Label: a.loc.Get("payment_invoice_fee_label"), Amount: fee.Int64()})
	}
	_, err := a.tr.SendInvoice(ctx, chat.Invoice{
		ChatID:        a.chatID,
		Title:         a.loc.Get("payment_invoice_title"),
		Description:   a.loc.Get("payment_invoice_description", i18n.Args{"amount": a.money(amount)}),
		Payload:       token,
		ProviderToken: a.set.CardToken,
		Currency:      a.set.Currency.Code,
		Prices:        prices,
		NeedName:      a.set.NeedName,
		NeedPhone:     a.set.NeedPhone,
		NeedEmail:     a.set.NeedEmail,
		Inline: chat.InlineKeyboard{
			chat.Row(chat.InlineButton{Text: a.loc.Get("menu_pay"), Pay: true}),
			chat.Row(chat.Button(a.loc.Get("menu_cancel"), dataCancel)),
		},
	})
	if err != nil {
		return err
	}

	pre, err := a.conv.PreCheckout(ctx, true)
	if err != nil {
		return err
	}
	a.setPayload("")
	if err := a.tr.AnswerPreCheckout(ctx, pre.ID, true, ""); err != nil {
		return err
	}

	paid, err := a.conv.Payment(ctx, false)
	if err != nil {
		return err
	}
	t, credit, err := a.shop.RecordCardPayment(ctx, a.user.ID, shop.CardPayment{
		Total:            domain.Money(paid.TotalAmount),
		Fee:              fee,
		TelegramChargeID: paid.TelegramChargeID,
		ProviderChargeID: paid.ProviderChargeID,
		Name:             paid.OrderInfo.Name,
		Phone:            paid.OrderInfo.Phone,
		Email:            paid.OrderInfo.Email,
	})
	if err != nil {
		return err
	}
	paymentsReceived.Inc()
	a.user.Credit = credit
	a.log.Info("card payment recorded", zap.Uint64("transaction_id", t.ID), zap.Int64("value", t.Value.Int64()))
	a.deps.Events.Publish(ctx, events.Event{Type: events.CreditPosted, UserID: a.user.ID, Value: t.Value, At: t.CreatedAt})
	return nil
}
