package actor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chatshop/internal/conversation"
	"chatshop/internal/events"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

const (
	actionComplete = "complete"
	actionRefund   = "refund"
)

func orderAction(action string, id uint64) string {
	return dataOrderPrefix + action + ":" + strconv.FormatUint(id, 10)
}

func parseOrderAction(data string) (action string, id uint64, ok bool) {
	rest, found := strings.CutPrefix(data, dataOrderPrefix)
	if !found {
		return "", 0, false
	}
	action, num, found := strings.Cut(rest, ":")
	if !found || (action != actionComplete && action != actionRefund) {
		return "", 0, false
	}
	id, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return action, id, true
}

// liveOrders shows the pending orders and then every new one as it is
// placed, until the admin presses stop. Each order can be completed or
// refunded once.
func (a *Actor) liveOrders(ctx context.Context) error {
	if _, err := a.tr.Send(ctx, chat.Outgoing{ChatID: a.chatID, Text: a.loc.Get("conversation_live_orders_start"), RemoveKeyboard: true}); err != nil {
		return err
	}
	stop := chat.InlineKeyboard{chat.Row(chat.Button(a.loc.Get("menu_stop"), dataCancel))}
	if _, err := a.sayInline(ctx, a.loc.Get("conversation_live_orders_stop"), stop); err != nil {
		return err
	}
	pending, err := a.shop.PendingOrders(ctx)
	if err != nil {
		return err
	}
	for i := range pending {
		if _, err := a.sayInline(ctx, a.orderText(&pending[i], true), a.orderInline(pending[i].ID)); err != nil {
			return err
		}
	}

	if err := a.shop.SetLiveMode(ctx, a.user.ID, true); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := detached(ctx)
		defer cancel()
		if err := a.shop.SetLiveMode(ctx, a.user.ID, false); err != nil {
			a.log.Warn("live mode not cleared", zap.Error(err))
		}
	}()

	for {
		cb, err := a.conv.Callback(ctx, true)
		if errors.Is(err, conversation.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		action, id, ok := parseOrderAction(cb.Data)
		if !ok {
			continue
		}
		switch action {
		case actionComplete:
			err = a.completeOrder(ctx, cb.MessageID, id)
		case actionRefund:
			err = a.refundOrder(ctx, cb.MessageID, id)
		}
		if err != nil {
			return err
		}
	}
}

// settled reports business errors of a settlement on the order message and
// swallows them; anything else is returned.
func (a *Actor) settled(ctx context.Context, messageID int, err error) (bool, error) {
	switch {
	case errors.Is(err, shop.ErrOrderAlreadyCleared), errors.Is(err, shop.ErrNotFound):
		a.edit(ctx, messageID, a.loc.Get("error_order_already_cleared"), nil)
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (a *Actor) completeOrder(ctx context.Context, messageID int, id uint64) error {
	o, err := a.shop.CompleteOrder(ctx, id)
	if ok, err := a.settled(ctx, messageID, err); !ok {
		return err
	}
	a.log.Info("order completed", zap.Uint64("order_id", id))
	a.edit(ctx, messageID, a.orderText(o, true), nil)
	a.notify(ctx, chat.Outgoing{ChatID: o.UserID, Text: a.loc.Get("notification_order_completed", i18n.Args{"order": a.orderText(o, false)})})
	a.deps.Events.Publish(ctx, events.OrderEvent(events.OrderCompleted, o))
	_, err = a.say(ctx, a.loc.Get("success_order_completed", i18n.Args{"id": id}))
	return err
}

func (a *Actor) refundOrder(ctx context.Context, messageID int, id uint64) error {
	o, err := a.shop.Order(ctx, id)
	if err == nil && o.Cleared() {
		err = shop.ErrOrderAlreadyCleared
	}
	if ok, err := a.settled(ctx, messageID, err); !ok {
		return err
	}
	promptID, err := a.sayInline(ctx, a.loc.Get("ask_refund_reason"), a.cancelInline())
	if err != nil {
		return err
	}
	reason, err := a.conv.Text(ctx, true)
	if errors.Is(err, conversation.ErrCancelled) {
		if err := a.tr.Delete(ctx, a.chatID, promptID); err != nil {
			a.log.Warn("refund prompt not deleted", zap.Error(err))
		}
		return nil
	}
	if err != nil {
		return err
	}

	o, err = a.shop.RefundOrder(ctx, id, reason)
	if ok, err := a.settled(ctx, messageID, err); !ok {
		return err
	}
	a.log.Info("order refunded", zap.Uint64("order_id", id), zap.String("reason", reason))
	a.edit(ctx, messageID, a.orderText(o, true), nil)
	a.notify(ctx, chat.Outgoing{ChatID: o.UserID, Text: a.loc.Get("notification_order_refunded", i18n.Args{"order": a.orderText(o, false)})})
	a.deps.Events.Publish(ctx, events.OrderEvent(events.OrderRefunded, o))
	_, err = a.say(ctx, a.loc.Get("success_order_refunded", i18n.Args{"id": id}))
	return err
}
