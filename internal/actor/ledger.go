package actor

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chatshop/internal/domain"
	"chatshop/internal/i18n"
	"chatshop/internal/report"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

var (
	userPattern   = regexp.MustCompile(`user_([0-9]+)`)
	creditPattern = regexp.MustCompile(`(-? ?[0-9]{1,3}(?:[.,][0-9]{1,2})?)`)
)

// selectUser offers every known user on a keyboard and returns the one picked.
func (a *Actor) selectUser(ctx context.Context) (*domain.User, error) {
	users, err := a.shop.Users(ctx)
	if err != nil {
		return nil, err
	}
	labels := []string{a.loc.Get("menu_cancel")}
	for _, u := range users {
		labels = append(labels, u.Identifiable())
	}
	for {
		if _, err := a.sayKeyboard(ctx, a.loc.Get("conversation_admin_select_user"), keyboard(labels...)); err != nil {
			return nil, err
		}
		raw, err := a.conv.Regex(ctx, userPattern, true)
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		var u *domain.User
		if err == nil {
			u, err = a.shop.User(ctx, id)
			if err != nil {
				return nil, err
			}
		}
		if u != nil {
			return u, nil
		}
		if _, err := a.say(ctx, a.loc.Get("error_user_does_not_exist")); err != nil {
			return nil, err
		}
	}
}

// createTransaction records a manual credit adjustment for a user and tells
// them about it.
func (a *Actor) createTransaction(ctx context.Context) error {
	target, err := a.selectUser(ctx)
	if err != nil {
		return err
	}

	var value domain.Money
	for value == 0 {
		if _, err := a.sayInline(ctx, a.loc.Get("ask_credit"), a.cancelInline()); err != nil {
			return err
		}
		raw, err := a.conv.Regex(ctx, creditPattern, true)
		if err != nil {
			return err
		}
		if value, err = a.set.Currency.Parse(raw); err != nil {
			value = 0
		}
	}

	if _, err := a.sayInline(ctx, a.loc.Get("ask_transaction_notes"), a.cancelInline()); err != nil {
		return err
	}
	notes, err := a.conv.Text(ctx, true)
	if err != nil {
		return err
	}

	t, credit, err := a.shop.CreateManualTransaction(ctx, target.ID, value, notes)
	if errors.Is(err, shop.ErrNotFound) {
		_, err = a.say(ctx, a.loc.Get("error_user_does_not_exist"))
		return err
	}
	if err != nil {
		return err
	}
	t.User = *target
	a.log.Info("manual transaction created",
		zap.Uint64("transaction_id", t.ID), zap.Int64("user_id", target.ID),
		zap.Int64("value", value.Int64()), zap.Int64("credit", credit.Int64()))

	text := a.transactionText(t)
	a.notify(ctx, chat.Outgoing{ChatID: target.ID, Text: a.loc.Get("notification_transaction_created", i18n.Args{"transaction": text})})
	_, err = a.say(ctx, a.loc.Get("success_transaction_created", i18n.Args{"transaction": text}))
	return err
}

// transactionPages browses the history newest first, one page at a time.
func (a *Actor) transactionPages(ctx context.Context) error {
	page, messageID := 0, 0
	for {
		rows, pager, err := a.shop.TransactionsPage(ctx, page)
		if err != nil {
			return err
		}
		text, kb := a.transactionsPage(rows, pager)
		if messageID == 0 {
			if messageID, err = a.sayInline(ctx, text, kb); err != nil {
				return err
			}
		} else {
			a.edit(ctx, messageID, text, kb)
		}

		for moved := false; !moved; {
			cb, err := a.conv.Callback(ctx, false)
			if err != nil {
				return err
			}
			switch {
			case cb.Data == dataDone:
				return nil
			case cb.Data == dataPrevious && pager.HasPrev():
				page, moved = pager.Prev().Page, true
			case cb.Data == dataNext && pager.HasNext():
				page, moved = pager.Next().Page, true
			}
		}
	}
}

func (a *Actor) transactionsPage(rows []domain.Transaction, pager shop.Pager) (string, chat.InlineKeyboard) {
	var text string
	if len(rows) == 0 {
		text = a.loc.Get("transactions_empty")
	} else {
		lines := make([]string, 0, len(rows))
		for i := range rows {
			lines = append(lines, a.transactionText(&rows[i]))
		}
		text = a.loc.Get("transactions_page", i18n.Args{"page": pager.Page + 1, "transactions": strings.Join(lines, "\n")})
	}
	var nav []chat.InlineButton
	if pager.HasPrev() {
		nav = append(nav, chat.Button(a.loc.Get("menu_previous"), dataPrevious))
	}
	if pager.HasNext() {
		nav = append(nav, chat.Button(a.loc.Get("menu_next"), dataNext))
	}
	kb := chat.InlineKeyboard{}
	if len(nav) > 0 {
		kb = append(kb, nav)
	}
	kb = append(kb, chat.Row(chat.Button(a.loc.Get("menu_done"), dataDone)))
	return text, kb
}

// transactionsFile sends the whole history as a semicolon separated file.
func (a *Actor) transactionsFile(ctx context.Context) error {
	txs, err := a.shop.AllTransactions(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, txs); err != nil {
		return err
	}
	if _, err := a.say(ctx, a.loc.Get("csv_caption")); err != nil {
		return err
	}
	return a.tr.SendDocument(ctx, chat.Document{
		ChatID: a.chatID,
		Name:   "transactions_" + strconv.FormatInt(a.chatID, 10) + ".csv",
		Data:   buf.Bytes(),
	})
}
