package actor

import (
	"context"

	"chatshop/internal/i18n"
)

// Inline callback data understood by the dialogues. dataCancel is turned
// into a Cancel by the dispatcher before it reaches the mailbox.
const (
	dataCancel       = "cmd_cancel"
	dataDone         = "cmd_done"
	dataPrevious     = "cmd_previous"
	dataNext         = "cmd_next"
	dataCartAdd      = "cart_add"
	dataCartRemove   = "cart_remove"
	dataCartDone     = "cart_done"
	dataCartCancel   = "cart_cancel"
	dataOrderPrefix  = "order_"
	dataTogglePrefix = "toggle_"
)

// choose shows a reply keyboard of localized menu entries, one row per
// element of rows, and returns the key of the entry picked.
func (a *Actor) choose(ctx context.Context, text string, cancellable bool, rows ...[]string) (string, error) {
	kb := make([][]string, 0, len(rows))
	byLabel := map[string]string{}
	var labels []string
	for _, row := range rows {
		out := make([]string, 0, len(row))
		for _, key := range row {
			l := a.loc.Get(key)
			out = append(out, l)
			labels = append(labels, l)
			byLabel[l] = key
		}
		kb = append(kb, out)
	}
	if _, err := a.sayKeyboard(ctx, text, kb); err != nil {
		return "", err
	}
	label, err := a.conv.Text(ctx, cancellable, labels...)
	if err != nil {
		return "", err
	}
	return byLabel[label], nil
}

// userMenu loops over the customer dialogues. When asAdmin is set the menu
// offers a way back and returns nil once it is taken.
func (a *Actor) userMenu(ctx context.Context, asAdmin bool) error {
	for {
		if err := a.refreshUser(ctx); err != nil {
			return err
		}
		rows := [][]string{{"menu_order"}, {"menu_order_status"}, {"menu_add_credit"}, {"menu_language"}, {"menu_help"}}
		if asAdmin {
			rows = append(rows, []string{"menu_admin_mode"})
		}
		text := a.loc.Get("conversation_open_user_menu", i18n.Args{"credit": a.money(a.user.Credit)})
		choice, err := a.choose(ctx, text, false, rows...)
		if err != nil {
			return err
		}
		menuSelections.WithLabelValues(choice).Inc()

		switch choice {
		case "menu_order":
			err = a.orderMenu(ctx)
		case "menu_order_status":
			err = a.orderStatus(ctx)
		case "menu_add_credit":
			err = a.addCreditMenu(ctx)
		case "menu_language":
			err = a.languageMenu(ctx)
		case "menu_help":
			err = a.helpMenu(ctx)
		case "menu_admin_mode":
			return nil
		}
		if err = cancelled(err); err != nil {
			return err
		}
	}
}

// adminMenu loops over the shopkeeper dialogues the admin is allowed to use.
// Capabilities are reloaded every round so changes by the owner apply at once.
func (a *Actor) adminMenu(ctx context.Context) error {
	for {
		adm, err := a.shop.Admin(ctx, a.user.ID)
		if err != nil {
			return err
		}
		if adm == nil {
			a.admin = nil
			return a.userMenu(ctx, false)
		}
		a.admin = adm

		var rows [][]string
		if adm.CanEditProducts {
			rows = append(rows, []string{"menu_products"})
		}
		if adm.CanReceiveOrders {
			rows = append(rows, []string{"menu_orders"})
		}
		if adm.CanCreateTransactions {
			rows = append(rows, []string{"menu_credit_adjustment"}, []string{"menu_transactions", "menu_csv"})
		}
		if adm.IsOwner {
			rows = append(rows, []string{"menu_edit_admins"})
		}
		rows = append(rows, []string{"menu_user_mode"})

		choice, err := a.choose(ctx, a.loc.Get("conversation_open_admin_menu"), false, rows...)
		if err != nil {
			return err
		}
		menuSelections.WithLabelValues(choice).Inc()

		switch choice {
		case "menu_products":
			err = a.productsMenu(ctx)
		case "menu_orders":
			err = a.liveOrders(ctx)
		case "menu_credit_adjustment":
			err = a.createTransaction(ctx)
		case "menu_transactions":
			err = a.transactionPages(ctx)
		case "menu_csv":
			err = a.transactionsFile(ctx)
		case "menu_edit_admins":
			err = a.editAdmins(ctx)
		case "menu_user_mode":
			if _, err = a.say(ctx, a.loc.Get("conversation_switch_to_user_mode")); err == nil {
				err = a.userMenu(ctx, true)
			}
		}
		if err = cancelled(err); err != nil {
			return err
		}
	}
}
