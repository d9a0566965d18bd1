package actor

import (
	"context"
	"html"

	"go.uber.org/zap"

	"chatshop/internal/domain"
	"chatshop/internal/i18n"
	"chatshop/internal/transport/chat"
)

// adminFlags binds each toggleable capability to its label key.
var adminFlags = []struct {
	data  string
	label string
	flag  func(*domain.Admin) *bool
}{
	{dataTogglePrefix + "edit_products", "prop_edit_products", func(a *domain.Admin) *bool { return &a.CanEditProducts }},
	{dataTogglePrefix + "receive_orders", "prop_receive_orders", func(a *domain.Admin) *bool { return &a.CanReceiveOrders }},
	{dataTogglePrefix + "create_transactions", "prop_create_transactions", func(a *domain.Admin) *bool { return &a.CanCreateTransactions }},
	{dataTogglePrefix + "display_on_help", "prop_display_on_help", func(a *domain.Admin) *bool { return &a.CanDisplayOnHelp }},
}

// editAdmins promotes a user, after confirmation, and edits the
// capabilities of an admin.
func (a *Actor) editAdmins(ctx context.Context) error {
	u, err := a.selectUser(ctx)
	if err != nil {
		return err
	}
	adm, err := a.shop.Admin(ctx, u.ID)
	if err != nil {
		return err
	}
	if adm == nil {
		yes, no := a.loc.Get("emoji_yes"), a.loc.Get("emoji_no")
		if _, err := a.sayKeyboard(ctx, a.loc.Get("conversation_confirm_admin_promotion"), chat.Keyboard{{yes, no}}); err != nil {
			return err
		}
		answer, err := a.conv.Text(ctx, false, yes, no)
		if err != nil {
			return err
		}
		if answer == no {
			return nil
		}
		adm = &domain.Admin{UserID: u.ID, User: *u}
	}

	name := a.loc.Get("admin_properties", i18n.Args{"name": html.EscapeString(adm.User.String())})
	messageID, err := a.sayInline(ctx, name, a.adminInline(adm))
	if err != nil {
		return err
	}
	for {
		cb, err := a.conv.Callback(ctx, false)
		if err != nil {
			return err
		}
		if cb.Data == dataDone {
			break
		}
		for _, f := range adminFlags {
			if f.data == cb.Data {
				p := f.flag(adm)
				*p = !*p
			}
		}
		if err := a.tr.EditInline(ctx, a.chatID, messageID, a.adminInline(adm)); err != nil {
			a.log.Warn("admin toggles not re-rendered", zap.Error(err))
		}
	}

	if err := a.shop.SaveAdmin(ctx, adm); err != nil {
		return err
	}
	a.log.Info("admin saved", zap.Int64("user_id", adm.UserID))
	_, err = a.say(ctx, a.loc.Get("success_admin_saved"))
	return err
}

func (a *Actor) adminInline(adm *domain.Admin) chat.InlineKeyboard {
	kb := make(chat.InlineKeyboard, 0, len(adminFlags)+1)
	for _, f := range adminFlags {
		kb = append(kb, chat.Row(chat.Button(a.loc.Boolmoji(*f.flag(adm))+" "+a.loc.Get(f.label), f.data)))
	}
	return append(kb, chat.Row(chat.Button(a.loc.Get("menu_done"), dataDone)))
}
