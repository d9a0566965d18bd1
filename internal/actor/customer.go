package actor

import (
	"context"
	"html"
	"strings"

	"chatshop/internal/i18n"
)

const recentOrders = 20

// orderStatus lists the user's most recent orders, newest first.
func (a *Actor) orderStatus(ctx context.Context) error {
	orders, err := a.shop.UserOrders(ctx, a.user.ID, recentOrders)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		_, err = a.say(ctx, a.loc.Get("error_no_orders"))
		return err
	}
	for i := range orders {
		if _, err := a.say(ctx, a.orderText(&orders[i], false)); err != nil {
			return err
		}
	}
	return nil
}

// languageMenu switches the conversation to another enabled language.
func (a *Actor) languageMenu(ctx context.Context) error {
	byLabel := map[string]string{}
	var labels []string
	for _, lang := range a.deps.Bundle.Enabled() {
		label, ok := i18n.Names[lang]
		if !ok {
			label = lang
		}
		byLabel[label] = lang
		labels = append(labels, label)
	}
	if _, err := a.sayKeyboard(ctx, a.loc.Get("conversation_language_select"), keyboard(labels...)); err != nil {
		return err
	}
	label, err := a.conv.Text(ctx, false, labels...)
	if err != nil {
		return err
	}
	a.user.Language = byLabel[label]
	if err := a.shop.SetLanguage(ctx, a.user.ID, a.user.Language); err != nil {
		return err
	}
	if err := a.localize(ctx); err != nil {
		return err
	}
	_, err = a.say(ctx, a.loc.Get("success_language_changed"))
	return err
}

// helpMenu explains the bot and lists the shopkeepers willing to be contacted.
func (a *Actor) helpMenu(ctx context.Context) error {
	if _, err := a.say(ctx, a.loc.Get("help_msg")); err != nil {
		return err
	}
	admins, err := a.shop.Shopkeepers(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return nil
	}
	names := make([]string, 0, len(admins))
	for _, adm := range admins {
		names = append(names, html.EscapeString(adm.User.String()))
	}
	_, err = a.say(ctx, a.loc.Get("contact_shopkeeper", i18n.Args{"shopkeepers": strings.Join(names, "\n")}))
	return err
}
