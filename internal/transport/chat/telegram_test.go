package chat

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestConvertMessageUpdate(t *testing.T) {
	raw := tgbotapi.Update{
		UpdateID: 41,
		Message: &tgbotapi.Message{
			MessageID: 7,
			From:      &tgbotapi.User{ID: 100, FirstName: "Ada", UserName: "ada", LanguageCode: "it"},
			Chat:      &tgbotapi.Chat{ID: 100, Type: "private"},
			Text:      "/start",
			Photo:     []tgbotapi.PhotoSize{{FileID: "small", Width: 90}, {FileID: "big", Width: 800}},
		},
	}
	u := convertUpdate(raw)
	if u.ID != 41 || u.Message == nil || u.ChatID() != 100 || !u.Private() {
		t.Fatalf("update = %+v", u)
	}
	if u.From().Username != "ada" || u.From().LanguageCode != "it" {
		t.Fatalf("from = %+v", u.From())
	}
	if len(u.Message.Photos) != 2 || u.Message.Photos[1].FileID != "big" {
		t.Fatalf("photos = %+v", u.Message.Photos)
	}
}

func TestConvertGroupCallbackAndPayment(t *testing.T) {
	cb := convertUpdate(tgbotapi.Update{
		UpdateID: 1,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: 5},
			Data:    "cart_add",
			Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: -99, Type: "group"}},
		},
	})
	if cb.Callback == nil || cb.Private() || cb.ChatID() != -99 || cb.Callback.MessageID != 3 {
		t.Fatalf("callback = %+v", cb.Callback)
	}

	pay := convertUpdate(tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 9,
			From:      &tgbotapi.User{ID: 5},
			Chat:      &tgbotapi.Chat{ID: 5, Type: "private"},
			SuccessfulPayment: &tgbotapi.SuccessfulPayment{
				Currency:                "EUR",
				TotalAmount:             1059,
				InvoicePayload:          "tok",
				TelegramPaymentChargeID: "tg",
				ProviderPaymentChargeID: "pr",
				OrderInfo:               &tgbotapi.OrderInfo{Email: "a@b.c"},
			},
		},
	})
	p := pay.Message.Payment
	if p == nil || p.TotalAmount != 1059 || p.InvoicePayload != "tok" || p.OrderInfo.Email != "a@b.c" {
		t.Fatalf("payment = %+v", p)
	}

	pre := convertUpdate(tgbotapi.Update{
		UpdateID:         3,
		PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{ID: "q", From: &tgbotapi.User{ID: 5}, InvoicePayload: "tok", TotalAmount: 1059},
	})
	if pre.PreCheckout == nil || pre.ChatID() != 5 || !pre.Private() {
		t.Fatalf("precheckout = %+v", pre)
	}
}

func TestReplyMarkupPrefersInline(t *testing.T) {
	m := Outgoing{
		Keyboard: Keyboard{{"a"}},
		Inline:   InlineKeyboard{Row(Button("Add", "cart_add")), Row(InlineButton{Text: "Pay", Pay: true})},
	}
	got, ok := replyMarkup(m).(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup type %T", replyMarkup(m))
	}
	if len(got.InlineKeyboard) != 2 || !got.InlineKeyboard[1][0].Pay || *got.InlineKeyboard[0][0].CallbackData != "cart_add" {
		t.Fatalf("markup = %+v", got)
	}
	if _, ok := replyMarkup(Outgoing{RemoveKeyboard: true}).(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Fatal("expected keyboard removal")
	}
	if replyMarkup(Outgoing{}) != nil {
		t.Fatal("expected no markup")
	}
}
