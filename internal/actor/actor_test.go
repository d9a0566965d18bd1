package actor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatshop/internal/blob"
	"chatshop/internal/conversation"
	"chatshop/internal/core/database"
	"chatshop/internal/domain"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
	"chatshop/internal/transport/chat/chattest"
)

type harness struct {
	t    *testing.T
	rec  *chattest.Recorder
	svc  *shop.Service
	deps Deps
	loc  *i18n.Localizer
}

func newHarness(t *testing.T, tweak func(*Settings)) *harness {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "actor.db"), LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	bundle, err := i18n.Load([]string{"en", "it"}, "en")
	if err != nil {
		t.Fatal(err)
	}
	set := Settings{
		Currency:        domain.Currency{Code: "EUR", Exponent: 2, Symbol: "€"},
		CardMin:         100,
		CardMax:         10000,
		Presets:         []domain.Money{1000, 2500},
		DefaultLanguage: "en",
	}
	if tweak != nil {
		tweak(&set)
	}
	rec := chattest.New()
	svc := shop.New(db)
	return &harness{
		t:   t,
		rec: rec,
		svc: svc,
		deps: Deps{
			Transport: rec,
			Shop:      svc,
			Bundle:    bundle,
			Settings:  set,
		},
		loc: bundle.Localizer("en", nil),
	}
}

func profile(id int64) chat.User {
	return chat.User{ID: id, FirstName: fmt.Sprintf("User%d", id), LanguageCode: "en"}
}

func (h *harness) start(id int64) *Actor {
	h.t.Helper()
	a := New(id, profile(id), h.deps)
	a.Start(context.Background())
	h.t.Cleanup(func() { a.Stop(conversation.ReasonShutdown) })
	return a
}

// seed creates a user outside any conversation, with optional credit.
func (h *harness) seed(id int64, credit domain.Money) {
	h.t.Helper()
	ctx := context.Background()
	if _, err := h.svc.Bootstrap(ctx, shop.Profile{ID: id, FirstName: fmt.Sprintf("User%d", id)}, "en"); err != nil {
		h.t.Fatal(err)
	}
	if credit != 0 {
		if _, _, err := h.svc.CreateManualTransaction(ctx, id, credit, "seed"); err != nil {
			h.t.Fatal(err)
		}
	}
}

func (h *harness) product(name string, price domain.Money) domain.Product {
	h.t.Helper()
	p := domain.Product{Name: name, Description: name + " desc", Price: &price}
	if err := h.svc.SaveProduct(context.Background(), &p); err != nil {
		h.t.Fatal(err)
	}
	return p
}

func (h *harness) credit(id int64) domain.Money {
	h.t.Helper()
	u, err := h.svc.User(context.Background(), id)
	if err != nil || u == nil {
		h.t.Fatalf("user %d: %v", id, err)
	}
	return u.Credit
}

func (h *harness) text(a *Actor, s string) {
	a.Deliver(conversation.Message{Message: chat.Message{ChatID: a.chatID, Private: true, From: a.from, Text: s}})
}

func (h *harness) menu(a *Actor, key string) { h.text(a, h.loc.Get(key)) }

func (h *harness) press(a *Actor, messageID int, data string) {
	a.Deliver(conversation.Callback{Callback: chat.Callback{ID: "cb-" + data, ChatID: a.chatID, Private: true, From: a.from, MessageID: messageID, Data: data}})
}

// waitPrompt waits for a message sent after the first n whose text contains
// the localized text of key, up to its first placeholder.
func (h *harness) waitPrompt(chatID int64, n int, key string) chattest.Sent {
	h.t.Helper()
	s := h.loc.Get(key)
	if i := strings.Index(s, "{"); i > 0 {
		s = s[:i]
	}
	return h.rec.WaitTextAfter(h.t, chatID, n, s)
}

func TestFirstUserBecomesOwnerAndSecondIsCustomer(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Welcome = true })
	owner := h.start(1)
	h.rec.WaitText(t, 1, "Hi User1!")
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	chattest.Eventually(t, "owner ready", owner.Ready)

	h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")

	adm, err := h.svc.Admin(context.Background(), 1)
	if err != nil || adm == nil || !adm.IsOwner {
		t.Fatalf("owner admin = %+v, %v", adm, err)
	}
	if adm, _ := h.svc.Admin(context.Background(), 2); adm != nil {
		t.Fatalf("second user promoted: %+v", adm)
	}
	if got := owner.CancelLabel(); got != h.loc.Get("menu_cancel") {
		t.Fatalf("cancel label = %q", got)
	}
}

func TestWelcomeEscapesName(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Welcome = true })
	a := New(1, chat.User{ID: 1, FirstName: "<3 Ann", LanguageCode: "en"}, h.deps)
	a.Start(context.Background())
	t.Cleanup(func() { a.Stop(conversation.ReasonShutdown) })

	h.rec.WaitText(t, 1, "Hi &lt;3 Ann!")
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	chattest.Eventually(t, "ready", a.Ready)
	if _, ok := h.rec.Find(1, "<3"); ok {
		t.Fatal("raw name sent in an HTML message")
	}
}

func TestOrderDebitsCredit(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 500)
	h.product("Apple", 300)
	h.product("Ghost", 100)
	ghost, _ := h.svc.Catalog(context.Background())
	for _, p := range ghost {
		if p.Name == "Ghost" {
			p.Price = nil
			if err := h.svc.SaveProduct(context.Background(), &p); err != nil {
				t.Fatal(err)
			}
		}
	}

	a := h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")
	h.menu(a, "menu_order")
	apple := h.rec.WaitText(t, 2, "<b>Apple</b>")
	h.waitPrompt(2, 0, "conversation_cart_actions")
	if _, ok := h.rec.Find(2, "<b>Ghost</b>"); ok {
		t.Fatal("product not for sale was offered")
	}

	h.press(a, apple.ID, "cart_add")
	h.press(a, apple.ID, "cart_add")
	h.press(a, apple.ID, "cart_remove")
	h.press(a, 0, "cart_done")
	n := h.waitPrompt(2, 0, "ask_order_notes")
	_ = n
	a.Deliver(conversation.Cancel{})
	h.rec.WaitText(t, 2, "Your order has been sent")

	if got := h.credit(2); got != 200 {
		t.Fatalf("credit = %d, want 200", got)
	}
	orders, err := h.svc.UserOrders(context.Background(), 2, 10)
	if err != nil || len(orders) != 1 {
		t.Fatalf("orders = %v, %v", orders, err)
	}
	if len(orders[0].Items) != 1 || orders[0].Transaction == nil || orders[0].Transaction.Value != -300 || orders[0].Notes != "" {
		t.Fatalf("order = %+v", orders[0])
	}
	var sawQty bool
	for _, e := range h.rec.Edits() {
		if e.MessageID == apple.ID && strings.Contains(e.Text, "2 in cart") {
			sawQty = true
		}
	}
	if !sawQty {
		t.Fatal("product message never showed the cart quantity")
	}
}

func TestOrderWithoutCreditWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 100)
	h.product("Apple", 300)

	a := h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")
	h.menu(a, "menu_order")
	apple := h.rec.WaitText(t, 2, "<b>Apple</b>")
	h.press(a, apple.ID, "cart_add")
	h.press(a, 0, "cart_done")
	h.waitPrompt(2, 0, "ask_order_notes")
	h.text(a, "asap")
	h.waitPrompt(2, 0, "error_not_enough_credit")
	n := h.rec.Count(2)
	h.waitPrompt(2, n-1, "conversation_open_user_menu")

	if got := h.credit(2); got != 100 {
		t.Fatalf("credit = %d, want 100", got)
	}
	if orders, _ := h.svc.UserOrders(context.Background(), 2, 10); len(orders) != 0 {
		t.Fatalf("orders = %+v", orders)
	}
	if len(h.rec.Invoices()) != 0 {
		t.Fatal("invoice sent without card payments configured")
	}
}

func TestCardTopUp(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.CardToken = "provider-token"
		s.Fees = domain.FeeSchedule{Fixed: 30}
	})
	h.seed(1, 0)
	h.seed(2, 0)

	a := h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")
	h.menu(a, "menu_add_credit")
	h.waitPrompt(2, 0, "conversation_payment_method")
	h.menu(a, "menu_credit_card")
	h.waitPrompt(2, 0, "payment_cc_amount")
	h.text(a, "€ 200.00")
	h.waitPrompt(2, 0, "error_payment_amount_over_max")
	h.text(a, "€ 10.00")

	chattest.Eventually(t, "invoice", func() bool { return len(h.rec.Invoices()) == 1 })
	inv := h.rec.Invoices()[0]
	if len(inv.Prices) != 2 || inv.Prices[0].Amount != 1000 || inv.Prices[1].Amount != 30 || inv.Currency != "EUR" {
		t.Fatalf("invoice = %+v", inv)
	}
	if a.InvoicePayload() != inv.Payload || inv.Payload == "" {
		t.Fatalf("payload %q, actor token %q", inv.Payload, a.InvoicePayload())
	}

	a.Deliver(conversation.PreCheckout{PreCheckout: chat.PreCheckout{ID: "q1", From: a.from, TotalAmount: 1030, InvoicePayload: inv.Payload}})
	chattest.Eventually(t, "pre-checkout answer", func() bool { return len(h.rec.PreCheckoutAnswers()) == 1 })
	if ans := h.rec.PreCheckoutAnswers()[0]; !ans.OK || ans.QueryID != "q1" {
		t.Fatalf("answer = %+v", ans)
	}
	if a.InvoicePayload() != "" {
		t.Fatal("token still outstanding after pre-checkout")
	}

	a.Deliver(conversation.Message{Message: chat.Message{ChatID: 2, Private: true, From: a.from, Payment: &chat.SuccessfulPayment{
		Currency: "EUR", TotalAmount: 1030, InvoicePayload: inv.Payload, ProviderChargeID: "ch_1",
		OrderInfo: chat.OrderInfo{Email: "u@example.com"},
	}}})
	chattest.Eventually(t, "credit", func() bool { return h.credit(2) == 1000 })

	txs, err := h.svc.AllTransactions(context.Background())
	if err != nil || len(txs) != 1 {
		t.Fatalf("transactions = %v, %v", txs, err)
	}
	if txs[0].Provider != domain.ProviderCreditCard || txs[0].ProviderChargeID != "ch_1" || txs[0].PaymentEmail != "u@example.com" {
		t.Fatalf("transaction = %+v", txs[0])
	}
}

func TestCancelledInvoiceWritesNothing(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.CardToken = "provider-token" })
	h.seed(1, 0)
	h.seed(2, 0)

	a := h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")
	h.menu(a, "menu_add_credit")
	h.waitPrompt(2, 0, "conversation_payment_method")
	h.menu(a, "menu_credit_card")
	h.waitPrompt(2, 0, "payment_cc_amount")
	h.text(a, "25")
	chattest.Eventually(t, "invoice", func() bool { return len(h.rec.Invoices()) == 1 })
	a.Deliver(conversation.Cancel{})
	chattest.Eventually(t, "token cleared", func() bool { return a.InvoicePayload() == "" })

	if got := h.credit(2); got != 0 {
		t.Fatalf("credit = %d", got)
	}
}

func TestManualCreditAdjustment(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 0)

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_credit_adjustment")
	h.waitPrompt(1, 0, "conversation_admin_select_user")
	h.text(a, "user_99 (nobody)")
	h.waitPrompt(1, 0, "error_user_does_not_exist")
	h.text(a, "user_2 (User2)")
	h.waitPrompt(1, 0, "ask_credit")
	h.text(a, "10")
	h.waitPrompt(1, 0, "ask_transaction_notes")
	h.text(a, "gift")
	h.waitPrompt(1, 0, "success_transaction_created")

	if got := h.credit(2); got != 1000 {
		t.Fatalf("credit = %d, want 1000", got)
	}
	note := h.waitPrompt(2, 0, "notification_transaction_created")
	if !strings.Contains(note.Text, "€ 10.00") || !strings.Contains(note.Text, "gift") {
		t.Fatalf("notification = %q", note.Text)
	}
}

func TestLiveOrdersRefund(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 500)
	apple := h.product("Apple", 300)
	order, err := h.svc.PlaceOrder(context.Background(), 2, []shop.CartLine{{Product: apple, Quantity: 1}}, "")
	if err != nil {
		t.Fatal(err)
	}

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_orders")
	msg := h.rec.WaitText(t, 1, fmt.Sprintf("<b>Order %d</b>", order.ID))
	chattest.Eventually(t, "live mode", func() bool {
		live, _ := h.svc.LiveAdmins(context.Background())
		return len(live) == 1
	})

	h.press(a, msg.ID, orderAction(actionRefund, order.ID))
	h.waitPrompt(1, 0, "ask_refund_reason")
	h.text(a, "damaged")
	h.rec.WaitText(t, 1, fmt.Sprintf("Order %d refunded", order.ID))

	got, err := h.svc.Order(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RefundDate == nil || got.RefundReason != "damaged" || !got.Transaction.Refunded {
		t.Fatalf("order = %+v", got)
	}
	if c := h.credit(2); c != 500 {
		t.Fatalf("credit = %d, want 500", c)
	}
	h.waitPrompt(2, 0, "notification_order_refunded")

	// a second settlement of the same order is refused
	h.press(a, msg.ID, orderAction(actionComplete, order.ID))
	chattest.Eventually(t, "already cleared", func() bool {
		for _, e := range h.rec.Edits() {
			if e.MessageID == msg.ID && e.Text == h.loc.Get("error_order_already_cleared") {
				return true
			}
		}
		return false
	})
	if got, _ := h.svc.Order(context.Background(), order.ID); got.DeliveryDate != nil {
		t.Fatal("refunded order was completed")
	}

	// refunding it again is refused before any reason is asked
	edits := len(h.rec.Edits())
	prompts := h.rec.Count(1)
	h.press(a, msg.ID, orderAction(actionRefund, order.ID))
	chattest.Eventually(t, "refund refused", func() bool { return len(h.rec.Edits()) > edits })
	if e := h.rec.Edits()[edits]; e.MessageID != msg.ID || e.Text != h.loc.Get("error_order_already_cleared") {
		t.Fatalf("edit = %+v", e)
	}
	for _, m := range h.rec.Messages(1)[prompts:] {
		if m.Text == h.loc.Get("ask_refund_reason") {
			t.Fatal("reason asked for a cleared order")
		}
	}

	a.Deliver(conversation.Cancel{})
	chattest.Eventually(t, "live mode off", func() bool {
		live, _ := h.svc.LiveAdmins(context.Background())
		return len(live) == 0
	})
}

func TestNewOrderReachesLiveAdmin(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 500)
	h.product("Apple", 300)

	admin := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(admin, "menu_orders")
	h.waitPrompt(1, 0, "conversation_live_orders_stop")
	chattest.Eventually(t, "live mode", func() bool {
		live, _ := h.svc.LiveAdmins(context.Background())
		return len(live) == 1
	})

	buyer := h.start(2)
	h.waitPrompt(2, 0, "conversation_open_user_menu")
	h.menu(buyer, "menu_order")
	apple := h.rec.WaitText(t, 2, "<b>Apple</b>")
	h.press(buyer, apple.ID, "cart_add")
	h.press(buyer, 0, "cart_done")
	h.waitPrompt(2, 0, "ask_order_notes")
	h.text(buyer, "ring twice")

	n := h.waitPrompt(1, 0, "notification_order_placed")
	if !strings.Contains(n.Text, "ring twice") || len(n.Inline) != 2 {
		t.Fatalf("notification = %+v", n)
	}
	h.press(admin, n.ID, n.Inline[0][0].Data)
	h.waitPrompt(2, 0, "notification_order_completed")
}

func TestTransactionPaging(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 0)
	for i := 0; i < 12; i++ {
		if _, _, err := h.svc.CreateManualTransaction(context.Background(), 2, domain.Money(i+1), fmt.Sprintf("t%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_transactions")
	page := h.rec.WaitText(t, 1, "Transactions, page 1")
	if len(page.Inline) != 2 || len(page.Inline[0]) != 1 || page.Inline[0][0].Data != dataNext {
		t.Fatalf("first page keyboard = %+v", page.Inline)
	}

	h.press(a, page.ID, dataPrevious)
	h.press(a, page.ID, dataNext)
	chattest.Eventually(t, "second page", func() bool { return len(h.rec.Edits()) == 1 })
	e := h.rec.Edits()[0]
	if !strings.Contains(e.Text, "page 2") || len(e.Inline[0]) != 1 || e.Inline[0][0].Data != dataPrevious {
		t.Fatalf("second page = %+v", e)
	}

	h.press(a, page.ID, dataNext)
	n := h.rec.Count(1)
	h.press(a, page.ID, dataDone)
	h.waitPrompt(1, n, "conversation_open_admin_menu")
	if len(h.rec.Edits()) != 1 {
		t.Fatalf("next on the last page re-rendered: %d edits", len(h.rec.Edits()))
	}
}

func TestCSVExport(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 700)

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_csv")
	chattest.Eventually(t, "document", func() bool { return len(h.rec.Documents()) == 1 })
	doc := string(h.rec.Documents()[0].Data)
	if !strings.HasPrefix(doc, "UserID;TransactionValue;") || !strings.Contains(doc, "2;700;seed;Manual;") {
		t.Fatalf("csv = %q", doc)
	}
}

func TestAddProductWithPhoto(t *testing.T) {
	h := newHarness(t, nil)
	dir := t.TempDir()
	h.deps.Images = blob.NewLocal(dir)
	h.rec.Files["big"] = []byte("jpeg bytes")

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_products")
	h.waitPrompt(1, 0, "conversation_admin_select_product")
	h.menu(a, "menu_add_product")
	h.waitPrompt(1, 0, "ask_product_name")
	h.text(a, "Pear")
	h.waitPrompt(1, 0, "ask_product_description")
	h.text(a, "Juicy")
	h.waitPrompt(1, 0, "ask_product_price")
	h.text(a, "2,50")
	h.waitPrompt(1, 0, "ask_product_image")
	a.Deliver(conversation.Message{Message: chat.Message{ChatID: 1, Private: true, Photos: []chat.PhotoSize{
		{FileID: "small", Width: 90}, {FileID: "big", Width: 800},
	}}})
	h.waitPrompt(1, 0, "success_product_edited")

	products, err := h.svc.Catalog(context.Background())
	if err != nil || len(products) != 1 {
		t.Fatalf("catalog = %v, %v", products, err)
	}
	p := products[0]
	if p.Name != "Pear" || p.Price == nil || *p.Price != 250 || p.ImageFileID != "big" || p.ImageKey == "" {
		t.Fatalf("product = %+v", p)
	}
	rc, err := h.deps.Images.Open(context.Background(), p.ImageKey)
	if err != nil {
		t.Fatalf("stored image: %v", err)
	}
	rc.Close()
}

func TestPromoteAdmin(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(1, 0)
	h.seed(2, 0)

	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_edit_admins")
	h.waitPrompt(1, 0, "conversation_admin_select_user")
	h.text(a, "user_2 (User2)")
	h.waitPrompt(1, 0, "conversation_confirm_admin_promotion")
	h.menu(a, "emoji_yes")
	props := h.rec.WaitText(t, 1, "Permissions of")
	h.press(a, props.ID, "toggle_receive_orders")
	h.press(a, props.ID, "toggle_display_on_help")
	h.press(a, props.ID, "toggle_display_on_help")
	h.press(a, props.ID, dataDone)
	h.waitPrompt(1, 0, "success_admin_saved")

	adm, err := h.svc.Admin(context.Background(), 2)
	if err != nil || adm == nil {
		t.Fatalf("admin = %v, %v", adm, err)
	}
	if !adm.CanReceiveOrders || adm.CanDisplayOnHelp || adm.CanEditProducts || adm.IsOwner {
		t.Fatalf("flags = %+v", adm)
	}
}

func TestInactivityTimeoutEndsConversation(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Timeout = 50 * time.Millisecond })
	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_expired")
	select {
	case <-a.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("actor still running after timeout")
	}
}

func TestStopJoinsWithoutNotice(t *testing.T) {
	h := newHarness(t, nil)
	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	n := h.rec.Count(1)
	a.Stop(conversation.ReasonReplaced)
	select {
	case <-a.Done():
	default:
		t.Fatal("Stop returned before the actor ended")
	}
	if h.rec.Count(1) != n {
		t.Fatal("replaced conversation sent a message")
	}
}

func TestFailureEndsConversation(t *testing.T) {
	h := newHarness(t, nil)
	h.rec.SendErr = errors.New("transport down")
	a := h.start(1)
	select {
	case <-a.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("actor kept running after a failed prompt")
	}
}

func TestLanguageSwitch(t *testing.T) {
	h := newHarness(t, nil)
	a := h.start(1)
	h.waitPrompt(1, 0, "conversation_open_admin_menu")
	h.menu(a, "menu_user_mode")
	h.waitPrompt(1, 0, "conversation_open_user_menu")
	h.menu(a, "menu_language")
	h.waitPrompt(1, 0, "conversation_language_select")
	h.text(a, i18n.Names["it"])

	it := h.deps.Bundle.Localizer("it", nil)
	h.rec.WaitText(t, 1, it.Get("success_language_changed"))
	chattest.Eventually(t, "italian cancel label", func() bool { return a.CancelLabel() == it.Get("menu_cancel") })
	u, _ := h.svc.User(context.Background(), 1)
	if u.Language != "it" {
		t.Fatalf("language = %q", u.Language)
	}
}

func TestOrderActionData(t *testing.T) {
	data := orderAction(actionRefund, 42)
	action, id, ok := parseOrderAction(data)
	if !ok || action != actionRefund || id != 42 {
		t.Fatalf("parse(%q) = %q %d %v", data, action, id, ok)
	}
	for _, bad := range []string{"order_ship:1", "order_refund:x", "cart_add", "order_complete"} {
		if _, _, ok := parseOrderAction(bad); ok {
			t.Fatalf("parse(%q) accepted", bad)
		}
	}
}
