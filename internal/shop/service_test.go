package shop

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"chatshop/internal/core/database"
	"chatshop/internal/domain"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "shop.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(db, WithClock(func() time.Time { return clock })), db
}

func price(v domain.Money) *domain.Money { return &v }

func seedUser(t *testing.T, s *Service, id int64, credit domain.Money) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Bootstrap(ctx, Profile{ID: id, FirstName: "U"}, "en"); err != nil {
		t.Fatalf("bootstrap %d: %v", id, err)
	}
	if credit != 0 {
		if _, _, err := s.CreateManualTransaction(ctx, id, credit, "seed"); err != nil {
			t.Fatalf("seed credit: %v", err)
		}
	}
}

func seedProduct(t *testing.T, s *Service, name string, p domain.Money) domain.Product {
	t.Helper()
	prod := domain.Product{Name: name, Description: name + " desc", Price: price(p)}
	if err := s.SaveProduct(context.Background(), &prod); err != nil {
		t.Fatalf("save product: %v", err)
	}
	return prod
}

func credit(t *testing.T, s *Service, id int64) domain.Money {
	t.Helper()
	u, err := s.User(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("load user %d: %v", id, err)
	}
	return u.Credit
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestBootstrapPromotesOnlyFirstUser(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Bootstrap(ctx, Profile{ID: 1, FirstName: "Owner"}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Created || !first.Promoted || first.Admin == nil || !first.Admin.IsOwner {
		t.Fatalf("first identity = %+v", first)
	}

	second, err := s.Bootstrap(ctx, Profile{ID: 2, FirstName: "Guest"}, "it")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Created || second.Promoted || second.Admin != nil {
		t.Fatalf("second identity = %+v", second)
	}
	if second.User.Language != "it" {
		t.Fatalf("language = %q", second.User.Language)
	}

	again, err := s.Bootstrap(ctx, Profile{ID: 2, FirstName: "Guest", Username: "guest"}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if again.Created || again.User.Username != "guest" || again.User.Language != "it" {
		t.Fatalf("returning identity = %+v", again.User)
	}
}

func TestBootstrapResetsLiveMode(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	if err := s.SetLiveMode(ctx, 1, true); err != nil {
		t.Fatal(err)
	}
	id, err := s.Bootstrap(ctx, Profile{ID: 1, FirstName: "U"}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if id.Admin.LiveMode {
		t.Fatal("live mode should be reset")
	}
	live, err := s.LiveAdmins(ctx)
	if err != nil || len(live) != 0 {
		t.Fatalf("live admins = %v, %v", live, err)
	}
}

func TestPlaceOrderDebitsCredit(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	seedUser(t, s, 2, 500)
	pizza := seedProduct(t, s, "Pizza", 300)

	o, err := s.PlaceOrder(ctx, 2, []CartLine{{Product: pizza, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(o.Items) != 1 || o.Transaction == nil || o.Transaction.Value != -300 {
		t.Fatalf("order = %+v", o)
	}
	if o.Total() != 300 {
		t.Fatalf("total = %d", o.Total())
	}
	if got := credit(t, s, 2); got != 200 {
		t.Fatalf("credit = %d, want 200", got)
	}
	if n := count(t, db, &domain.Order{}); n != 1 {
		t.Fatalf("orders = %d", n)
	}
}

func TestPlaceOrderInsufficientCreditWritesNothing(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	seedUser(t, s, 2, 100)
	pizza := seedProduct(t, s, "Pizza", 300)
	txBefore := count(t, db, &domain.Transaction{})

	_, err := s.PlaceOrder(ctx, 2, []CartLine{{Product: pizza, Quantity: 1}}, "extra cheese")
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("err = %v", err)
	}
	if got := credit(t, s, 2); got != 100 {
		t.Fatalf("credit = %d, want 100", got)
	}
	if n := count(t, db, &domain.Order{}); n != 0 {
		t.Fatalf("orders = %d", n)
	}
	if n := count(t, db, &domain.OrderItem{}); n != 0 {
		t.Fatalf("items = %d", n)
	}
	if n := count(t, db, &domain.Transaction{}); n != txBefore {
		t.Fatalf("transactions = %d, want %d", n, txBefore)
	}
}

func TestPlaceOrderRejectsEmptyAndUnpriced(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 1000)
	if _, err := s.PlaceOrder(ctx, 1, nil, ""); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart err = %v", err)
	}
	display := domain.Product{ID: 9, Name: "Poster"}
	if _, err := s.PlaceOrder(ctx, 1, []CartLine{{Product: display, Quantity: 1}}, ""); !errors.Is(err, ErrNotForSale) {
		t.Fatalf("unpriced err = %v", err)
	}
}

func TestManualTransaction(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	seedUser(t, s, 2, 250)

	tr, c, err := s.CreateManualTransaction(ctx, 2, 1000, "gift")
	if err != nil {
		t.Fatal(err)
	}
	if c != 1250 || tr.Provider != domain.ProviderManual || tr.Notes != "gift" {
		t.Fatalf("credit=%d tx=%+v", c, tr)
	}
	if _, _, err := s.CreateManualTransaction(ctx, 2, 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount err = %v", err)
	}
	if _, _, err := s.CreateManualTransaction(ctx, 99, 10, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestRecordCardPaymentCreditsNetAmount(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)

	tr, c, err := s.RecordCardPayment(ctx, 1, CardPayment{
		Total: 1059, Fee: 59, TelegramChargeID: "tg", ProviderChargeID: "pr", Email: "a@b.c",
	})
	if err != nil {
		t.Fatal(err)
	}
	if c != 1000 || tr.Value != 1000 || tr.Provider != domain.ProviderCreditCard || tr.ProviderChargeID != "pr" {
		t.Fatalf("credit=%d tx=%+v", c, tr)
	}
}

func TestRefundOrderRestoresCreditOnce(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	seedUser(t, s, 2, 500)
	pizza := seedProduct(t, s, "Pizza", 300)
	o, err := s.PlaceOrder(ctx, 2, []CartLine{{Product: pizza, Quantity: 1}}, "")
	if err != nil {
		t.Fatal(err)
	}

	pending, err := s.PendingOrders(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v", pending, err)
	}

	refunded, err := s.RefundOrder(ctx, o.ID, "damaged")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.RefundDate == nil || refunded.RefundReason != "damaged" || !refunded.Transaction.Refunded {
		t.Fatalf("refunded order = %+v", refunded)
	}
	if got := credit(t, s, 2); got != 500 {
		t.Fatalf("credit = %d, want 500", got)
	}

	if _, err := s.RefundOrder(ctx, o.ID, "again"); !errors.Is(err, ErrOrderAlreadyCleared) {
		t.Fatalf("second refund err = %v", err)
	}
	if _, err := s.CompleteOrder(ctx, o.ID); !errors.Is(err, ErrOrderAlreadyCleared) {
		t.Fatalf("complete after refund err = %v", err)
	}
	if got := credit(t, s, 2); got != 500 {
		t.Fatalf("credit changed by rejected ops: %d", got)
	}
	pending, _ = s.PendingOrders(ctx)
	if len(pending) != 0 {
		t.Fatalf("pending after refund = %d", len(pending))
	}
}

func TestCompleteOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	seedUser(t, s, 2, 900)
	tea := seedProduct(t, s, "Tea", 150)
	o, err := s.PlaceOrder(ctx, 2, []CartLine{{Product: tea, Quantity: 3}}, "no sugar")
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 3 || o.Notes != "no sugar" {
		t.Fatalf("order = %+v", o)
	}
	done, err := s.CompleteOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.DeliveryDate == nil || done.RefundDate != nil {
		t.Fatalf("completed order = %+v", done)
	}
	if _, err := s.RefundOrder(ctx, o.ID, "late"); !errors.Is(err, ErrOrderAlreadyCleared) {
		t.Fatalf("refund after complete err = %v", err)
	}
	if got := credit(t, s, 2); got != 450 {
		t.Fatalf("credit = %d, want 450", got)
	}
	if _, err := s.CompleteOrder(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order err = %v", err)
	}
}

func TestProductNamesUniqueAmongActive(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	pizza := seedProduct(t, s, "Pizza", 300)

	dup := domain.Product{Name: "Pizza"}
	if err := s.SaveProduct(ctx, &dup); !errors.Is(err, ErrDuplicateProductName) {
		t.Fatalf("dup err = %v", err)
	}
	taken, err := s.NameTaken(ctx, "Pizza", pizza.ID)
	if err != nil || taken {
		t.Fatalf("own name reported taken: %v %v", taken, err)
	}

	if err := s.DeleteProduct(ctx, pizza.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProduct(ctx, pizza.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if err := s.SaveProduct(ctx, &dup); err != nil {
		t.Fatalf("name of deleted product should be reusable: %v", err)
	}
	cat, err := s.Catalog(ctx)
	if err != nil || len(cat) != 1 || cat[0].ID != dup.ID {
		t.Fatalf("catalog = %+v, %v", cat, err)
	}
}

func TestTransactionsPageAndLedgerCheck(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, 0)
	for i := 1; i <= 12; i++ {
		if _, _, err := s.CreateManualTransaction(ctx, 1, domain.Money(i), ""); err != nil {
			t.Fatal(err)
		}
	}
	rows, p, err := s.TransactionsPage(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != PageSize || rows[0].Value != 12 || !p.HasNext() || p.HasPrev() {
		t.Fatalf("page 0: %d rows, first %d, pager %+v", len(rows), rows[0].Value, p)
	}
	rows, p, _ = s.TransactionsPage(ctx, 1)
	if len(rows) != 2 || p.HasNext() || !p.HasPrev() {
		t.Fatalf("page 1: %d rows, pager %+v", len(rows), p)
	}

	all, err := s.AllTransactions(ctx)
	if err != nil || len(all) != 12 || all[0].Value != 1 {
		t.Fatalf("all = %d, %v", len(all), err)
	}

	check, err := s.UserLedger(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !check.Consistent() || check.Computed != 78 {
		t.Fatalf("ledger check = %+v", check)
	}
}
