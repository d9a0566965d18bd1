package ledger

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"chatshop/internal/core/database"
	"chatshop/internal/domain"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostAndVoidKeepCreditInSync(t *testing.T) {
	db := openDB(t)
	if err := db.Create(&domain.User{ID: 7, FirstName: "Ada", Language: "en"}).Error; err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		value domain.Money
		want  domain.Money
	}{
		{1000, 1000},
		{-300, 700},
		{250, 950},
	}
	var ids []uint64
	for _, s := range steps {
		tr := &domain.Transaction{UserID: 7, Value: s.value, Provider: domain.ProviderManual}
		var got domain.Money
		err := db.Transaction(func(tx *gorm.DB) error {
			var e error
			got, e = Post(tx, tr)
			return e
		})
		if err != nil {
			t.Fatalf("post %d: %v", s.value, err)
		}
		if got != s.want {
			t.Fatalf("credit after %d = %d, want %d", s.value, got, s.want)
		}
		ids = append(ids, tr.ID)
	}

	var credit domain.Money
	if err := db.Transaction(func(tx *gorm.DB) error {
		var e error
		credit, e = Void(tx, ids[1])
		return e
	}); err != nil {
		t.Fatalf("void: %v", err)
	}
	if credit != 1250 {
		t.Fatalf("credit after void = %d, want 1250", credit)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, e := Void(tx, ids[1])
		return e
	})
	if !errors.Is(err, ErrAlreadyRefunded) {
		t.Fatalf("second void err = %v", err)
	}

	sum, err := Sum(db, 7)
	if err != nil {
		t.Fatal(err)
	}
	var u domain.User
	if err := db.First(&u, "id = ?", 7).Error; err != nil {
		t.Fatal(err)
	}
	if u.Credit != sum {
		t.Fatalf("stored credit %d != sum %d", u.Credit, sum)
	}
}

func TestRecalculateUnknownUser(t *testing.T) {
	db := openDB(t)
	if _, err := Recalculate(db, 404); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v", err)
	}
}

func TestRollbackLeavesCreditUntouched(t *testing.T) {
	db := openDB(t)
	if err := db.Create(&domain.User{ID: 1, FirstName: "Bo", Language: "en"}).Error; err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, e := Post(tx, &domain.Transaction{UserID: 1, Value: 500}); e != nil {
			return e
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	var u domain.User
	if err := db.First(&u, "id = ?", 1).Error; err != nil {
		t.Fatal(err)
	}
	if u.Credit != 0 {
		t.Fatalf("credit = %d after rollback", u.Credit)
	}
	var n int64
	db.Model(&domain.Transaction{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d transactions after rollback", n)
	}
}

// trace records, in order, locking reads of users and writes to transactions.
func trace(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var events []string
	err := db.Callback().Query().Before("gorm:query").Register("test:trace_lock", func(d *gorm.DB) {
		if _, ok := d.Statement.Clauses["FOR"]; ok && d.Statement.Table == "users" {
			events = append(events, "lock")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	err = db.Callback().Create().Before("gorm:create").Register("test:trace_insert", func(d *gorm.DB) {
		if d.Statement.Table == "transactions" {
			events = append(events, "insert")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	err = db.Callback().Update().Before("gorm:update").Register("test:trace_update", func(d *gorm.DB) {
		if d.Statement.Table == "transactions" {
			events = append(events, "flip")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return &events
}

func TestWritesLockTheUserFirst(t *testing.T) {
	db := openDB(t)
	if err := db.Create(&domain.User{ID: 3, FirstName: "Cy", Language: "en"}).Error; err != nil {
		t.Fatal(err)
	}
	events := trace(t, db)

	tr := &domain.Transaction{UserID: 3, Value: 400, Provider: domain.ProviderManual}
	if err := db.Transaction(func(tx *gorm.DB) error {
		_, e := Post(tx, tr)
		return e
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		_, e := Void(tx, tr.ID)
		return e
	}); err != nil {
		t.Fatal(err)
	}

	got := strings.Join(*events, ",")
	if got != "lock,insert,lock,flip" {
		t.Fatalf("events = %s", got)
	}
}

func TestPostUnknownUserWritesNothing(t *testing.T) {
	db := openDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, e := Post(tx, &domain.Transaction{UserID: 404, Value: 100})
		return e
	})
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v", err)
	}
	var n int64
	db.Model(&domain.Transaction{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d transactions written for an unknown user", n)
	}
}

func TestConcurrentWritersAgreeWithSum(t *testing.T) {
	db := openDB(t)
	if err := db.Create(&domain.User{ID: 9, FirstName: "Di", Language: "en"}).Error; err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := domain.Money(100)
			if i%2 == 1 {
				v = -30
			}
			errs <- db.Transaction(func(tx *gorm.DB) error {
				_, e := Post(tx, &domain.Transaction{UserID: 9, Value: v, Provider: domain.ProviderManual})
				return e
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	var u domain.User
	if err := db.First(&u, "id = ?", 9).Error; err != nil {
		t.Fatal(err)
	}
	if u.Credit != 700 {
		t.Fatalf("credit = %d, want 700", u.Credit)
	}
}
