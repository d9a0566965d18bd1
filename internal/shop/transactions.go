package shop

import (
	"context"

	"gorm.io/gorm"

	"chatshop/internal/domain"
	"chatshop/internal/ledger"
	"chatshop/internal/repo"
)

// CardPayment is a confirmed card top-up as reported by the payment provider.
type CardPayment struct {
	Total            domain.Money
	Fee              domain.Money
	TelegramChargeID string
	ProviderChargeID string
	Name             string
	Phone            string
	Email            string
}

// RecordCardPayment credits the payment total minus the fee and returns the new credit.
func (s *Service) RecordCardPayment(ctx context.Context, userID int64, p CardPayment) (*domain.Transaction, domain.Money, error) {
	if !p.Total.IsPositive() {
		return nil, 0, ErrInvalidAmount
	}
	t := &domain.Transaction{
		UserID:           userID,
		Value:            p.Total.Sub(p.Fee),
		Provider:         domain.ProviderCreditCard,
		TelegramChargeID: p.TelegramChargeID,
		ProviderChargeID: p.ProviderChargeID,
		PaymentName:      p.Name,
		PaymentPhone:     p.Phone,
		PaymentEmail:     p.Email,
	}
	return s.post(ctx, t)
}

// CreateManualTransaction records an admin adjustment; value may be negative.
func (s *Service) CreateManualTransaction(ctx context.Context, userID int64, value domain.Money, notes string) (*domain.Transaction, domain.Money, error) {
	if value == 0 {
		return nil, 0, ErrInvalidAmount
	}
	t := &domain.Transaction{
		UserID:   userID,
		Value:    value,
		Notes:    notes,
		Provider: domain.ProviderManual,
	}
	return s.post(ctx, t)
}

func (s *Service) post(ctx context.Context, t *domain.Transaction) (*domain.Transaction, domain.Money, error) {
	var credit domain.Money
	err := s.tx(ctx, func(tx *gorm.DB) error {
		u, err := repo.NewUserRepo(tx).FindByID(t.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrNotFound
		}
		credit, err = ledger.Post(tx, t)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return t, credit, nil
}

// TransactionsPage returns one page of the history, newest first.
func (s *Service) TransactionsPage(ctx context.Context, page int) ([]domain.Transaction, Pager, error) {
	if page < 0 {
		page = 0
	}
	p := Pager{Page: page, Size: PageSize}
	rows, total, err := repo.NewTransactionRepo(s.conn(ctx)).Page(p.Offset(), p.Size)
	p.Total = total
	return rows, p, err
}

// AllTransactions returns the full history oldest first, for export.
func (s *Service) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return repo.NewTransactionRepo(s.conn(ctx)).All()
}

// LedgerCheck compares a user's stored credit with the sum of their active transactions.
type LedgerCheck struct {
	User         domain.User
	Transactions []domain.Transaction
	Computed     domain.Money
}

func (c LedgerCheck) Consistent() bool { return c.User.Credit == c.Computed }

func (s *Service) UserLedger(ctx context.Context, userID int64) (*LedgerCheck, error) {
	db := s.conn(ctx)
	u, err := repo.NewUserRepo(db).FindByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	txs, err := repo.NewTransactionRepo(db).ListByUser(userID)
	if err != nil {
		return nil, err
	}
	sum, err := ledger.Sum(db, userID)
	if err != nil {
		return nil, err
	}
	return &LedgerCheck{User: *u, Transactions: txs, Computed: sum}, nil
}
