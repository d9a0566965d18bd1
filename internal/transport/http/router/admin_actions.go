package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatshop/internal/domain"
	"chatshop/internal/shop"
	httpez "chatshop/internal/transport/http/ez"
)

type idIn struct {
	ID uint64 `uri:"id" binding:"required"`
}

type transactionRow struct {
	ID        uint64    `json:"id"`
	UserID    int64     `json:"userId"`
	User      string    `json:"user"`
	Value     int64     `json:"value"`
	Display   string    `json:"display"`
	Provider  string    `json:"provider"`
	Notes     string    `json:"notes"`
	Refunded  bool      `json:"refunded"`
	OrderID   *uint64   `json:"orderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toRow(t domain.Transaction, cur domain.Currency) transactionRow {
	return transactionRow{
		ID:        t.ID,
		UserID:    t.UserID,
		User:      t.User.Identifiable(),
		Value:     t.Value.Int64(),
		Display:   cur.Format(t.Value),
		Provider:  t.Provider,
		Notes:     t.Notes,
		Refunded:  t.Refunded,
		OrderID:   t.OrderID,
		CreatedAt: t.CreatedAt,
	}
}

// mountLedgerActions registers the read-only ledger views.
func mountLedgerActions(ops *gin.RouterGroup, d Deps) {
	ez := httpez.New(ops)

	type pageIn struct {
		Page int `form:"page,default=0" binding:"gte=0"`
	}
	type pageOut struct {
		Page    int              `json:"page"`
		Size    int              `json:"size"`
		Total   int64            `json:"total"`
		HasNext bool             `json:"hasNext"`
		Items   []transactionRow `json:"items"`
	}
	httpez.RegisterAction(ez, httpez.Action[pageIn, pageOut]{
		Method: http.MethodGet,
		Path:   "/transactions",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *pageIn) (pageOut, error) {
			rows, pager, err := d.Shop.TransactionsPage(c.Request.Context(), in.Page)
			if err != nil {
				return pageOut{}, httpez.Internal("list transactions failed", err)
			}
			out := pageOut{Page: pager.Page, Size: pager.Size, Total: pager.Total, HasNext: pager.HasNext(), Items: make([]transactionRow, 0, len(rows))}
			for _, t := range rows {
				out.Items = append(out.Items, toRow(t, d.Currency))
			}
			return out, nil
		},
	})

	type userIn struct {
		ID int64 `uri:"id" binding:"required"`
	}
	type ledgerOut struct {
		UserID       int64            `json:"userId"`
		User         string           `json:"user"`
		Credit       int64            `json:"credit"`
		Computed     int64            `json:"computed"`
		Consistent   bool             `json:"consistent"`
		Transactions []transactionRow `json:"transactions"`
	}
	httpez.RegisterAction(ez, httpez.Action[userIn, ledgerOut]{
		Method: http.MethodGet,
		Path:   "/users/:id/ledger",
		Binder: httpez.BindURI,
		Auth:   true,
		Handler: func(c *gin.Context, in *userIn) (ledgerOut, error) {
			chk, err := d.Shop.UserLedger(c.Request.Context(), in.ID)
			if errors.Is(err, shop.ErrNotFound) {
				return ledgerOut{}, httpez.NotFound("user not found")
			}
			if err != nil {
				return ledgerOut{}, httpez.Internal("ledger lookup failed", err)
			}
			out := ledgerOut{
				UserID:       chk.User.ID,
				User:         chk.User.Identifiable(),
				Credit:       chk.User.Credit.Int64(),
				Computed:     chk.Computed.Int64(),
				Consistent:   chk.Consistent(),
				Transactions: make([]transactionRow, 0, len(chk.Transactions)),
			}
			for _, t := range chk.Transactions {
				t.User = chk.User
				out.Transactions = append(out.Transactions, toRow(t, d.Currency))
			}
			return out, nil
		},
	})
}
