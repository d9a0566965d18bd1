package router

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatshop/internal/blob"
	"chatshop/internal/domain"
	"chatshop/internal/report"
	httpez "chatshop/internal/transport/http/ez"
)

const (
	csvType  = "text/csv; charset=utf-8"
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// mountExports registers the endpoints that answer with files instead of
// the JSON envelope.
func mountExports(ops *gin.RouterGroup, d Deps) {
	ops.GET("/transactions/export.csv", exportHandler(d, "transactions.csv", csvType, report.WriteCSV))
	ops.GET("/transactions/export.xlsx", exportHandler(d, "transactions.xlsx", xlsxType, report.WriteXLSX))

	ops.GET("/products/:id/image", func(c *gin.Context) {
		var in idIn
		if err := c.ShouldBindUri(&in); err != nil {
			httpez.Fail(c, httpez.BadRequest(err.Error()))
			return
		}
		p, err := d.Shop.Product(c.Request.Context(), in.ID)
		if err != nil {
			httpez.Fail(c, httpez.Internal("product lookup failed", err))
			return
		}
		if p == nil || p.ImageKey == "" || d.Images == nil {
			httpez.Fail(c, httpez.NotFound("image not found"))
			return
		}
		rc, err := d.Images.Open(c.Request.Context(), p.ImageKey)
		if errors.Is(err, blob.ErrNotFound) {
			httpez.Fail(c, httpez.NotFound("image not found"))
			return
		}
		if err != nil {
			httpez.Fail(c, httpez.Internal("image read failed", err))
			return
		}
		defer rc.Close()
		c.DataFromReader(http.StatusOK, -1, blob.ContentType(p.ImageKey), rc, nil)
	})
}

func exportHandler(d Deps, filename, contentType string, write func(w io.Writer, txs []domain.Transaction) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := d.Shop.AllTransactions(c.Request.Context())
		if err != nil {
			httpez.Fail(c, httpez.Internal("load transactions failed", err))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", contentType)
		c.Status(http.StatusOK)
		if err := write(c.Writer, txs); err != nil {
			d.Log.Error("export interrupted", zap.String("file", filename), zap.Error(err))
			_ = c.Error(err)
		}
	}
}
