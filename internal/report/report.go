// Package report renders the transaction history for external consumers.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"chatshop/internal/domain"
)

// Header is the fixed column order of every export.
var Header = []string{
	"UserID", "TransactionValue", "TransactionNotes", "Provider", "ChargeID",
	"SpecifiedName", "SpecifiedPhone", "SpecifiedEmail", "Refunded",
}

// Row flattens t in Header order; absent fields become empty strings.
func Row(t domain.Transaction) []string {
	refunded := "False"
	if t.Refunded {
		refunded = "True"
	}
	return []string{
		strconv.FormatInt(t.UserID, 10),
		strconv.FormatInt(t.Value.Int64(), 10),
		t.Notes,
		t.Provider,
		t.ProviderChargeID,
		t.PaymentName,
		t.PaymentPhone,
		t.PaymentEmail,
		refunded,
	}
}

// WriteCSV writes a semicolon separated report. Callers pass transactions oldest first.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range txs {
		if err := cw.Write(Row(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Transactions"

// WriteXLSX writes the same report as a spreadsheet, with numeric cells for ids and values.
func WriteXLSX(w io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("report: new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, t := range txs {
		cells := Row(t)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		row[0] = t.UserID
		row[1] = t.Value.Int64()
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetName, "A", "B", 16)
	_ = f.SetColWidth(sheetName, "C", "C", 30)
	_ = f.SetColWidth(sheetName, "D", "I", 18)

	_, err = f.WriteTo(w)
	return err
}
