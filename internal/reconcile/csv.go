package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ReceiptResolver maps a stored receipt path to a retrievable link.
// Returning "" leaves the receipt column empty.
type ReceiptResolver func(path string) string

// CSVExporter is the column-oriented sink the report job drains the
// reconciliation stream into. Phone and amount are written as plain text so
// spreadsheet tools do not reformat them; in simple (evidence-centric) mode a
// receipt hyperlink formula column is appended.
type CSVExporter struct {
	w       *csv.Writer
	mode    Mode
	resolve ReceiptResolver
}

func NewCSVExporter(w io.Writer, mode Mode, resolve ReceiptResolver) *CSVExporter {
	return &CSVExporter{
		w:       csv.NewWriter(w),
		mode:    mode,
		resolve: resolve,
	}
}

func (e *CSVExporter) WriteHeader() error {
	header := []string{"Nome", "Sobrenome", "Telefone", "Periodo", "Parcela", "Status", "Pago em", "Valor esperado"}
	if e.mode == ModeSimple {
		header = append(header, "Comprovante")
	}
	return e.w.Write(header)
}

func (e *CSVExporter) WriteRow(row Row) error {
	paidAt := ""
	if row.PaidAt != nil {
		paidAt = row.PaidAt.UTC().Format(time.RFC3339)
	}

	record := []string{
		row.FirstName,
		row.LastName,
		row.Phone,
		row.PeriodLabel,
		fmt.Sprintf("%d", row.Sequence),
		LocalizeStatus(row.Status),
		paidAt,
		row.Amount.StringFixed(2),
	}

	if e.mode == ModeSimple {
		record = append(record, e.receiptCell(row.ReceiptPath))
	}

	return e.w.Write(record)
}

// Flush writes any buffered rows and reports the first write error.
func (e *CSVExporter) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

func (e *CSVExporter) receiptCell(path string) string {
	if path == "" || e.resolve == nil {
		return ""
	}
	url := e.resolve(path)
	if url == "" {
		return ""
	}
	return fmt.Sprintf(`=HYPERLINK("%s","Comprovante")`, url)
}
