package analytics

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"Date", "Type", "Category", "Description", "Amount"}

// ExportRows renders one row per transaction, newest first, without the header.
func ExportRows(txns []domain.Transaction, categories []domain.Category) [][]string {
	idx := categoryIndex(categories)
	sorted := newestFirst(txns)

	rows := make([][]string, 0, len(sorted))
	for _, t := range sorted {
		rows = append(rows, []string{
			t.Date.String(),
			string(t.Type),
			categoryName(idx, t.CategoryID),
			t.Description,
			t.Amount.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes the header and ExportRows to w. Fields containing commas,
// quotes or newlines are quoted.
func WriteCSV(w io.Writer, txns []domain.Transaction, categories []domain.Category) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(ExportRows(txns, categories)); err != nil {
		return err
	}
	return cw.Error()
}

// newestFirst returns a copy of txns sorted by date, then id, descending.
func newestFirst(txns []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
