package services

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type fillCSVRow struct {
	OrderID  string    `csv:"order_id"`
	Symbol   string    `csv:"symbol"`
	Action   string    `csv:"action"`
	Quantity int64     `csv:"quantity"`
	Price    float64   `csv:"price"`
	Time     time.Time `csv:"time"`
}

// ExportFillsCSV writes the ledger in the same column order as the persisted
// fill documents.
func ExportFillsCSV(path string, fills []models.FillRecord) error {
	rows := make([]*fillCSVRow, 0, len(fills))
	for _, fill := range fills {
		rows = append(rows, &fillCSVRow{
			OrderID:  fill.OrderID,
			Symbol:   fill.Symbol,
			Action:   string(fill.Action()),
			Quantity: fill.AbsQuantity(),
			Price:    fill.Price,
			Time:     fill.Timestamp,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ExportFillsCSV: failed to create file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("ExportFillsCSV: failed to marshal csv: %w", err)
	}

	return nil
}
