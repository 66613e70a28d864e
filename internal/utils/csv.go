package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"equitySpikeBot/internal/domain"
)

// WriteBarsToCSV exports a bar series in its stored order (newest first).
func WriteBarsToCSV(series domain.BarSeries, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"time", "symbol", "open", "high", "low", "close", "volume"})

	for _, b := range series.Bars {
		writer.Write([]string{
			b.Time.Format(time.RFC3339),
			series.Symbol,
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		})
	}
	return writer.Error()
}
