package quote

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Symbol string  `csv:"symbol"`
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// ReadCSV parses end-of-day bars from r. Expected header:
// symbol,date,open,high,low,close,volume with dates as YYYY-MM-DD.
func ReadCSV(r io.Reader) ([]EOD, error) {
	rows := []csvRow{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse quote csv: %w", err)
	}

	bars := make([]EOD, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date on row %d: %w", i+1, err)
		}
		bars = append(bars, EOD{
			Symbol: row.Symbol,
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	return bars, nil
}

// WriteCSV writes bars in the same format ReadCSV expects.
func WriteCSV(w io.Writer, bars []EOD) error {
	rows := make([]csvRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, csvRow{
			Symbol: b.Symbol,
			Date:   b.Date.Format(time.DateOnly),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write quote csv: %w", err)
	}
	return nil
}

// LoadCSVFile reads a quote history file into an in-memory Store.
func LoadCSVFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quote file: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	return NewStore(bars), nil
}
