package quote

import (
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// IngestHistory downloads daily bars for one symbol from Yahoo Finance.
func IngestHistory(symbol string, start, end time.Time) ([]EOD, error) {
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	bars := []EOD{}
	for iter.Next() {
		bar := iter.Bar()
		bars = append(bars, EOD{
			Symbol: symbol,
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}

	return bars, nil
}

// IngestHistories downloads daily bars for a set of symbols. A symbol
// that fails to download does not abort the batch; the first error is
// reported after all symbols have been attempted.
func IngestHistories(symbols []string, start, end time.Time) ([]EOD, error) {
	bars := []EOD{}
	errs := []error{}
	for _, symbol := range symbols {
		history, err := IngestHistory(symbol, start, end)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		bars = append(bars, history...)
	}

	if len(errs) > 0 {
		return bars, fmt.Errorf("failed to ingest %d/%d symbols. first err: %w", len(errs), len(symbols), errs[0])
	}

	return bars, nil
}
