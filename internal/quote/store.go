package quote

import (
	"fmt"
	"sort"
	"time"
)

// Store is an in-memory Source built from a batch of end-of-day bars.
// It indexes bars by (day offset, symbol) up front so every lookup
// during a simulation run is a map access.
type Store struct {
	dates   []time.Time
	offsets map[string]int
	bars    []map[string]EOD
}

const dateLayout = time.DateOnly

// NewStore builds a Store from bars. The trading-day sequence is the
// sorted set of distinct dates present in the input; a symbol missing
// on one of those dates simply has no bar there.
func NewStore(bars []EOD) *Store {
	dateSet := map[string]time.Time{}
	for _, b := range bars {
		d := b.Date.UTC().Truncate(24 * time.Hour)
		dateSet[d.Format(dateLayout)] = d
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	s := &Store{
		dates:   dates,
		offsets: map[string]int{},
		bars:    make([]map[string]EOD, len(dates)),
	}
	for i, d := range dates {
		s.offsets[d.Format(dateLayout)] = i
		s.bars[i] = map[string]EOD{}
	}
	for _, b := range bars {
		d := b.Date.UTC().Truncate(24 * time.Hour)
		offset := s.offsets[d.Format(dateLayout)]
		b.Date = d
		s.bars[offset][b.Symbol] = b
	}

	return s
}

func (s *Store) Quote(symbol string, field Field, offset int) (float64, error) {
	if offset < 0 || offset >= len(s.bars) {
		return 0, fmt.Errorf("%w: %s %s on day %d", ErrMissingQuote, symbol, field, offset)
	}
	bar, ok := s.bars[offset][symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s %s on day %d", ErrMissingQuote, symbol, field, offset)
	}
	return bar.Value(field), nil
}

func (s *Store) SymbolsForDay(offset int) ([]string, error) {
	if offset < 0 || offset >= len(s.bars) {
		return nil, fmt.Errorf("day offset %d out of range [0, %d)", offset, len(s.bars))
	}
	symbols := make([]string, 0, len(s.bars[offset]))
	for symbol := range s.bars[offset] {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *Store) OffsetToDate(offset int) (time.Time, error) {
	if offset < 0 || offset >= len(s.dates) {
		return time.Time{}, fmt.Errorf("day offset %d out of range [0, %d)", offset, len(s.dates))
	}
	return s.dates[offset], nil
}

func (s *Store) DateToOffset(date time.Time) (int, error) {
	offset, ok := s.offsets[date.UTC().Truncate(24*time.Hour).Format(dateLayout)]
	if !ok {
		return 0, fmt.Errorf("date %s is not a trading day in this store", date.Format(dateLayout))
	}
	return offset, nil
}

func (s *Store) Days() int {
	return len(s.dates)
}
