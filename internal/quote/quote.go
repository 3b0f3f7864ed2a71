package quote

import (
	"errors"
	"fmt"
	"time"
)

// Field identifies one value of an end-of-day bar.
type Field int

const (
	FieldOpen Field = iota
	FieldHigh
	FieldLow
	FieldClose
	FieldVolume
)

func (f Field) String() string {
	switch f {
	case FieldOpen:
		return "open"
	case FieldHigh:
		return "high"
	case FieldLow:
		return "low"
	case FieldClose:
		return "close"
	case FieldVolume:
		return "volume"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ErrMissingQuote indicates a symbol has no bar on the requested day.
// Callers are expected to treat this as "skip the symbol", not as a
// failure of the run.
var ErrMissingQuote = errors.New("missing quote")

// EOD is one end-of-day bar for one symbol.
type EOD struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

func (q EOD) Value(f Field) float64 {
	switch f {
	case FieldOpen:
		return q.Open
	case FieldHigh:
		return q.High
	case FieldLow:
		return q.Low
	case FieldClose:
		return q.Close
	case FieldVolume:
		return float64(q.Volume)
	}
	return 0
}

// Source supplies OHLCV values addressed by symbol and day offset.
// Day offsets index the source's trading-day sequence; offset 0 is the
// earliest day the source covers. The source is immutable for the
// duration of a simulation run.
type Source interface {
	// Quote returns one field of the bar for symbol on the given day
	// offset, or an error wrapping ErrMissingQuote.
	Quote(symbol string, field Field, offset int) (float64, error)
	// SymbolsForDay lists every symbol quoted on the given day offset.
	SymbolsForDay(offset int) ([]string, error)
	OffsetToDate(offset int) (time.Time, error)
	DateToOffset(date time.Time) (int, error)
	// Days reports the number of trading days the source covers.
	Days() int
}
