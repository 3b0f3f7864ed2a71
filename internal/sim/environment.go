package sim

import (
	"fmt"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
	"papertrade/internal/quote"
)

// Environment is the mutable state of one simulation run: the data
// source, the simulated portfolio, and the day-offset bounds. It is
// owned exclusively by the simulator invocation that created it.
type Environment struct {
	Source      quote.Source
	Portfolio   *domain.Portfolio
	StartOffset int
	EndOffset   int
	TradeCost   decimal.Decimal
}

// NewEnvironment builds a run environment and deposits the initial
// capital dated at the run's first simulated day. Trades decided on
// the run's last day execute one day after EndOffset-1, so the source
// must cover day EndOffset as well.
func NewEnvironment(
	source quote.Source,
	startOffset, endOffset int,
	initialCapital, tradeCost decimal.Decimal,
) (*Environment, error) {
	if startOffset < 0 || endOffset <= startOffset {
		return nil, fmt.Errorf("invalid day range [%d, %d)", startOffset, endOffset)
	}
	if endOffset >= source.Days() {
		return nil, fmt.Errorf("day range [%d, %d) needs quotes through day %d but source covers %d days",
			startOffset, endOffset, endOffset, source.Days())
	}
	if initialCapital.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("initial capital must be positive, got %s", initialCapital)
	}
	if tradeCost.IsNegative() {
		return nil, fmt.Errorf("trade cost cannot be negative, got %s", tradeCost)
	}

	startDate, err := source.OffsetToDate(startOffset)
	if err != nil {
		return nil, err
	}

	portfolio := domain.NewPortfolio("paper trade")
	if err := portfolio.AddTransaction(domain.NewDeposit(startDate, initialCapital)); err != nil {
		return nil, fmt.Errorf("failed to deposit initial capital: %w", err)
	}

	return &Environment{
		Source:      source,
		Portfolio:   portfolio,
		StartOffset: startOffset,
		EndOffset:   endOffset,
		TradeCost:   tradeCost,
	}, nil
}

// HeldDays is the number of simulated days a holding has been owned as
// of the given offset, inclusive of the acquisition day.
func (e *Environment) HeldDays(holding *domain.StockHolding, offset int) (int, error) {
	acquired, err := e.Source.DateToOffset(holding.DateAcquired)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve acquisition date of %s: %w", holding.Symbol, err)
	}
	return offset - acquired + 1, nil
}
