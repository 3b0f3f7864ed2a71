package sim

import (
	"fmt"
	"sort"

	"papertrade/internal/quote"
)

// OrderCache memoizes the ordered symbol list per day offset. Ordering
// can evaluate a rule per symbol, and each day is visited at most once
// per simulation pass, so the first lookup for a day computes and every
// later lookup reuses. The cache is scoped to a single run and is never
// invalidated: the underlying source is immutable for the run.
type OrderCache struct {
	source     quote.Source
	comparator *OrderComparator

	days  map[int][]string
	ranks map[int]map[string]int
}

func NewOrderCache(source quote.Source, comparator *OrderComparator) *OrderCache {
	return &OrderCache{
		source:     source,
		comparator: comparator,
		days:       map[int][]string{},
		ranks:      map[int]map[string]int{},
	}
}

func (c *OrderCache) Ordered() bool {
	return c.comparator.Ordered()
}

// SymbolsForDay returns the day's tradable symbols in comparator
// order. The sort runs at most once per distinct offset.
func (c *OrderCache) SymbolsForDay(offset int) ([]string, error) {
	if symbols, ok := c.days[offset]; ok {
		return symbols, nil
	}

	symbols, err := c.source.SymbolsForDay(offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols for day %d: %w", offset, err)
	}

	c.comparator.SetOffset(offset)
	sort.SliceStable(symbols, func(i, j int) bool {
		return c.comparator.Compare(symbols[i], symbols[j]) < 0
	})

	ranks := make(map[string]int, len(symbols))
	for i, symbol := range symbols {
		ranks[symbol] = i
	}
	c.days[offset] = symbols
	c.ranks[offset] = ranks

	return symbols, nil
}

// Rank returns a symbol's 0-based position in the day's ordering, or
// false if the symbol has no quote that day.
func (c *OrderCache) Rank(offset int, symbol string) (int, bool, error) {
	if _, ok := c.ranks[offset]; !ok {
		if _, err := c.SymbolsForDay(offset); err != nil {
			return 0, false, err
		}
	}
	rank, ok := c.ranks[offset][symbol]
	return rank, ok, nil
}
