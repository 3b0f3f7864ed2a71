package sim

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"papertrade/internal/quote"
	"papertrade/internal/rule"
)

// OrderKey selects how a day's tradable symbols are ranked before the
// buy phase scans them.
type OrderKey int

const (
	OrderKey_None OrderKey = iota
	OrderKey_Symbol
	OrderKey_OpenAsc
	OrderKey_OpenDesc
	OrderKey_HighAsc
	OrderKey_HighDesc
	OrderKey_LowAsc
	OrderKey_LowDesc
	OrderKey_CloseAsc
	OrderKey_CloseDesc
	OrderKey_VolumeAsc
	OrderKey_VolumeDesc
	OrderKey_ChangeAsc
	OrderKey_ChangeDesc
	OrderKey_Rule
)

var orderKeyNames = map[string]OrderKey{
	"none":        OrderKey_None,
	"symbol":      OrderKey_Symbol,
	"open":        OrderKey_OpenAsc,
	"open_desc":   OrderKey_OpenDesc,
	"high":        OrderKey_HighAsc,
	"high_desc":   OrderKey_HighDesc,
	"low":         OrderKey_LowAsc,
	"low_desc":    OrderKey_LowDesc,
	"close":       OrderKey_CloseAsc,
	"close_desc":  OrderKey_CloseDesc,
	"volume":      OrderKey_VolumeAsc,
	"volume_desc": OrderKey_VolumeDesc,
	"change":      OrderKey_ChangeAsc,
	"change_desc": OrderKey_ChangeDesc,
}

func ParseOrderKey(s string) (OrderKey, error) {
	key, ok := orderKeyNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return OrderKey_None, fmt.Errorf("unknown order key %q", s)
	}
	return key, nil
}

// OrderComparator is a three-way ordering over symbols as of one day
// offset. The offset is mutable sort-pass context: set it before every
// sort, never mid-sort.
type OrderComparator struct {
	source quote.Source
	key    OrderKey
	rule   *rule.Rule
	log    *zap.SugaredLogger

	offset int
}

func NewOrderComparator(source quote.Source, key OrderKey) *OrderComparator {
	if key == OrderKey_Rule {
		panic("rule order key requires NewRuleOrderComparator")
	}
	return &OrderComparator{source: source, key: key}
}

// NewRuleOrderComparator orders symbols by descending value of r.
func NewRuleOrderComparator(source quote.Source, r *rule.Rule, log *zap.SugaredLogger) *OrderComparator {
	return &OrderComparator{source: source, key: OrderKey_Rule, rule: r, log: log}
}

// Ordered reports whether the key imposes a real ordering. The
// simulator only exposes the "order" variable to rules when it does.
func (c *OrderComparator) Ordered() bool {
	return c.key != OrderKey_None
}

func (c *OrderComparator) SetOffset(offset int) {
	c.offset = offset
}

// Compare returns a negative, zero or positive result as a orders
// before, equal to or after b under the comparator's key.
func (c *OrderComparator) Compare(a, b string) int {
	switch c.key {
	case OrderKey_None, OrderKey_Symbol:
		return strings.Compare(a, b)
	case OrderKey_OpenAsc:
		return c.compareField(a, b, quote.FieldOpen, false)
	case OrderKey_OpenDesc:
		return c.compareField(a, b, quote.FieldOpen, true)
	case OrderKey_HighAsc:
		return c.compareField(a, b, quote.FieldHigh, false)
	case OrderKey_HighDesc:
		return c.compareField(a, b, quote.FieldHigh, true)
	case OrderKey_LowAsc:
		return c.compareField(a, b, quote.FieldLow, false)
	case OrderKey_LowDesc:
		return c.compareField(a, b, quote.FieldLow, true)
	case OrderKey_CloseAsc:
		return c.compareField(a, b, quote.FieldClose, false)
	case OrderKey_CloseDesc:
		return c.compareField(a, b, quote.FieldClose, true)
	case OrderKey_VolumeAsc:
		return c.compareField(a, b, quote.FieldVolume, false)
	case OrderKey_VolumeDesc:
		return c.compareField(a, b, quote.FieldVolume, true)
	case OrderKey_ChangeAsc:
		return compareFloat(c.change(a), c.change(b), false)
	case OrderKey_ChangeDesc:
		return compareFloat(c.change(a), c.change(b), true)
	case OrderKey_Rule:
		return c.compareByRule(a, b)
	}
	panic(fmt.Sprintf("unknown order key %d", c.key))
}

// compareField assumes the caller restricted the sort to symbols
// quoted on the as-of day; a missing quote here is an internal
// consistency error, not a recoverable condition.
func (c *OrderComparator) compareField(a, b string, field quote.Field, desc bool) int {
	va, err := c.source.Quote(a, field, c.offset)
	if err != nil {
		panic(fmt.Sprintf("order comparator: %s for %s on day %d: %v", field, a, c.offset, err))
	}
	vb, err := c.source.Quote(b, field, c.offset)
	if err != nil {
		panic(fmt.Sprintf("order comparator: %s for %s on day %d: %v", field, b, c.offset, err))
	}
	return compareFloat(va, vb, desc)
}

// change is the day's close/open ratio.
func (c *OrderComparator) change(symbol string) float64 {
	open, err := c.source.Quote(symbol, quote.FieldOpen, c.offset)
	if err != nil {
		panic(fmt.Sprintf("order comparator: open for %s on day %d: %v", symbol, c.offset, err))
	}
	close, err := c.source.Quote(symbol, quote.FieldClose, c.offset)
	if err != nil {
		panic(fmt.Sprintf("order comparator: close for %s on day %d: %v", symbol, c.offset, err))
	}
	if open == 0 {
		return 0
	}
	return close / open
}

// compareByRule orders by descending rule value. A rule that fails on
// either symbol makes the pair compare equal: one bad symbol must
// never abort the whole day's sort.
func (c *OrderComparator) compareByRule(a, b string) int {
	va, err := c.rule.Evaluate(rule.Variables{}, c.source, a, c.offset)
	if err != nil {
		if errors.Is(err, rule.ErrEvaluation) && c.log != nil {
			c.log.Warnw("order rule failed, treating symbols as equal", "symbol", a, "day", c.offset, "err", err)
		}
		return 0
	}
	vb, err := c.rule.Evaluate(rule.Variables{}, c.source, b, c.offset)
	if err != nil {
		if errors.Is(err, rule.ErrEvaluation) && c.log != nil {
			c.log.Warnw("order rule failed, treating symbols as equal", "symbol", b, "day", c.offset, "err", err)
		}
		return 0
	}
	return compareFloat(va, vb, true)
}

func compareFloat(a, b float64, desc bool) int {
	result := 0
	if a < b {
		result = -1
	} else if a > b {
		result = 1
	}
	if desc {
		result = -result
	}
	return result
}
