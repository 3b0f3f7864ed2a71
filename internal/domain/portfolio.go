package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/quote"
)

// CashAccount holds a scalar money balance. It is only mutated through
// Portfolio.AddTransaction.
type CashAccount struct {
	balance decimal.Decimal
}

func (a *CashAccount) Balance() decimal.Decimal {
	return a.balance
}

// StockHolding records one open position. Cost is the total money paid
// to open it, trade cost included.
type StockHolding struct {
	Symbol       string
	Shares       int64
	DateAcquired time.Time
	Cost         decimal.Decimal
}

// ShareAccount maps symbols to open positions. A symbol never maps to
// a holding with zero or negative shares.
type ShareAccount struct {
	holdings map[string]*StockHolding
}

func (a *ShareAccount) Holding(symbol string) (*StockHolding, bool) {
	h, ok := a.holdings[symbol]
	return h, ok
}

func (a *ShareAccount) Symbols() []string {
	symbols := make([]string, 0, len(a.holdings))
	for symbol := range a.holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (a *ShareAccount) Size() int {
	return len(a.holdings)
}

// Portfolio is an append-only transaction ledger plus the two accounts
// the ledger drives. The ledger is the sole source of truth; accounts
// are a running materialization of it.
type Portfolio struct {
	Name string

	transactions []Transaction
	cash         *CashAccount
	shares       *ShareAccount
}

func NewPortfolio(name string) *Portfolio {
	return &Portfolio{
		Name: name,
		cash: &CashAccount{balance: decimal.Zero},
		shares: &ShareAccount{
			holdings: map[string]*StockHolding{},
		},
	}
}

func (p *Portfolio) CashAccount() *CashAccount {
	return p.cash
}

func (p *Portfolio) ShareAccount() *ShareAccount {
	return p.shares
}

// Transactions returns the ledger in append order. The returned slice
// must not be mutated.
func (p *Portfolio) Transactions() []Transaction {
	return p.transactions
}

// AddTransaction applies t to the accounts and appends it to the
// ledger. Callers are expected to have checked affordability before
// creating the transaction; a violation here is an internal
// consistency error, and the ledger is left untouched.
func (p *Portfolio) AddTransaction(t Transaction) error {
	switch t.Type {
	case TransactionType_Deposit:
		p.cash.balance = p.cash.balance.Add(t.Amount)

	case TransactionType_Accumulate:
		total := t.Amount.Add(t.TradeCost)
		if total.GreaterThan(p.cash.balance) {
			return fmt.Errorf("accumulate %s costs %s but only %s cash available", t.Symbol, total, p.cash.balance)
		}
		if t.Shares <= 0 {
			return fmt.Errorf("accumulate %s with %d shares", t.Symbol, t.Shares)
		}
		p.cash.balance = p.cash.balance.Sub(total)
		if holding, ok := p.shares.holdings[t.Symbol]; ok {
			holding.Shares += t.Shares
			holding.Cost = holding.Cost.Add(total)
		} else {
			p.shares.holdings[t.Symbol] = &StockHolding{
				Symbol:       t.Symbol,
				Shares:       t.Shares,
				DateAcquired: t.Date,
				Cost:         total,
			}
		}

	case TransactionType_Reduce:
		holding, ok := p.shares.holdings[t.Symbol]
		if !ok {
			return fmt.Errorf("reduce %s but no holding exists", t.Symbol)
		}
		if t.Shares <= 0 || t.Shares > holding.Shares {
			return fmt.Errorf("reduce %s by %d shares but holding %d", t.Symbol, t.Shares, holding.Shares)
		}
		if t.TradeCost.GreaterThan(p.cash.balance.Add(t.Amount)) {
			return fmt.Errorf("reduce %s cannot cover trade cost %s", t.Symbol, t.TradeCost)
		}
		p.cash.balance = p.cash.balance.Add(t.Amount).Sub(t.TradeCost)
		if t.Shares == holding.Shares {
			delete(p.shares.holdings, t.Symbol)
		} else {
			soldFraction := decimal.NewFromInt(t.Shares).Div(decimal.NewFromInt(holding.Shares))
			holding.Cost = holding.Cost.Sub(holding.Cost.Mul(soldFraction))
			holding.Shares -= t.Shares
		}

	default:
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}

	p.transactions = append(p.transactions, t)
	return nil
}

// Value computes the portfolio's total money value as of the given day
// offset: cash plus each holding priced at its most recent close at or
// before the offset. A held symbol always has at least one close at or
// before its acquisition, so the walk back terminates in normal
// operation.
func (p *Portfolio) Value(src quote.Source, offset int) (decimal.Decimal, error) {
	total := p.cash.balance
	for _, symbol := range p.shares.Symbols() {
		holding := p.shares.holdings[symbol]
		price, err := lastCloseAt(src, symbol, offset)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to value holding %s: %w", symbol, err)
		}
		total = total.Add(decimal.NewFromInt(holding.Shares).Mul(decimal.NewFromFloat(price)))
	}
	return total, nil
}

func lastCloseAt(src quote.Source, symbol string, offset int) (float64, error) {
	for d := offset; d >= 0; d-- {
		price, err := src.Quote(symbol, quote.FieldClose, d)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, quote.ErrMissingQuote) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: no close for %s at or before day %d", quote.ErrMissingQuote, symbol, offset)
}
