package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionType_Deposit    TransactionType = "DEPOSIT"
	TransactionType_Accumulate TransactionType = "ACCUMULATE"
	TransactionType_Reduce     TransactionType = "REDUCE"
)

// Transaction is one immutable entry of a portfolio's ledger. Amount is
// the traded money value excluding TradeCost; for a deposit it is the
// deposited sum and TradeCost is zero.
type Transaction struct {
	ID        uuid.UUID
	Type      TransactionType
	Date      time.Time
	Symbol    string
	Shares    int64
	Amount    decimal.Decimal
	TradeCost decimal.Decimal
}

func NewDeposit(date time.Time, amount decimal.Decimal) Transaction {
	return Transaction{
		ID:        uuid.New(),
		Type:      TransactionType_Deposit,
		Date:      date,
		Amount:    amount,
		TradeCost: decimal.Zero,
	}
}

func NewAccumulate(date time.Time, symbol string, shares int64, amount, tradeCost decimal.Decimal) Transaction {
	return Transaction{
		ID:        uuid.New(),
		Type:      TransactionType_Accumulate,
		Date:      date,
		Symbol:    symbol,
		Shares:    shares,
		Amount:    amount,
		TradeCost: tradeCost,
	}
}

func NewReduce(date time.Time, symbol string, shares int64, amount, tradeCost decimal.Decimal) Transaction {
	return Transaction{
		ID:        uuid.New(),
		Type:      TransactionType_Reduce,
		Date:      date,
		Symbol:    symbol,
		Shares:    shares,
		Amount:    amount,
		TradeCost: tradeCost,
	}
}
