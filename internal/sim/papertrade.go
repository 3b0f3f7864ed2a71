package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/domain"
	"papertrade/internal/logger"
	"papertrade/internal/quote"
	"papertrade/internal/rule"
)

type AllocationMode int

const (
	// AllocationMode_FixedValue budgets a fixed money value per position.
	AllocationMode_FixedValue AllocationMode = iota
	// AllocationMode_TargetPositions derives the budget from the live
	// portfolio value divided by a target position count, recomputed
	// every simulated day.
	AllocationMode_TargetPositions
)

type AllocationPolicy struct {
	Mode            AllocationMode
	StockValue      decimal.Decimal
	TargetPositions int
}

// EquitySample is the portfolio's total value at the end of one
// simulated day.
type EquitySample struct {
	Date  time.Time
	Value decimal.Decimal
}

type PaperTradeInput struct {
	Source         quote.Source
	Cache          *OrderCache
	StartOffset    int
	EndOffset      int
	InitialCapital decimal.Decimal
	TradeCost      decimal.Decimal
	BuyRule        *rule.Rule
	SellRule       *rule.Rule
	Allocation     AllocationPolicy
}

type PaperTradeResult struct {
	Portfolio   *domain.Portfolio
	EquityCurve []EquitySample
}

type PaperTradeHandler struct {
	Log *zap.SugaredLogger
}

// PaperTrade replays the day range [StartOffset, EndOffset), evaluating
// the sell rule against held positions and the buy rule against the
// day's ordered symbol list. Decisions on day d use only data through
// day d; executions settle at day d+1's opening price, modeling
// next-morning order placement.
func (h PaperTradeHandler) PaperTrade(ctx context.Context, in PaperTradeInput) (*PaperTradeResult, error) {
	if in.BuyRule == nil || in.SellRule == nil {
		return nil, fmt.Errorf("paper trade requires both a buy and a sell rule")
	}
	if in.Allocation.Mode == AllocationMode_TargetPositions && in.Allocation.TargetPositions <= 0 {
		return nil, fmt.Errorf("target position count must be positive, got %d", in.Allocation.TargetPositions)
	}
	if h.Log == nil {
		h.Log = logger.FromContext(ctx)
	}

	env, err := NewEnvironment(in.Source, in.StartOffset, in.EndOffset, in.InitialCapital, in.TradeCost)
	if err != nil {
		return nil, err
	}

	equityCurve := []EquitySample{}
	for d := env.StartOffset; d < env.EndOffset; d++ {
		// the host may abort a long run between days; transactions
		// already appended stay valid
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sold, err := h.sellPhase(env, in, d)
		if err != nil {
			return nil, fmt.Errorf("sell phase failed on day %d: %w", d, err)
		}
		if err := h.buyPhase(env, in, d, sold); err != nil {
			return nil, fmt.Errorf("buy phase failed on day %d: %w", d, err)
		}

		date, err := env.Source.OffsetToDate(d)
		if err != nil {
			return nil, err
		}
		value, err := env.Portfolio.Value(env.Source, d)
		if err != nil {
			return nil, fmt.Errorf("failed to value portfolio on day %d: %w", d, err)
		}
		equityCurve = append(equityCurve, EquitySample{Date: date, Value: value})
	}

	return &PaperTradeResult{
		Portfolio:   env.Portfolio,
		EquityCurve: equityCurve,
	}, nil
}

// sellPhase returns the symbols sold today: buy and sell are mutually
// exclusive actions on one symbol within one day, since both settle at
// the same next-morning open.
func (h PaperTradeHandler) sellPhase(env *Environment, in PaperTradeInput, d int) (map[string]bool, error) {
	sold := map[string]bool{}
	for _, symbol := range env.Portfolio.ShareAccount().Symbols() {
		holding, ok := env.Portfolio.ShareAccount().Holding(symbol)
		if !ok {
			continue
		}

		held, err := env.HeldDays(holding, d)
		if err != nil {
			return nil, err
		}
		vars := rule.Variables{"held": held}
		if in.Cache.Ordered() {
			rank, ok, err := in.Cache.Rank(d, symbol)
			if err != nil {
				return nil, err
			}
			if !ok {
				// not quoted today
				continue
			}
			vars["order"] = rank
		}

		sell, err := in.SellRule.EvaluateBool(vars, env.Source, symbol, d)
		if err != nil {
			h.skip(symbol, d, "sell rule", err)
			continue
		}
		if !sell {
			continue
		}

		price, err := env.Source.Quote(symbol, quote.FieldOpen, d+1)
		if err != nil {
			h.skip(symbol, d, "sell execution", err)
			continue
		}
		if env.TradeCost.GreaterThan(env.Portfolio.CashAccount().Balance()) {
			continue
		}

		execDate, err := env.Source.OffsetToDate(d + 1)
		if err != nil {
			return nil, err
		}
		amount := decimal.NewFromInt(holding.Shares).Mul(decimal.NewFromFloat(price))
		t := domain.NewReduce(execDate, symbol, holding.Shares, amount, env.TradeCost)
		if err := env.Portfolio.AddTransaction(t); err != nil {
			return nil, err
		}
		sold[symbol] = true
	}
	return sold, nil
}

func (h PaperTradeHandler) buyPhase(env *Environment, in PaperTradeInput, d int, sold map[string]bool) error {
	stockValue, err := h.positionBudget(env, in.Allocation, d)
	if err != nil {
		return err
	}
	twoCosts := env.TradeCost.Add(env.TradeCost)

	symbols, err := in.Cache.SymbolsForDay(d)
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		// greedy allocation: stop as soon as remaining cash cannot
		// support another full position
		if stockValue.Add(twoCosts).GreaterThan(env.Portfolio.CashAccount().Balance()) {
			break
		}
		if _, held := env.Portfolio.ShareAccount().Holding(symbol); held {
			continue
		}
		if sold[symbol] {
			continue
		}

		vars := rule.Variables{"held": 0}
		if in.Cache.Ordered() {
			vars["order"] = i
		}
		buy, err := in.BuyRule.EvaluateBool(vars, env.Source, symbol, d)
		if err != nil {
			h.skip(symbol, d, "buy rule", err)
			continue
		}
		if !buy {
			continue
		}

		price, err := env.Source.Quote(symbol, quote.FieldOpen, d+1)
		if err != nil {
			h.skip(symbol, d, "buy execution", err)
			continue
		}

		shares := MaxShares(stockValue, env.TradeCost, price)
		if shares <= 0 {
			continue
		}
		amount := decimal.NewFromInt(shares).Mul(decimal.NewFromFloat(price))
		if amount.Add(env.TradeCost).GreaterThan(env.Portfolio.CashAccount().Balance()) {
			continue
		}

		execDate, err := env.Source.OffsetToDate(d + 1)
		if err != nil {
			return err
		}
		t := domain.NewAccumulate(execDate, symbol, shares, amount, env.TradeCost)
		if err := env.Portfolio.AddTransaction(t); err != nil {
			return err
		}
	}
	return nil
}

// positionBudget resolves the allocation policy into the money budget
// for one position on the given day.
func (h PaperTradeHandler) positionBudget(env *Environment, policy AllocationPolicy, d int) (decimal.Decimal, error) {
	switch policy.Mode {
	case AllocationMode_FixedValue:
		return policy.StockValue, nil
	case AllocationMode_TargetPositions:
		value, err := env.Portfolio.Value(env.Source, d)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to value portfolio for allocation: %w", err)
		}
		twoCosts := env.TradeCost.Add(env.TradeCost)
		return value.Div(decimal.NewFromInt(int64(policy.TargetPositions))).Sub(twoCosts), nil
	}
	return decimal.Zero, fmt.Errorf("unknown allocation mode %d", policy.Mode)
}

// MaxShares is the largest whole-share quantity affordable with the
// position budget at the given price, trade cost included.
func MaxShares(stockValue, tradeCost decimal.Decimal, price float64) int64 {
	if price <= 0 {
		return 0
	}
	budget := stockValue.Sub(tradeCost)
	if budget.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return budget.Div(decimal.NewFromFloat(price)).IntPart()
}

func (h PaperTradeHandler) skip(symbol string, d int, step string, err error) {
	if h.Log == nil {
		return
	}
	if errors.Is(err, quote.ErrMissingQuote) || errors.Is(err, rule.ErrEvaluation) {
		h.Log.Debugw("skipping symbol", "symbol", symbol, "day", d, "step", step, "err", err)
		return
	}
	h.Log.Warnw("unexpected error, skipping symbol", "symbol", symbol, "day", d, "step", step, "err", err)
}
