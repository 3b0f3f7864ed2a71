package ann

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/logger"
	"papertrade/internal/quote"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

// CrossTargetParams configures label generation and the batch training
// pass fed with the generated rows.
type CrossTargetParams struct {
	// EarningPercentage is the target daily return for the whole
	// portfolio, in percent. Each row's target is this divided by the
	// number of positions the capital could hold.
	EarningPercentage float64

	LearnRate float64
	Momentum  float64
	Cycles    int
	// SkipRows rows at the start of each cycle are fed forward without
	// weight updates.
	SkipRows int
}

type TrainInput struct {
	Source         quote.Source
	Cache          *sim.OrderCache
	StartOffset    int
	EndOffset      int
	InitialCapital decimal.Decimal
	TradeCost      decimal.Decimal
	StockValue     decimal.Decimal

	InputRules    []*rule.Rule
	BuyPriceRule  *rule.Rule
	SellPriceRule *rule.Rule

	Model       BatchTrainer
	CrossTarget CrossTargetParams
}

type TrainResult struct {
	// Rows is the number of (day, symbol) training rows generated.
	Rows int
}

type TrainHandler struct {
	Log *zap.SugaredLogger
}

// action is the winning branch of one cross-target comparison.
type action int

const (
	action_DoNothing action = iota
	action_BuyOnly
	action_SellOnly
)

// heldPosition tracks the hypothetical held-state of one symbol across
// training rows. It is label-generation context only; no transaction
// is ever appended during training.
type heldPosition struct {
	shares         int64
	acquiredOffset int
	cost           float64
}

// Train generates cross-target labels over the full date range ×
// symbol universe and trains the model in place on the resulting
// matrices. For every (day, symbol) pair the generator compares three
// hypothetical one-day-ahead outcomes of the actual historical prices
// (do nothing, buy only, sell only) and labels the row with whichever
// lands closest to the per-position daily target return.
func (h TrainHandler) Train(ctx context.Context, in TrainInput) (*TrainResult, error) {
	if err := validateTrainInput(in); err != nil {
		return nil, err
	}
	if h.Log == nil {
		h.Log = logger.FromContext(ctx)
	}

	env, err := sim.NewEnvironment(in.Source, in.StartOffset, in.EndOffset, in.InitialCapital, in.TradeCost)
	if err != nil {
		return nil, err
	}

	inputs := [][]float64{}
	desired := [][]float64{}
	held := map[string]*heldPosition{}

	for d := env.StartOffset; d < env.EndOffset; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		capital, err := env.Portfolio.Value(env.Source, d)
		if err != nil {
			return nil, fmt.Errorf("failed to value portfolio on day %d: %w", d, err)
		}
		capitalOld := capital.InexactFloat64()

		symbols, err := in.Cache.SymbolsForDay(d)
		if err != nil {
			return nil, err
		}

		for _, symbol := range symbols {
			features := h.trainingFeatures(env, in, d, symbol, capitalOld, held[symbol])

			choice, position := h.crossTarget(in, d, symbol, capitalOld, held[symbol])
			switch choice {
			case action_BuyOnly:
				desired = append(desired, []float64{1, 0})
				held[symbol] = position
			case action_SellOnly:
				desired = append(desired, []float64{0, 1})
				delete(held, symbol)
			default:
				desired = append(desired, []float64{0, 0})
			}
			inputs = append(inputs, features)
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("cross target generated no training rows")
	}

	if h.Log != nil {
		h.Log.Infow("training model", "rows", len(inputs), "cycles", in.CrossTarget.Cycles)
	}
	in.Model.TrainBatch(
		inputs,
		desired,
		in.CrossTarget.LearnRate,
		in.CrossTarget.Momentum,
		in.CrossTarget.SkipRows,
		in.CrossTarget.Cycles,
		len(inputs),
	)

	return &TrainResult{Rows: len(inputs)}, nil
}

// crossTarget computes the three hypothetical one-day-ahead capital
// outcomes for (day, symbol) and picks the branch whose percentage
// change is closest to the per-position target. A branch that cannot
// be computed (missing quote, unfillable price, failed rule)
// contributes no change rather than aborting the row, so the
// comparison is always well defined. The returned position is the
// symbol's held-state after the winning branch.
func (h TrainHandler) crossTarget(
	in TrainInput,
	d int,
	symbol string,
	capitalOld float64,
	position *heldPosition,
) (action, *heldPosition) {
	openNext, openErr := in.Source.Quote(symbol, quote.FieldOpen, d+1)
	closeNext, closeErr := in.Source.Quote(symbol, quote.FieldClose, d+1)

	doNothing := capitalOld
	if position != nil && openErr == nil && closeErr == nil {
		doNothing += float64(position.shares) * (closeNext - openNext)
	}

	buyOnly := capitalOld
	var bought *heldPosition
	if position == nil && closeErr == nil {
		price, filled, err := executionPrice(in.BuyPriceRule, in.Source, symbol, d+1)
		if err == nil && filled {
			shares := sim.MaxShares(in.StockValue, in.TradeCost, price)
			if shares > 0 {
				tradeCost := in.TradeCost.InexactFloat64()
				buyOnly += float64(shares)*(closeNext-price) - tradeCost
				bought = &heldPosition{
					shares:         shares,
					acquiredOffset: d + 1,
					cost:           float64(shares)*price + tradeCost,
				}
			}
		}
	}

	sellOnly := capitalOld
	if position != nil && openErr == nil {
		price, filled, err := executionPrice(in.SellPriceRule, in.Source, symbol, d+1)
		if err == nil && filled {
			sellOnly += float64(position.shares)*(price-openNext) - in.TradeCost.InexactFloat64()
		}
	}

	maxStocks := math.Floor(capitalOld / in.StockValue.InexactFloat64())
	if maxStocks < 1 {
		maxStocks = 1
	}
	target := in.CrossTarget.EarningPercentage / maxStocks

	choice := action_DoNothing
	best := math.Abs(percentChange(doNothing, capitalOld) - target)
	if diff := math.Abs(percentChange(buyOnly, capitalOld) - target); diff < best {
		choice, best = action_BuyOnly, diff
	}
	if diff := math.Abs(percentChange(sellOnly, capitalOld) - target); diff < best {
		choice = action_SellOnly
	}

	switch choice {
	case action_BuyOnly:
		// buy-only can win while the symbol is already held; the branch
		// is inapplicable then and must not disturb the held-state
		if bought == nil {
			return choice, position
		}
		return choice, bought
	case action_SellOnly:
		return choice, nil
	}
	return choice, position
}

// trainingFeatures builds the row's input vector. A feature that fails
// to evaluate degrades to 0: every (day, symbol) pair must produce a
// row so the input and desired matrices stay parallel.
func (h TrainHandler) trainingFeatures(
	env *sim.Environment,
	in TrainInput,
	d int,
	symbol string,
	capitalOld float64,
	position *heldPosition,
) []float64 {
	vars := rule.Variables{
		"held":          0,
		"daysfromstart": d - env.StartOffset,
		"transactions":  len(env.Portfolio.Transactions()),
		"capital":       capitalOld,
		"stockcapital":  0.0,
	}
	if position != nil {
		vars["held"] = d - position.acquiredOffset + 1
		if close, err := env.Source.Quote(symbol, quote.FieldClose, d); err == nil {
			vars["stockcapital"] = float64(position.shares)*close - position.cost
		}
	}
	if in.Cache.Ordered() {
		if rank, ok, err := in.Cache.Rank(d, symbol); err == nil && ok {
			vars["order"] = rank
		}
	}

	features, _ := evaluateFeatures(in.InputRules, vars, env.Source, symbol, d, true)
	return features
}

func percentChange(capitalNew, capitalOld float64) float64 {
	if capitalOld == 0 {
		return 0
	}
	return (capitalNew - capitalOld) / capitalOld * 100
}

func validateTrainInput(in TrainInput) error {
	if len(in.InputRules) == 0 {
		return fmt.Errorf("training requires at least one input rule")
	}
	if in.Model == nil {
		return fmt.Errorf("training requires a model")
	}
	if in.BuyPriceRule == nil || in.SellPriceRule == nil {
		return fmt.Errorf("training requires buy and sell price rules")
	}
	if in.StockValue.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("stock value must be positive, got %s", in.StockValue)
	}
	if in.CrossTarget.Cycles <= 0 {
		return fmt.Errorf("training cycles must be positive, got %d", in.CrossTarget.Cycles)
	}
	return nil
}
