package ann

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/domain"
	"papertrade/internal/logger"
	"papertrade/internal/quote"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

// Tip is the model's advice for one symbol on the day after the run
// ends: whether it would buy or sell, and at what limit price. A price
// of 0 means the configured price rule needs data that does not exist
// yet (e.g. tomorrow's open).
type Tip struct {
	Symbol    string
	Buy       bool
	Sell      bool
	BuyPrice  float64
	SellPrice float64
}

type ModelPaperTradeInput struct {
	Source         quote.Source
	Cache          *sim.OrderCache
	StartOffset    int
	EndOffset      int
	InitialCapital decimal.Decimal
	TradeCost      decimal.Decimal
	StockValue     decimal.Decimal

	// InputRules build the model's feature vector; its width must match
	// the model's fixed input width.
	InputRules []*rule.Rule
	Model      Classifier

	// BuyPriceRule and SellPriceRule yield the execution price. They are
	// evaluated as of the execution day, one day after the decision, so
	// open() is the execution day's open and close(1) the decision
	// day's close. An order whose price falls outside the execution
	// day's low..high range silently fails to fill.
	BuyPriceRule  *rule.Rule
	SellPriceRule *rule.Rule
}

type ModelPaperTradeResult struct {
	Portfolio   *domain.Portfolio
	EquityCurve []sim.EquitySample
	Tips        []Tip
}

type ModelPaperTradeHandler struct {
	Log *zap.SugaredLogger
}

// PaperTrade replays the day range with buy/sell decisions produced by
// the model instead of hand-written rules. The two-phase day loop and
// the no-lookahead rule match the baseline simulator; execution differs
// in that orders fill at the configured price only when the execution
// day's range reaches it.
func (h ModelPaperTradeHandler) PaperTrade(ctx context.Context, in ModelPaperTradeInput) (*ModelPaperTradeResult, error) {
	if err := validateModelInput(in); err != nil {
		return nil, err
	}
	if h.Log == nil {
		h.Log = logger.FromContext(ctx)
	}

	env, err := sim.NewEnvironment(in.Source, in.StartOffset, in.EndOffset, in.InitialCapital, in.TradeCost)
	if err != nil {
		return nil, err
	}

	equityCurve := []sim.EquitySample{}
	for d := env.StartOffset; d < env.EndOffset; d++ {
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
		equityCurve = append(equityCurve, sim.EquitySample{Date: date, Value: value})
	}

	tips, err := h.tips(env, in)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tips: %w", err)
	}

	return &ModelPaperTradeResult{
		Portfolio:   env.Portfolio,
		EquityCurve: equityCurve,
		Tips:        tips,
	}, nil
}

// sellPhase returns the symbols sold today; the buy scan skips them,
// since buy and sell on one symbol settle at the same next-day price
// and are mutually exclusive actions.
func (h ModelPaperTradeHandler) sellPhase(env *sim.Environment, in ModelPaperTradeInput, d int) (map[string]bool, error) {
	sold := map[string]bool{}
	for _, symbol := range env.Portfolio.ShareAccount().Symbols() {
		holding, ok := env.Portfolio.ShareAccount().Holding(symbol)
		if !ok {
			continue
		}

		// capital reflects trades already settled earlier in the day
		capital, err := env.Portfolio.Value(env.Source, d)
		if err != nil {
			return nil, err
		}
		vars, ok, err := h.decisionVariables(env, in, d, symbol, capital, holding)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		features, err := evaluateFeatures(in.InputRules, vars, env.Source, symbol, d, false)
		if err != nil {
			h.skip(symbol, d, "sell features", err)
			continue
		}
		_, sell := in.Model.Run(features)
		if !sell {
			continue
		}

		price, filled, err := executionPrice(in.SellPriceRule, env.Source, symbol, d+1)
		if err != nil {
			h.skip(symbol, d, "sell price", err)
			continue
		}
		if !filled {
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
		if err := env.Portfolio.AddTransaction(domain.NewReduce(execDate, symbol, holding.Shares, amount, env.TradeCost)); err != nil {
			return nil, err
		}
		sold[symbol] = true
	}
	return sold, nil
}

func (h ModelPaperTradeHandler) buyPhase(env *sim.Environment, in ModelPaperTradeInput, d int, sold map[string]bool) error {
	twoCosts := env.TradeCost.Add(env.TradeCost)

	symbols, err := in.Cache.SymbolsForDay(d)
	if err != nil {
		return err
	}

	for _, symbol := range symbols {
		if in.StockValue.Add(twoCosts).GreaterThan(env.Portfolio.CashAccount().Balance()) {
			break
		}
		if _, held := env.Portfolio.ShareAccount().Holding(symbol); held {
			continue
		}
		if sold[symbol] {
			continue
		}

		capital, err := env.Portfolio.Value(env.Source, d)
		if err != nil {
			return err
		}
		vars, ok, err := h.decisionVariables(env, in, d, symbol, capital, nil)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		features, err := evaluateFeatures(in.InputRules, vars, env.Source, symbol, d, false)
		if err != nil {
			h.skip(symbol, d, "buy features", err)
			continue
		}
		buy, _ := in.Model.Run(features)
		if !buy {
			continue
		}

		price, filled, err := executionPrice(in.BuyPriceRule, env.Source, symbol, d+1)
		if err != nil {
			h.skip(symbol, d, "buy price", err)
			continue
		}
		if !filled {
			continue
		}

		shares := sim.MaxShares(in.StockValue, env.TradeCost, price)
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
		if err := env.Portfolio.AddTransaction(domain.NewAccumulate(execDate, symbol, shares, amount, env.TradeCost)); err != nil {
			return err
		}
	}
	return nil
}

// tips reports what the model would do for every symbol tradable the
// day after the run ends, for user display.
func (h ModelPaperTradeHandler) tips(env *sim.Environment, in ModelPaperTradeInput) ([]Tip, error) {
	d := env.EndOffset
	capital, err := env.Portfolio.Value(env.Source, d)
	if err != nil {
		return nil, err
	}

	symbols, err := in.Cache.SymbolsForDay(d)
	if err != nil {
		return nil, err
	}

	tips := make([]Tip, 0, len(symbols))
	for _, symbol := range symbols {
		holding, _ := env.Portfolio.ShareAccount().Holding(symbol)
		vars, ok, err := h.decisionVariables(env, in, d, symbol, capital, holding)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// display only: a failed feature degrades to 0 instead of
		// suppressing the tip
		features, err := evaluateFeatures(in.InputRules, vars, env.Source, symbol, d, true)
		if err != nil {
			return nil, err
		}
		buy, sell := in.Model.Run(features)

		// whether the price would actually be reached cannot be known
		// for a day with no data yet, so only the limit price is shown
		buyPrice, err := in.BuyPriceRule.Evaluate(rule.Variables{}, env.Source, symbol, d+1)
		if err != nil {
			buyPrice = 0
		}
		sellPrice, err := in.SellPriceRule.Evaluate(rule.Variables{}, env.Source, symbol, d+1)
		if err != nil {
			sellPrice = 0
		}

		tips = append(tips, Tip{
			Symbol:    symbol,
			Buy:       buy,
			Sell:      sell && holding != nil,
			BuyPrice:  buyPrice,
			SellPrice: sellPrice,
		})
	}

	return tips, nil
}

// decisionVariables binds the richer variable set the model's feature
// rules may reference. The second return is false when the symbol has
// no rank today and order matters.
func (h ModelPaperTradeHandler) decisionVariables(
	env *sim.Environment,
	in ModelPaperTradeInput,
	d int,
	symbol string,
	capital decimal.Decimal,
	holding *domain.StockHolding,
) (rule.Variables, bool, error) {
	vars := rule.Variables{
		"held":          0,
		"daysfromstart": d - env.StartOffset,
		"transactions":  len(env.Portfolio.Transactions()),
		"capital":       capital.InexactFloat64(),
		"stockcapital":  0.0,
	}
	if holding != nil {
		held, err := env.HeldDays(holding, d)
		if err != nil {
			return nil, false, err
		}
		vars["held"] = held
		if close, err := env.Source.Quote(symbol, quote.FieldClose, d); err == nil {
			paper := decimal.NewFromInt(holding.Shares).Mul(decimal.NewFromFloat(close)).Sub(holding.Cost)
			vars["stockcapital"] = paper.InexactFloat64()
		}
	}
	if in.Cache.Ordered() {
		rank, ok, err := in.Cache.Rank(d, symbol)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		vars["order"] = rank
	}
	return vars, true, nil
}

// evaluateFeatures turns the configured input rules into the model's
// feature vector. With degrade set, a failed rule contributes 0 so a
// vector always comes back; otherwise the first failure is returned.
func evaluateFeatures(
	rules []*rule.Rule,
	vars rule.Variables,
	src quote.Source,
	symbol string,
	offset int,
	degrade bool,
) ([]float64, error) {
	features := make([]float64, len(rules))
	for i, r := range rules {
		value, err := r.Evaluate(vars, src, symbol, offset)
		if err != nil {
			if !degrade {
				return nil, err
			}
			value = 0
		}
		features[i] = value
	}
	return features, nil
}

// executionPrice evaluates a trade-price rule as of the execution day
// and checks the limit-fill condition: the order fills only if the
// price lies within the day's low..high range, bounds included.
func executionPrice(priceRule *rule.Rule, src quote.Source, symbol string, execOffset int) (float64, bool, error) {
	price, err := priceRule.Evaluate(rule.Variables{}, src, symbol, execOffset)
	if err != nil {
		return 0, false, err
	}

	low, err := src.Quote(symbol, quote.FieldLow, execOffset)
	if err != nil {
		return price, false, err
	}
	high, err := src.Quote(symbol, quote.FieldHigh, execOffset)
	if err != nil {
		return price, false, err
	}

	return price, price >= low && price <= high, nil
}

func validateModelInput(in ModelPaperTradeInput) error {
	if len(in.InputRules) == 0 {
		return fmt.Errorf("model paper trade requires at least one input rule")
	}
	if in.Model == nil {
		return fmt.Errorf("model paper trade requires a classifier")
	}
	if in.BuyPriceRule == nil || in.SellPriceRule == nil {
		return fmt.Errorf("model paper trade requires buy and sell price rules")
	}
	if in.StockValue.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("stock value must be positive, got %s", in.StockValue)
	}
	return nil
}

func (h ModelPaperTradeHandler) skip(symbol string, d int, step string, err error) {
	if h.Log == nil {
		return
	}
	if errors.Is(err, quote.ErrMissingQuote) || errors.Is(err, rule.ErrEvaluation) {
		h.Log.Debugw("skipping symbol", "symbol", symbol, "day", d, "step", step, "err", err)
		return
	}
	h.Log.Warnw("unexpected error, skipping symbol", "symbol", symbol, "day", d, "step", step, "err", err)
}
