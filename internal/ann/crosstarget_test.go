package ann

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"papertrade/internal/quote"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

// captureTrainer records the matrices and parameters it was trained
// with instead of learning anything.
type captureTrainer struct {
	inputs, desired     [][]float64
	learnRate, momentum float64
	skipRows, cycles    int
	rows                int
}

func (c *captureTrainer) TrainBatch(inputs, desired [][]float64, learnRate, momentum float64, skipRows, cycles, rows int) {
	c.inputs = inputs
	c.desired = desired
	c.learnRate = learnRate
	c.momentum = momentum
	c.skipRows = skipRows
	c.cycles = cycles
	c.rows = rows
}

// crossTargetSource holds one symbol whose day 1 rewards buying (open
// 10, close 10.12) and whose day 2 rewards selling at the high.
func crossTargetSource(t *testing.T) quote.Source {
	t.Helper()
	return quote.NewStore([]quote.EOD{
		{Symbol: "AAA", Date: annDay(0), Open: 10, High: 10.1, Low: 9.9, Close: 10, Volume: 100},
		{Symbol: "AAA", Date: annDay(1), Open: 10, High: 10.2, Low: 9.9, Close: 10.12, Volume: 100},
		{Symbol: "AAA", Date: annDay(2), Open: 10.3, High: 10.4, Low: 10, Close: 10.1, Volume: 100},
	})
}

func trainInput(t *testing.T, src quote.Source, model BatchTrainer) TrainInput {
	t.Helper()
	return TrainInput{
		Source:         src,
		Cache:          sim.NewOrderCache(src, sim.NewOrderComparator(src, sim.OrderKey_Symbol)),
		StartOffset:    0,
		EndOffset:      2,
		InitialCapital: decimal.NewFromInt(1000),
		TradeCost:      decimal.Zero,
		StockValue:     decimal.NewFromInt(100),
		InputRules:     []*rule.Rule{mustRule(t, "close()")},
		BuyPriceRule:   mustRule(t, "open()"),
		SellPriceRule:  mustRule(t, "high()"),
		Model:          model,
		CrossTarget: CrossTargetParams{
			EarningPercentage: 1.0,
			LearnRate:         0.25,
			Momentum:          0.1,
			Cycles:            50,
			SkipRows:          0,
		},
	}
}

func TestCrossTargetTrain(t *testing.T) {
	h := TrainHandler{}

	t.Run("labels buy then sell across the held-state boundary", func(t *testing.T) {
		// capital 1000 over 100-per-position means 10 positions, so the
		// per-position target is 1.0% / 10 = 0.1%.
		//
		// day 0: buying 10 shares at 10 and marking at 10.12 moves
		// capital by +0.12%, closest to the target; label is buy.
		// day 1: the held 10 shares sold at day 2's high of 10.4 against
		// its 10.3 open move capital by exactly +0.1%; label is sell.
		model := &captureTrainer{}
		result, err := h.Train(context.Background(), trainInput(t, crossTargetSource(t), model))
		require.NoError(t, err)
		require.Equal(t, 2, result.Rows)

		require.Equal(t, [][]float64{{1, 0}, {0, 1}}, model.desired)
		require.Equal(t, [][]float64{{10}, {10.12}}, model.inputs)

		require.Equal(t, 0.25, model.learnRate)
		require.Equal(t, 0.1, model.momentum)
		require.Equal(t, 50, model.cycles)
		require.Equal(t, 2, model.rows)
	})

	t.Run("a buy-only win on a held symbol keeps the position", func(t *testing.T) {
		// day 0 labels buy (10 shares from day 1). On day 1 the held
		// position makes buy-only inapplicable, yet its 0% change is
		// closest to the 0.1% target: do-nothing moves -1.3% and
		// sell-only at day 2's high of 10.3 against its 10.3 open moves
		// exactly 0%, tying and losing to the earlier branch. The held
		// state must survive that win, so day 2's row still sees a
		// position in its third day.
		src := quote.NewStore([]quote.EOD{
			{Symbol: "AAA", Date: annDay(0), Open: 10, High: 10.1, Low: 9.9, Close: 10, Volume: 100},
			{Symbol: "AAA", Date: annDay(1), Open: 10, High: 10.2, Low: 9.9, Close: 10.12, Volume: 100},
			{Symbol: "AAA", Date: annDay(2), Open: 10.3, High: 10.3, Low: 8.9, Close: 9, Volume: 100},
			{Symbol: "AAA", Date: annDay(3), Open: 9, High: 9.1, Low: 8.9, Close: 9, Volume: 100},
		})
		model := &captureTrainer{}
		in := trainInput(t, src, model)
		in.EndOffset = 3
		in.InputRules = []*rule.Rule{mustRule(t, "held")}

		result, err := h.Train(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, 3, result.Rows)

		require.Equal(t, [][]float64{{1, 0}, {1, 0}, {0, 1}}, model.desired)
		require.Equal(t, [][]float64{{0}, {1}, {2}}, model.inputs)
	})

	t.Run("a tie keeps the do-nothing label", func(t *testing.T) {
		// flat prices make every branch move capital by exactly 0%
		src := quote.NewStore([]quote.EOD{
			{Symbol: "AAA", Date: annDay(0), Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
			{Symbol: "AAA", Date: annDay(1), Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
			{Symbol: "AAA", Date: annDay(2), Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
		})
		model := &captureTrainer{}
		in := trainInput(t, src, model)
		in.CrossTarget.EarningPercentage = 0

		result, err := h.Train(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, 2, result.Rows)
		require.Equal(t, [][]float64{{0, 0}, {0, 0}}, model.desired)
	})

	t.Run("a failed feature degrades to zero instead of dropping the row", func(t *testing.T) {
		model := &captureTrainer{}
		in := trainInput(t, crossTargetSource(t), model)
		// close(5) reaches before day 0 and fails on every row
		in.InputRules = []*rule.Rule{mustRule(t, "close()"), mustRule(t, "close(5)")}

		result, err := h.Train(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, 2, result.Rows)
		require.Equal(t, [][]float64{{10, 0}, {10.12, 0}}, model.inputs)
	})

	t.Run("rejects incomplete input", func(t *testing.T) {
		src := crossTargetSource(t)

		in := trainInput(t, src, &captureTrainer{})
		in.InputRules = nil
		_, err := h.Train(context.Background(), in)
		require.Error(t, err)

		in = trainInput(t, src, nil)
		_, err = h.Train(context.Background(), in)
		require.Error(t, err)

		in = trainInput(t, src, &captureTrainer{})
		in.CrossTarget.Cycles = 0
		_, err = h.Train(context.Background(), in)
		require.Error(t, err)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := h.Train(ctx, trainInput(t, crossTargetSource(t), &captureTrainer{}))
		require.ErrorIs(t, err, context.Canceled)
	})
}
