package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/internal/ann"
	"papertrade/internal/logger"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

var trainFlags struct {
	csvPath    string
	from       string
	to         string
	inputRules []string
	buyPrice   string
	sellPrice  string
	capital    float64
	tradeCost  float64
	stockValue float64
	order      string

	hidden    int
	seed      int64
	earning   float64
	learnRate float64
	momentum  float64
	cycles    int
	skipRows  int
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a buy/sell classifier with cross-target labels, then paper trade it",
	Long: `train derives supervised labels by comparing hypothetical one-day-ahead
capital outcomes (do nothing / buy only / sell only) against a target
daily return, trains the classifier on them, and then replays the same
day range with the trained model to report its trades and next-day
tips.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New()
		defer log.Sync()

		store, err := loadStore(trainFlags.csvPath, trainFlags.from, trainFlags.to)
		if err != nil {
			return err
		}
		start, end, err := dayRange(store, trainFlags.from, trainFlags.to)
		if err != nil {
			return err
		}

		inputRules := make([]*rule.Rule, 0, len(trainFlags.inputRules))
		for _, expr := range trainFlags.inputRules {
			r, err := rule.New(expr)
			if err != nil {
				return fmt.Errorf("invalid input rule %q: %w", expr, err)
			}
			inputRules = append(inputRules, r)
		}
		buyPrice, err := rule.New(trainFlags.buyPrice)
		if err != nil {
			return fmt.Errorf("invalid buy price rule: %w", err)
		}
		sellPrice, err := rule.New(trainFlags.sellPrice)
		if err != nil {
			return fmt.Errorf("invalid sell price rule: %w", err)
		}

		comparator, err := buildComparator(store, trainFlags.order, log)
		if err != nil {
			return err
		}
		cache := sim.NewOrderCache(store, comparator)

		network := ann.NewNetwork(len(inputRules), trainFlags.hidden, trainFlags.seed)

		ctx := logger.AddToContext(cmd.Context(), log)
		trainer := ann.TrainHandler{Log: log}
		trainResult, err := trainer.Train(ctx, ann.TrainInput{
			Source:         store,
			Cache:          cache,
			StartOffset:    start,
			EndOffset:      end,
			InitialCapital: decimal.NewFromFloat(trainFlags.capital),
			TradeCost:      decimal.NewFromFloat(trainFlags.tradeCost),
			StockValue:     decimal.NewFromFloat(trainFlags.stockValue),
			InputRules:     inputRules,
			BuyPriceRule:   buyPrice,
			SellPriceRule:  sellPrice,
			Model:          network,
			CrossTarget: ann.CrossTargetParams{
				EarningPercentage: trainFlags.earning,
				LearnRate:         trainFlags.learnRate,
				Momentum:          trainFlags.momentum,
				Cycles:            trainFlags.cycles,
				SkipRows:          trainFlags.skipRows,
			},
		})
		if err != nil {
			return err
		}
		log.Infow("training complete", "rows", trainResult.Rows)

		handler := ann.ModelPaperTradeHandler{Log: log}
		result, err := handler.PaperTrade(ctx, ann.ModelPaperTradeInput{
			Source:         store,
			Cache:          cache,
			StartOffset:    start,
			EndOffset:      end,
			InitialCapital: decimal.NewFromFloat(trainFlags.capital),
			TradeCost:      decimal.NewFromFloat(trainFlags.tradeCost),
			StockValue:     decimal.NewFromFloat(trainFlags.stockValue),
			InputRules:     inputRules,
			Model:          network,
			BuyPriceRule:   buyPrice,
			SellPriceRule:  sellPrice,
		})
		if err != nil {
			return err
		}

		printLedger(result.Portfolio)
		printMetrics(result.EquityCurve)
		printTips(result.Tips)
		return nil
	},
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.csvPath, "csv", "", "quote history csv file (otherwise postgres)")
	f.StringVar(&trainFlags.from, "from", "", "first simulated day (YYYY-MM-DD)")
	f.StringVar(&trainFlags.to, "to", "", "last simulated day, exclusive (YYYY-MM-DD)")
	f.StringSliceVar(&trainFlags.inputRules, "input-rule", nil, "feature expression (repeatable)")
	f.StringVar(&trainFlags.buyPrice, "buy-price", "open()", "buy execution price rule, evaluated on the execution day")
	f.StringVar(&trainFlags.sellPrice, "sell-price", "open()", "sell execution price rule, evaluated on the execution day")
	f.Float64Var(&trainFlags.capital, "capital", 10000, "initial capital")
	f.Float64Var(&trainFlags.tradeCost, "trade-cost", 0, "fixed brokerage fee per transaction")
	f.Float64Var(&trainFlags.stockValue, "stock-value", 5000, "money budget per position")
	f.StringVar(&trainFlags.order, "order", "none", "symbol ordering key, or rule:<expression>")
	f.IntVar(&trainFlags.hidden, "hidden", 8, "hidden layer size")
	f.Int64Var(&trainFlags.seed, "seed", 1, "weight initialization seed")
	f.Float64Var(&trainFlags.earning, "earning-percentage", 1.0, "target daily return for the whole portfolio, percent")
	f.Float64Var(&trainFlags.learnRate, "learn-rate", 0.7, "backpropagation learning rate")
	f.Float64Var(&trainFlags.momentum, "momentum", 0.6, "backpropagation momentum")
	f.IntVar(&trainFlags.cycles, "cycles", 100, "training cycles over the generated rows")
	f.IntVar(&trainFlags.skipRows, "skip-rows", 0, "warmup rows fed forward without weight updates")
	trainCmd.MarkFlagRequired("input-rule")
}
