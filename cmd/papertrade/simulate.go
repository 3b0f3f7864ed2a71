package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/internal/logger"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

var simulateFlags struct {
	csvPath    string
	from       string
	to         string
	buyRule    string
	sellRule   string
	capital    float64
	tradeCost  float64
	stockValue float64
	positions  int
	order      string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a rule-driven paper-trading simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New()
		defer log.Sync()

		store, err := loadStore(simulateFlags.csvPath, simulateFlags.from, simulateFlags.to)
		if err != nil {
			return err
		}
		start, end, err := dayRange(store, simulateFlags.from, simulateFlags.to)
		if err != nil {
			return err
		}

		buyRule, err := rule.New(simulateFlags.buyRule)
		if err != nil {
			return fmt.Errorf("invalid buy rule: %w", err)
		}
		sellRule, err := rule.New(simulateFlags.sellRule)
		if err != nil {
			return fmt.Errorf("invalid sell rule: %w", err)
		}

		comparator, err := buildComparator(store, simulateFlags.order, log)
		if err != nil {
			return err
		}

		allocation := sim.AllocationPolicy{
			Mode:       sim.AllocationMode_FixedValue,
			StockValue: decimal.NewFromFloat(simulateFlags.stockValue),
		}
		if simulateFlags.positions > 0 {
			allocation = sim.AllocationPolicy{
				Mode:            sim.AllocationMode_TargetPositions,
				TargetPositions: simulateFlags.positions,
			}
		}

		ctx := logger.AddToContext(cmd.Context(), log)
		handler := sim.PaperTradeHandler{Log: log}
		result, err := handler.PaperTrade(ctx, sim.PaperTradeInput{
			Source:         store,
			Cache:          sim.NewOrderCache(store, comparator),
			StartOffset:    start,
			EndOffset:      end,
			InitialCapital: decimal.NewFromFloat(simulateFlags.capital),
			TradeCost:      decimal.NewFromFloat(simulateFlags.tradeCost),
			BuyRule:        buyRule,
			SellRule:       sellRule,
			Allocation:     allocation,
		})
		if err != nil {
			return err
		}

		printLedger(result.Portfolio)
		printMetrics(result.EquityCurve)
		return nil
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.csvPath, "csv", "", "quote history csv file (otherwise postgres)")
	f.StringVar(&simulateFlags.from, "from", "", "first simulated day (YYYY-MM-DD)")
	f.StringVar(&simulateFlags.to, "to", "", "last simulated day, exclusive (YYYY-MM-DD)")
	f.StringVar(&simulateFlags.buyRule, "buy-rule", "", "buy decision rule")
	f.StringVar(&simulateFlags.sellRule, "sell-rule", "", "sell decision rule")
	f.Float64Var(&simulateFlags.capital, "capital", 10000, "initial capital")
	f.Float64Var(&simulateFlags.tradeCost, "trade-cost", 0, "fixed brokerage fee per transaction")
	f.Float64Var(&simulateFlags.stockValue, "stock-value", 5000, "money budget per position")
	f.IntVar(&simulateFlags.positions, "positions", 0, "derive the position budget from a target position count")
	f.StringVar(&simulateFlags.order, "order", "none", "symbol ordering key, or rule:<expression>")
	simulateCmd.MarkFlagRequired("buy-rule")
	simulateCmd.MarkFlagRequired("sell-rule")
}
