package main

import (
	"fmt"
	"time"

	"papertrade/internal/ann"
	"papertrade/internal/calculator"
	"papertrade/internal/domain"
	"papertrade/internal/sim"
)

func printLedger(portfolio *domain.Portfolio) {
	fmt.Println("transactions:")
	for _, t := range portfolio.Transactions() {
		switch t.Type {
		case domain.TransactionType_Deposit:
			fmt.Printf("  %s  %-10s  %12s\n", t.Date.Format(time.DateOnly), t.Type, t.Amount.StringFixed(2))
		default:
			fmt.Printf("  %s  %-10s  %-6s  %6d shares  %12s  (cost %s)\n",
				t.Date.Format(time.DateOnly), t.Type, t.Symbol, t.Shares, t.Amount.StringFixed(2), t.TradeCost.StringFixed(2))
		}
	}
	fmt.Printf("final cash: %s\n", portfolio.CashAccount().Balance().StringFixed(2))
	for _, symbol := range portfolio.ShareAccount().Symbols() {
		holding, _ := portfolio.ShareAccount().Holding(symbol)
		fmt.Printf("still held: %s, %d shares since %s\n", symbol, holding.Shares, holding.DateAcquired.Format(time.DateOnly))
	}
}

func printMetrics(equityCurve []sim.EquitySample) {
	metrics, err := calculator.CalculateMetrics(equityCurve)
	if err != nil {
		// short runs have no meaningful metrics
		return
	}
	fmt.Printf("annualized return: %.2f%%\n", metrics.AnnualizedReturn*100)
	fmt.Printf("annualized stdev:  %.2f%%\n", metrics.AnnualizedStdev*100)
	fmt.Printf("sharpe ratio:      %.2f\n", metrics.SharpeRatio)
}

func printTips(tips []ann.Tip) {
	if len(tips) == 0 {
		return
	}
	fmt.Println("next-day tips:")
	for _, tip := range tips {
		if !tip.Buy && !tip.Sell {
			continue
		}
		action := "buy"
		price := tip.BuyPrice
		if tip.Sell {
			action = "sell"
			price = tip.SellPrice
		}
		if price > 0 {
			fmt.Printf("  %-6s %s at %.2f\n", tip.Symbol, action, price)
		} else {
			fmt.Printf("  %-6s %s\n", tip.Symbol, action)
		}
	}
}
