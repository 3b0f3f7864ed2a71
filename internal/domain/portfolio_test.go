package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"papertrade/internal/quote"
)

func d(n int) time.Time {
	return time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestPortfolioLedger(t *testing.T) {
	t.Run("deposit then buy then sell", func(t *testing.T) {
		p := NewPortfolio("test")
		require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(10000))))
		require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "AAPL", 100, money(5000), money(10))))

		require.True(t, p.CashAccount().Balance().Equal(money(4990)))
		holding, ok := p.ShareAccount().Holding("AAPL")
		require.True(t, ok)
		require.Equal(t, int64(100), holding.Shares)
		require.Equal(t, d(1), holding.DateAcquired)
		require.True(t, holding.Cost.Equal(money(5010)))

		require.NoError(t, p.AddTransaction(NewReduce(d(3), "AAPL", 100, money(5500), money(10))))
		require.True(t, p.CashAccount().Balance().Equal(money(10480)))
		_, ok = p.ShareAccount().Holding("AAPL")
		require.False(t, ok)

		require.Len(t, p.Transactions(), 3)
	})

	t.Run("buy beyond available cash is rejected and not recorded", func(t *testing.T) {
		p := NewPortfolio("test")
		require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(1000))))

		err := p.AddTransaction(NewAccumulate(d(1), "AAPL", 100, money(5000), money(10)))
		require.Error(t, err)
		require.Len(t, p.Transactions(), 1)
		require.True(t, p.CashAccount().Balance().Equal(money(1000)))
	})

	t.Run("selling more shares than held is rejected", func(t *testing.T) {
		p := NewPortfolio("test")
		require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(10000))))
		require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "AAPL", 10, money(500), money(0))))

		err := p.AddTransaction(NewReduce(d(2), "AAPL", 11, money(550), money(0)))
		require.Error(t, err)

		err = p.AddTransaction(NewReduce(d(2), "MSFT", 1, money(10), money(0)))
		require.Error(t, err)
	})

	t.Run("partial reduce keeps acquisition date and scales cost", func(t *testing.T) {
		p := NewPortfolio("test")
		require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(10000))))
		require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "AAPL", 100, money(5000), money(0))))
		require.NoError(t, p.AddTransaction(NewReduce(d(2), "AAPL", 50, money(2600), money(0))))

		holding, ok := p.ShareAccount().Holding("AAPL")
		require.True(t, ok)
		require.Equal(t, int64(50), holding.Shares)
		require.Equal(t, d(1), holding.DateAcquired)
		require.True(t, holding.Cost.Equal(money(2500)))
	})

	t.Run("replaying the ledger never drives cash negative", func(t *testing.T) {
		p := NewPortfolio("test")
		require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(100))))
		require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "AAPL", 1, money(90), money(5))))

		balance := decimal.Zero
		for _, tx := range p.Transactions() {
			switch tx.Type {
			case TransactionType_Deposit:
				balance = balance.Add(tx.Amount)
			case TransactionType_Accumulate:
				balance = balance.Sub(tx.Amount).Sub(tx.TradeCost)
			case TransactionType_Reduce:
				balance = balance.Add(tx.Amount).Sub(tx.TradeCost)
			}
			require.False(t, balance.IsNegative())
		}
		require.True(t, balance.Equal(p.CashAccount().Balance()))
	})
}

func TestPortfolioValue(t *testing.T) {
	src := quote.NewStore([]quote.EOD{
		{Symbol: "AAPL", Date: d(0), Open: 50, High: 51, Low: 49, Close: 50, Volume: 100},
		{Symbol: "AAPL", Date: d(1), Open: 50, High: 56, Low: 50, Close: 55, Volume: 100},
		{Symbol: "MSFT", Date: d(0), Open: 20, High: 21, Low: 19, Close: 20, Volume: 100},
		{Symbol: "MSFT", Date: d(1), Open: 20, High: 22, Low: 20, Close: 21, Volume: 100},
		{Symbol: "AAPL", Date: d(2), Open: 55, High: 61, Low: 55, Close: 60, Volume: 100},
		// MSFT has no quote on day 2
	})

	p := NewPortfolio("test")
	require.NoError(t, p.AddTransaction(NewDeposit(d(0), money(10000))))
	require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "AAPL", 10, money(500), money(0))))
	require.NoError(t, p.AddTransaction(NewAccumulate(d(1), "MSFT", 10, money(200), money(0))))

	value, err := p.Value(src, 1)
	require.NoError(t, err)
	// 9300 cash + 10*55 + 10*21
	require.True(t, value.Equal(money(10060)), "got %s", value)

	// MSFT falls back to its most recent close
	value, err = p.Value(src, 2)
	require.NoError(t, err)
	// 9300 cash + 10*60 + 10*21
	require.True(t, value.Equal(money(10110)), "got %s", value)
}
