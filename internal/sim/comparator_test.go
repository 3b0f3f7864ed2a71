package sim

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papertrade/internal/quote"
	"papertrade/internal/rule"
)

func testDay(n int) time.Time {
	return time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func comparatorSource(t *testing.T) quote.Source {
	t.Helper()
	return quote.NewStore([]quote.EOD{
		{Symbol: "AAPL", Date: testDay(0), Open: 50, High: 55, Low: 49, Close: 54, Volume: 300},
		{Symbol: "MSFT", Date: testDay(0), Open: 20, High: 22, Low: 19, Close: 21, Volume: 100},
		{Symbol: "NVDA", Date: testDay(0), Open: 80, High: 90, Low: 78, Close: 88, Volume: 200},
	})
}

func sortWith(c *OrderComparator, offset int, symbols []string) []string {
	ordered := append([]string(nil), symbols...)
	c.SetOffset(offset)
	sort.SliceStable(ordered, func(i, j int) bool {
		return c.Compare(ordered[i], ordered[j]) < 0
	})
	return ordered
}

func TestOrderComparator(t *testing.T) {
	src := comparatorSource(t)
	symbols := []string{"AAPL", "MSFT", "NVDA"}

	t.Run("ascending and descending volume are exact reversals", func(t *testing.T) {
		asc := sortWith(NewOrderComparator(src, OrderKey_VolumeAsc), 0, symbols)
		desc := sortWith(NewOrderComparator(src, OrderKey_VolumeDesc), 0, symbols)

		require.Equal(t, []string{"MSFT", "NVDA", "AAPL"}, asc)
		require.Equal(t, []string{"AAPL", "NVDA", "MSFT"}, desc)
	})

	t.Run("symbol key orders lexicographically", func(t *testing.T) {
		ordered := sortWith(NewOrderComparator(src, OrderKey_Symbol), 0, []string{"NVDA", "AAPL", "MSFT"})
		require.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, ordered)
	})

	t.Run("change key uses close over open", func(t *testing.T) {
		// AAPL 54/50=1.08, MSFT 21/20=1.05, NVDA 88/80=1.10
		ordered := sortWith(NewOrderComparator(src, OrderKey_ChangeDesc), 0, symbols)
		require.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, ordered)
	})

	t.Run("rule comparator orders by descending rule value", func(t *testing.T) {
		r, err := rule.New("open()")
		require.NoError(t, err)

		ordered := sortWith(NewRuleOrderComparator(src, r, nil), 0, symbols)
		require.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, ordered)
	})

	t.Run("failing rule compares symbols as equal", func(t *testing.T) {
		r, err := rule.New("unknownvar + 1")
		require.NoError(t, err)

		c := NewRuleOrderComparator(src, r, nil)
		c.SetOffset(0)
		require.Equal(t, 0, c.Compare("AAPL", "MSFT"))

		// stable sort with an all-tie comparator keeps the input order
		ordered := sortWith(c, 0, []string{"NVDA", "AAPL", "MSFT"})
		require.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, ordered)
	})

	t.Run("none key imposes no ordering but still compares deterministically", func(t *testing.T) {
		c := NewOrderComparator(src, OrderKey_None)
		require.False(t, c.Ordered())
		require.True(t, NewOrderComparator(src, OrderKey_VolumeAsc).Ordered())
	})
}

func TestParseOrderKey(t *testing.T) {
	key, err := ParseOrderKey("volume_desc")
	require.NoError(t, err)
	require.Equal(t, OrderKey_VolumeDesc, key)

	key, err = ParseOrderKey(" Close ")
	require.NoError(t, err)
	require.Equal(t, OrderKey_CloseAsc, key)

	_, err = ParseOrderKey("sideways")
	require.Error(t, err)
}
