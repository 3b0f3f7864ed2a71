package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"papertrade/internal/quote"
	mock_quote "papertrade/internal/quote/mocks"
)

func TestOrderCache(t *testing.T) {
	t.Run("sorts each day at most once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		src := mock_quote.NewMockSource(ctrl)

		src.EXPECT().SymbolsForDay(3).Return([]string{"MSFT", "AAPL", "NVDA"}, nil).Times(1)
		src.EXPECT().Quote(gomock.Any(), quote.FieldVolume, 3).Return(100.0, nil).AnyTimes()

		cache := NewOrderCache(src, NewOrderComparator(src, OrderKey_VolumeAsc))

		first, err := cache.SymbolsForDay(3)
		require.NoError(t, err)
		second, err := cache.SymbolsForDay(3)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("rank matches the ordered list", func(t *testing.T) {
		src := comparatorSource(t)
		cache := NewOrderCache(src, NewOrderComparator(src, OrderKey_VolumeAsc))

		symbols, err := cache.SymbolsForDay(0)
		require.NoError(t, err)
		require.Equal(t, []string{"MSFT", "NVDA", "AAPL"}, symbols)

		for i, symbol := range symbols {
			rank, ok, err := cache.Rank(0, symbol)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, i, rank)
		}

		_, ok, err := cache.Rank(0, "TSLA")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("rank triggers the day's sort on demand", func(t *testing.T) {
		src := comparatorSource(t)
		cache := NewOrderCache(src, NewOrderComparator(src, OrderKey_Symbol))

		rank, ok, err := cache.Rank(0, "NVDA")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 2, rank)
	})
}
