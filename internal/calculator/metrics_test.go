package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"papertrade/internal/sim"
)

func sample(day int, value float64) sim.EquitySample {
	return sim.EquitySample{
		Date:  time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Value: decimal.NewFromFloat(value),
	}
}

func TestCalculateMetrics(t *testing.T) {
	t.Run("known curve", func(t *testing.T) {
		curve := []sim.EquitySample{
			sample(0, 10000),
			sample(1, 10100), // +1%
			sample(2, 10302), // +2%
			sample(3, 10302), // flat
		}

		result, err := CalculateMetrics(curve)
		require.NoError(t, err)

		// sample stdev of {0.01, 0.02, 0} is 0.01, annualized by sqrt(252)
		require.InDelta(t, 0.01*math.Sqrt(252), result.AnnualizedStdev, 1e-9)

		expectedReturn := math.Pow(10302.0/10000.0, 252.0/3.0) - 1
		require.InDelta(t, expectedReturn, result.AnnualizedReturn, 1e-9)
		require.InDelta(t, expectedReturn/result.AnnualizedStdev, result.SharpeRatio, 1e-9)
	})

	t.Run("unsorted samples are ordered by date first", func(t *testing.T) {
		sorted, err := CalculateMetrics([]sim.EquitySample{
			sample(0, 10000), sample(1, 10100), sample(2, 10302),
		})
		require.NoError(t, err)

		shuffled, err := CalculateMetrics([]sim.EquitySample{
			sample(2, 10302), sample(0, 10000), sample(1, 10100),
		})
		require.NoError(t, err)
		require.Equal(t, sorted, shuffled)
	})

	t.Run("flat curve has zero stdev and zero sharpe", func(t *testing.T) {
		result, err := CalculateMetrics([]sim.EquitySample{
			sample(0, 10000), sample(1, 10000), sample(2, 10000),
		})
		require.NoError(t, err)
		require.Zero(t, result.AnnualizedStdev)
		require.Zero(t, result.AnnualizedReturn)
		require.Zero(t, result.SharpeRatio)
	})

	t.Run("rejects too few samples", func(t *testing.T) {
		_, err := CalculateMetrics([]sim.EquitySample{sample(0, 10000)})
		require.Error(t, err)
	})

	t.Run("rejects a zero-valued sample", func(t *testing.T) {
		_, err := CalculateMetrics([]sim.EquitySample{
			sample(0, 10000), sample(1, 0), sample(2, 10000),
		})
		require.Error(t, err)
	})
}
