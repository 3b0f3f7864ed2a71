package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"papertrade/internal/sim"
)

type CalculateMetricsResult struct {
	AnnualizedStdev  float64
	AnnualizedReturn float64
	SharpeRatio      float64
}

// CalculateMetrics derives performance metrics from a simulation's
// daily equity curve. It assumes the samples cover consecutive trading
// days; 252 trading days make a year.
func CalculateMetrics(equityCurve []sim.EquitySample) (*CalculateMetricsResult, error) {
	if len(equityCurve) < 2 {
		return nil, fmt.Errorf("cannot calculate metrics on < 2 equity samples")
	}

	curve := make([]sim.EquitySample, len(equityCurve))
	copy(curve, equityCurve)
	sort.Slice(curve, func(i, j int) bool {
		return curve[i].Date.Before(curve[j].Date)
	})

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value.InexactFloat64()
		if prev == 0 {
			return nil, fmt.Errorf("cannot calculate returns: zero portfolio value on %s", curve[i-1].Date)
		}
		returns = append(returns, curve[i].Value.InexactFloat64()/prev-1)
	}

	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return nil, err
	}
	annualizedStdev := stdev * math.Sqrt(252)

	startValue := curve[0].Value.InexactFloat64()
	endValue := curve[len(curve)-1].Value.InexactFloat64()
	if startValue <= 0 {
		return nil, fmt.Errorf("cannot calculate metrics with nonpositive start value")
	}
	numYears := float64(len(returns)) / 252
	annualizedReturn := math.Pow(endValue/startValue, 1/numYears) - 1

	sharpeRatio := 0.0
	if annualizedStdev != 0 {
		sharpeRatio = annualizedReturn / annualizedStdev
	}

	return &CalculateMetricsResult{
		AnnualizedStdev:  annualizedStdev,
		AnnualizedReturn: annualizedReturn,
		SharpeRatio:      sharpeRatio,
	}, nil
}
