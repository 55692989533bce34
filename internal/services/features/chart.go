package features

import (
	"math"

	"CryptoChat/internal/domain/models"
)

// AxisPadding is the share of the price range added above and below the series.
const AxisPadding = 0.1

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// It returns a slice of length len(points)-1, or nil if insufficient data.
func ComputeLogReturns(points []models.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price
		cur := points[i].Price
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized volatility of the given returns
// sampled barsPerYear times a year.
func RealizedVolatility(logReturns []float64, barsPerYear float64) float64 {
	n := float64(len(logReturns))
	if n < 2 {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range logReturns {
		sum += r
		sum2 += r * r
	}
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// BarsPerYear estimates the sampling rate of a series from its timestamps.
func BarsPerYear(points []models.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	spanMs := points[len(points)-1].Timestamp - points[0].Timestamp
	if spanMs <= 0 {
		return 0
	}
	stepMs := float64(spanMs) / float64(len(points)-1)
	const msPerYear = 365 * 24 * 60 * 60 * 1000
	return msPerYear / stepMs
}

// ComputePriceMetrics summarizes a chronological price series.
func ComputePriceMetrics(points []models.PricePoint) models.PriceMetrics {
	if len(points) == 0 {
		return models.PriceMetrics{}
	}

	lo, hi := points[0].Price, points[0].Price
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	rng := hi - lo
	pad := rng * AxisPadding

	start := points[0].Price
	current := points[len(points)-1].Price
	change := 0.0
	if start != 0 {
		change = (current - start) / start * 100
	}

	return models.PriceMetrics{
		Min:           lo,
		Max:           hi,
		Range:         rng,
		AxisMin:       lo - pad,
		AxisMax:       hi + pad,
		StartPrice:    start,
		CurrentPrice:  current,
		ChangePercent: change,
		IsPositive:    change >= 0,
		Volatility:    RealizedVolatility(ComputeLogReturns(points), BarsPerYear(points)),
	}
}
