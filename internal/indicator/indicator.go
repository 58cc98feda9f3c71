package indicator

import (
	"math"

	"github.com/trendsim/trendsim/internal/core"
)

// Default periods used by the calculator.
const (
	SMAFastPeriod    = 20
	SMASlowPeriod    = 50
	RSIPeriod        = 14
	BollingerPeriod  = 20
	BollingerStdDevs = 2.0
	MomentumPeriod   = 10
	ROCPeriod        = 5
	VolatilityPeriod = 20
)

// Bollinger holds the three Bollinger Band lines
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Set holds all indicator values computed for one bar.
// Values are neutral defaults when the window is shorter than an
// indicator's period: RSI is 50, volume ratio is 1, everything else is 0.
type Set struct {
	SMA20        float64   `json:"sma_20"`
	SMA50        float64   `json:"sma_50"`
	RSI          float64   `json:"rsi"`
	Bollinger    Bollinger `json:"bollinger"`
	VolumeRatio  float64   `json:"volume_ratio"`
	Momentum     float64   `json:"momentum"`
	RateOfChange float64   `json:"rate_of_change"`
	PriceChange  float64   `json:"price_change"`
	Volatility   float64   `json:"volatility"`
}

// Field returns an indicator value by name. Dotted paths address the
// Bollinger lines (e.g. "bollinger.upper"). ok is false for unknown names.
func (s Set) Field(name string) (float64, bool) {
	switch name {
	case "sma_20":
		return s.SMA20, true
	case "sma_50":
		return s.SMA50, true
	case "rsi":
		return s.RSI, true
	case "volume_ratio":
		return s.VolumeRatio, true
	case "momentum":
		return s.Momentum, true
	case "rate_of_change":
		return s.RateOfChange, true
	case "price_change":
		return s.PriceChange, true
	case "volatility":
		return s.Volatility, true
	case "bollinger.upper":
		return s.Bollinger.Upper, true
	case "bollinger.middle":
		return s.Bollinger.Middle, true
	case "bollinger.lower":
		return s.Bollinger.Lower, true
	}
	return 0, false
}

// Calculate computes the indicator set for the last bar of window.
// window must be the chronological prefix of bars up to and including the
// current bar; no look-ahead happens here.
func Calculate(window []core.Bar) Set {
	set := Set{RSI: 50, VolumeRatio: 1}
	if len(window) == 0 {
		return set
	}

	closes := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	set.SMA20 = SMA(closes, SMAFastPeriod)
	set.SMA50 = SMA(closes, SMASlowPeriod)
	set.RSI = RSI(closes, RSIPeriod)
	set.Bollinger = BollingerBands(closes, BollingerPeriod, BollingerStdDevs)
	set.Momentum = Momentum(closes, MomentumPeriod)
	set.RateOfChange = ROC(closes, ROCPeriod)
	set.PriceChange = ROC(closes, 1)
	set.Volatility = Volatility(closes, VolatilityPeriod)

	volSMA := SMA(volumes, SMAFastPeriod)
	if volSMA > 0 {
		set.VolumeRatio = volumes[len(volumes)-1] / volSMA
	}

	return set
}

// SMA returns the simple moving average of the trailing period values,
// or 0 when there are fewer values than the period.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// RSI returns the Wilder-style relative strength index over the trailing
// period changes. Returns the neutral value 50 when the window is too
// short, and 100 when there are no losses. Output is always in [0, 100].
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerBands returns the upper/middle/lower bands over the trailing
// period, or zero bands when the window is too short.
func BollingerBands(closes []float64, period int, devs float64) Bollinger {
	if period <= 0 || len(closes) < period {
		return Bollinger{}
	}

	middle := SMA(closes, period)

	var squareSum float64
	for _, c := range closes[len(closes)-period:] {
		diff := c - middle
		squareSum += diff * diff
	}
	stdDev := math.Sqrt(squareSum / float64(period))

	return Bollinger{
		Upper:  middle + devs*stdDev,
		Middle: middle,
		Lower:  middle - devs*stdDev,
	}
}

// Momentum returns the absolute change versus the value period bars back.
func Momentum(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 0
	}
	return closes[len(closes)-1] - closes[len(closes)-1-period]
}

// ROC returns the percentage rate of change versus the value period bars
// back, or 0 when the window is too short or the base value is 0.
func ROC(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 0
	}
	base := closes[len(closes)-1-period]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base * 100
}

// Volatility returns the standard deviation of percentage bar-over-bar
// changes over the trailing period, scaled by 100.
func Volatility(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 0
	}

	changes := make([]float64, 0, period)
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		if closes[i-1] == 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (closes[i]-closes[i-1])/closes[i-1])
	}

	var mean float64
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	var variance float64
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))

	return math.Sqrt(variance) * 100
}
