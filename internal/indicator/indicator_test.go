package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/trendsim/trendsim/internal/core"
)

func bars(closes ...float64) []core.Bar {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.Bar, len(closes))
	for i, c := range closes {
		out[i] = core.Bar{
			Symbol:    "TREND:AI",
			Timestamp: base.AddDate(0, 0, i),
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
	}{
		{"exact window", []float64{1, 2, 3, 4, 5}, 5, 3},
		{"trailing window", []float64{10, 1, 2, 3}, 3, 2},
		{"too short", []float64{1, 2}, 5, 0},
		{"zero period", []float64{1, 2}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.values, tt.period); got != tt.want {
				t.Errorf("SMA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSI_Bounds(t *testing.T) {
	// RSI must stay inside [0, 100] for arbitrary windows
	windows := [][]float64{
		{1},
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1, 0.5, 0.25, 0.125, 1, 2, 3, 4, 5, 6, 7, 8},
		{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 9, 8, 7, 6, 5},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}

	for _, closes := range windows {
		got := RSI(closes, 14)
		if got < 0 || got > 100 {
			t.Errorf("RSI(%v) = %v, out of [0,100]", closes, got)
		}
	}
}

func TestRSI_Neutral(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50 {
		t.Errorf("short window RSI = %v, want neutral 50", got)
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	if got := RSI(closes, 14); got != 100 {
		t.Errorf("all-gains RSI = %v, want 100", got)
	}
}

func TestBollingerBands(t *testing.T) {
	closes := []float64{2, 4, 6, 8, 10}
	b := BollingerBands(closes, 5, 2)

	if b.Middle != 6 {
		t.Errorf("Middle = %v, want 6", b.Middle)
	}
	// Population stddev of {2,4,6,8,10} is sqrt(8)
	wantUpper := 6 + 2*math.Sqrt(8)
	if math.Abs(b.Upper-wantUpper) > 1e-9 {
		t.Errorf("Upper = %v, want %v", b.Upper, wantUpper)
	}
	wantLower := 6 - 2*math.Sqrt(8)
	if math.Abs(b.Lower-wantLower) > 1e-9 {
		t.Errorf("Lower = %v, want %v", b.Lower, wantLower)
	}
}

func TestBollingerBands_ShortWindow(t *testing.T) {
	b := BollingerBands([]float64{1, 2}, 20, 2)
	if b.Upper != 0 || b.Middle != 0 || b.Lower != 0 {
		t.Errorf("short window bands = %+v, want zeroes", b)
	}
}

func TestMomentum(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15}
	if got := Momentum(closes, 10); got != 14 {
		t.Errorf("Momentum = %v, want 14", got)
	}
	if got := Momentum([]float64{1, 2}, 10); got != 0 {
		t.Errorf("short window Momentum = %v, want 0", got)
	}
}

func TestROC(t *testing.T) {
	closes := []float64{100, 0, 0, 0, 0, 110}
	if got := ROC(closes, 5); got != 10 {
		t.Errorf("ROC = %v, want 10", got)
	}
	// Zero base must not divide by zero
	if got := ROC([]float64{0, 10}, 1); got != 0 {
		t.Errorf("zero-base ROC = %v, want 0", got)
	}
}

func TestVolatility(t *testing.T) {
	// Constant price has zero volatility
	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 42
	}
	if got := Volatility(flat, 20); got != 0 {
		t.Errorf("flat Volatility = %v, want 0", got)
	}

	moving := []float64{100, 110, 99, 120, 95, 130, 90, 140, 85, 150,
		80, 160, 75, 170, 70, 180, 65, 190, 60, 200, 55}
	if got := Volatility(moving, 20); got <= 0 {
		t.Errorf("moving Volatility = %v, want > 0", got)
	}
}

func TestCalculate_EmptyWindow(t *testing.T) {
	set := Calculate(nil)
	if set.RSI != 50 {
		t.Errorf("empty window RSI = %v, want 50", set.RSI)
	}
	if set.VolumeRatio != 1 {
		t.Errorf("empty window VolumeRatio = %v, want 1", set.VolumeRatio)
	}
	if set.SMA20 != 0 || set.Momentum != 0 || set.RateOfChange != 0 {
		t.Error("empty window should yield zero SMA/momentum/ROC")
	}
}

func TestCalculate_VolumeRatio(t *testing.T) {
	window := bars(make([]float64, 20)...)
	for i := range window {
		window[i].Close = 100
		window[i].Volume = 1000
	}
	window[len(window)-1].Volume = 3000

	set := Calculate(window)
	// avg volume = (19*1000 + 3000)/20 = 1100
	want := 3000.0 / 1100.0
	if math.Abs(set.VolumeRatio-want) > 1e-9 {
		t.Errorf("VolumeRatio = %v, want %v", set.VolumeRatio, want)
	}
}

func TestSet_Field(t *testing.T) {
	set := Set{
		SMA20:        1,
		SMA50:        2,
		RSI:          55,
		Bollinger:    Bollinger{Upper: 10, Middle: 9, Lower: 8},
		VolumeRatio:  1.5,
		Momentum:     3,
		RateOfChange: 4,
		PriceChange:  5,
		Volatility:   6,
	}

	tests := []struct {
		field  string
		want   float64
		wantOK bool
	}{
		{"sma_20", 1, true},
		{"sma_50", 2, true},
		{"rsi", 55, true},
		{"bollinger.upper", 10, true},
		{"bollinger.middle", 9, true},
		{"bollinger.lower", 8, true},
		{"volume_ratio", 1.5, true},
		{"momentum", 3, true},
		{"rate_of_change", 4, true},
		{"price_change", 5, true},
		{"volatility", 6, true},
		{"bollinger.width", 0, false},
		{"unknown", 0, false},
	}

	for _, tt := range tests {
		got, ok := set.Field(tt.field)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Field(%q) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.wantOK)
		}
	}
}
