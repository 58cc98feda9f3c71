package core

import (
	"testing"
	"time"
)

func TestBar_IsValid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		bar  Bar
		want bool
	}{
		{"valid", Bar{Symbol: "TREND:AI", Timestamp: now, Close: 10.5}, true},
		{"missing symbol", Bar{Timestamp: now, Close: 10.5}, false},
		{"zero time", Bar{Symbol: "TREND:AI", Close: 10.5}, false},
		{"zero close", Bar{Symbol: "TREND:AI", Timestamp: now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bar.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBar_Field(t *testing.T) {
	bar := Bar{
		Open:           1,
		High:           2,
		Low:            0.5,
		Close:          1.5,
		Volume:         1000,
		ViralityScore:  72,
		SentimentScore: 0.6,
		Velocity:       3.2,
		EngagementRate: 0.11,
		MomentumScore:  55,
	}

	tests := []struct {
		field  string
		want   float64
		wantOK bool
	}{
		{"open", 1, true},
		{"high", 2, true},
		{"low", 0.5, true},
		{"close", 1.5, true},
		{"price", 1.5, true},
		{"volume", 1000, true},
		{"virality_score", 72, true},
		{"sentiment_score", 0.6, true},
		{"velocity", 3.2, true},
		{"engagement_rate", 0.11, true},
		{"momentum_score", 55, true},
		{"nope", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := bar.Field(tt.field)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Field(%q) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPeriod_Contains(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	p := Period{Start: start, End: end}

	if !p.Contains(start) {
		t.Error("period should contain its start")
	}
	if !p.Contains(end) {
		t.Error("period should contain its end")
	}
	if !p.Contains(start.AddDate(0, 0, 15)) {
		t.Error("period should contain interior point")
	}
	if p.Contains(start.Add(-time.Second)) {
		t.Error("period should not contain point before start")
	}
	if p.Contains(end.Add(time.Second)) {
		t.Error("period should not contain point after end")
	}
}
