package core

import "time"

// Interval identifies a bar interval
type Interval string

const (
	Interval1m Interval = "1m"
	Interval5m Interval = "5m"
	Interval1h Interval = "1h"
	Interval1d Interval = "1d"
)

// Bar represents one OHLCV(+sentiment) observation for a symbol
type Bar struct {
	Symbol         string    `json:"symbol"`
	Interval       Interval  `json:"interval"`
	Timestamp      time.Time `json:"timestamp"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         float64   `json:"volume"`
	ViralityScore  float64   `json:"virality_score,omitempty"`
	SentimentScore float64   `json:"sentiment_score,omitempty"`
	Velocity       float64   `json:"velocity,omitempty"`
	EngagementRate float64   `json:"engagement_rate,omitempty"`
	MomentumScore  float64   `json:"momentum_score,omitempty"`
}

// IsValid checks if the bar has required fields
func (b Bar) IsValid() bool {
	return b.Symbol != "" && !b.Timestamp.IsZero() && b.Close > 0
}

// Field returns a raw bar field by name, with ok=false for unknown names.
// Names match the JSON field names used on the wire surface.
func (b Bar) Field(name string) (float64, bool) {
	switch name {
	case "open":
		return b.Open, true
	case "high":
		return b.High, true
	case "low":
		return b.Low, true
	case "close", "price":
		return b.Close, true
	case "volume":
		return b.Volume, true
	case "virality_score":
		return b.ViralityScore, true
	case "sentiment_score":
		return b.SentimentScore, true
	case "velocity":
		return b.Velocity, true
	case "engagement_rate":
		return b.EngagementRate, true
	case "momentum_score":
		return b.MomentumScore, true
	}
	return 0, false
}

// SignalType represents a trading signal action
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalExit SignalType = "EXIT"
)

// Signal represents a rule firing at a specific bar
type Signal struct {
	Type            SignalType `json:"type"`
	Symbol          string     `json:"symbol"`
	Timestamp       time.Time  `json:"timestamp"`
	Price           float64    `json:"price"`
	Strategy        string     `json:"strategy,omitempty"`
	MatchedCriteria []string   `json:"matched_criteria,omitempty"`
}

// Period is a closed time range over which bars are loaded
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period (inclusive)
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}
