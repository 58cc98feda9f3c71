package strategy

// Built-in system strategies. They are compile-time constants with no
// owner: always available, never persisted, never mutable. A persisted
// strategy with the same id shadows the built-in.

func floatPtr(v float64) *float64 { return &v }

var systemStrategies = map[string]*Strategy{
	"trend_momentum": {
		ID:          "trend_momentum",
		Name:        "Trend Momentum",
		Description: "Enters when a trend's momentum score breaks above the virality threshold and exits once it decays below 80% of it",
		Category:    "momentum",
		Parameters: []Parameter{
			{
				Name:        "minViralityScore",
				Type:        ParamNumber,
				Default:     70.0,
				Min:         floatPtr(0),
				Max:         floatPtr(100),
				Step:        floatPtr(5),
				Description: "Momentum score a trend must exceed before entry",
			},
			{
				Name:        "minVolumeRatio",
				Type:        ParamNumber,
				Default:     0.0,
				Min:         floatPtr(0),
				Max:         floatPtr(5),
				Step:        floatPtr(0.25),
				Description: "Minimum volume relative to its 20-bar average",
			},
		},
		Rules: []Rule{
			{
				Type:      RuleBuy,
				Condition: CondAnd,
				Criteria: []Criterion{
					{Field: "momentum_score", Operator: OpGT, Value: "{{minViralityScore}}"},
					{Field: "volume_ratio", Operator: OpGTE, Value: "{{minVolumeRatio}}"},
				},
			},
			{
				Type:      RuleSell,
				Condition: CondOr,
				Criteria: []Criterion{
					{Field: "momentum_score", Operator: OpLT, Value: "{{minViralityScore}} * 0.8"},
				},
			},
		},
		IsActive: true,
		IsPublic: true,
		Version:  "1",
	},
	"sentiment_reversal": {
		ID:          "sentiment_reversal",
		Name:        "Sentiment Reversal",
		Description: "Buys oversold symbols whose sentiment has already turned positive, exits on overbought RSI",
		Category:    "mean_reversion",
		Parameters: []Parameter{
			{
				Name:        "oversoldRSI",
				Type:        ParamNumber,
				Default:     30.0,
				Min:         floatPtr(5),
				Max:         floatPtr(50),
				Step:        floatPtr(5),
				Description: "RSI level treated as oversold",
			},
			{
				Name:        "overboughtRSI",
				Type:        ParamNumber,
				Default:     70.0,
				Min:         floatPtr(50),
				Max:         floatPtr(95),
				Step:        floatPtr(5),
				Description: "RSI level treated as overbought",
			},
			{
				Name:        "sentimentFloor",
				Type:        ParamNumber,
				Default:     0.0,
				Min:         floatPtr(-1),
				Max:         floatPtr(1),
				Step:        floatPtr(0.1),
				Description: "Minimum sentiment score required for entry",
			},
		},
		Rules: []Rule{
			{
				Type:      RuleBuy,
				Condition: CondAnd,
				Criteria: []Criterion{
					{Field: "rsi", Operator: OpLT, Value: "{{oversoldRSI}}"},
					{Field: "sentiment_score", Operator: OpGT, Value: "{{sentimentFloor}}"},
				},
			},
			{
				Type:      RuleSell,
				Condition: CondOr,
				Criteria: []Criterion{
					{Field: "rsi", Operator: OpGT, Value: "{{overboughtRSI}}"},
				},
			},
		},
		IsActive: true,
		IsPublic: true,
		Version:  "1",
	},
}

// SystemStrategy returns a deep copy of the built-in strategy with the
// given id, if one exists. Copies keep callers from mutating the
// constants, including through the nested rule and parameter slices.
func SystemStrategy(id string) (*Strategy, bool) {
	s, ok := systemStrategies[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// SystemStrategies returns copies of all built-in strategies.
func SystemStrategies() []*Strategy {
	out := make([]*Strategy, 0, len(systemStrategies))
	for _, id := range []string{"trend_momentum", "sentiment_reversal"} {
		s, _ := SystemStrategy(id)
		out = append(out, s)
	}
	return out
}
