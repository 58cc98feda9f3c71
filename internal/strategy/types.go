package strategy

import (
	"strconv"
	"time"
)

// ParamType is the declared type of a strategy parameter
type ParamType string

const (
	ParamNumber  ParamType = "number"
	ParamString  ParamType = "string"
	ParamBoolean ParamType = "boolean"
)

// Parameter declares one tunable strategy input
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Default     any       `json:"default"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Step        *float64  `json:"step,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Operator is a criterion comparison operator
type Operator string

const (
	OpGT       Operator = ">"
	OpLT       Operator = "<"
	OpGTE      Operator = ">="
	OpLTE      Operator = "<="
	OpEQ       Operator = "=="
	OpNEQ      Operator = "!="
	OpContains Operator = "contains"
)

// ValidOperator reports whether op is a known operator
func ValidOperator(op Operator) bool {
	switch op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ, OpContains:
		return true
	}
	return false
}

// Criterion is one field-operator-value check. Value may be a literal or a
// template string referencing a parameter ("{{name}}"), optionally followed
// by a single scalar arithmetic suffix ("{{name}} * 0.8").
type Criterion struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// RuleType is the signal a rule emits when it fires
type RuleType string

const (
	RuleBuy  RuleType = "BUY"
	RuleSell RuleType = "SELL"
	RuleExit RuleType = "EXIT"
)

// Condition joins a rule's criteria
type Condition string

const (
	CondAnd Condition = "AND"
	CondOr  Condition = "OR"
)

// Rule is an AND/OR group of criteria emitting one signal type
type Rule struct {
	Type      RuleType    `json:"type"`
	Condition Condition   `json:"condition"`
	Criteria  []Criterion `json:"criteria"`
}

// Strategy is a declarative trading strategy definition
type Strategy struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category"`
	Parameters  []Parameter    `json:"parameters"`
	Rules       []Rule         `json:"rules"`
	IsActive    bool           `json:"is_active"`
	IsPublic    bool           `json:"is_public"`
	OwnerID     string         `json:"owner_id,omitempty"`
	Version     string         `json:"version"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// IsSystem reports whether the strategy is a built-in system strategy.
// System strategies have no owner and are never persisted or mutated.
func (s *Strategy) IsSystem() bool {
	return s.OwnerID == ""
}

// Clone returns a deep copy of the strategy. The copy shares no slices,
// maps or bound pointers with the original, so callers may mutate it
// freely.
func (s *Strategy) Clone() *Strategy {
	cp := *s

	if s.Parameters != nil {
		cp.Parameters = make([]Parameter, len(s.Parameters))
		for i, p := range s.Parameters {
			p.Min = cloneFloat(p.Min)
			p.Max = cloneFloat(p.Max)
			p.Step = cloneFloat(p.Step)
			cp.Parameters[i] = p
		}
	}
	if s.Rules != nil {
		cp.Rules = make([]Rule, len(s.Rules))
		for i, r := range s.Rules {
			r.Criteria = append([]Criterion(nil), r.Criteria...)
			cp.Rules[i] = r
		}
	}
	if s.Metadata != nil {
		cp.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// DefaultParams returns the declared default value for every parameter
func (s *Strategy) DefaultParams() map[string]any {
	params := make(map[string]any, len(s.Parameters))
	for _, p := range s.Parameters {
		params[p.Name] = p.Default
	}
	return params
}

// bumpVersion increments a numeric version string. A non-numeric legacy
// version is treated as 1 so the bump still moves forward, never back.
func bumpVersion(v string) string {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		n = 1
	}
	return strconv.Itoa(n + 1)
}
