package rule

import (
	"fmt"
	"strings"

	"github.com/trendsim/trendsim/internal/core"
	"github.com/trendsim/trendsim/internal/indicator"
	"github.com/trendsim/trendsim/internal/strategy"
)

// RuleSet is a compiled set of strategy rules ready for per-bar evaluation.
// Compiling parses every criterion's value template exactly once.
type RuleSet struct {
	rules []compiledRule
}

type compiledRule struct {
	ruleType  strategy.RuleType
	condition strategy.Condition
	criteria  []compiledCriterion
}

type compiledCriterion struct {
	field    string
	operator strategy.Operator
	expr     *Expr
	label    string
}

// Compile parses the rules' value templates into a RuleSet. Template
// errors are validation failures and surface here, before any simulation.
func Compile(rules []strategy.Rule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		cr := compiledRule{ruleType: r.Type, condition: r.Condition}
		for j, c := range r.Criteria {
			expr, err := ParseExpr(c.Value)
			if err != nil {
				return nil, core.WrapError(core.ErrValidation,
					fmt.Errorf("rule %d criterion %d: %w", i, j, err))
			}
			cr.criteria = append(cr.criteria, compiledCriterion{
				field:    c.Field,
				operator: c.Operator,
				expr:     expr,
				label:    fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value),
			})
		}
		compiled = append(compiled, cr)
	}
	return &RuleSet{rules: compiled}, nil
}

// Evaluate runs every rule against one bar plus its indicator set and
// returns one signal per firing rule. It never fails: unresolved fields
// read as 0 and missing parameters resolve to 0.
func (rs *RuleSet) Evaluate(bar core.Bar, ind indicator.Set, params map[string]any) []core.Signal {
	var signals []core.Signal

	for _, r := range rs.rules {
		matched := evaluateRule(r, bar, ind, params)
		if len(matched) == 0 {
			continue
		}
		signals = append(signals, core.Signal{
			Type:            core.SignalType(r.ruleType),
			Symbol:          bar.Symbol,
			Timestamp:       bar.Timestamp,
			Price:           bar.Close,
			MatchedCriteria: matched,
		})
	}

	return signals
}

// evaluateRule returns the labels of matched criteria when the rule fires,
// nil otherwise. AND requires all criteria, OR requires at least one.
func evaluateRule(r compiledRule, bar core.Bar, ind indicator.Set, params map[string]any) []string {
	var matched []string
	for _, c := range r.criteria {
		fieldVal := resolveField(c.field, bar, ind)
		if compare(fieldVal, c.operator, c.expr.Eval(params)) {
			matched = append(matched, c.label)
		} else if r.condition == strategy.CondAnd {
			return nil
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return matched
}

// resolveField looks a field up by name: raw bar field first, then
// indicator (including dotted paths). Unknown fields read as 0.
func resolveField(name string, bar core.Bar, ind indicator.Set) float64 {
	if v, ok := bar.Field(name); ok {
		return v
	}
	if v, ok := ind.Field(name); ok {
		return v
	}
	return 0
}

// compare applies the operator with numeric semantics when the resolved
// value is numeric, string semantics otherwise.
func compare(field float64, op strategy.Operator, value any) bool {
	if num, ok := toFloat(value); ok {
		switch op {
		case strategy.OpGT:
			return field > num
		case strategy.OpLT:
			return field < num
		case strategy.OpGTE:
			return field >= num
		case strategy.OpLTE:
			return field <= num
		case strategy.OpEQ:
			return field == num
		case strategy.OpNEQ:
			return field != num
		case strategy.OpContains:
			return strings.Contains(formatFloat(field), formatFloat(num))
		}
		return false
	}

	str, ok := value.(string)
	if !ok {
		return false
	}
	fieldStr := formatFloat(field)
	switch op {
	case strategy.OpEQ:
		return fieldStr == str
	case strategy.OpNEQ:
		return fieldStr != str
	case strategy.OpContains:
		return strings.Contains(fieldStr, str)
	}
	return false
}

func formatFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
}
