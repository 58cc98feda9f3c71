package strategy

import "fmt"

// ValidationResult holds the outcome of a definition check
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate checks a strategy's parameters and rules for structural errors.
// It collects every problem instead of stopping at the first.
func Validate(params []Parameter, rules []Rule) ValidationResult {
	var errs []string

	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("parameter %d: name is required", i))
			continue
		}
		if _, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Sprintf("parameter %q: duplicate name", p.Name))
		}
		seen[p.Name] = struct{}{}

		switch p.Type {
		case ParamNumber:
			errs = append(errs, validateNumberBounds(p)...)
		case ParamString, ParamBoolean:
			// No bounds to check
		default:
			errs = append(errs, fmt.Sprintf("parameter %q: unknown type %q", p.Name, p.Type))
		}
	}

	if len(rules) == 0 {
		errs = append(errs, "at least one rule is required")
	}
	for i, r := range rules {
		switch r.Type {
		case RuleBuy, RuleSell, RuleExit:
		default:
			errs = append(errs, fmt.Sprintf("rule %d: unknown type %q", i, r.Type))
		}
		switch r.Condition {
		case CondAnd, CondOr:
		default:
			errs = append(errs, fmt.Sprintf("rule %d: unknown condition %q", i, r.Condition))
		}
		if len(r.Criteria) == 0 {
			errs = append(errs, fmt.Sprintf("rule %d: at least one criterion is required", i))
		}
		for j, c := range r.Criteria {
			if c.Field == "" {
				errs = append(errs, fmt.Sprintf("rule %d criterion %d: field is required", i, j))
			}
			if !ValidOperator(c.Operator) {
				errs = append(errs, fmt.Sprintf("rule %d criterion %d: unknown operator %q", i, j, c.Operator))
			}
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func validateNumberBounds(p Parameter) []string {
	var errs []string

	def, ok := toFloat(p.Default)
	if !ok {
		errs = append(errs, fmt.Sprintf("parameter %q: default must be numeric", p.Name))
		return errs
	}

	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		errs = append(errs, fmt.Sprintf("parameter %q: min %v exceeds max %v", p.Name, *p.Min, *p.Max))
	}
	if p.Min != nil && def < *p.Min {
		errs = append(errs, fmt.Sprintf("parameter %q: default %v below min %v", p.Name, def, *p.Min))
	}
	if p.Max != nil && def > *p.Max {
		errs = append(errs, fmt.Sprintf("parameter %q: default %v above max %v", p.Name, def, *p.Max))
	}
	if p.Step != nil && *p.Step <= 0 {
		errs = append(errs, fmt.Sprintf("parameter %q: step must be positive", p.Name))
	}

	return errs
}

// toFloat coerces the numeric types a JSON decode or config load can
// produce into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
