// internal/rule/expr.go
package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a parsed criterion value. The grammar is deliberately closed:
//
//	literal
//	{{name}}
//	{{name}} <op> literal
//
// where <op> is one of + - * /. Anything richer is a validation error, not
// something to interpret at runtime.
type Expr struct {
	kind    exprKind
	literal any     // kindLiteral
	ref     string  // kindRef, kindBinary
	op      byte    // kindBinary
	operand float64 // kindBinary
}

type exprKind int

const (
	kindLiteral exprKind = iota
	kindRef
	kindBinary
)

// ParseExpr parses a criterion value into an Expr. Non-string values and
// strings without a template reference are literals.
func ParseExpr(value any) (*Expr, error) {
	s, ok := value.(string)
	if !ok || !strings.Contains(s, "{{") {
		return &Expr{kind: kindLiteral, literal: value}, nil
	}

	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{{") {
		return nil, fmt.Errorf("template must start with {{: %q", s)
	}
	end := strings.Index(trimmed, "}}")
	if end < 0 {
		return nil, fmt.Errorf("unterminated template reference: %q", s)
	}

	name := strings.TrimSpace(trimmed[2:end])
	if name == "" {
		return nil, fmt.Errorf("empty parameter reference: %q", s)
	}

	rest := strings.TrimSpace(trimmed[end+2:])
	if rest == "" {
		return &Expr{kind: kindRef, ref: name}, nil
	}

	op := rest[0]
	switch op {
	case '+', '-', '*', '/':
	default:
		return nil, fmt.Errorf("unsupported operator %q in %q", string(op), s)
	}

	operandStr := strings.TrimSpace(rest[1:])
	operand, err := strconv.ParseFloat(operandStr, 64)
	if err != nil {
		return nil, fmt.Errorf("operand must be a numeric literal in %q: %w", s, err)
	}
	if op == '/' && operand == 0 {
		return nil, fmt.Errorf("division by zero in %q", s)
	}

	return &Expr{kind: kindBinary, ref: name, op: op, operand: operand}, nil
}

// Eval resolves the expression against a parameter map. A missing or
// non-numeric referenced parameter resolves to 0 rather than failing:
// rule evaluation never throws mid-simulation.
func (e *Expr) Eval(params map[string]any) any {
	switch e.kind {
	case kindLiteral:
		return e.literal
	case kindRef:
		if v, ok := params[e.ref]; ok {
			return v
		}
		return float64(0)
	default:
		base, _ := toFloat(params[e.ref])
		switch e.op {
		case '+':
			return base + e.operand
		case '-':
			return base - e.operand
		case '*':
			return base * e.operand
		default:
			return base / e.operand
		}
	}
}

// toFloat coerces JSON-ish numeric values to float64.
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
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
