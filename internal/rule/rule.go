package rule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maja42/goval"

	"papertrade/internal/quote"
)

// TrueThreshold is the boolean convention for rule results: a rule is
// considered true when its numeric value is at or above this level.
const TrueThreshold = 0.5

// ErrEvaluation indicates a rule failed to evaluate (bad syntax, bad
// operand types, division by zero, ...). It is distinguishable from
// quote.ErrMissingQuote, which signals absent price data rather than a
// defect in the rule itself.
var ErrEvaluation = errors.New("rule evaluation failed")

// Variables are the bindings exposed to a rule, e.g. "held" or "order".
type Variables map[string]interface{}

// Rule is a numeric expression over quote data and bound variables.
//
// Quote access is through the functions open(), high(), low(), close()
// and volume(), each taking an optional day lag relative to the
// evaluation offset: close() is the as-of day's close, close(1) the
// day before, and so on.
type Rule struct {
	expr string
}

func New(expr string) (*Rule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrEvaluation)
	}
	return &Rule{expr: expr}, nil
}

func (r *Rule) String() string {
	return r.expr
}

// Evaluate computes the rule's numeric value for symbol as of the given
// day offset. A missing quote reached through a quote function is
// reported as quote.ErrMissingQuote; every other failure is reported as
// ErrEvaluation.
func (r *Rule) Evaluate(vars Variables, src quote.Source, symbol string, offset int) (float64, error) {
	variables := map[string]interface{}{}
	for name, value := range vars {
		variables[name] = value
	}

	var missingQuote error
	functions := map[string]goval.ExpressionFunction{}
	for name, field := range map[string]quote.Field{
		"open":   quote.FieldOpen,
		"high":   quote.FieldHigh,
		"low":    quote.FieldLow,
		"close":  quote.FieldClose,
		"volume": quote.FieldVolume,
	} {
		field := field
		functions[name] = func(args ...interface{}) (interface{}, error) {
			lag := 0
			if len(args) > 1 {
				return nil, fmt.Errorf("quote function takes at most 1 arg, got %d", len(args))
			}
			if len(args) == 1 {
				var err error
				lag, err = toInt(args[0])
				if err != nil {
					return nil, err
				}
			}
			value, err := src.Quote(symbol, field, offset-lag)
			if err != nil {
				if errors.Is(err, quote.ErrMissingQuote) {
					missingQuote = err
				}
				return nil, err
			}
			return value, nil
		}
	}

	result, err := goval.NewEvaluator().Evaluate(r.expr, variables, functions)
	if err != nil {
		// goval does not guarantee error wrapping, so the missing-quote
		// condition is carried out of the closure explicitly.
		if missingQuote != nil {
			return 0, missingQuote
		}
		return 0, fmt.Errorf("%w: %q: %v", ErrEvaluation, r.expr, err)
	}

	value, err := toFloat(result)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrEvaluation, r.expr, err)
	}
	return value, nil
}

// EvaluateBool reports whether the rule evaluates true under the
// TrueThreshold convention.
func (r *Rule) EvaluateBool(vars Variables, src quote.Source, symbol string, offset int) (bool, error) {
	value, err := r.Evaluate(vars, src, symbol, offset)
	if err != nil {
		return false, err
	}
	return value >= TrueThreshold, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected numeric arg, got %T", v)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("non-numeric result of type %T", v)
}
