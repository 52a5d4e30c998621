package rules

import "fmt"

// Rule names a boolean expression that a document must satisfy.
type Rule struct {
	Name string
	Expr string
}

func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return "<unnamed>"
}

// Violation reports a rule that evaluated to false.
type Violation struct {
	Rule     Rule
	Document string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("rules: %s rule %s failed: %s", v.Document, v.Rule.label(), v.Rule.Expr)
}

// Check evaluates expr once and requires a boolean result.
func Check(evaluator Evaluator, ctx RuleContext, expr string) (bool, error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	value, err := evaluator.Evaluate(ctx, expr)
	if err != nil {
		return false, err
	}
	return asBool(EngineName(evaluator), expr, ctx, value)
}

// Set is a list of rules compiled once and checked against many documents.
type Set struct {
	engine   string
	rules    []Rule
	compiled []CompiledRule
}

// NewSet compiles every rule with evaluator; nil uses expr with a cache.
func NewSet(evaluator Evaluator, list ...Rule) (*Set, error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator(ExprWithProgramCache(NewMapCache()))
	}
	set := &Set{engine: EngineName(evaluator), rules: list}
	for _, rule := range list {
		compiled, err := evaluator.Compile(rule.Expr)
		if err != nil {
			return nil, fmt.Errorf("rules: compile %s: %w", rule.label(), err)
		}
		set.compiled = append(set.compiled, compiled)
	}
	return set, nil
}

// Len returns the number of rules in the set.
func (s *Set) Len() int {
	return len(s.rules)
}

// Check evaluates the rules in order and stops at the first failure, which
// is a *Violation when the rule returned false.
func (s *Set) Check(ctx RuleContext) error {
	for i, rule := range s.compiled {
		value, err := rule.Evaluate(ctx)
		if err != nil {
			return err
		}
		ok, err := asBool(s.engine, s.rules[i].Expr, ctx, value)
		if err != nil {
			return err
		}
		if !ok {
			return &Violation{Rule: s.rules[i], Document: ctx.documentLabel()}
		}
	}
	return nil
}

func asBool(engine, expr string, ctx RuleContext, value any) (bool, error) {
	ok, isBool := value.(bool)
	if !isBool {
		return false, wrapEvaluationError(engine, expr, ctx.documentLabel(),
			fmt.Errorf("%w: got %T", ErrNotBoolean, value))
	}
	return ok, nil
}
