// Package rules checks decoded documents against boolean expressions.
// Evaluators are backed by expr-lang/expr, cel-go, and (behind the js_eval
// build tag) goja, and share a FunctionRegistry and ProgramCache.
//
// A rule sees the top-level fields of the document's JSON form as variables,
// plus document (the document name), path (the file being checked) and now.
// A document field with one of those names shadows it.
package rules

import "time"

// RuleContext is the document a rule is checked against.
type RuleContext struct {
	Snapshot map[string]any
	Document string
	Path     string
	Now      time.Time
}

// bindings returns the variables a rule can reference.
func (ctx RuleContext) bindings() map[string]any {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	vars := make(map[string]any, len(ctx.Snapshot)+3)
	vars["now"] = now
	vars["document"] = ctx.Document
	vars["path"] = ctx.Path
	for key, value := range ctx.Snapshot {
		vars[key] = value
	}
	return vars
}

func (ctx RuleContext) documentLabel() string {
	if ctx.Document != "" {
		return ctx.Document
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is an expression parsed once and evaluated per document.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// EngineName reports the backend behind e.
func EngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}
