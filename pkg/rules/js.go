//go:build js_eval

package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime, interrupted after the configured timeout.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return &jsRule{evaluator: e, program: program, expression: expression}, nil
			}
		}
	}
	program, err := goja.Compile(documentScript, fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return &jsRule{evaluator: e, program: program, expression: expression}, nil
}

const documentScript = "document-rule.js"

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	vm := goja.New()
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx.documentLabel(), err)
		}
	}
	if registry := r.evaluator.registry; registry != nil {
		for _, name := range registry.Names() {
			if err := vm.Set(name, registry.bound(name)); err != nil {
				return nil, wrapEvaluationError("js", r.expression, ctx.documentLabel(), err)
			}
		}
	}
	if r.evaluator.timeout > 0 {
		timer := time.AfterFunc(r.evaluator.timeout, func() { vm.Interrupt(ErrTimeout) })
		defer timer.Stop()
	}

	value, err := vm.RunProgram(r.program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			err = fmt.Errorf("%w after %s", ErrTimeout, r.evaluator.timeout)
		}
		return nil, wrapEvaluationError("js", r.expression, ctx.documentLabel(), err)
	}
	return value.Export(), nil
}

// JSAvailable reports whether the goja-backed evaluator was compiled in.
func JSAvailable() bool {
	return true
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return "js"
	}
	return ""
}
