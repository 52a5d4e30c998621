package rules

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

func proxySnapshot() map[string]any {
	return map[string]any{
		"isEnabled":    true,
		"proxyType":    "http",
		"proxyAddress": "127.0.0.1",
		"proxyPort":    int64(8080),
	}
}

func TestEvaluatorsCheckBooleanRules(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(NewMapCache(), nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not compiled in", factory.name)
			}
			ctx := RuleContext{Snapshot: proxySnapshot(), Document: "ProxySettings"}

			ok, err := Check(evaluator, ctx, `proxyPort > 0 && proxyPort < 65536`)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if !ok {
				t.Fatalf("expected rule to pass")
			}

			ok, err = Check(evaluator, ctx, `proxyPort > 9000`)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if ok {
				t.Fatalf("expected rule to fail")
			}
		})
	}
}

func TestCheckRejectsNonBoolean(t *testing.T) {
	ctx := RuleContext{Snapshot: proxySnapshot(), Document: "ProxySettings"}
	_, err := Check(NewExprEvaluator(), ctx, `proxyAddress`)
	if !errors.Is(err, ErrNotBoolean) {
		t.Fatalf("expected ErrNotBoolean, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Document != "ProxySettings" {
		t.Fatalf("expected EvaluationError with document metadata, got %v", err)
	}
}

func TestEvaluatorsRejectEmptyExpression(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not compiled in", factory.name)
			}
			if _, err := evaluator.Evaluate(RuleContext{}, ""); err == nil {
				t.Fatalf("expected empty expression error")
			}
			if _, err := evaluator.Compile(""); err == nil {
				t.Fatalf("expected empty expression compile error")
			}
		})
	}
}

func TestExprCompiledRuleUsesRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isLoopback", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("isLoopback expects one argument")
		}
		host, _ := args[0].(string)
		return strings.HasPrefix(host, "127."), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cache := NewMapCache()
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry))
	rule, err := evaluator.Compile(`isLoopback(proxyAddress)`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, ok := cache.Get(`isLoopback(proxyAddress)`); !ok {
		t.Fatalf("expected compiled program to be cached")
	}
	value, err := rule.Evaluate(RuleContext{Snapshot: proxySnapshot()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if value != true {
		t.Fatalf("expected true, got %v", value)
	}
}

func TestCELCallBinding(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("upper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	evaluator := NewCELEvaluator(CELWithFunctionRegistry(registry))
	ok, err := Check(evaluator, RuleContext{Snapshot: proxySnapshot()}, `call("upper", [proxyType]) == "HTTP"`)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatalf("expected call binding to uppercase the proxy type")
	}
}

func TestFunctionRegistryGuards(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }
	if err := registry.Register("", noop); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := registry.Register("fn", nil); err == nil {
		t.Fatalf("expected nil function error")
	}
	if err := registry.Register("Fn", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("fn", noop); err == nil {
		t.Fatalf("expected duplicate (case-insensitive) error")
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected missing function error")
	}
	clone := registry.Clone()
	if got := clone.Names(); len(got) != 1 || got[0] != "fn" {
		t.Fatalf("unexpected clone names %v", got)
	}
}

func TestEngineName(t *testing.T) {
	if got := EngineName(NewExprEvaluator()); got != "expr" {
		t.Fatalf("expr engine name = %q", got)
	}
	if got := EngineName(NewCELEvaluator()); got != "cel" {
		t.Fatalf("cel engine name = %q", got)
	}
	if got := EngineName(nil); got != "unknown" {
		t.Fatalf("nil engine name = %q", got)
	}
}

func TestEvaluatorsBindDocumentAndPath(t *testing.T) {
	for _, factory := range evaluatorFactories {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not compiled in", factory.name)
			}
			ctx := RuleContext{
				Snapshot: proxySnapshot(),
				Document: "ProxySettings",
				Path:     "/etc/docstore/ProxySettings.json",
			}
			ok, err := Check(evaluator, ctx, `document == "ProxySettings" && path == "/etc/docstore/ProxySettings.json"`)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if !ok {
				t.Fatalf("expected document and path bound")
			}
		})
	}
}

func TestSnapshotFieldsShadowBindings(t *testing.T) {
	ctx := RuleContext{Snapshot: map[string]any{"path": "C:/proxy.pac"}, Path: "/ignored"}
	ok, err := Check(NewExprEvaluator(), ctx, `path == "C:/proxy.pac"`)
	if err != nil || !ok {
		t.Fatalf("expected document field to win, got %v %v", ok, err)
	}
}

func TestSetReportsFirstViolation(t *testing.T) {
	cache := NewMapCache()
	set, err := NewSet(NewExprEvaluator(ExprWithProgramCache(cache)),
		Rule{Name: "port", Expr: `proxyPort > 0`},
		Rule{Name: "loopback", Expr: `proxyAddress != "127.0.0.1"`},
		Rule{Name: "never reached", Expr: `false`},
	)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected three rules, got %d", set.Len())
	}
	if _, ok := cache.Get(`proxyPort > 0`); !ok {
		t.Fatalf("expected rules compiled up front")
	}

	err = set.Check(RuleContext{Snapshot: proxySnapshot(), Document: "ProxySettings"})
	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("expected Violation, got %v", err)
	}
	if violation.Rule.Name != "loopback" || violation.Document != "ProxySettings" {
		t.Fatalf("unexpected violation %+v", violation)
	}

	snapshot := proxySnapshot()
	snapshot["proxyAddress"] = "10.0.0.1"
	err = set.Check(RuleContext{Snapshot: snapshot})
	if !errors.As(err, &violation) || violation.Rule.Name != "never reached" {
		t.Fatalf("expected the last rule to fail, got %v", err)
	}
}

func TestNewSetRejectsInvalidExpression(t *testing.T) {
	if _, err := NewSet(nil, Rule{Name: "broken", Expr: `proxyPort >`}); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := NewSet(nil, Rule{Name: "empty"}); err == nil {
		t.Fatalf("expected empty expression error")
	}
}

func TestJSRuleTimeout(t *testing.T) {
	if !JSAvailable() {
		t.Skip("js evaluator not compiled in")
	}
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{Document: "ProxySettings"}, `(function(){ for(;;){} })()`)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
