package state_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-docstore/pkg/state"
	"github.com/google/go-cmp/cmp"
)

type layered struct {
	Theme    *string
	Limits   map[string]int
	Tags     []string
	Retries  int
	Endpoint *endpointLayer
}

type endpointLayer struct {
	Host *string
	Port *int
}

func ptr[T any](v T) *T { return &v }

func TestMergeFillsNilFromWeakerLayers(t *testing.T) {
	user := layered{
		Limits:   map[string]int{"daily": 5},
		Endpoint: &endpointLayer{Port: ptr(9000)},
	}
	system := layered{
		Theme:    ptr("light"),
		Limits:   map[string]int{"daily": 100, "hourly": 10},
		Tags:     []string{"default"},
		Retries:  3,
		Endpoint: &endpointLayer{Host: ptr("api.local"), Port: ptr(80)},
	}

	got := state.Merge(user, system)
	want := layered{
		Theme:    ptr("light"),
		Limits:   map[string]int{"daily": 5, "hourly": 10},
		Tags:     []string{"default"},
		Retries:  0,
		Endpoint: &endpointLayer{Host: ptr("api.local"), Port: ptr(9000)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}

	*got.Theme = "dark"
	got.Limits["hourly"] = 1
	if *system.Theme != "light" || system.Limits["hourly"] != 10 {
		t.Fatalf("merged value must not share memory with its layers")
	}
}

func TestMergeWithoutLayers(t *testing.T) {
	if got := state.Merge[layered](); !cmp.Equal(got, layered{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	in := layered{Tags: []string{"a"}, Limits: map[string]int{"x": 1}, Endpoint: &endpointLayer{Host: ptr("h")}}
	out := state.Clone(in)
	out.Tags[0] = "b"
	out.Limits["x"] = 2
	*out.Endpoint.Host = "other"
	if in.Tags[0] != "a" || in.Limits["x"] != 1 || *in.Endpoint.Host != "h" {
		t.Fatalf("clone shares memory with its source: %+v", in)
	}
}

func TestResolveMerged(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[layered]()
	system := state.Ref{Domain: "limits", Scope: state.ScopeSystem}
	plugin := state.Ref{Domain: "limits", Scope: state.ScopePlugin, ID: "ocr"}
	user := state.Ref{Domain: "limits", Scope: state.ScopeUser, ID: "alice"}

	if _, err := store.Save(ctx, system, layered{Theme: ptr("light"), Limits: map[string]int{"daily": 100}}, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Save(ctx, user, layered{Limits: map[string]int{"daily": 1}}, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, from, err := state.Resolver[layered]{Store: store}.ResolveMerged(ctx, user, plugin, system)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]state.Ref{user, system}, from); diff != "" {
		t.Fatalf("contributing refs (-want +got):\n%s", diff)
	}
	if *got.Theme != "light" || got.Limits["daily"] != 1 {
		t.Fatalf("unexpected merge %+v", got)
	}
}
