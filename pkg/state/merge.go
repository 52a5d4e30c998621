package state

import (
	"context"
	"fmt"
	"reflect"
)

// Merge overlays snapshots ordered from strongest to weakest. Nil pointers,
// maps, slices and interfaces in a stronger snapshot are filled from weaker
// ones and maps are merged key by key; every other value is taken from the
// strongest snapshot as is. The result shares no memory with its inputs.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	merged := deepCopy(reflect.ValueOf(&layers[len(layers)-1]).Elem())
	for i := len(layers) - 2; i >= 0; i-- {
		merged = overlay(reflect.ValueOf(&layers[i]).Elem(), merged)
	}
	if !merged.IsValid() {
		return zero
	}
	out, _ := merged.Interface().(T)
	return out
}

// ResolveMerged loads every ref, strongest first, and merges the snapshots
// found. from lists the refs that contributed, in the order given.
func (r Resolver[T]) ResolveMerged(ctx context.Context, refs ...Ref) (snapshot T, from []Ref, err error) {
	if r.Store == nil {
		return snapshot, nil, fmt.Errorf("state: store is required")
	}
	var layers []T
	for _, ref := range refs {
		value, _, found, err := r.Store.Load(ctx, ref)
		if err != nil {
			return snapshot, nil, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope, err)
		}
		if found {
			layers = append(layers, value)
			from = append(from, ref)
		}
	}
	return Merge(layers...), from, nil
}

// Clone returns a deep copy of v.
func Clone[T any](v T) T {
	out, _ := deepCopy(reflect.ValueOf(&v).Elem()).Interface().(T)
	return out
}

func overlay(strong, weak reflect.Value) reflect.Value {
	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		var weakElem reflect.Value
		if weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(overlay(strong.Elem(), orZero(weakElem, strong.Type().Elem())))
		return out
	case reflect.Interface:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		var weakElem reflect.Value
		if !weak.IsNil() && weak.Elem().Type() == strong.Elem().Type() {
			weakElem = weak.Elem()
		}
		out := reflect.New(strong.Type()).Elem()
		out.Set(overlay(strong.Elem(), orZero(weakElem, strong.Elem().Type())))
		return out
	case reflect.Struct:
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(overlay(strong.Field(i), weak.Field(i)))
		}
		return out
	case reflect.Map:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			if existing := out.MapIndex(iter.Key()); existing.IsValid() {
				out.SetMapIndex(iter.Key(), overlay(iter.Value(), existing))
				continue
			}
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		return deepCopy(strong)
	default:
		return deepCopy(strong)
	}
}

func orZero(v reflect.Value, typ reflect.Type) reflect.Value {
	if v.IsValid() {
		return v
	}
	return reflect.Zero(typ)
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		out := reflect.New(v.Type()).Elem()
		if !v.IsNil() {
			out.Set(deepCopy(v.Elem()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
