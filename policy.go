package docstore

import (
	"context"
	"sync"
)

// Store is the contract consumers of a document depend on.
type Store[T any] interface {
	Load() T
	LoadAsync(ctx context.Context) <-chan Result[T]
	Set(doc T)
	Save() error
	SaveAsync(ctx context.Context) <-chan error
	Delete() error
	Exists() bool
	IsDefaultData() bool
}

var _ Store[struct{}] = (*Engine[struct{}])(nil)

// SavePolicy decides what a failed save returns to the caller.
type SavePolicy interface {
	HandleSaveError(name string, err error) error
}

// SavePolicyFunc adapts a function to SavePolicy.
type SavePolicyFunc func(name string, err error) error

// HandleSaveError implements SavePolicy.
func (f SavePolicyFunc) HandleSaveError(name string, err error) error {
	if f == nil {
		return err
	}
	return f(name, err)
}

// FailLoud returns save errors unchanged.
var FailLoud SavePolicy = SavePolicyFunc(func(_ string, err error) error {
	return err
})

// LogAndSwallow logs save errors to logger and reports success.
func LogAndSwallow(logger Logger) SavePolicy {
	if logger == nil {
		logger = SlogLogger(nil)
	}
	return SavePolicyFunc(func(name string, err error) error {
		logger.Log(LogEvent{Op: OpSave, Name: name, Err: err, Detail: "save failed, continuing"})
		return nil
	})
}

// Guarded applies a SavePolicy to Save and SaveAsync of an inner store.
type Guarded[T any] struct {
	inner  Store[T]
	policy SavePolicy
}

// Guard wraps inner so save failures go through policy. A nil policy is
// FailLoud.
func Guard[T any](inner Store[T], policy SavePolicy) *Guarded[T] {
	if policy == nil {
		policy = FailLoud
	}
	return &Guarded[T]{inner: inner, policy: policy}
}

var _ Store[struct{}] = (*Guarded[struct{}])(nil)

func (g *Guarded[T]) Load() T                                       { return g.inner.Load() }
func (g *Guarded[T]) LoadAsync(ctx context.Context) <-chan Result[T] { return g.inner.LoadAsync(ctx) }
func (g *Guarded[T]) Set(doc T)                                      { g.inner.Set(doc) }
func (g *Guarded[T]) Delete() error                                  { return g.inner.Delete() }
func (g *Guarded[T]) Exists() bool                                   { return g.inner.Exists() }
func (g *Guarded[T]) IsDefaultData() bool                            { return g.inner.IsDefaultData() }
func (g *Guarded[T]) Name() string                                   { return storeName(g.inner) }

// Save saves the inner store and applies the policy to any failure.
func (g *Guarded[T]) Save() error {
	if err := g.inner.Save(); err != nil {
		return g.policy.HandleSaveError(storeName(g.inner), err)
	}
	return nil
}

// SaveAsync is Save on the inner store's async path.
func (g *Guarded[T]) SaveAsync(ctx context.Context) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		if err := <-g.inner.SaveAsync(ctx); err != nil {
			out <- g.policy.HandleSaveError(storeName(g.inner), err)
			return
		}
		out <- nil
	}()
	return out
}

func storeName(store any) string {
	if named, ok := store.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}

// LockedStore serializes every operation on an inner store.
type LockedStore[T any] struct {
	mu    sync.Mutex
	inner Store[T]
}

// Locked wraps inner with a mutex so concurrent saves cannot race on the
// temp file.
func Locked[T any](inner Store[T]) *LockedStore[T] {
	return &LockedStore[T]{inner: inner}
}

var _ Store[struct{}] = (*LockedStore[struct{}])(nil)

func (l *LockedStore[T]) Load() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Load()
}

func (l *LockedStore[T]) LoadAsync(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		l.mu.Lock()
		defer l.mu.Unlock()
		out <- <-l.inner.LoadAsync(ctx)
	}()
	return out
}

func (l *LockedStore[T]) Set(doc T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Set(doc)
}

func (l *LockedStore[T]) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Save()
}

func (l *LockedStore[T]) SaveAsync(ctx context.Context) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		l.mu.Lock()
		defer l.mu.Unlock()
		out <- <-l.inner.SaveAsync(ctx)
	}()
	return out
}

func (l *LockedStore[T]) Delete() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Delete()
}

func (l *LockedStore[T]) Exists() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Exists()
}

func (l *LockedStore[T]) IsDefaultData() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.IsDefaultData()
}

func (l *LockedStore[T]) Name() string {
	return storeName(l.inner)
}

// Update loads the document, applies fn, and saves the result while holding
// the lock.
func (l *LockedStore[T]) Update(fn func(T) T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Set(fn(l.inner.Load()))
	return l.inner.Save()
}
