package docstore

import (
	"context"
	"os"
	"path/filepath"
)

// Scoped is a document bound to <settings dir>/<name><ext>. Load and
// recovery behave exactly as Engine; Save and SaveAsync log failures and
// report success, so a preference write can never fail the caller.
type Scoped[T any] struct {
	engine *Engine[T]
	guard  *Guarded[T]
}

var _ Store[struct{}] = (*Scoped[struct{}])(nil)

// OpenScoped validates name, ensures the settings directory exists and binds
// the document. WithDirectory overrides SettingsDir. Save failures go to the
// configured logger, or to slog.Default when none is set.
func OpenScoped[T any](name string, opts ...Option[T]) (*Scoped[T], error) {
	if err := ValidateName(name); err != nil {
		return nil, &StoreError{Op: OpOpen, Name: name, Err: err}
	}
	cfg := applyOptions(opts)
	dir := cfg.dir
	if dir == "" {
		resolved, err := SettingsDir()
		if err != nil {
			return nil, &StoreError{Op: OpOpen, Name: name, Err: err}
		}
		dir = resolved
	}
	if err := os.MkdirAll(dir, cfg.dirMode); err != nil {
		return nil, &StoreError{Op: OpOpen, Name: name, Path: dir, Err: err}
	}

	logger := cfg.logger
	if _, silent := logger.(noopLogger); silent {
		logger = SlogLogger(nil)
		opts = append(opts, WithLogger[T](logger))
	}

	engine, err := New[T](filepath.Join(dir, name+cfg.codec.Extension()), opts...)
	if err != nil {
		return nil, err
	}
	return &Scoped[T]{
		engine: engine,
		guard:  Guard[T](engine, LogAndSwallow(logger)),
	}, nil
}

// Engine exposes the fail-loud engine underneath.
func (s *Scoped[T]) Engine() *Engine[T] { return s.engine }

func (s *Scoped[T]) Name() string                                   { return s.engine.Name() }
func (s *Scoped[T]) Location() Location                             { return s.engine.Location() }
func (s *Scoped[T]) Load() T                                        { return s.engine.Load() }
func (s *Scoped[T]) LoadAsync(ctx context.Context) <-chan Result[T] { return s.engine.LoadAsync(ctx) }
func (s *Scoped[T]) Set(doc T)                                      { s.engine.Set(doc) }
func (s *Scoped[T]) Save() error                                    { return s.guard.Save() }
func (s *Scoped[T]) SaveAsync(ctx context.Context) <-chan error     { return s.guard.SaveAsync(ctx) }
func (s *Scoped[T]) Delete() error                                  { return s.engine.Delete() }
func (s *Scoped[T]) Exists() bool                                   { return s.engine.Exists() }
func (s *Scoped[T]) IsDefaultData() bool                            { return s.engine.IsDefaultData() }
func (s *Scoped[T]) Reload() T                                      { return s.engine.Reload() }
func (s *Scoped[T]) Invalidate()                                    { s.engine.Invalidate() }
