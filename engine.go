package docstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-docstore/internal/atomicfile"
	"github.com/goliatone/go-docstore/pkg/activity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Result carries the outcome of an asynchronous load.
type Result[T any] struct {
	Value T
	Err   error
}

// Engine persists a single document of type T at one Location.
//
// Load never fails: unreadable data is recovered from the backup or
// replaced by a default document. Save, SaveAsync and Delete return every
// failure as a *StoreError. The cached document is replaced wholesale and
// never mutated by the engine. Concurrent saves are not serialized: one write
// can be lost, and on Linux an interleaved save can swap the previous primary
// back in after another save has returned. Wrap the engine with Locked when
// saves may overlap.
type Engine[T any] struct {
	name    string
	loc     Location
	cfg     config[T]
	emitter *activity.Emitter

	mu          sync.RWMutex
	cached      *T
	defaultData bool

	loads singleflight.Group
}

// New binds an engine to primary and creates its directory.
func New[T any](primary string, opts ...Option[T]) (*Engine[T], error) {
	if strings.TrimSpace(primary) == "" {
		return nil, &StoreError{Op: OpOpen, Err: ErrInvalidName}
	}
	cfg := applyOptions(opts)
	loc := NewLocation(primary)
	e := &Engine[T]{
		name:    loc.Stem(),
		loc:     loc,
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{Enabled: true, Channel: cfg.channel}),
	}
	if err := e.ensureDir(OpOpen); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns the logical document name, the primary file stem.
func (e *Engine[T]) Name() string {
	return e.name
}

// Location returns the paths backing the document.
func (e *Engine[T]) Location() Location {
	return e.loc
}

// Load returns the cached document, reading it from disk on first use.
func (e *Engine[T]) Load() T {
	doc, _ := e.LoadContext(context.Background())
	return doc
}

// LoadContext is Load with cancellation. ctx is only honored until the
// read starts; the returned error always wraps ErrCanceled and ctx.Err().
// Concurrent first loads share one read.
func (e *Engine[T]) LoadContext(ctx context.Context) (T, error) {
	if doc, ok := e.cachedDoc(); ok {
		return doc, nil
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, canceled(err)
	}
	ch := e.loads.DoChan("load", func() (any, error) {
		if doc, ok := e.cachedDoc(); ok {
			return doc, nil
		}
		return e.load(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		doc, _ := res.Val.(T)
		return doc, nil
	case <-ctx.Done():
		var zero T
		return zero, canceled(ctx.Err())
	}
}

// LoadAsync runs LoadContext on its own goroutine.
func (e *Engine[T]) LoadAsync(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		doc, err := e.LoadContext(ctx)
		out <- Result[T]{Value: doc, Err: err}
	}()
	return out
}

// Set replaces the cached document. Documents are values, so changes made
// to a loaded copy must be handed back through Set before Save.
func (e *Engine[T]) Set(doc T) {
	e.mu.Lock()
	e.cached = &doc
	e.mu.Unlock()
}

// Invalidate drops the cached document so the next Load reads from disk.
func (e *Engine[T]) Invalidate() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
}

// Reload invalidates the cache and loads the document again.
func (e *Engine[T]) Reload() T {
	e.Invalidate()
	return e.Load()
}

// Exists reports whether the primary file is present on disk.
func (e *Engine[T]) Exists() bool {
	_, err := os.Stat(e.loc.Primary)
	return err == nil
}

// IsDefaultData reports whether the most recent load constructed a default
// document because no primary file existed.
func (e *Engine[T]) IsDefaultData() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultData
}

// Save persists the cached document. When nothing was loaded or set, the
// default document is cached and saved.
func (e *Engine[T]) Save() error {
	return e.save(context.Background())
}

// SaveContext is Save with cancellation, honored only before any I/O. Once
// the temp file is being written the save runs to completion.
func (e *Engine[T]) SaveContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	return e.save(context.WithoutCancel(ctx))
}

// SaveAsync runs SaveContext on its own goroutine.
func (e *Engine[T]) SaveAsync(ctx context.Context) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- e.SaveContext(ctx)
	}()
	return out
}

func (e *Engine[T]) save(ctx context.Context) (err error) {
	start := e.cfg.clock()
	ctx, span := e.startSpan(ctx, "docstore.save")
	defer func() {
		endSpan(span, err)
		if err != nil {
			e.record(ctx, outcome{op: OpSave, build: activity.BuildSaveFailedEvent, err: err, start: start})
			return
		}
		e.record(ctx, outcome{op: OpSave, build: activity.BuildSavedEvent, start: start})
	}()

	doc := e.documentForSave()
	if err := e.ensureDir(OpSave); err != nil {
		return err
	}
	data, err := e.cfg.codec.Encode(&doc)
	if err != nil {
		return e.storeErr(OpSave, e.loc.Primary, err)
	}
	if err := atomicfile.WriteFile(e.loc.Temp, data, e.cfg.fileMode); err != nil {
		return e.storeErr(OpSave, e.loc.Temp, err)
	}
	if err := atomicfile.Replace(e.loc.Temp, e.loc.Primary, e.loc.Backup); err != nil {
		return e.storeErr(OpSave, e.loc.Primary, err)
	}
	span.SetAttributes(attribute.Int("docstore.bytes", len(data)))
	return nil
}

// Delete removes the primary, backup and temp files. Missing files are not
// an error and the cached document is left in place.
func (e *Engine[T]) Delete() (err error) {
	ctx, span := e.startSpan(context.Background(), "docstore.delete")
	defer func() { endSpan(span, err) }()

	var errs []error
	for _, path := range e.loc.Paths() {
		if rmErr := atomicfile.RemoveIfExists(path); rmErr != nil {
			errs = append(errs, rmErr)
		}
	}
	if joined := errors.Join(errs...); joined != nil {
		err = e.storeErr(OpDelete, e.loc.Primary, joined)
		e.record(ctx, outcome{op: OpDelete, err: err})
		return err
	}
	e.record(ctx, outcome{op: OpDelete, build: activity.BuildDeletedEvent})
	return nil
}

func (e *Engine[T]) load(ctx context.Context) T {
	start := e.cfg.clock()
	ctx, span := e.startSpan(ctx, "docstore.load")
	defer span.End()

	data, err := os.ReadFile(e.loc.Primary)
	switch {
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return e.recoverFrom(ctx, span, reasonCorrupt, err, start)
	case len(data) == 0:
		return e.recoverFrom(ctx, span, reasonMissing, nil, start)
	}

	doc, err := e.decode(e.loc.Primary, data)
	if err != nil {
		return e.recoverFrom(ctx, span, reasonCorrupt, err, start)
	}
	e.store(doc, false)
	span.SetAttributes(attribute.String("docstore.outcome", "loaded"))
	e.record(ctx, outcome{op: OpLoad, build: activity.BuildLoadedEvent, start: start})
	return doc
}

// decode reads data over a default document, so fields absent from the file
// keep their default values.
func (e *Engine[T]) decode(path string, data []byte) (T, error) {
	if e.cfg.codec.IsNull(data) {
		var zero T
		return zero, ErrNullDocument
	}
	doc := e.newDefault()
	if err := e.cfg.codec.Decode(data, &doc); err != nil {
		return doc, err
	}
	if isNil(&doc) {
		return doc, ErrNullDocument
	}
	candidate := Candidate{Name: e.name, Path: path, Raw: data, Doc: &doc}
	if err := runValidators(e.cfg.validators, candidate); err != nil {
		return doc, err
	}
	return doc, nil
}

func (e *Engine[T]) newDefault() T {
	if e.cfg.defaults != nil {
		return e.cfg.defaults()
	}
	var doc T
	if rt := reflect.TypeFor[T](); rt.Kind() == reflect.Pointer {
		doc = reflect.New(rt.Elem()).Interface().(T)
		if d, ok := any(doc).(interface{ SetDefaults() }); ok {
			d.SetDefaults()
		}
		return doc
	}
	if d, ok := any(&doc).(interface{ SetDefaults() }); ok {
		d.SetDefaults()
	}
	return doc
}

func (e *Engine[T]) cachedDoc() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cached == nil {
		var zero T
		return zero, false
	}
	return *e.cached, true
}

func (e *Engine[T]) store(doc T, defaultData bool) {
	e.mu.Lock()
	e.cached = &doc
	e.defaultData = defaultData
	e.mu.Unlock()
}

func (e *Engine[T]) documentForSave() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached == nil {
		doc := e.newDefault()
		e.cached = &doc
	}
	return *e.cached
}

func (e *Engine[T]) ensureDir(op string) error {
	if err := os.MkdirAll(e.loc.Dir(), e.cfg.dirMode); err != nil {
		return e.storeErr(op, e.loc.Dir(), err)
	}
	return nil
}

func (e *Engine[T]) storeErr(op, path string, err error) error {
	return &StoreError{Op: op, Name: e.name, Path: path, Err: err}
}

func (e *Engine[T]) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.cfg.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("docstore.name", e.name),
		attribute.String("docstore.path", e.loc.Primary),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isNil[T any](doc *T) bool {
	rv := reflect.ValueOf(doc).Elem()
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
