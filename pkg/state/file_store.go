package state

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/goliatone/go-docstore"
	"github.com/google/uuid"
)

// Envelope is the on-disk form of a FileStore snapshot.
type Envelope[T any] struct {
	Meta     Meta `json:"meta" yaml:"meta"`
	Snapshot T    `json:"snapshot" yaml:"snapshot"`
}

// FileStore persists each Ref as its own document under root, at
// <root>/<identifier><ext>. Every file gets the full docstore treatment:
// atomic replace, a rolling backup and quarantine of corrupt content.
type FileStore[T any] struct {
	root  string
	codec docstore.Codec
	opts  []docstore.Option[Envelope[T]]
	clock func() time.Time

	mu      sync.Mutex
	engines map[string]*docstore.Engine[Envelope[T]]
}

// FileStoreOption configures a FileStore.
type FileStoreOption[T any] func(*FileStore[T])

// WithCodec sets the encoding of every snapshot file.
func WithCodec[T any](codec docstore.Codec) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithEngineOptions passes opts to every underlying engine.
func WithEngineOptions[T any](opts ...docstore.Option[Envelope[T]]) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		s.opts = append(s.opts, opts...)
	}
}

// WithClock sets the time source for Meta.UpdatedAt.
func WithClock[T any](clock func() time.Time) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewFileStore roots a FileStore at dir.
func NewFileStore[T any](dir string, opts ...FileStoreOption[T]) (*FileStore[T], error) {
	if dir == "" {
		return nil, fmt.Errorf("state: root directory is required")
	}
	s := &FileStore[T]{
		root:    filepath.Clean(dir),
		codec:   docstore.DefaultCodec,
		clock:   time.Now,
		engines: map[string]*docstore.Engine[Envelope[T]]{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load returns the stored snapshot of ref. A ref that was never saved, or
// whose file could not be recovered, reports ok=false.
func (s *FileStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	engine, err := s.engine(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}
	env, err := engine.LoadContext(ctx)
	if err != nil {
		return zero, Meta{}, false, err
	}
	if env.Meta.SnapshotID == "" {
		return zero, Meta{}, false, nil
	}
	return env.Snapshot, cloneMeta(env.Meta), true, nil
}

// Save writes snapshot for ref. A fresh SnapshotID and ETag are assigned on
// every save; Extra is kept from meta.
func (s *FileStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	engine, err := s.engine(ref)
	if err != nil {
		return Meta{}, err
	}
	saved := cloneMeta(meta)
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = s.clock().UTC()

	engine.Set(Envelope[T]{Meta: saved, Snapshot: snapshot})
	if err := engine.SaveContext(ctx); err != nil {
		engine.Invalidate()
		return Meta{}, err
	}
	return cloneMeta(saved), nil
}

// Delete removes the files of ref. Deleting a ref that was never saved is
// not an error.
func (s *FileStore[T]) Delete(ref Ref) error {
	engine, err := s.engine(ref)
	if err != nil {
		return err
	}
	if err := engine.Delete(); err != nil {
		return err
	}
	engine.Invalidate()
	return nil
}

// Path returns the primary file of ref.
func (s *FileStore[T]) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+s.codec.Extension()), nil
}

func (s *FileStore[T]) engine(ref Ref) (*docstore.Engine[Envelope[T]], error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if engine, ok := s.engines[key]; ok {
		return engine, nil
	}
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	opts := append([]docstore.Option[Envelope[T]]{docstore.WithCodec[Envelope[T]](s.codec)}, s.opts...)
	engine, err := docstore.New[Envelope[T]](path, opts...)
	if err != nil {
		return nil, err
	}
	s.engines[key] = engine
	return engine, nil
}
