package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-docstore"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Scope names understood by Ref.Identifier.
const (
	ScopeSystem  = "system"
	ScopePlugin  = "plugin"
	ScopeService = "service"
	ScopeUser    = "user"
)

// Ref identifies one persisted snapshot for one document domain.
type Ref struct {
	Domain string
	Scope  string
	// ID selects the owner within Scope. It is ignored for ScopeSystem.
	ID string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator[T any] func(*T) error

// Identifier returns the canonical storage key of r.
func (r Ref) Identifier() (string, error) {
	if err := docstore.ValidateName(r.Domain); err != nil {
		return "", fmt.Errorf("state: domain: %w", err)
	}
	switch r.Scope {
	case ScopeSystem:
		return ScopeSystem + "/" + r.Domain, nil
	case ScopePlugin, ScopeService, ScopeUser:
		if err := docstore.ValidateName(r.ID); err != nil {
			return "", fmt.Errorf("state: %s id: %w", r.Scope, err)
		}
		return r.Scope + "/" + r.ID + "/" + r.Domain, nil
	default:
		return "", fmt.Errorf("state: unsupported scope %q", r.Scope)
	}
}

// Resolver loads the first available snapshot among a list of refs.
type Resolver[T any] struct {
	Store Store[T]
}

// Resolve returns the snapshot of the first ref that has one, together with
// that ref. ok is false when no ref has a snapshot.
func (r Resolver[T]) Resolve(ctx context.Context, refs ...Ref) (snapshot T, meta Meta, from Ref, ok bool, err error) {
	if r.Store == nil {
		return snapshot, Meta{}, Ref{}, false, fmt.Errorf("state: store is required")
	}
	if len(refs) == 0 {
		return snapshot, Meta{}, Ref{}, false, fmt.Errorf("state: at least one ref is required")
	}
	for _, ref := range refs {
		value, meta, found, err := r.Store.Load(ctx, ref)
		if err != nil {
			return snapshot, Meta{}, Ref{}, false, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope, err)
		}
		if found {
			return value, meta, ref, true, nil
		}
	}
	return snapshot, Meta{}, Ref{}, false, nil
}

// ResolveWithDefaults is Resolve returning defaults when no ref has a
// snapshot.
func (r Resolver[T]) ResolveWithDefaults(ctx context.Context, defaults T, refs ...Ref) (T, Meta, error) {
	snapshot, meta, _, ok, err := r.Resolve(ctx, refs...)
	if err != nil {
		return defaults, Meta{}, err
	}
	if !ok {
		return defaults, Meta{}, nil
	}
	return snapshot, meta, nil
}

// Mutate loads the snapshot of ref, applies fn, validates the result and
// saves it. A non-empty expected.ETag must match the stored one.
func (r Resolver[T]) Mutate(ctx context.Context, ref Ref, expected Meta, fn Mutator[T]) (T, Meta, error) {
	return Mutate(ctx, r.Store, ref, expected, fn)
}

// Mutate is Resolver.Mutate for a bare store.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, expected Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return zero, Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope == "" {
		return zero, Meta{}, fmt.Errorf("state: scope is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if expected.ETag != "" && loadedMeta.ETag != "" && expected.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}
	if err := docstore.MethodValidator().Validate(docstore.Candidate{Name: ref.Domain, Doc: &snapshot}); err != nil {
		return zero, loadedMeta, err
	}

	savedMeta, err := store.Save(ctx, ref, snapshot, mergeMeta(loadedMeta, expected))
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope, err)
	}
	return snapshot, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
