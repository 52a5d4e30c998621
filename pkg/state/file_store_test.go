package state_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-docstore"
	"github.com/goliatone/go-docstore/pkg/state"
	"github.com/google/go-cmp/cmp"
)

type proxy struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

func (p proxy) Validate() error {
	if p.Port < 0 || p.Port > 65535 {
		return errPort
	}
	return nil
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := state.NewFileStore[proxy](dir, state.WithClock[proxy](func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := state.Ref{Domain: "proxy", Scope: state.ScopePlugin, ID: "translate"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected no snapshot yet, ok=%v err=%v", ok, err)
	}

	saved, err := store.Save(ctx, ref, proxy{Host: "10.0.0.1", Port: 3128}, state.Meta{Extra: map[string]string{"by": "test"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SnapshotID == "" || saved.ETag == "" {
		t.Fatalf("expected snapshot id and etag, got %+v", saved)
	}
	if !saved.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, saved.UpdatedAt)
	}

	path, err := store.Path(ref)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(dir, "plugin", "translate", "proxy.json"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}

	reopened, err := state.NewFileStore[proxy](dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, meta, ok, err := reopened.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(proxy{Host: "10.0.0.1", Port: 3128}, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(saved, meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreAssignsNewETagPerSave(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore[proxy](t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := state.Ref{Domain: "proxy", Scope: state.ScopeSystem}

	first, err := store.Save(ctx, ref, proxy{Port: 1}, state.Meta{})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := store.Save(ctx, ref, proxy{Port: 2}, first)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first.ETag == second.ETag || first.SnapshotID == second.SnapshotID {
		t.Fatalf("expected fresh identifiers, got %+v then %+v", first, second)
	}

	path, _ := store.Path(ref)
	if _, err := os.Stat(path + docstore.BackupSuffix); err != nil {
		t.Fatalf("expected backup after second save: %v", err)
	}
}

func TestFileStoreRecoversCorruptSnapshotFromBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := state.NewFileStore[proxy](dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := state.Ref{Domain: "proxy", Scope: state.ScopeSystem}
	if _, err := store.Save(ctx, ref, proxy{Port: 1}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, ref, proxy{Port: 2}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := store.Path(ref)
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	reopened, err := state.NewFileStore[proxy](dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _, ok, err := reopened.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Port != 1 {
		t.Fatalf("expected backup snapshot, got %+v", got)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore[proxy](t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := state.Ref{Domain: "proxy", Scope: state.ScopeUser, ID: "alice"}
	if err := store.Delete(ref); err != nil {
		t.Fatalf("delete of unsaved ref: %v", err)
	}
	if _, err := store.Save(ctx, ref, proxy{Port: 9}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected deleted ref to be absent, ok=%v err=%v", ok, err)
	}
}

func TestFileStoreYAMLCodec(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore[proxy](t.TempDir(), state.WithCodec[proxy](docstore.YAMLCodec{Indent: 2}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := state.Ref{Domain: "proxy", Scope: state.ScopeSystem}
	if _, err := store.Save(ctx, ref, proxy{Host: "h", Port: 7}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := store.Path(ref)
	if filepath.Ext(path) != ".yaml" {
		t.Fatalf("expected yaml extension, got %q", path)
	}
	got, _, ok, err := store.Load(ctx, ref)
	if err != nil || !ok || got.Port != 7 {
		t.Fatalf("load: %+v ok=%v err=%v", got, ok, err)
	}
}
