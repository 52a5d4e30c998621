package docstore

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenScopedBindsNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Settings")
	s, err := OpenScoped[counter]("Count", WithDirectory[counter](dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected settings directory created, got %v", err)
	}
	if got, want := s.Location().Primary, filepath.Join(dir, "Count.json"); got != want {
		t.Fatalf("primary = %q, want %q", got, want)
	}
	if s.Name() != "Count" {
		t.Fatalf("name = %q", s.Name())
	}

	s.Set(counter{Count: 5})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := s.Reload(); got.Count != 5 {
		t.Fatalf("expected persisted value, got %+v", got)
	}
}

func TestOpenScopedUsesSettingsDirEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(SettingsDirEnv, dir)
	s, err := OpenScoped[counter]("Env")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if filepath.Dir(s.Location().Primary) != dir {
		t.Fatalf("expected document under %s, got %s", dir, s.Location().Primary)
	}
}

func TestOpenScopedRejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"", "..", "a/b"} {
		_, err := OpenScoped[counter](name, WithDirectory[counter](t.TempDir()))
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("OpenScoped(%q) expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestOpenScopedUsesCodecExtension(t *testing.T) {
	s, err := OpenScoped[endpoint]("Endpoint", WithDirectory[endpoint](t.TempDir()), WithCodec[endpoint](YAMLCodec{}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if filepath.Ext(s.Location().Primary) != ".yaml" {
		t.Fatalf("expected yaml extension, got %s", s.Location().Primary)
	}
}

func TestScopedSwallowsSaveFailures(t *testing.T) {
	var logged []LogEvent
	logger := LoggerFunc(func(ev LogEvent) { logged = append(logged, ev) })
	s, err := OpenScoped[counter]("Count", WithDirectory[counter](t.TempDir()), WithLogger[counter](logger))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.Mkdir(s.Location().Temp, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := s.Save(); err != nil {
		t.Fatalf("expected scoped save to swallow failure, got %v", err)
	}
	if err := <-s.SaveAsync(t.Context()); err != nil {
		t.Fatalf("expected scoped async save to swallow failure, got %v", err)
	}
	if err := s.Engine().Save(); err == nil {
		t.Fatalf("expected the engine itself to fail loudly")
	}

	var swallowed int
	for _, ev := range logged {
		if ev.Op == OpSave && ev.Err != nil && ev.Detail == "save failed, continuing" {
			swallowed++
		}
	}
	if swallowed != 2 {
		t.Fatalf("expected two swallowed failures logged, got %d in %+v", swallowed, logged)
	}
}

func TestScopedFallsBackToSlogDefault(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	s, err := OpenScoped[counter]("Count", WithDirectory[counter](t.TempDir()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.Mkdir(s.Location().Temp, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("expected swallowed failure, got %v", err)
	}
	if !strings.Contains(buf.String(), "save failed, continuing") {
		t.Fatalf("expected failure in default logger, got %q", buf.String())
	}
}

func TestScopedDelegatesLoadSemantics(t *testing.T) {
	s, err := OpenScoped[counter]("Count", WithDirectory[counter](t.TempDir()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Load(); got.Count != 0 || !s.IsDefaultData() || s.Exists() {
		t.Fatalf("expected defaults without a primary, got %+v", got)
	}
	s.Set(counter{Count: 1})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	writeFile(t, s.Location().Primary, "{")
	s.Invalidate()
	if got := s.Load(); got.Count != 0 {
		t.Fatalf("expected default after corruption, got %+v", got)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists() {
		t.Fatalf("expected primary removed")
	}
}
