package settings_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-docstore"
	"github.com/goliatone/go-docstore/pkg/settings"
	"github.com/google/go-cmp/cmp"
)

func quiet[T any]() docstore.Option[T] {
	return docstore.WithLogger[T](docstore.LoggerFunc(func(docstore.LogEvent) {}))
}

func openProxy(t *testing.T, dir string) *docstore.Scoped[settings.ProxySettings] {
	t.Helper()
	store, err := settings.OpenProxySettings(
		docstore.WithDirectory[settings.ProxySettings](dir),
		quiet[settings.ProxySettings](),
	)
	if err != nil {
		t.Fatalf("open proxy settings: %v", err)
	}
	return store
}

func TestProxySettingsDefaultsAndFileLayout(t *testing.T) {
	dir := t.TempDir()
	store := openProxy(t, dir)

	got := store.Load()
	if !store.IsDefaultData() {
		t.Fatalf("expected default data on first run")
	}
	var want settings.ProxySettings
	want.SetDefaults()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}

	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "ProxySettings.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, fragment := range []string{`"ProxyType": "system"`, `"ProxyPort": 8080`, `"IsEnabled": true`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in\n%s", fragment, data)
		}
	}
}

func TestProxySettingsReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "IsEnabled": true,
  "ProxyType": "socks5",
  "ProxyAddress": "10.1.1.1",
  "ProxyPort": 1080,
  "ProxyUsername": "bob"
}`
	if err := os.WriteFile(filepath.Join(dir, "ProxySettings.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got := openProxy(t, dir).Load()
	if got.ProxyType != settings.ProxyTypeSocks5 || got.ProxyPort != 1080 {
		t.Fatalf("unexpected settings %+v", got)
	}
	if got.BypassList != settings.DefaultBypassList {
		t.Fatalf("expected absent field to keep its default, got %q", got.BypassList)
	}
	if uri := got.ProxyURI(); uri != "socks5://bob:@10.1.1.1:1080" {
		t.Fatalf("unexpected uri %q", uri)
	}
}

func TestProxySettingsOutOfRangePortIsQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ProxySettings.json")
	if err := os.WriteFile(path, []byte(`{"ProxyType": "http", "ProxyAddress": "h", "ProxyPort": 70000}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := openProxy(t, dir)
	if got := store.Load(); got.ProxyPort != 8080 {
		t.Fatalf("expected defaults after rejection, got %+v", got)
	}
	files, err := store.Engine().Quarantined()
	if err != nil {
		t.Fatalf("list quarantine: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected one quarantined file, got %v", files)
	}
}

func TestProxyURI(t *testing.T) {
	cases := []struct {
		name string
		in   settings.ProxySettings
		want string
	}{
		{name: "system", in: settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeSystem, ProxyAddress: "h", ProxyPort: 1}, want: ""},
		{name: "disabled", in: settings.ProxySettings{ProxyType: settings.ProxyTypeHTTP, ProxyAddress: "h", ProxyPort: 1}, want: ""},
		{name: "none", in: settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeNone}, want: ""},
		{name: "http", in: settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeHTTP, ProxyAddress: "127.0.0.1", ProxyPort: 8080}, want: "http://127.0.0.1:8080"},
		{name: "credentials", in: settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeHTTP, ProxyAddress: "p", ProxyPort: 3128, ProxyUsername: "u", ProxyPassword: "s"}, want: "http://u:s@p:3128"},
		{name: "ipv6", in: settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeSocks5, ProxyAddress: "::1", ProxyPort: 9050}, want: "socks5://[::1]:9050"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.ProxyURI(); got != tc.want {
				t.Fatalf("ProxyURI() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProxySettingsValidate(t *testing.T) {
	if err := (settings.ProxySettings{IsEnabled: true, ProxyType: settings.ProxyTypeHTTP}).Validate(); err == nil {
		t.Fatalf("expected missing address to be rejected")
	}
	if err := (settings.ProxySettings{ProxyType: settings.ProxyType(9)}).Validate(); err == nil {
		t.Fatalf("expected unknown proxy type to be rejected")
	}
	var defaults settings.ProxySettings
	defaults.SetDefaults()
	if err := defaults.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if got := defaults.Bypass(); len(got) != 20 || got[0] != "localhost" {
		t.Fatalf("unexpected bypass list %v", got)
	}
}

func TestBackupSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := settings.OpenBackupSettings(
		docstore.WithDirectory[settings.BackupSettings](dir),
		quiet[settings.BackupSettings](),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Set(settings.BackupSettings{Type: settings.BackupTypeWebDav, Address: "https://dav.example.com/backup", Username: "u"})
	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "BackupSettings.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"Type": "webDav"`) {
		t.Fatalf("expected camelCase enum, got\n%s", data)
	}

	reopened, err := settings.OpenBackupSettings(docstore.WithDirectory[settings.BackupSettings](dir), quiet[settings.BackupSettings]())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Load(); got.Type != settings.BackupTypeWebDav || got.Address != "https://dav.example.com/backup" {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestBackupSettingsValidate(t *testing.T) {
	cases := []struct {
		in      settings.BackupSettings
		wantErr bool
	}{
		{in: settings.BackupSettings{}, wantErr: false},
		{in: settings.BackupSettings{Type: settings.BackupTypeWebDav}, wantErr: false},
		{in: settings.BackupSettings{Type: settings.BackupTypeWebDav, Address: "http://nas.local/dav"}, wantErr: false},
		{in: settings.BackupSettings{Type: settings.BackupTypeWebDav, Address: "ftp://nas.local"}, wantErr: true},
		{in: settings.BackupSettings{Type: settings.BackupType(5)}, wantErr: true},
	}
	for _, tc := range cases {
		if err := tc.in.Validate(); (err != nil) != tc.wantErr {
			t.Fatalf("Validate(%+v) = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}
