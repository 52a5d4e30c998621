package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-docstore"
)

// BackupType selects where application backups are written.
type BackupType int

const (
	BackupTypeLocal BackupType = iota
	BackupTypeWebDav
)

var backupTypeNames = docstore.NewEnumNames(map[BackupType]string{
	BackupTypeLocal:  "Local",
	BackupTypeWebDav: "WebDav",
})

func (b BackupType) String() string                { return backupTypeNames.Name(b) }
func (b BackupType) MarshalText() ([]byte, error)  { return backupTypeNames.MarshalText(b) }
func (b *BackupType) UnmarshalText(p []byte) error { return backupTypeNames.UnmarshalText(p, b) }

// BackupSettings configures the backup target.
type BackupSettings struct {
	Type     BackupType
	Address  string
	Username string
	Password string
}

// Validate requires an absolute http(s) address for WebDAV targets.
func (b BackupSettings) Validate() error {
	switch b.Type {
	case BackupTypeLocal:
		return nil
	case BackupTypeWebDav:
		address := strings.TrimSpace(b.Address)
		if address == "" {
			return nil
		}
		u, err := url.Parse(address)
		if err != nil {
			return fmt.Errorf("settings: webdav address: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("settings: webdav address %q must be an http(s) URL", address)
		}
		return nil
	default:
		return fmt.Errorf("settings: unknown backup type %d", int(b.Type))
	}
}
