package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SettingsDirEnv overrides the settings directory when set.
const SettingsDirEnv = "DOCSTORE_SETTINGS_DIR"

// SettingsDir returns the directory scoped documents live in:
// $DOCSTORE_SETTINGS_DIR, or <user config dir>/docstore/Settings.
func SettingsDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(SettingsDirEnv)); dir != "" {
		return filepath.Clean(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("docstore: resolve settings dir: %w", err)
	}
	return filepath.Join(base, "docstore", "Settings"), nil
}

// MaxNameLength bounds a document name in bytes so that its quarantine file
// name (name, a 28 byte stamp and the extension) stays under the 255 byte
// limit common to file systems.
const MaxNameLength = 200

// ValidateName checks that name can be used as a file stem on its own.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLength)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return nil
}
