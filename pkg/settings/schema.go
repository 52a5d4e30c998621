package settings

import (
	"fmt"

	"github.com/goliatone/go-docstore/schema/jsonschema"
)

// Names lists the settings documents in this package.
func Names() []string {
	return []string{ProxySettingsName, BackupSettingsName, ServiceSettingsName, PluginSettingsName}
}

// Schema returns the JSON Schema for a settings document by name.
func Schema(name string) ([]byte, error) {
	switch name {
	case ProxySettingsName:
		return jsonschema.Marshal[ProxySettings]()
	case BackupSettingsName:
		return jsonschema.Marshal[BackupSettings]()
	case ServiceSettingsName:
		return jsonschema.Marshal[ServiceSettings]()
	case PluginSettingsName:
		return jsonschema.Marshal[PluginSettings]()
	}
	return nil, fmt.Errorf("settings: unknown document %q", name)
}
