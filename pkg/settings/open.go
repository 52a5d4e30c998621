package settings

import (
	"github.com/goliatone/go-docstore"
)

// Document names, also the file stems under the settings directory.
const (
	ProxySettingsName   = "ProxySettings"
	BackupSettingsName  = "BackupSettings"
	ServiceSettingsName = "ServiceSettings"
	PluginSettingsName  = "PluginSettings"
)

// OpenProxySettings binds ProxySettings.json.
func OpenProxySettings(opts ...docstore.Option[ProxySettings]) (*docstore.Scoped[ProxySettings], error) {
	return open(ProxySettingsName, opts)
}

// OpenBackupSettings binds BackupSettings.json.
func OpenBackupSettings(opts ...docstore.Option[BackupSettings]) (*docstore.Scoped[BackupSettings], error) {
	return open(BackupSettingsName, opts)
}

// OpenServiceSettings binds ServiceSettings.json.
func OpenServiceSettings(opts ...docstore.Option[ServiceSettings]) (*docstore.Scoped[ServiceSettings], error) {
	return open(ServiceSettingsName, opts)
}

// OpenPluginSettings binds PluginSettings.json.
func OpenPluginSettings(opts ...docstore.Option[PluginSettings]) (*docstore.Scoped[PluginSettings], error) {
	return open(PluginSettingsName, opts)
}

// open prepends the document validators so caller options can add more.
func open[T any](name string, opts []docstore.Option[T]) (*docstore.Scoped[T], error) {
	all := make([]docstore.Option[T], 0, len(opts)+1)
	all = append(all, docstore.WithValidators[T](docstore.StructValidator(nil), docstore.MethodValidator()))
	all = append(all, opts...)
	return docstore.OpenScoped[T](name, all...)
}
