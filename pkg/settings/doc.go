// Package settings holds the application documents persisted through
// docstore: proxy, backup, service registry and plugin enablement settings.
//
// Each document has an Open constructor bound to <settings dir>/<Name>.json.
// Saves through those stores never fail the caller; failures are logged.
package settings
