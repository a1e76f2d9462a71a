// Package config builds the process-wide configuration of the library service once at startup.
//
// Load reads an optional YAML file, applies LIBRARY_* environment overrides, fills defaults and
// validates the result. The resulting Config is passed explicitly to every component.
// The package also turns the configuration into database handles and OpenTelemetry providers.
package config
