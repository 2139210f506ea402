// Package file provides the file-backed configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML settings file (~/.siteassist/config.toml)
//   - EnvOverlay: SITEASSIST_* environment overrides applied on top of it
package file
