// Package config provides configuration management for the Deckplane plugin.
//
// This package manages a YAML-based configuration file holding the control
// channel listen address, the key-grid gateway address, the managed hardware
// profile name, and the asset directory used for relative icon names. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/deckplane/config.yaml or $HOME/.config/deckplane/config.yaml
//   - macOS: $HOME/.config/deckplane/config.yaml
//   - Windows: %LOCALAPPDATA%\deckplane\config.yaml
//
// # Usage Example
//
//	settings, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings.GatewayAddr = "ws://127.0.0.1:50354"
//	if err := settings.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// A missing file is not an error; Load returns defaults so the plugin runs
// with zero setup. Every field also has a matching flag on 'deckplaned run'.
//
// # Thread Safety
//
// File operations are protected by a mutex to ensure atomic writes.
package config
