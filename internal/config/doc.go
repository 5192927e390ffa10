// Package config loads rack's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/rack/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults per field
//
// # TOML Format
//
//	api_base        = "https://dae-mobile-assignment.hkit.cc/api"
//	data_dir        = "~/.local/share/rack"
//	retry_count     = 3
//	retry_delay     = "1s"
//	request_timeout = "10s"
//	session_check   = "0s"
//	log_level       = "info"
//
// retry_count and retry_delay bound both the auth probe and the catalog
// fetch retries. session_check enables a periodic credential re-check while
// the browser is open; zero disables it.
//
// # Derived Paths
//
//   - LogPath:      <data_dir>/rack.log
//   - DatabasePath: <data_dir>/rack.db (stored credential)
//
// # Error Handling
//
// Missing files are not an error. Unreadable files, invalid TOML and
// unparseable durations are returned wrapped ("parse config: ...").
package config
