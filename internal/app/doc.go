// Package app is the composition root for rack.
//
// # Overview
//
// Open loads the configuration, opens the log file and the credential
// database, restores the stored credential and builds the API client and the
// services layered on it. The resulting Env is shared by the interactive
// browser and the one-shot CLI commands.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read ~/.config/rack/config.toml
//	       ├─────> logging.New()        JSON log at <data_dir>/rack.log
//	       ├─────> credstore.Open()     SQLite credential store, migrated
//	       ├─────> TokenStore.Load()    Restore the bearer token
//	       └─────> api / auth / catalog / bookmarks services
//
//	Run():
//	  Env.NewController(bridge) ─> StartSessionWatcher() ─> ui.Run() (blocks)
//
// # Session Watcher
//
// When session_check is set, a background goroutine re-verifies the token at
// that cadence. Transient failures back off exponentially up to five minutes;
// a rejection is routed through the controller's HandleRejection so the user
// lands on the sign-in screen.
package app
