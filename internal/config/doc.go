// Package config provides configuration management for bosco.
//
// # Store
//
// Store is a key-value store addressed by colon-separated keys:
//
//	github:org                      organisation used for remote lookups
//	github:authToken                GitHub API token
//	teams:<org>/<team>:path         workspace directory of a team
//	teams:<org>/<team>:repos        repositories of a team
//	docker:defaults                 template for synthesized docker services
//	cache:github:<org>/<repo>       cached remote bosco-service.json
//
// The user layer lives in ~/.config/bosco/bosco.yaml (or --config-path) and is
// the only layer written by Save. Two read-only layers sit on top of it, the
// workspace environment file .bosco/<environment>.yaml and BOSCO_-prefixed
// environment variables, with environment variables winning.
//
//	store, ws, err := config.Load(config.LoadOptions{Environment: "local", Environ: os.Environ()})
//	org := ws.Org()
//	_ = store.Set("github:org", "tes")
//	err = store.Save()
//
// Concurrent bosco processes do not coordinate; the last Save wins.
//
// # Workspace
//
// A workspace is the directory holding a team's repositories. It is found by
// walking up from the working directory until a .bosco directory appears.
// The team is the configured team whose path contains the workspace.
package config
