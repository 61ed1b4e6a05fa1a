// Package logging provides the structured logger used across bosco.
//
// It is a thin layer over Go's slog package. Every entry carries a subsystem
// attribute so that output from the resolver, the GitHub cache and the
// individual runners can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("RunList", "Resolved %d services", n)
//	logging.Warn("GitHub", "Ensure you configured your github organisation")
//	logging.Error("Docker", err, "Failed to start %s", name)
//
// Levels are Debug, Info, Warn and Error. The --verbose flag on the root
// command switches the handler to Debug.
//
// Logging before InitForCLI is called falls back to a plain line on stderr,
// so early bootstrap failures are never swallowed.
package logging
