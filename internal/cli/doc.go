// Package cli holds the terminal presentation shared by bosco's commands.
//
// Tables render as go-pretty rounded tables on a terminal and as
// kubectl-style plain tables when piped (or with -o plain). JSON and YAML
// output go through WriteStructured.
//
// Progress shows a spinner while long operations run, only when the output
// is a terminal.
//
// PartialFailureError reports a run where some services failed; the root
// command maps it to its own exit code.
package cli
