// Package process runs node services under pm2.
//
// PM2Runner shells out to the pm2 command. A start script such as
//
//	node server -- --port 5120
//
// is started as server.js with the arguments --port 5120, from the service
// directory and under the repository name. Stopping a service also deletes
// it from pm2's process list.
//
// NodeChecker compares engines.node (or .nvmrc) with the installed node
// version. A mismatch is only a warning.
package process
