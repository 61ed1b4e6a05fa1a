// Package orchestrator starts and stops the services of a resolved run list.
//
// Services are grouped into buckets that run one after another:
//
//  1. docker services
//  2. docker-compose projects
//  3. node services (everything not named app-)
//  4. node apps
//
// Inside a bucket services start in parallel. Container buckets are limited
// by the CPU concurrency, node buckets by the network concurrency. Stop walks
// the buckets in reverse.
//
// Before a bucket starts, its Runner lists what is already running; those
// services are skipped with a warning. docker-compose projects are always
// brought up since docker-compose itself skips what is current. Services
// typed skip are ignored and services typed unknown are only reported.
//
// A failure never aborts the run. Run and Stop return a Summary that tallies
// started, failed, skipped and unknown services:
//
//	summary := orch.Run(ctx, list)
//	fmt.Println(summary) // 3 out of 4 succeeded
//
// Subscribers receive a ServiceStateChangedEvent for every transition.
// Sends never block; a full subscriber channel drops events.
package orchestrator
