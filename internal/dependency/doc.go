// Package dependency models the dependsOn relationships between services.
//
// # Core Concepts
//
// Graph: a directed graph whose nodes are repositories and whose edges are
// dependsOn entries. It is built from resolved descriptors and may contain
// cycles; nothing in bosco rejects them.
//
// Node: a service in the graph with:
//   - ID: the repository name
//   - Kind: infra, service or app, from the repository naming convention
//   - Type: the resolved service type
//   - DependsOn: the repositories this node depends on
//
// # Tree rendering
//
// RenderTree prints each root with its dependencies below it:
//
//	╭─ app-web
//	│  ├─ service-users
//	│  │  ╰─ infra-redis
//	│  ╰─ service-catalog*
//	╰─ service-users
//	   ╰─ infra-redis
//
// A dependency already on the path from the root is printed once more as a
// leaf with a (circular) marker and not expanded. Docker-typed services and
// apps are suffixed with * and shown grey, apps are green, services cyan and
// infrastructure blue. TeamOnly hides the starred entries.
//
// # Thread Safety
//
// The graph is not thread-safe. It is built and read by a single goroutine
// during resolution.
package dependency
