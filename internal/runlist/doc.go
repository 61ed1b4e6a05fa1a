// Package runlist resolves which services to start or stop, and in which
// order.
//
// A resolution starts from the repositories known to the workspace, keeps
// those selected by a MatchMode and expands their dependsOn entries
// transitively. Each repository is described once per call:
//
//   - cloned locally: package.json and bosco-service.json are merged; a clone
//     without bosco-service.json is typed skip
//   - not cloned: the descriptor comes from the RemoteConfigSource, unless the
//     resolver runs team-only or in CDN mode, where it is typed skip
//   - no organisation configured: typed unknown, with a warning printed once
//     per Resolver
//
// A repository whose remote configuration cannot be fetched is logged and
// left out together with its dependencies; the rest of the resolution
// continues. Dependency cycles are cut at the first repeated name.
//
// The result is filtered (deps-only, docker-only, infra-only, exclude) and
// sorted by EffectiveOrder. Within the same order, dependencies come before
// the services that need them.
package runlist
