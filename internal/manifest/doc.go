// Package manifest models service descriptors and reads them from disk.
//
// A repository describes itself through two optional files: package.json,
// whose start script makes it a node service, and bosco-service.json, which
// declares tags, an order and a service block (type, start command,
// dependsOn, docker settings). LoadLocal merges the two; ReadServiceFile
// decodes the same format when it comes from a remote repository.
package manifest
