// Package containerizer runs docker and docker-compose services.
//
// ContainerRuntime abstracts the handful of container operations bosco
// needs. Two implementations exist:
//
//   - EngineRuntime talks to the Docker Engine API (the default)
//   - CLIRuntime drives the docker command
//
// Both pull and build images through the docker CLI.
//
// DockerRunner turns a service descriptor into a ContainerSpec (image name,
// environment, port bindings, volume binds and extra hosts) and starts it on
// a runtime. Extra hosts map each configured localhost name and each
// dependency to the workstation address so that containers can reach
// services running as node processes:
//
//	service-a.service.local:192.168.1.20
//	a.service.local:192.168.1.20
//
// After starting, the runner waits for the first published port. A port that
// does not open within the service's checkTimeout is only a warning.
//
// ComposeRunner runs docker-compose up -d and docker-compose stop in the
// repository directory.
package containerizer
