package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bosco/internal/config"
	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const subsystem = "Orchestrator"

// composeMarker is what a ComposeRunner lists when docker-compose is usable.
const composeMarker = "docker-compose"

// ErrNoRunner is returned for services whose runner is not available.
var ErrNoRunner = errors.New("no runner available")

// Runner starts and stops services of one type.
type Runner interface {
	// List returns the names of running services.
	List(ctx context.Context) ([]string, error)
	Start(ctx context.Context, desc manifest.ServiceDescriptor) error
	Stop(ctx context.Context, desc manifest.ServiceDescriptor) error
}

// Runners holds one runner per service type. A nil runner makes every
// service of that type fail with ErrNoRunner.
type Runners struct {
	Docker  Runner
	Compose Runner
	Node    Runner
}

// Config holds the configuration for the orchestrator.
type Config struct {
	Runners     Runners
	Concurrency config.Concurrency
}

// Orchestrator executes run lists.
type Orchestrator struct {
	runners Runners
	limits  config.Concurrency

	// State change event subscribers
	stateChangeSubscribers []chan ServiceStateChangedEvent

	mu sync.RWMutex
}

// New creates a new orchestrator. Zero concurrency limits default to
// config.DefaultConcurrency.
func New(cfg Config) *Orchestrator {
	limits := cfg.Concurrency
	defaults := config.DefaultConcurrency()
	if limits.CPU < 1 {
		limits.CPU = defaults.CPU
	}
	if limits.Network < 1 {
		limits.Network = defaults.Network
	}
	return &Orchestrator{
		runners: cfg.Runners,
		limits:  limits,
	}
}

// bucket is a group of services started with the same runner and limit.
type bucket struct {
	name     string
	runner   Runner
	limit    int
	services []manifest.ServiceDescriptor
	// runningName is the name List reports for a running service.
	runningName func(manifest.ServiceDescriptor) string
	// alwaysStart buckets are started even when reported as running.
	alwaysStart bool
}

func dockerName(d manifest.ServiceDescriptor) string { return d.ServiceName() }

func composeName(manifest.ServiceDescriptor) string { return composeMarker }

func nodeName(d manifest.ServiceDescriptor) string { return d.Name }

// buckets splits list into docker, docker-compose, node services and node
// apps, keeping the list order inside each bucket. skip and unknown entries
// are returned separately.
func (o *Orchestrator) buckets(list []manifest.ServiceDescriptor) (buckets []*bucket, unknown []string) {
	docker := &bucket{name: "docker", runner: o.runners.Docker, limit: o.limits.CPU, runningName: dockerName}
	compose := &bucket{name: "docker-compose", runner: o.runners.Compose, limit: o.limits.CPU, runningName: composeName, alwaysStart: true}
	services := &bucket{name: "services", runner: o.runners.Node, limit: o.limits.Network, runningName: nodeName}
	apps := &bucket{name: "apps", runner: o.runners.Node, limit: o.limits.Network, runningName: nodeName}

	for _, desc := range list {
		switch desc.Service.Type {
		case manifest.TypeDocker:
			docker.services = append(docker.services, desc)
		case manifest.TypeDockerCompose:
			compose.services = append(compose.services, desc)
		case manifest.TypeNode:
			if manifest.IsApp(desc.Name) {
				apps.services = append(apps.services, desc)
			} else {
				services.services = append(services.services, desc)
			}
		case manifest.TypeUnknown:
			unknown = append(unknown, desc.Name)
		}
	}
	return []*bucket{docker, compose, services, apps}, unknown
}

// Run starts every runnable service in list. Buckets run one after another;
// services inside a bucket start in parallel up to the bucket's limit.
// Services that are already running are skipped. A failed start never stops
// the others; failures are reported in the Summary.
func (o *Orchestrator) Run(ctx context.Context, list []manifest.ServiceDescriptor) Summary {
	buckets, unknown := o.buckets(list)
	summary := Summary{Unknown: unknown}
	tally := &tally{summary: &summary}

	for _, b := range buckets {
		if len(b.services) == 0 {
			continue
		}
		logging.Debug(subsystem, "Starting %d %s with a limit of %d", len(b.services), b.name, b.limit)

		running := o.running(ctx, b)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.limit)

		for _, desc := range b.services {
			if !b.alwaysStart && running[b.runningName(desc)] {
				logging.Warn(subsystem, "%s already running, use 'bosco stop %s'", desc.Name, desc.Name)
				tally.skipped(desc.Name)
				o.publishStateChangeEvent(desc, StateRunning, StateRunning, nil)
				continue
			}
			g.Go(func() error {
				o.start(gctx, b.runner, desc, tally)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary.sort()
	return summary
}

func (o *Orchestrator) start(ctx context.Context, runner Runner, desc manifest.ServiceDescriptor, t *tally) {
	o.publishStateChangeEvent(desc, StateStopped, StateStarting, nil)

	err := ErrNoRunner
	if runner != nil {
		err = runner.Start(ctx, desc)
	}
	if err != nil {
		logging.Error(subsystem, err, "Failed to start %s", desc.Name)
		t.failed(desc.Name, err)
		o.publishStateChangeEvent(desc, StateStarting, StateFailed, err)
		return
	}

	t.started(desc.Name)
	o.publishStateChangeEvent(desc, StateStarting, StateRunning, nil)
}

// Stop stops the services in list that are running. Apps stop first and
// docker services last.
func (o *Orchestrator) Stop(ctx context.Context, list []manifest.ServiceDescriptor) Summary {
	buckets, _ := o.buckets(list)
	summary := Summary{}
	tally := &tally{summary: &summary}

	for _, b := range slices.Backward(buckets) {
		if len(b.services) == 0 || b.runner == nil {
			continue
		}

		running := o.running(ctx, b)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.limits.Network)

		for _, desc := range b.services {
			if !running[b.runningName(desc)] {
				tally.skipped(desc.Name)
				continue
			}
			g.Go(func() error {
				o.stop(gctx, b.runner, desc, tally)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary.sort()
	return summary
}

func (o *Orchestrator) stop(ctx context.Context, runner Runner, desc manifest.ServiceDescriptor, t *tally) {
	o.publishStateChangeEvent(desc, StateRunning, StateStopping, nil)
	if err := runner.Stop(ctx, desc); err != nil {
		logging.Error(subsystem, err, "Failed to stop %s", desc.Name)
		t.failed(desc.Name, err)
		o.publishStateChangeEvent(desc, StateStopping, StateFailed, err)
		return
	}
	t.started(desc.Name)
	o.publishStateChangeEvent(desc, StateStopping, StateStopped, nil)
}

// running lists the bucket runner's running services. A listing failure is
// logged and treated as nothing running.
func (o *Orchestrator) running(ctx context.Context, b *bucket) map[string]bool {
	running := map[string]bool{}
	if b.runner == nil {
		return running
	}
	names, err := b.runner.List(ctx)
	if err != nil {
		logging.Warn(subsystem, "Unable to list running %s: %v", b.name, err)
		return running
	}
	for _, name := range names {
		running[name] = true
	}
	return running
}

// SubscribeToStateChanges returns a channel for state change events.
func (o *Orchestrator) SubscribeToStateChanges() <-chan ServiceStateChangedEvent {
	eventChan := make(chan ServiceStateChangedEvent, 100)
	o.mu.Lock()
	o.stateChangeSubscribers = append(o.stateChangeSubscribers, eventChan)
	o.mu.Unlock()
	return eventChan
}

// UnsubscribeFromStateChanges stops delivering events to a channel returned
// by SubscribeToStateChanges. The channel is not closed.
func (o *Orchestrator) UnsubscribeFromStateChanges(events <-chan ServiceStateChangedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, sub := range o.stateChangeSubscribers {
		if (<-chan ServiceStateChangedEvent)(sub) == events {
			o.stateChangeSubscribers = append(o.stateChangeSubscribers[:i], o.stateChangeSubscribers[i+1:]...)
			return
		}
	}
}

// publishStateChangeEvent publishes a state change event to all subscribers
func (o *Orchestrator) publishStateChangeEvent(desc manifest.ServiceDescriptor, oldState, newState ServiceState, err error) {
	logging.Debug(subsystem, "Service %s state changed: %s -> %s", desc.Name, oldState, newState)

	event := ServiceStateChangedEvent{
		Name:        desc.Name,
		ServiceType: string(desc.Service.Type),
		OldState:    oldState,
		NewState:    newState,
		Error:       err,
		Timestamp:   time.Now().Unix(),
	}

	o.mu.RLock()
	subscribers := make([]chan ServiceStateChangedEvent, len(o.stateChangeSubscribers))
	copy(subscribers, o.stateChangeSubscribers)
	o.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Don't block if subscriber can't receive immediately
			logging.Debug(subsystem, "Subscriber blocked, skipping event for service %s", desc.Name)
		}
	}
}

// ServiceState is the lifecycle state reported in events.
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateFailed   ServiceState = "failed"
)

// ServiceStateChangedEvent represents a service state change event.
type ServiceStateChangedEvent struct {
	Name        string
	ServiceType string
	OldState    ServiceState
	NewState    ServiceState
	Error       error
	Timestamp   int64
}

// Failure is a service that could not be started or stopped.
type Failure struct {
	Name string
	Err  error
}

// Summary tallies a Run or Stop. For Stop, Started holds the services that
// were stopped.
type Summary struct {
	Started []string
	Failed  []Failure
	Skipped []string
	Unknown []string
}

// Attempted is the number of services a runner was asked to handle.
func (s Summary) Attempted() int {
	return len(s.Started) + len(s.Failed)
}

// String reports the tally as "N out of M succeeded".
func (s Summary) String() string {
	return fmt.Sprintf("%d out of %d succeeded", len(s.Started), s.Attempted())
}

// Err returns an error naming the failed services, or nil.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failed))
	for _, f := range s.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Name, f.Err))
	}
	return errors.Join(errs...)
}

func (s *Summary) sort() {
	sort.Strings(s.Started)
	sort.Strings(s.Skipped)
	sort.Slice(s.Failed, func(i, j int) bool { return s.Failed[i].Name < s.Failed[j].Name })
}

// tally guards a Summary shared by a bucket's goroutines.
type tally struct {
	mu      sync.Mutex
	summary *Summary
}

func (t *tally) started(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Started = append(t.summary.Started, name)
}

func (t *tally) skipped(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Skipped = append(t.summary.Skipped, name)
}

func (t *tally) failed(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Failed = append(t.summary.Failed, Failure{Name: name, Err: err})
}
