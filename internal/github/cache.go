package github

import (
	"context"
	"time"

	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const (
	cacheSubsystem = "GitHubCache"

	// CacheKeyPrefix prefixes cached remote descriptors in the config store.
	CacheKeyPrefix = "cache:github:"

	// DefaultTTL is how long a cached descriptor is served without a refetch.
	DefaultTTL = 48 * time.Hour
)

// ServiceConfigFetcher downloads the descriptor of a remote repository.
type ServiceConfigFetcher interface {
	FetchServiceConfig(ctx context.Context, org, repo string) (*manifest.ServiceDescriptor, error)
}

// Store is the part of the config store the cache needs.
type Store interface {
	Decode(key string, out any) (bool, error)
	Set(key string, value any) error
	Save() error
}

// Cache serves remote descriptors from the config store and refreshes them
// through a fetcher when they are missing or stale.
type Cache struct {
	fetcher ServiceConfigFetcher
	store   Store

	// NoCache always refetches.
	NoCache bool
	// Offline serves cached entries of any age.
	Offline bool
	TTL     time.Duration

	now func() time.Time
}

// NewCache wraps fetcher with a cache kept in store.
func NewCache(fetcher ServiceConfigFetcher, store Store) *Cache {
	return &Cache{
		fetcher: fetcher,
		store:   store,
		TTL:     DefaultTTL,
		now:     time.Now,
	}
}

// CacheKey is the config store key of org/repo.
func CacheKey(org, repo string) string {
	return CacheKeyPrefix + org + "/" + repo
}

// ServiceConfig returns the descriptor of org/repo, from the cache when it is
// fresh enough, otherwise from the fetcher. Fetched descriptors are stamped
// with cachedTime and saved.
func (c *Cache) ServiceConfig(ctx context.Context, org, repo string) (*manifest.ServiceDescriptor, error) {
	key := CacheKey(org, repo)

	if !c.NoCache {
		if cached, ok := c.lookup(key); ok && (c.Offline || c.fresh(cached)) {
			logging.Debug(cacheSubsystem, "Using cached service config for %s/%s", org, repo)
			return cached, nil
		}
	}

	logging.Info(cacheSubsystem, "Downloading remote service config from github: %s/%s", org, repo)
	desc, err := c.fetcher.FetchServiceConfig(ctx, org, repo)
	if err != nil {
		return nil, err
	}

	stamp := c.now().UTC()
	desc.CachedTime = &stamp

	if err := c.store.Set(key, desc); err != nil {
		logging.Warn(cacheSubsystem, "Could not cache service config for %s/%s: %v", org, repo, err)
		return desc, nil
	}
	if err := c.store.Save(); err != nil {
		logging.Warn(cacheSubsystem, "Could not save configuration after caching %s/%s: %v", org, repo, err)
	}
	return desc, nil
}

// Cached returns the cached descriptor of org/repo regardless of its age.
func (c *Cache) Cached(org, repo string) (*manifest.ServiceDescriptor, bool) {
	return c.lookup(CacheKey(org, repo))
}

// lookup treats an undecodable entry as absent.
func (c *Cache) lookup(key string) (*manifest.ServiceDescriptor, bool) {
	var desc manifest.ServiceDescriptor
	found, err := c.store.Decode(key, &desc)
	if err != nil {
		logging.Debug(cacheSubsystem, "Ignoring malformed cache entry %s: %v", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &desc, true
}

// fresh is false when cachedTime is missing.
func (c *Cache) fresh(desc *manifest.ServiceDescriptor) bool {
	if desc.CachedTime == nil || desc.CachedTime.IsZero() {
		return false
	}
	return c.now().Sub(*desc.CachedTime) < c.TTL
}
