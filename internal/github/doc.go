// Package github fetches the configuration of services that are not cloned
// locally.
//
// Fetcher reads bosco-service.json and config/default.json through the
// GitHub contents API. Cache keeps the results in the config store under
// cache:github:<org>/<repo> for two days; offline mode serves entries of any
// age and NoCache always refetches. An entry without a cachedTime is stale.
package github
