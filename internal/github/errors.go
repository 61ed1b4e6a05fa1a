package github

import "fmt"

// FetchError reports a failure to download the configuration of one remote
// repository.
type FetchError struct {
	Repo string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch service config for %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
