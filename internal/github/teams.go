package github

import (
	"context"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v74/github"
)

const reposPerPage = 100

// TeamRepos lists the repositories of org/slug, sorted by name. Archived
// repositories are left out.
func (f *Fetcher) TeamRepos(ctx context.Context, org, slug string) ([]string, error) {
	opts := &gh.ListOptions{PerPage: reposPerPage}

	var names []string
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := f.client.Teams.ListTeamReposBySlug(ctx, org, slug, opts)
		if err != nil {
			return nil, &FetchError{Repo: org + "/" + slug, Err: fmt.Errorf("failed to list team repositories: %w", err)}
		}
		for _, r := range repos {
			if r.GetArchived() {
				continue
			}
			names = append(names, r.GetName())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.Strings(names)
	return names, nil
}
