package github

import (
	"context"
	"fmt"

	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/google/go-github/v66/github"
)

// CompareCommits returns the commits reachable from head but not from base.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) ([]types.Commit, error) {
	opts := &github.ListOptions{PerPage: 100}

	var result []types.Commit
	for {
		var comparison *github.CommitsComparison
		var next int
		err := c.read(ctx, fmt.Sprintf("compare %s...%s", base, head), func() (*github.Response, error) {
			var resp *github.Response
			var err error
			comparison, resp, err = c.REST.Repositories.CompareCommits(ctx, owner, repo, base, head, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, commit := range comparison.Commits {
			result = append(result, types.Commit{
				SHA:     commit.GetSHA(),
				Message: commit.GetCommit().GetMessage(),
			})
		}

		if next == 0 {
			break
		}
		opts.Page = next
	}
	return result, nil
}
