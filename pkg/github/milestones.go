package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/google/go-github/v66/github"
)

// ListOpenMilestones returns every open milestone of the repository.
func (c *Client) ListOpenMilestones(ctx context.Context, owner, repo string) ([]types.Milestone, error) {
	return c.listMilestones(ctx, owner, repo, "open")
}

// FindMilestoneByVersion returns the milestone titled after version, with or
// without a leading "v", in any state.
func (c *Client) FindMilestoneByVersion(ctx context.Context, owner, repo, version string) (*types.Milestone, error) {
	milestones, err := c.listMilestones(ctx, owner, repo, "all")
	if err != nil {
		return nil, err
	}

	want := strings.TrimPrefix(version, "v")
	for _, m := range milestones {
		if strings.TrimPrefix(m.Title, "v") == want {
			found := m
			return &found, nil
		}
	}
	return nil, fmt.Errorf("milestone %s: %w", version, ErrNotFound)
}

func (c *Client) listMilestones(ctx context.Context, owner, repo, state string) ([]types.Milestone, error) {
	opts := &github.MilestoneListOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []types.Milestone
	for {
		var milestones []*github.Milestone
		var next int
		err := c.read(ctx, "list "+state+" milestones", func() (*github.Response, error) {
			var resp *github.Response
			var err error
			milestones, resp, err = c.REST.Issues.ListMilestones(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, m := range milestones {
			result = append(result, toMilestone(m))
		}

		if next == 0 {
			break
		}
		opts.Page = next
	}
	return result, nil
}

func toMilestone(m *github.Milestone) types.Milestone {
	return types.Milestone{
		Number:  m.GetNumber(),
		Title:   m.GetTitle(),
		State:   m.GetState(),
		HTMLURL: m.GetHTMLURL(),
	}
}
