package github

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/google/go-github/v66/github"
)

// GetIssue fetches one issue or pull request.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*types.Issue, error) {
	var issue *github.Issue
	err := c.read(ctx, fmt.Sprintf("get issue #%d", number), func() (*github.Response, error) {
		var resp *github.Response
		var err error
		issue, resp, err = c.REST.Issues.Get(ctx, owner, repo, number)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	converted := toIssue(issue)
	return &converted, nil
}

// UpdateIssueMilestone sets the milestone of an issue or pull request.
func (c *Client) UpdateIssueMilestone(ctx context.Context, owner, repo string, number, milestone int) error {
	return c.mutate(ctx, fmt.Sprintf("set milestone on #%d", number), func() error {
		_, _, err := c.REST.Issues.Edit(ctx, owner, repo, number, &github.IssueRequest{
			Milestone: github.Int(milestone),
		})
		return err
	})
}

// CreateIssueComment posts a comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	return c.mutate(ctx, fmt.Sprintf("comment on #%d", number), func() error {
		_, _, err := c.REST.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
			Body: github.String(body),
		})
		return err
	})
}

// ListIssueComments returns the bodies of every comment on an issue.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]string, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var bodies []string
	for {
		var comments []*github.IssueComment
		var next int
		err := c.read(ctx, fmt.Sprintf("list comments on #%d", number), func() (*github.Response, error) {
			var resp *github.Response
			var err error
			comments, resp, err = c.REST.Issues.ListComments(ctx, owner, repo, number, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, comment := range comments {
			bodies = append(bodies, comment.GetBody())
		}

		if next == 0 {
			break
		}
		opts.Page = next
	}
	return bodies, nil
}

// ListClosedMilestoneIssues returns every closed issue and pull request in a
// milestone.
func (c *Client) ListClosedMilestoneIssues(ctx context.Context, owner, repo string, milestone int) ([]types.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		Milestone: strconv.Itoa(milestone),
		State:     "closed",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var result []types.Issue
	for {
		var issues []*github.Issue
		var next int
		err := c.read(ctx, fmt.Sprintf("list closed issues in milestone %d", milestone), func() (*github.Response, error) {
			var resp *github.Response
			var err error
			issues, resp, err = c.REST.Issues.ListByRepo(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, issue := range issues {
			result = append(result, toIssue(issue))
		}

		if next == 0 {
			break
		}
		opts.Page = next
	}
	return result, nil
}

func toIssue(issue *github.Issue) types.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	var milestone *types.Milestone
	if issue.Milestone != nil {
		m := toMilestone(issue.Milestone)
		milestone = &m
	}

	return types.Issue{
		Number:      issue.GetNumber(),
		Title:       issue.GetTitle(),
		Body:        issue.GetBody(),
		Labels:      labels,
		Milestone:   milestone,
		PullRequest: issue.IsPullRequest(),
		NodeID:      issue.GetNodeID(),
		HTMLURL:     issue.GetHTMLURL(),
	}
}
