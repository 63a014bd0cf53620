package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/goblinsan/gh-release-milestones/pkg/refs"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

// Resolver maps a PR or issue number to the original issues that should carry
// its milestone.
type Resolver struct {
	cache         *IssueCache
	backportLabel string
	maxDepth      int
}

// NewResolver creates a resolver reading through cache.
func NewResolver(cache *IssueCache, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		cache:         cache,
		backportLabel: opts.BackportLabel,
		maxDepth:      opts.MaxBackportDepth,
	}
}

// Cache returns the issue cache the resolver reads through.
func (r *Resolver) Cache() *IssueCache {
	return r.cache
}

func (r *Resolver) isBackport(issue *types.Issue) bool {
	return strings.Contains(issue.Title, "backport") || issue.HasLabel(r.backportLabel)
}

// OriginalIssues follows backports to their source and PRs to the issues they
// close. References into other repositories are ignored. An unknown number resolves to nothing. A chain that revisits a number
// fails with ErrBackportCycle; one longer than the configured depth fails with
// ErrBackportDepth.
func (r *Resolver) OriginalIssues(ctx context.Context, number int) ([]int, error) {
	visited := make(map[int]bool)
	current := number

	for hops := 0; ; hops++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if visited[current] {
			return nil, fmt.Errorf("%w: #%d leads back to #%d", ErrBackportCycle, number, current)
		}
		if hops > r.maxDepth {
			return nil, fmt.Errorf("%w: #%d exceeds %d hops", ErrBackportDepth, number, r.maxDepth)
		}
		visited[current] = true

		issue := r.cache.Get(ctx, current)
		if issue == nil {
			logging.Info("issue not found, nothing to resolve", "issue", current)
			return nil, nil
		}

		if issue.Body != "" && r.isBackport(issue) {
			if source, ok := refs.BackportSource(issue.Body, r.cache.repo.String()); ok && source != current {
				logging.Info("found backport PR", "pr", current, "source_pr", source)
				current = source
				continue
			}
		}

		linked := refs.LinkedIssues(issue.Body, r.cache.repo.String())
		if issue.PullRequest && len(linked) > 0 {
			logging.Info("found linked issues", "pr", issue.Number, "issues", linked)
			return linked, nil
		}

		logging.Debug("no linked issues found in body", "issue", issue.Number)
		return []int{issue.Number}, nil
	}
}
