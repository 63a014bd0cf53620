package engine

import (
	"context"
	"errors"
	"sync"

	ghclient "github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

// IssueCache memoizes issue lookups for one run against one repository. Keys
// are issue numbers, so a cache must never be shared across repositories.
//
// The lock is held across the fetch: each number reaches the gateway at most
// once even with concurrent callers.
type IssueCache struct {
	gateway Gateway
	repo    Repository

	mu      sync.Mutex
	issues  map[int]*types.Issue
	fetches int
}

// NewIssueCache creates an empty cache for repo.
func NewIssueCache(gateway Gateway, repo Repository) *IssueCache {
	return &IssueCache{
		gateway: gateway,
		repo:    repo,
		issues:  make(map[int]*types.Issue),
	}
}

// Get returns the issue, fetching it on first use. A failed fetch is logged
// and yields nil; it is not cached, so a later Get tries again.
func (c *IssueCache) Get(ctx context.Context, number int) *types.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()

	if issue, ok := c.issues[number]; ok {
		return issue
	}

	c.fetches++
	issue, err := c.gateway.GetIssue(ctx, c.repo.Owner, c.repo.Name, number)
	if err != nil {
		if errors.Is(err, ghclient.ErrNotFound) {
			logging.Warn("issue not found", "issue", number)
		} else {
			logging.Warn("failed to fetch issue", "issue", number, "error", err)
		}
		return nil
	}

	c.issues[number] = issue
	return issue
}

// Put seeds the cache with an issue obtained from a list call.
func (c *IssueCache) Put(issue types.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.issues[issue.Number]; !ok {
		c.issues[issue.Number] = &issue
	}
}

// Fetches returns how many gateway lookups the cache has made.
func (c *IssueCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}
