package engine

import (
	"context"
	"errors"

	"github.com/goblinsan/gh-release-milestones/pkg/config"
	ghclient "github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

// Gateway defines the GitHub operations needed by the engine.
type Gateway interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (*types.Issue, error)
	UpdateIssueMilestone(ctx context.Context, owner, repo string, number, milestone int) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]string, error)
	ListOpenMilestones(ctx context.Context, owner, repo string) ([]types.Milestone, error)
	FindMilestoneByVersion(ctx context.Context, owner, repo, version string) (*types.Milestone, error)
	ListClosedMilestoneIssues(ctx context.Context, owner, repo string, milestone int) ([]types.Issue, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string) ([]types.Commit, error)
	AddProjectItem(ctx context.Context, projectID, contentID string) (string, error)
	SetProjectItemText(ctx context.Context, projectID, itemID, fieldID, value string) error
}

// Ensure *github.Client satisfies the interface at compile time.
var _ Gateway = (*ghclient.Client)(nil)

var (
	// ErrNoMilestone means no open milestone exists for the branch's major version.
	ErrNoMilestone = errors.New("no open milestone found")
	// ErrNoPullRequests means none of the commit messages reference a PR.
	ErrNoPullRequests = errors.New("no PRs found in commit messages")
	// ErrMilestoneNotFound means the release has no milestone.
	ErrMilestoneNotFound = errors.New("no milestone found for release")
	// ErrBackportCycle means a backport chain leads back to an issue already visited.
	ErrBackportCycle = errors.New("backport cycle detected")
	// ErrBackportDepth means a backport chain is longer than allowed.
	ErrBackportDepth = errors.New("backport chain too deep")
)

// Repository identifies the single repository a run works on.
type Repository struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// IssueURL links to an issue of the repository.
func (r Repository) IssueURL(number int) string {
	return "https://github.com/" + r.String() + "/issues/" + itoa(number)
}

// Options configures the behavior of the assigner and reconciler.
type Options struct {
	DryRun           bool
	BackportLabel    string
	MaxBackportDepth int
	ExcludedLabels   []string
	Board            config.BoardConfig
}

// OptionsFromConfig maps the loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config, dryRun bool) Options {
	return Options{
		DryRun:           dryRun,
		BackportLabel:    cfg.BackportLabel,
		MaxBackportDepth: cfg.MaxBackportDepth,
		ExcludedLabels:   cfg.ExcludedLabels,
		Board:            cfg.Board,
	}
}

func (o Options) withDefaults() Options {
	if o.BackportLabel == "" {
		o.BackportLabel = "was-backported"
	}
	if o.MaxBackportDepth < 1 {
		o.MaxBackportDepth = 10
	}
	if o.ExcludedLabels == nil {
		o.ExcludedLabels = config.DefaultExcludedLabels
	}
	return o
}
