package engine

import (
	"context"
	"errors"
	"fmt"

	ghclient "github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/goblinsan/gh-release-milestones/pkg/refs"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/goblinsan/gh-release-milestones/pkg/version"
)

// Board comments for the two kinds of gap.
const (
	CommentMissingCommit  = "Issue in milestone, cannot find commit"
	CommentNeedsMilestone = "Issue in release branch, needs milestone"
)

// CommitIssues lists the original issues behind one commit.
type CommitIssues struct {
	SHA         string `json:"sha" yaml:"sha"`
	Issues      []int  `json:"issues" yaml:"issues"`
	InMilestone []int  `json:"in_milestone,omitempty" yaml:"in_milestone,omitempty"`
	Missing     []int  `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// ReleaseReport is the outcome of comparing a release's commits with its
// milestone.
type ReleaseReport struct {
	Repository      Repository      `json:"repository" yaml:"repository"`
	Version         string          `json:"version" yaml:"version"`
	Milestone       types.Milestone `json:"milestone" yaml:"milestone"`
	Base            string          `json:"base" yaml:"base"`
	Head            string          `json:"head" yaml:"head"`
	CommitCount     int             `json:"commit_count" yaml:"commit_count"`
	MilestoneIssues []int           `json:"milestone_issues" yaml:"milestone_issues"`
	Commits         []CommitIssues  `json:"commits" yaml:"commits"`
	IssueCommit     map[int]string  `json:"issue_commit" yaml:"issue_commit"`
	Unresolved      []int           `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`

	InMilestoneNotInCommits []int `json:"in_milestone_not_in_commits" yaml:"in_milestone_not_in_commits"`
	InOlderMilestones       []int `json:"in_older_milestones" yaml:"in_older_milestones"`
	WithExcludedLabels      []int `json:"with_excluded_labels" yaml:"with_excluded_labels"`
	InCommitsNotInMilestone []int `json:"in_commits_not_in_milestone" yaml:"in_commits_not_in_milestone"`
}

// FileReport lists the board items created for a release's gaps.
type FileReport struct {
	Filed   []types.ProjectItem `json:"filed" yaml:"filed"`
	Skipped []int               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DryRun  bool                `json:"dry_run" yaml:"dry_run"`
}

// Reconciler checks a release milestone against the commits that shipped.
type Reconciler struct {
	gateway  Gateway
	repo     Repository
	resolver *Resolver
	opts     Options
}

// NewReconciler creates a reconciler for repo.
func NewReconciler(gateway Gateway, repo Repository, resolver *Resolver, opts Options) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		repo:     repo,
		resolver: resolver,
		opts:     opts.withDefaults(),
	}
}

// Compute gathers the milestone, commit range and original issues of a
// release and partitions them. It only reads from GitHub. An empty base is
// inferred as the previous patch release of ver.
func (r *Reconciler) Compute(ctx context.Context, ver, head, base string) (*ReleaseReport, error) {
	if base == "" {
		inferred, err := version.PreviousPatch(ver)
		if err != nil {
			return nil, fmt.Errorf("%w; pass a base ref explicitly", err)
		}
		base = inferred
	}

	milestone, err := r.gateway.FindMilestoneByVersion(ctx, r.repo.Owner, r.repo.Name, ver)
	if err != nil {
		if errors.Is(err, ghclient.ErrNotFound) {
			return nil, fmt.Errorf("%w %s", ErrMilestoneNotFound, ver)
		}
		return nil, fmt.Errorf("failed to find milestone %s: %w", ver, err)
	}

	closed, err := r.gateway.ListClosedMilestoneIssues(ctx, r.repo.Owner, r.repo.Name, milestone.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestone issues: %w", err)
	}

	commits, err := r.gateway.CompareCommits(ctx, r.repo.Owner, r.repo.Name, base, head)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}

	logging.Info("found commits in release branch", "count", len(commits), "base", base, "head", head)
	logging.Info("found issues in milestone", "count", len(closed), "milestone", milestone.Title)

	report := &ReleaseReport{
		Repository:  r.repo,
		Version:     ver,
		Milestone:   *milestone,
		Base:        base,
		Head:        head,
		CommitCount: len(commits),
		IssueCommit: make(map[int]string),
	}

	cache := r.resolver.Cache()
	inMilestone := make(map[int]bool, len(closed))
	for _, issue := range closed {
		cache.Put(issue)
		inMilestone[issue.Number] = true
		report.MilestoneIssues = append(report.MilestoneIssues, issue.Number)
	}

	var commitIssues []int
	inCommits := make(map[int]bool)
	for _, commit := range commits {
		prs := refs.PullRequests(commit.Message)
		if len(prs) == 0 {
			logging.Debug("no PRs found in commit message", "sha", commit.SHA)
			continue
		}

		var found []int
		for _, pr := range prs {
			if containsInt(found, pr) {
				continue
			}
			originals, err := r.resolver.OriginalIssues(ctx, pr)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				logging.Warn("skipping PR", "pr", pr, "sha", commit.SHA, "error", err)
				report.Unresolved = append(report.Unresolved, pr)
				continue
			}
			found = append(found, originals...)
		}

		entry := CommitIssues{SHA: commit.SHA, Issues: uniqueInts(found)}
		for _, number := range entry.Issues {
			if !inCommits[number] {
				inCommits[number] = true
				commitIssues = append(commitIssues, number)
			}
			report.IssueCommit[number] = commit.SHA
			if inMilestone[number] {
				entry.InMilestone = append(entry.InMilestone, number)
			} else {
				entry.Missing = append(entry.Missing, number)
			}
		}
		report.Commits = append(report.Commits, entry)
	}

	for _, number := range report.MilestoneIssues {
		if !inCommits[number] {
			report.InMilestoneNotInCommits = append(report.InMilestoneNotInCommits, number)
		}
	}

	older := make(map[int]bool)
	excluded := make(map[int]bool)
	for _, number := range commitIssues {
		issue := cache.Get(ctx, number)
		if issue == nil {
			continue
		}
		if issue.Milestone != nil && version.Compare(issue.Milestone.Title, milestone.Title) < 0 {
			logging.Info("issue is in an older milestone", "issue", number, "milestone", issue.Milestone.Title)
			older[number] = true
			report.InOlderMilestones = append(report.InOlderMilestones, number)
		}
		if label, ok := r.excludedLabel(issue); ok {
			logging.Info("issue has excluded label", "issue", number, "label", label)
			excluded[number] = true
			report.WithExcludedLabels = append(report.WithExcludedLabels, number)
		}
	}

	for _, number := range commitIssues {
		if !inMilestone[number] && !older[number] && !excluded[number] {
			report.InCommitsNotInMilestone = append(report.InCommitsNotInMilestone, number)
		}
	}

	return report, nil
}

func (r *Reconciler) excludedLabel(issue *types.Issue) (string, bool) {
	for _, label := range r.opts.ExcludedLabels {
		if issue.HasLabel(label) {
			return label, true
		}
	}
	return "", false
}

// File adds both gap lists of report to the release tracking board, each item
// annotated with its kind of gap and the release version. Nothing is filed
// when no board is configured.
func (r *Reconciler) File(ctx context.Context, report *ReleaseReport) (*FileReport, error) {
	result := &FileReport{DryRun: r.opts.DryRun}
	if !r.opts.Board.Enabled() {
		logging.Warn("project board not configured, not filing gaps")
		return result, nil
	}

	gaps := []struct {
		issues  []int
		comment string
	}{
		{report.InMilestoneNotInCommits, CommentMissingCommit},
		{report.InCommitsNotInMilestone, CommentNeedsMilestone},
	}

	for _, gap := range gaps {
		for _, number := range gap.issues {
			item, err := r.fileIssue(ctx, number, gap.comment, report.Version)
			if err != nil {
				return result, fmt.Errorf("failed to file #%d: %w", number, err)
			}
			if item == nil {
				result.Skipped = append(result.Skipped, number)
				continue
			}
			result.Filed = append(result.Filed, *item)
		}
	}
	return result, nil
}

func (r *Reconciler) fileIssue(ctx context.Context, number int, comment, ver string) (*types.ProjectItem, error) {
	logging.Info("adding issue to project", "issue", number, "comment", comment, "dry_run", r.opts.DryRun)

	issue := r.resolver.Cache().Get(ctx, number)
	if issue == nil {
		return nil, nil
	}

	item := &types.ProjectItem{IssueNumber: number, Comment: comment, Version: ver}
	if r.opts.DryRun {
		return item, nil
	}

	board := r.opts.Board
	itemID, err := r.gateway.AddProjectItem(ctx, board.ProjectID, issue.NodeID)
	if err != nil {
		return nil, err
	}
	item.ItemID = itemID

	if err := r.gateway.SetProjectItemText(ctx, board.ProjectID, itemID, board.CommentFieldID, comment); err != nil {
		return nil, err
	}
	if err := r.gateway.SetProjectItemText(ctx, board.ProjectID, itemID, board.VersionFieldID, ver); err != nil {
		return nil, err
	}
	return item, nil
}
