package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ghclient "github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/goblinsan/gh-release-milestones/pkg/refs"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/goblinsan/gh-release-milestones/pkg/version"
)

// Outcome records what SetMilestone did to one issue.
type Outcome string

// Outcomes of SetMilestone.
const (
	OutcomeAssigned         Outcome = "assigned"
	OutcomeUnchanged        Outcome = "unchanged"
	OutcomeReassigned       Outcome = "reassigned"
	OutcomeCommented        Outcome = "commented"
	OutcomeAlreadyCommented Outcome = "already-commented"
	OutcomeNotFound         Outcome = "not-found"
)

// commentMarker is embedded in every comment so reruns can find it.
const commentMarker = "<!-- release-milestones:milestone=%d -->"

// AssignReport summarizes a milestone assignment run.
type AssignReport struct {
	Branch       string          `json:"branch" yaml:"branch"`
	Milestone    types.Milestone `json:"milestone" yaml:"milestone"`
	PullRequests []int           `json:"pull_requests" yaml:"pull_requests"`
	Issues       []int           `json:"issues" yaml:"issues"`
	Outcomes     map[int]Outcome `json:"outcomes" yaml:"outcomes"`
	Unresolved   []int           `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Unprocessed  []int           `json:"unprocessed,omitempty" yaml:"unprocessed,omitempty"`
	DryRun       bool            `json:"dry_run" yaml:"dry_run"`
}

func (r *AssignReport) String() string {
	counts := make(map[Outcome]int)
	for _, o := range r.Outcomes {
		counts[o]++
	}
	s := fmt.Sprintf("Summary: milestone %s, %d PRs, %d issues (%d assigned, %d reassigned, %d commented, %d unchanged)",
		r.Milestone.Title, len(r.PullRequests), len(r.Issues),
		counts[OutcomeAssigned], counts[OutcomeReassigned], counts[OutcomeCommented]+counts[OutcomeAlreadyCommented], counts[OutcomeUnchanged])
	if len(r.Unprocessed) > 0 {
		s += fmt.Sprintf(", %d not processed", len(r.Unprocessed))
	}
	return s
}

// Assigner tags the original issues behind a release branch's commits with the
// branch's next milestone.
type Assigner struct {
	gateway  Gateway
	repo     Repository
	resolver *Resolver
	dryRun   bool
}

// NewAssigner creates an assigner for repo.
func NewAssigner(gateway Gateway, repo Repository, resolver *Resolver, opts Options) *Assigner {
	return &Assigner{
		gateway:  gateway,
		repo:     repo,
		resolver: resolver,
		dryRun:   opts.DryRun,
	}
}

// AssignForCommits sets the next open milestone of the branch's major version
// on every original issue referenced by the commit messages. Calls are issued
// one at a time. If a mutation fails the returned report lists the issues not
// yet processed.
func (a *Assigner) AssignForCommits(ctx context.Context, branch string, messages []string) (*AssignReport, error) {
	branchVersion, err := version.FromReleaseBranch(branch)
	if err != nil {
		return nil, err
	}
	major, err := version.Major(branchVersion)
	if err != nil {
		return nil, err
	}

	open, err := a.gateway.ListOpenMilestones(ctx, a.repo.Owner, a.repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list open milestones: %w", err)
	}
	milestone, ok := version.NextOpenMilestone(open, major)
	if !ok {
		return nil, fmt.Errorf("%w for major version %s", ErrNoMilestone, major)
	}
	logging.Info("next milestone", "milestone", milestone.Title, "branch", branch)

	var prs []int
	for _, msg := range messages {
		prs = append(prs, refs.PullRequests(msg)...)
	}
	prs = uniqueInts(prs)
	if len(prs) == 0 {
		return nil, ErrNoPullRequests
	}

	report := &AssignReport{
		Branch:       branch,
		Milestone:    milestone,
		PullRequests: prs,
		Outcomes:     make(map[int]Outcome),
		DryRun:       a.dryRun,
	}

	logging.Info("checking PRs for issues to tag", "count", len(prs))
	var issues []int
	for _, pr := range prs {
		originals, err := a.resolver.OriginalIssues(ctx, pr)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			logging.Warn("skipping PR", "pr", pr, "error", err)
			report.Unresolved = append(report.Unresolved, pr)
			continue
		}
		issues = append(issues, originals...)
	}
	report.Issues = uniqueInts(issues)

	logging.Info("tagging issues", "count", len(report.Issues), "milestone", milestone.Title)
	for i, number := range report.Issues {
		outcome, err := a.SetMilestone(ctx, number, milestone)
		if err != nil {
			report.Unprocessed = append([]int(nil), report.Issues[i:]...)
			logging.Error("milestone assignment aborted", "issue", number, "unprocessed", report.Unprocessed, "error", err)
			return report, fmt.Errorf("failed to set milestone on #%d: %w", number, err)
		}
		report.Outcomes[number] = outcome
	}

	return report, nil
}

// SetMilestone tags one issue or PR with milestone. An issue without a
// milestone gets it; one already on a strictly newer milestone is moved to
// this older one; otherwise the existing milestone is kept and a comment
// notes the other release that ships the change.
func (a *Assigner) SetMilestone(ctx context.Context, number int, milestone types.Milestone) (Outcome, error) {
	issue, err := a.gateway.GetIssue(ctx, a.repo.Owner, a.repo.Name, number)
	if err != nil {
		if errors.Is(err, ghclient.ErrNotFound) {
			logging.Warn("issue not found, skipping", "issue", number)
		} else {
			logging.Warn("failed to fetch issue, skipping", "issue", number, "error", err)
		}
		return OutcomeNotFound, nil
	}

	existing := issue.Milestone
	if existing == nil {
		logging.Info("setting milestone", "issue", number, "milestone", milestone.Title, "dry_run", a.dryRun)
		if err := a.updateMilestone(ctx, number, milestone); err != nil {
			return "", err
		}
		return OutcomeAssigned, nil
	}

	if existing.Number == milestone.Number {
		logging.Info("issue is already tagged with this milestone", "issue", number, "milestone", milestone.Title)
		return OutcomeUnchanged, nil
	}

	existingIsNewer := version.Compare(existing.Title, milestone.Title) > 0
	alsoReleasedBy := milestone
	if existingIsNewer {
		logging.Info("changing milestone", "issue", number, "from", existing.Title, "to", milestone.Title, "dry_run", a.dryRun)
		if err := a.updateMilestone(ctx, number, milestone); err != nil {
			return "", err
		}
		alsoReleasedBy = *existing
	}

	logging.Info("adding comment to issue that already has a milestone", "issue", number, "existing", existing.Title, "also_released_by", alsoReleasedBy.Title)
	posted, err := a.comment(ctx, number, alsoReleasedBy)
	if err != nil {
		return "", err
	}

	switch {
	case existingIsNewer:
		return OutcomeReassigned, nil
	case posted:
		return OutcomeCommented, nil
	default:
		return OutcomeAlreadyCommented, nil
	}
}

func (a *Assigner) updateMilestone(ctx context.Context, number int, milestone types.Milestone) error {
	if a.dryRun {
		return nil
	}
	return a.gateway.UpdateIssueMilestone(ctx, a.repo.Owner, a.repo.Name, number, milestone.Number)
}

// comment posts the "also released by" note unless an earlier run already did.
func (a *Assigner) comment(ctx context.Context, number int, milestone types.Milestone) (bool, error) {
	marker := fmt.Sprintf(commentMarker, milestone.Number)

	bodies, err := a.gateway.ListIssueComments(ctx, a.repo.Owner, a.repo.Name, number)
	if err != nil {
		logging.Warn("failed to list comments, posting without duplicate check", "issue", number, "error", err)
	}
	for _, body := range bodies {
		if strings.Contains(body, marker) {
			logging.Info("comment already posted", "issue", number, "milestone", milestone.Title)
			return false, nil
		}
	}

	if a.dryRun {
		logging.Info("would post comment", "issue", number, "milestone", milestone.Title)
		return true, nil
	}
	if err := a.gateway.CreateIssueComment(ctx, a.repo.Owner, a.repo.Name, number, commentBody(milestone)); err != nil {
		return false, err
	}
	return true, nil
}

func commentBody(m types.Milestone) string {
	title := "v" + strings.TrimPrefix(m.Title, "v")
	link := title
	if m.HTMLURL != "" {
		link = fmt.Sprintf("[%s](%s)", title, m.HTMLURL)
	}
	return fmt.Sprintf("🚀 This should also be released by %s\n\n"+commentMarker, link, m.Number)
}
