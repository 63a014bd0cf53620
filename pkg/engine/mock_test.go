package engine

import (
	"context"
	"fmt"
	"strings"

	ghclient "github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

var testRepo = Repository{Owner: "owner", Name: "repo"}

type fieldUpdate struct {
	itemID  string
	fieldID string
	value   string
}

type milestoneUpdate struct {
	issue     int
	milestone int
}

// mockGateway implements Gateway for testing.
type mockGateway struct {
	issues     map[int]*types.Issue
	milestones []types.Milestone
	closed     map[int][]types.Issue
	commits    []types.Commit
	comments   map[int][]string

	getErr     map[int]error
	updateErr  error
	commentErr error

	fetches          map[int]int
	milestoneUpdates []milestoneUpdate
	postedComments   []int
	projectItems     []string
	fieldUpdates     []fieldUpdate
	compared         []string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		issues:   make(map[int]*types.Issue),
		closed:   make(map[int][]types.Issue),
		comments: make(map[int][]string),
		getErr:   make(map[int]error),
		fetches:  make(map[int]int),
	}
}

func (m *mockGateway) addIssue(issue types.Issue) {
	m.issues[issue.Number] = &issue
}

func (m *mockGateway) milestone(number int) *types.Milestone {
	for i := range m.milestones {
		if m.milestones[i].Number == number {
			ms := m.milestones[i]
			return &ms
		}
	}
	return nil
}

func (m *mockGateway) GetIssue(_ context.Context, _, _ string, number int) (*types.Issue, error) {
	m.fetches[number]++
	if err := m.getErr[number]; err != nil {
		return nil, err
	}
	issue, ok := m.issues[number]
	if !ok {
		return nil, fmt.Errorf("get issue #%d: %w", number, ghclient.ErrNotFound)
	}
	copied := *issue
	return &copied, nil
}

func (m *mockGateway) UpdateIssueMilestone(_ context.Context, _, _ string, number, milestone int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.milestoneUpdates = append(m.milestoneUpdates, milestoneUpdate{issue: number, milestone: milestone})
	if issue, ok := m.issues[number]; ok {
		issue.Milestone = m.milestone(milestone)
	}
	return nil
}

func (m *mockGateway) CreateIssueComment(_ context.Context, _, _ string, number int, body string) error {
	if m.commentErr != nil {
		return m.commentErr
	}
	m.postedComments = append(m.postedComments, number)
	m.comments[number] = append(m.comments[number], body)
	return nil
}

func (m *mockGateway) ListIssueComments(_ context.Context, _, _ string, number int) ([]string, error) {
	return m.comments[number], nil
}

func (m *mockGateway) ListOpenMilestones(_ context.Context, _, _ string) ([]types.Milestone, error) {
	var open []types.Milestone
	for _, ms := range m.milestones {
		if ms.State != "closed" {
			open = append(open, ms)
		}
	}
	return open, nil
}

func (m *mockGateway) FindMilestoneByVersion(_ context.Context, _, _, version string) (*types.Milestone, error) {
	for _, ms := range m.milestones {
		if strings.TrimPrefix(ms.Title, "v") == strings.TrimPrefix(version, "v") {
			found := ms
			return &found, nil
		}
	}
	return nil, fmt.Errorf("milestone %s: %w", version, ghclient.ErrNotFound)
}

func (m *mockGateway) ListClosedMilestoneIssues(_ context.Context, _, _ string, milestone int) ([]types.Issue, error) {
	return m.closed[milestone], nil
}

func (m *mockGateway) CompareCommits(_ context.Context, _, _, base, head string) ([]types.Commit, error) {
	m.compared = append(m.compared, base+"..."+head)
	return m.commits, nil
}

func (m *mockGateway) AddProjectItem(_ context.Context, _, contentID string) (string, error) {
	m.projectItems = append(m.projectItems, contentID)
	return "item-" + contentID, nil
}

func (m *mockGateway) SetProjectItemText(_ context.Context, _, itemID, fieldID, value string) error {
	m.fieldUpdates = append(m.fieldUpdates, fieldUpdate{itemID: itemID, fieldID: fieldID, value: value})
	return nil
}

func (m *mockGateway) mutations() int {
	return len(m.milestoneUpdates) + len(m.postedComments) + len(m.projectItems) + len(m.fieldUpdates)
}

func pr(number int, body string) types.Issue {
	return types.Issue{Number: number, Title: fmt.Sprintf("PR %d", number), Body: body, PullRequest: true, NodeID: fmt.Sprintf("PR_%d", number)}
}

func issue(number int) types.Issue {
	return types.Issue{Number: number, Title: fmt.Sprintf("Issue %d", number), NodeID: fmt.Sprintf("I_%d", number)}
}
