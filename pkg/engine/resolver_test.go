package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

func newTestResolver(gw *mockGateway, opts Options) *Resolver {
	return NewResolver(NewIssueCache(gw, testRepo), opts)
}

func TestOriginalIssues_LinkedIssues(t *testing.T) {
	gw := newMockGateway()
	gw.addIssue(pr(200, "Fixes #123"))

	got, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 200)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{123}) {
		t.Errorf("expected [123], got %v", got)
	}
}

func TestOriginalIssues_PlainIssue(t *testing.T) {
	gw := newMockGateway()
	plain := issue(50)
	plain.Body = "Fixes #1"
	gw.addIssue(plain)

	got, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 50)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{50}) {
		t.Errorf("a plain issue resolves to itself, got %v", got)
	}
}

func TestOriginalIssues_PRWithoutLinks(t *testing.T) {
	gw := newMockGateway()
	gw.addIssue(pr(201, "Refactor without an issue"))

	got, _ := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 201)
	if !reflect.DeepEqual(got, []int{201}) {
		t.Errorf("expected [201], got %v", got)
	}
}

func TestOriginalIssues_IgnoresOtherRepositories(t *testing.T) {
	gw := newMockGateway()
	gw.addIssue(pr(200, "Fixes other-org/other-lib#5\ncloses https://github.com/other-org/other-lib/issues/6"))
	gw.addIssue(pr(201, "Fixes other-org/other-lib#5\nFixes owner/repo#7\nresolves https://github.com/Owner/Repo/issues/8"))

	resolver := newTestResolver(gw, Options{})
	got, err := resolver.OriginalIssues(context.Background(), 200)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{200}) {
		t.Errorf("links into other repositories must not count, got %v", got)
	}

	got, err = resolver.OriginalIssues(context.Background(), 201)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{7, 8}) {
		t.Errorf("expected [7 8], got %v", got)
	}
}

func TestOriginalIssues_BackportSkipsOtherRepositories(t *testing.T) {
	gw := newMockGateway()
	backport := pr(300, "Ported from https://github.com/other-org/other-lib/pull/9 via #456")
	backport.Title = "Fix filter (backport)"
	gw.addIssue(backport)
	gw.addIssue(pr(456, "Closes #77"))

	got, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 300)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{77}) {
		t.Errorf("expected [77], got %v", got)
	}
	if gw.fetches[9] != 0 {
		t.Errorf("a pull request of another repository must not be fetched")
	}
}

func TestOriginalIssues_BackportFollowsSource(t *testing.T) {
	gw := newMockGateway()
	backport := pr(300, "#456")
	backport.Title = "Fix filter (backport)"
	gw.addIssue(backport)
	gw.addIssue(pr(456, "Closes #77\ncloses #78"))

	resolver := newTestResolver(gw, Options{})
	got, err := resolver.OriginalIssues(context.Background(), 300)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	source, _ := resolver.OriginalIssues(context.Background(), 456)
	if !reflect.DeepEqual(got, source) || !reflect.DeepEqual(got, []int{77, 78}) {
		t.Errorf("backport should resolve like its source: got %v, source %v", got, source)
	}
}

func TestOriginalIssues_BackportLabel(t *testing.T) {
	gw := newMockGateway()
	labelled := pr(301, "#457\nFixes #9")
	labelled.Labels = []string{"was-backported"}
	gw.addIssue(labelled)
	gw.addIssue(pr(457, "Fixes #90"))

	got, _ := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 301)
	if !reflect.DeepEqual(got, []int{90}) {
		t.Errorf("expected [90], got %v", got)
	}
}

func TestOriginalIssues_BackportReferencingItself(t *testing.T) {
	gw := newMockGateway()
	self := pr(302, "#302\nFixes #5")
	self.Title = "backport of something"
	gw.addIssue(self)

	got, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 302)
	if err != nil {
		t.Fatalf("OriginalIssues failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{5}) {
		t.Errorf("self reference falls through to linked issues, got %v", got)
	}
}

func TestOriginalIssues_NotFound(t *testing.T) {
	gw := newMockGateway()

	got, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 999)
	if err != nil {
		t.Fatalf("not found must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no issues, got %v", got)
	}
}

func TestOriginalIssues_Cycle(t *testing.T) {
	gw := newMockGateway()
	a := pr(1, "#2")
	a.Title = "backport a"
	b := pr(2, "#1")
	b.Title = "backport b"
	gw.addIssue(a)
	gw.addIssue(b)

	_, err := newTestResolver(gw, Options{}).OriginalIssues(context.Background(), 1)
	if !errors.Is(err, ErrBackportCycle) {
		t.Fatalf("expected ErrBackportCycle, got %v", err)
	}
}

func TestOriginalIssues_DepthExceeded(t *testing.T) {
	gw := newMockGateway()
	// 10 -> 11 -> 12 -> 13 -> 14
	for n := 10; n < 14; n++ {
		b := pr(n, "#"+itoa(n+1))
		b.Title = "backport"
		gw.addIssue(b)
	}
	gw.addIssue(issue(14))

	_, err := newTestResolver(gw, Options{MaxBackportDepth: 3}).OriginalIssues(context.Background(), 10)
	if !errors.Is(err, ErrBackportDepth) {
		t.Fatalf("expected ErrBackportDepth, got %v", err)
	}

	got, err := newTestResolver(gw, Options{MaxBackportDepth: 4}).OriginalIssues(context.Background(), 10)
	if err != nil {
		t.Fatalf("four hops fit in depth 4: %v", err)
	}
	if !reflect.DeepEqual(got, []int{14}) {
		t.Errorf("expected [14], got %v", got)
	}
}

func TestOriginalIssues_Cancelled(t *testing.T) {
	gw := newMockGateway()
	gw.addIssue(issue(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(gw, Options{}).OriginalIssues(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOriginalIssues_UsesCache(t *testing.T) {
	gw := newMockGateway()
	gw.addIssue(types.Issue{Number: 7, Title: "x", PullRequest: true, Body: "fixes #8"})
	resolver := newTestResolver(gw, Options{})

	resolver.OriginalIssues(context.Background(), 7)
	resolver.OriginalIssues(context.Background(), 7)

	if gw.fetches[7] != 1 {
		t.Errorf("expected 1 fetch, got %d", gw.fetches[7])
	}
}
