// Package refs extracts pull request and issue references from commit messages
// and issue bodies.
package refs

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// GitHub appends "(#123)" to the subject of squash-merged commits.
	mergeSuffixPattern = regexp.MustCompile(`\(#(\d+)\)`)

	// The first PR reference in a backport body points at its source.
	backportSourcePattern = regexp.MustCompile(`(?:^|[^\w/])#(\d+)\b|(?:github\.com/([\w.-]+/[\w.-]+))?/pull/(\d+)\b`)

	linkedIssuePattern = regexp.MustCompile(
		`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s*:?\s+` +
			`(?:#(\d+)|([\w.-]+/[\w.-]+)#(\d+)|https://github\.com/([\w.-]+/[\w.-]+)/issues/(\d+))`)
)

// reference is one match: the number and, when qualified, the "owner/name" it
// points into.
type reference struct {
	repo   string
	number int
}

// local reports whether ref points into repo. Unqualified references always do.
func (ref reference) local(repo string) bool {
	return ref.repo == "" || strings.EqualFold(ref.repo, repo)
}

// PullRequests returns the PR numbers referenced by a merge commit message, in
// order of appearance. It returns nil when there are none.
func PullRequests(message string) []int {
	return collect(mergeSuffixPattern.FindAllStringSubmatch(message, -1), "")
}

// LinkedIssues returns the issues of repo ("owner/name") a PR body closes via
// closing keywords, e.g. "Fixes #123" or "closes https://github.com/o/r/issues/123".
// References into other repositories are ignored. Duplicates are removed; nil
// means no links.
func LinkedIssues(body, repo string) []int {
	return collect(linkedIssuePattern.FindAllStringSubmatch(body, -1), repo)
}

// BackportSource returns the PR of repo a backport was created from. Links to
// pull requests of other repositories are skipped.
func BackportSource(body, repo string) (int, bool) {
	nums := collect(backportSourcePattern.FindAllStringSubmatch(body, -1), repo)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

// parse reads a match whose groups are optional repos each followed by a
// number. The first number found wins.
func parse(m []string) (reference, bool) {
	var ref reference
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			ref.repo = g
			continue
		}
		ref.number = n
		return ref, true
	}
	return ref, false
}

// collect keeps the numbers of every match local to repo, deduplicated.
func collect(matches [][]string, repo string) []int {
	var out []int
	seen := make(map[int]bool)
	for _, m := range matches {
		ref, ok := parse(m)
		if !ok || !ref.local(repo) || seen[ref.number] {
			continue
		}
		seen[ref.number] = true
		out = append(out, ref.number)
	}
	return out
}
