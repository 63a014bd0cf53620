// Package version orders milestone titles and derives release versions from
// branch names and tags.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goblinsan/gh-release-milestones/pkg/types"
)

var releaseBranchPattern = regexp.MustCompile(`^release-x\.(\d+)\.x$`)

// components splits a version string into its numeric parts. A leading "v" is
// ignored and anything that is not a number counts as 0.
func components(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums[i] = n
	}
	return nums
}

func at(nums []int, i int) int {
	if i < len(nums) {
		return nums[i]
	}
	return 0
}

// Compare orders two versions by their first two components only. It returns a
// negative number when a sorts before b, zero when they share major and minor,
// and a positive number otherwise. Missing components are treated as 0.
func Compare(a, b string) int {
	ac, bc := components(a), components(b)
	if d := at(ac, 0) - at(bc, 0); d != 0 {
		return d
	}
	return at(ac, 1) - at(bc, 1)
}

// compareFull orders two versions on every component.
func compareFull(a, b string) int {
	ac, bc := components(a), components(b)
	n := len(ac)
	if len(bc) > n {
		n = len(bc)
	}
	for i := 0; i < n; i++ {
		if d := at(ac, i) - at(bc, i); d != 0 {
			return d
		}
	}
	return 0
}

// IsPatch reports whether title names a patch release, i.e. it has four or
// more dot-separated components.
func IsPatch(title string) bool {
	return len(strings.Split(strings.TrimPrefix(title, "v"), ".")) >= 4
}

// NextOpenMilestone returns the lowest non-patch milestone for the given major
// version (e.g. "57" selects 0.57.x titles). The boolean is false when no
// milestone qualifies.
func NextOpenMilestone(open []types.Milestone, major string) (types.Milestone, bool) {
	prefix := "0." + major
	var candidates []types.Milestone
	for _, m := range open {
		title := strings.TrimPrefix(m.Title, "v")
		if title != prefix && !strings.HasPrefix(title, prefix+".") {
			continue
		}
		if IsPatch(title) {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return types.Milestone{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if c := Compare(candidates[i].Title, candidates[j].Title); c != 0 {
			return c < 0
		}
		return compareFull(candidates[i].Title, candidates[j].Title) < 0
	})
	return candidates[0], true
}

// FromReleaseBranch converts a release branch name such as "release-x.57.x"
// into the first version of that line, "v0.57.0".
func FromReleaseBranch(branch string) (string, error) {
	m := releaseBranchPattern.FindStringSubmatch(strings.TrimSpace(branch))
	if m == nil {
		return "", fmt.Errorf("invalid release branch %q, expected release-x.<major>.x", branch)
	}
	return fmt.Sprintf("v0.%s.0", m[1]), nil
}

// Major returns the major release number of a version, e.g. "57" for v0.57.3.
func Major(v string) (string, error) {
	nums := components(v)
	if len(nums) < 2 {
		return "", fmt.Errorf("invalid version %q", v)
	}
	return strconv.Itoa(nums[1]), nil
}

// PreviousPatch returns the tag released just before v on the same line:
// v0.50.7 gives v0.50.6. It fails when the last component is already 0.
func PreviousPatch(v string) (string, error) {
	nums := components(v)
	if len(nums) < 3 {
		return "", fmt.Errorf("cannot infer previous release of %q", v)
	}
	last := len(nums) - 1
	if nums[last] == 0 {
		return "", fmt.Errorf("cannot infer previous release of %q: no earlier patch on this line", v)
	}
	nums[last]--

	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return "v" + strings.Join(parts, "."), nil
}
