package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes v in the requested format. Text uses v's String or WriteText
// method.
func Render(w io.Writer, format string, v interface{}) error {
	switch format {
	case "", FormatText:
		if t, ok := v.(interface{ WriteText(io.Writer) error }); ok {
			return t.WriteText(w)
		}
		_, err := fmt.Fprintln(w, v)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// WriteText prints the per-commit listing followed by both gap lists.
func (r *ReleaseReport) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Release %s (milestone %s), %s...%s\n", r.Version, r.Milestone.Title, r.Base, r.Head)
	fmt.Fprintf(&b, "%d commits, %d issues in milestone\n\n", r.CommitCount, len(r.MilestoneIssues))

	for _, c := range r.Commits {
		fmt.Fprintln(&b, c.SHA)
		for _, number := range c.Issues {
			if containsInt(c.InMilestone, number) {
				fmt.Fprintf(&b, "  Issue #%d is in milestone\n", number)
			} else {
				fmt.Fprintf(&b, "  Issue #%d is not in milestone (%s)\n", number, r.Repository.IssueURL(number))
			}
		}
	}

	b.WriteString("\nClosed issues in milestone but not in commits:")
	r.writeList(&b, r.InMilestoneNotInCommits)
	b.WriteString("\nIssues in commits but not in milestone:")
	r.writeList(&b, r.InCommitsNotInMilestone)

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(&b, "\nPRs that could not be resolved: %v\n", r.Unresolved)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *ReleaseReport) writeList(b *strings.Builder, issues []int) {
	if len(issues) == 0 {
		b.WriteString(" none\n")
		return
	}
	b.WriteString("\n")
	for _, number := range issues {
		fmt.Fprintf(b, "  #%d (%s)\n", number, r.Repository.IssueURL(number))
	}
}

func (r *FileReport) String() string {
	prefix := ""
	if r.DryRun {
		prefix = "[dry-run] "
	}
	return fmt.Sprintf("%sFiled %d issues on the project board (%d skipped)", prefix, len(r.Filed), len(r.Skipped))
}
