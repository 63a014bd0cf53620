package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/goblinsan/gh-release-milestones/pkg/engine"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(assignCmd)
	addAssignFlags(assignCmd)
}

func addAssignFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("branch", "b", "", "Release branch the commits landed on (e.g. release-x.57.x)")
	cmd.Flags().StringArrayP("message", "m", nil, "Commit message to scan for PR references (repeatable)")
	cmd.Flags().StringP("file", "f", "", "Request file with branch and messages")
	cmd.Flags().Bool("dry-run", false, "Preview milestone changes and comments without making them")
	cmd.Flags().StringP("output", "o", engine.FormatText, "Output format: text, json or yaml")
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Tag the issues behind a release branch's commits with its next milestone",
	Long: `Find the PRs referenced by the given commit messages, follow backports and
closing keywords to the original issues, and set the branch's next open
milestone on each of them. Issues already on an older milestone keep it and get
a comment instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := assignRequest(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout(context.Background())
		defer cancel()

		report, err := runAssign(ctx, req)
		if report != nil {
			output, _ := cmd.Flags().GetString("output")
			if renderErr := engine.Render(os.Stdout, output, report); renderErr != nil {
				return renderErr
			}
		}
		return err
	},
}

// assignRequest reads the optional request file and lets flags override it.
func assignRequest(cmd *cobra.Command) (types.AssignRequest, error) {
	var req types.AssignRequest

	if filePath, _ := cmd.Flags().GetString("file"); filePath != "" {
		yamlFile, err := os.ReadFile(filePath)
		if err != nil {
			return req, fmt.Errorf("failed to read file: %w", err)
		}
		if err := yaml.Unmarshal(yamlFile, &req); err != nil {
			return req, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	if cmd.Flags().Changed("branch") {
		req.Branch, _ = cmd.Flags().GetString("branch")
	}
	if cmd.Flags().Changed("message") {
		req.Messages, _ = cmd.Flags().GetStringArray("message")
	}
	if cmd.Flags().Changed("dry-run") {
		req.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	return req, nil
}
