package commands

import (
	"context"
	"os"

	"github.com/goblinsan/gh-release-milestones/pkg/engine"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("version", "", "Release version, matching its milestone title (e.g. v0.50.7)")
	reconcileCmd.Flags().String("commit", "", "Commit the release was cut from")
	reconcileCmd.Flags().String("base", "", "Previous release ref (default: base_ref or the previous patch tag)")
	reconcileCmd.Flags().Bool("dry-run", false, "Report what would be filed without touching the board")
	reconcileCmd.Flags().Bool("no-file", false, "Only print the report, do not file gaps on the board")
	reconcileCmd.Flags().StringP("output", "o", engine.FormatText, "Output format: text, json or yaml")
	reconcileCmd.MarkFlagRequired("version")
	reconcileCmd.MarkFlagRequired("commit")
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check a release's commits against its milestone",
	Long: `Compare the issues closed in a release's milestone with the issues behind the
commits between the previous release and the release commit. Issues missing
from either side are printed and filed on the configured project board.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := types.ReconcileRequest{}
		req.Version, _ = cmd.Flags().GetString("version")
		req.Commit, _ = cmd.Flags().GetString("commit")
		req.Base, _ = cmd.Flags().GetString("base")
		req.DryRun, _ = cmd.Flags().GetBool("dry-run")
		noFile, _ := cmd.Flags().GetBool("no-file")
		req.File = !noFile

		ctx, cancel := withTimeout(context.Background())
		defer cancel()

		result, err := runReconcile(ctx, req)
		if result != nil {
			output, _ := cmd.Flags().GetString("output")
			if renderErr := engine.Render(os.Stdout, output, result); renderErr != nil {
				return renderErr
			}
		}
		return err
	},
}
