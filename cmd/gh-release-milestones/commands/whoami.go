package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/goblinsan/gh-release-milestones/pkg/config"
	"github.com/goblinsan/gh-release-milestones/pkg/github"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display information about the authenticated GitHub user",
	Long:  `Display information about the authenticated GitHub user using the provided token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("token")
		if token == "" {
			return fmt.Errorf("GitHub token is required. Set it via --token flag, %s_TOKEN or GITHUB_TOKEN environment variable, or config file", config.EnvPrefix)
		}

		client, err := github.NewClient(token)
		if err != nil {
			return fmt.Errorf("failed to create github client: %w", err)
		}

		ctx, cancel := withTimeout(context.Background())
		defer cancel()

		user, err := client.GetAuthenticatedUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to get authenticated user: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Logged in as: %s\n", user.GetLogin())
		if user.GetName() != "" {
			fmt.Fprintf(os.Stdout, "Name: %s\n", user.GetName())
		}
		if user.GetEmail() != "" {
			fmt.Fprintf(os.Stdout, "Email: %s\n", user.GetEmail())
		}

		return nil
	},
}
