package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/goblinsan/gh-release-milestones/pkg/config"
	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	timeout time.Duration
	rootCmd = &cobra.Command{
		Use:   "gh-release-milestones",
		Short: "A CLI tool to keep GitHub release milestones in sync with release branches",
		Long: `gh-release-milestones is a MCP-compliant CLI tool that tags the issues behind
a release branch's commits with the right milestone, and checks a finished
release against its milestone. It uses the GitHub API and GraphQL to file
gaps on a Projects V2 board.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(os.Stderr, logging.LogLevel(viper.GetString("log_level")))
		},
		Run: func(cmd *cobra.Command, args []string) {
			// Default action when no subcommand is specified
			cmd.Help()
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gh-release-milestones.yaml)")
	rootCmd.PersistentFlags().String("token", "", "GitHub personal access token")
	rootCmd.PersistentFlags().String("repo", "", "Repository to work on (owner/repo)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Abort a run after this long")

	// Bind flags to viper
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("repository", rootCmd.PersistentFlags().Lookup("repo"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".gh-release-milestones" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gh-release-milestones")
	}

	// Read in environment variables that match
	config.BindEnv(viper.GetViper())
	config.SetDefaults(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}
