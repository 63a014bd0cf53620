package commands

import (
	"fmt"
	"os"

	"github.com/goblinsan/gh-release-milestones/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "The config file to validate")
	validateCmd.MarkFlagRequired("file")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file without contacting GitHub",
	Long:  `Validate a config YAML file for correctness. Checks the repository format, board fields, rate limits and excluded labels, and reports keys the tool does not know.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")

		errs, err := validateConfigFile(filePath)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed with %d error(s):\n", len(errs))
			for i, e := range errs {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, e)
			}
			return fmt.Errorf("invalid config file %s", filePath)
		}

		fmt.Println("Config is valid.")
		return nil
	},
}

// validateConfigFile reads one file on its own, without flags or environment,
// and returns every problem found in it. The token is not required.
func validateConfigFile(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	var errs []string
	for _, key := range config.UnknownKeys(v) {
		errs = append(errs, fmt.Sprintf("unknown key %q", key))
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return append(errs, config.Validate(cfg, false)...), nil
}
