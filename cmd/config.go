package cmd

import (
	"fmt"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config files for flamed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(loadOptions())
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)
		cfg.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
