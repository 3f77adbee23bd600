package cmd

import (
	"fmt"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var flagRemoveForce bool

var configRemoveCmd = &cobra.Command{
	Use:   "remove [label]",
	Short: "Remove a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		}

		c, err := pickProfile(label, "Remove")
		if err != nil {
			return err
		}

		if !flagRemoveForce {
			q := fmt.Sprintf("Remove %s (%s)", c.Label, c.BaseURL)
			if c.Active {
				q += ", the active profile"
			}
			if !confirm(q) {
				fmt.Println("Aborted.")
				return nil
			}
		}

		switched, err := config.RemoveConfig(c.Label)
		if err != nil {
			return err
		}

		fmt.Printf("Removed configuration %q\n", c.Label)
		if switched {
			fmt.Printf("Active config is now %s\n", config.DefaultLabel)
		}
		return nil
	},
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&flagRemoveForce, "force", "f", false, "do not ask for confirmation")
	configCmd.AddCommand(configRemoveCmd)
}
