package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var flagAddFrom string

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a profile from the scraper flags, or import one with --from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter label for new config: ")
			label, _ = reader.ReadString('\n')
		}
		label = strings.TrimSpace(label)

		if label == "" {
			return fmt.Errorf("label cannot be empty")
		}

		if flagAddFrom != "" {
			if err := config.AddConfig(label, flagAddFrom); err != nil {
				return err
			}
			fmt.Printf("Imported %s as config %q\n", flagAddFrom, label)
			return nil
		}

		path, err := config.CreateConfig(label, seedConfig())
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagAddFrom, "from", "", "copy settings from this YAML file")
	configCmd.AddCommand(configAddCmd)
}
