package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open a profile (the active one by default) in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, err := config.CurrentLabel()
		if len(args) == 1 {
			label, err = args[0], nil
		}
		if err != nil {
			return fmt.Errorf("no active profile, name one or run `flamed config init`: %w", err)
		}

		c, err := pickProfile(label, "")
		if err != nil {
			return err
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nvim"
		}

		ed := exec.CommandContext(cmd.Context(), editor, c.Path)
		ed.Stdin, ed.Stdout, ed.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := ed.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}

		// A profile that no longer parses would break every site command.
		after, err := pickProfile(c.Label, "")
		if err != nil {
			return err
		}
		if after.Err != "" {
			return fmt.Errorf("%s no longer parses, fix it with `flamed config edit %s`: %s", c.Path, c.Label, after.Err)
		}

		fmt.Printf("%s now scrapes %s\n", after.Label, after.BaseURL)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
