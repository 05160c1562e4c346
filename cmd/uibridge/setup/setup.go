package setup

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"uibridge/internal/config"
)

var force bool

var Cmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default uibridge configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.Path()
		}
		if err := write(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
}

func write(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Write(path, config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
