package main

import (
	"os"

	"github.com/spf13/cobra"

	"uibridge/cmd/uibridge/render"
	"uibridge/cmd/uibridge/serve"
	"uibridge/cmd/uibridge/setup"
	"uibridge/internal/logger"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:           "uibridge",
		Short:         "Stream LLM output to A2UI and AG-UI clients",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/uibridge/config.toml)")

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(render.Cmd)
	rootCmd.AddCommand(setup.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
