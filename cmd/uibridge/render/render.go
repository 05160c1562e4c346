package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"uibridge/internal/a2ui"
	"uibridge/internal/config"
	"uibridge/internal/llm"
)

var surfaceID string

var Cmd = &cobra.Command{
	Use:   "render <prompt>",
	Short: "Generate an A2UI surface and print its records as JSONL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		llmCfg, err := cfg.LLM()
		if err != nil {
			return err
		}
		provider, err := llm.FromConfig(llmCfg)
		if err != nil {
			return err
		}

		svc := a2ui.NewService(llm.Traced(provider, llmCfg.Provider), a2ui.WithSystemPrompt(cfg.A2UI.SystemPrompt))
		req := a2ui.Request{Message: strings.Join(args, " "), SurfaceID: surfaceID}
		return run(ctx, svc, req, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&surfaceID, "surface-id", "s", "", "surface id to tag records with (generated when empty)")
}

// run writes one JSON record per line as soon as each is complete.
func run(ctx context.Context, svc *a2ui.Service, req a2ui.Request, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return svc.Run(ctx, req, func(rec a2ui.Record) error {
		return enc.Encode(rec)
	})
}
