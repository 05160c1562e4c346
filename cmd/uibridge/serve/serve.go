package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uibridge/internal/a2ui"
	"uibridge/internal/agui"
	"uibridge/internal/config"
	"uibridge/internal/db"
	"uibridge/internal/gateway"
	"uibridge/internal/history"
	"uibridge/internal/llm"
	"uibridge/internal/trace"
)

var addr string

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the A2UI and AG-UI gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr != "" {
			cfg.Gateway.Addr = addr
		}
		return run(ctx, cfg)
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override gateway listen address")
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTrace, err := trace.Init(ctx, trace.Config{
		Enabled:  cfg.Trace.Enabled,
		Endpoint: cfg.Trace.Endpoint,
		URLPath:  cfg.Trace.URLPath,
		APIKey:   cfg.Trace.APIKey,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdownTrace(context.Background()); err != nil {
			slog.Warn("trace shutdown", "error", err)
		}
	}()

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	srv, err := build(cfg, history.NewStore(database))
	if err != nil {
		return err
	}
	slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "llm", cfg.DefaultLLM, "origins", cfg.Gateway.AllowedOrigins)
	return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
}

// build wires the model provider into both pipelines.
func build(cfg *config.Config, ledger gateway.Ledger) (*gateway.Server, error) {
	llmCfg, err := cfg.LLM()
	if err != nil {
		return nil, err
	}
	provider, err := llm.FromConfig(llmCfg)
	if err != nil {
		return nil, err
	}
	provider = llm.Traced(provider, llmCfg.Provider)
	provider = llm.RateLimited(provider, cfg.Gateway.RequestsPerSecond, cfg.Gateway.Burst)

	a2uiOpts := []a2ui.Option{a2ui.WithSystemPrompt(cfg.A2UI.SystemPrompt)}
	if cfg.A2UI.Validate {
		v, err := a2ui.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("loading a2ui schema: %w", err)
		}
		a2uiOpts = append(a2uiOpts, a2ui.WithValidator(v))
	}

	svc := a2ui.NewService(provider, a2uiOpts...)
	agent := agui.NewAgent(provider,
		agui.WithSystemPrompt(cfg.AGUI.SystemPrompt),
		agui.WithStepName(cfg.AGUI.StepName),
	)

	return gateway.NewServer(svc, agent,
		gateway.WithLedger(ledger),
		gateway.WithAllowedOrigins(cfg.Gateway.AllowedOrigins...),
	), nil
}
