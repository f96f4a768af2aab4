package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/reedko/truthtrollers-engine/internal/engine"
	"github.com/reedko/truthtrollers-engine/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveDev  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mapping engine as an HTTP service",
	Long: `Serve exposes the engine over HTTP:

  POST /map-claims  run the pipeline on a batch of claims
  GET  /healthz     liveness check

The request body mirrors the map command:
  {"claims": ["...", {"text": "...", "queries": ["..."]}],
   "prefer_domains": [...], "avoid_domains": [...], "return_queries": false}

Example:
  ttengine serve
  ttengine serve --addr :9000
  ttengine serve --dev`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config server.addr, :8787)")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "serve offline against deterministic synthetic backends")

	// LLM flags
	serveCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider (openai, anthropic, ollama; empty = heuristics only)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")

	// Search flags
	serveCmd.Flags().StringVar(&searchKey, "tavily-key", "", "Tavily API key (default: TAVILY_API_KEY env var)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	var e *engine.Engine
	if serveDev {
		e = engine.New(cfg.Engine, engine.DevDeps())
	} else {
		e, err = engine.FromConfig(cfg)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Listening on %s\n", addr)
	if serveDev {
		fmt.Fprintf(os.Stderr, "Mode: dev (offline, deterministic backends)\n")
	}

	if err := server.New(e).ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
