package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/engine"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/spf13/cobra"
)

var (
	claimsFile    string
	outJSON       string
	mapTimeout    time.Duration
	noCache       bool
	devMode       bool
	returnQueries bool
	strictDomains bool
	preferDomains []string
	avoidDomains  []string
	llmProvider   string
	llmModel      string
	searchKey     string
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map [claim]...",
	Short: "Map claims to supporting and refuting evidence",
	Long: `Map runs the full pipeline for one or more claims:
- Synthesize targeted search queries per claim
- Fan queries out to the search backend in parallel
- Select evidence picks with a stance per claim
- Aggregate picks into a deduplicated reference list

Claims come from the command line or from a file (one per line, # for
comments). With --dev the engine runs fully offline against a
deterministic synthetic backend.

Example:
  ttengine map "Coffee causes dehydration"
  ttengine map --file claims.txt --json result.json
  ttengine map "The Eiffel Tower is in Berlin" --llm openai --llm-model gpt-4o-mini
  ttengine map "Water boils at 100C" --dev --return-queries`,
	Args: cobra.ArbitraryArgs,
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	// Input/output flags
	mapCmd.Flags().StringVar(&claimsFile, "file", "", "read claims from file, one per line")
	mapCmd.Flags().StringVar(&outJSON, "json", "", "write result JSON to path (default: stdout)")
	mapCmd.Flags().BoolVar(&returnQueries, "return-queries", false, "include generated queries in the result")

	// Engine flags
	mapCmd.Flags().DurationVar(&mapTimeout, "timeout", 2*time.Minute, "overall mapping timeout")
	mapCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the idempotency cache")
	mapCmd.Flags().BoolVar(&devMode, "dev", false, "run offline against deterministic synthetic backends")
	mapCmd.Flags().BoolVar(&strictDomains, "strict-domains", false, "treat preferred domains as a hard allowlist")
	mapCmd.Flags().StringSliceVar(&preferDomains, "prefer", nil, "domains to prefer (default: fact-check-grade sources)")
	mapCmd.Flags().StringSliceVar(&avoidDomains, "avoid", nil, "domains to exclude from results")

	// LLM flags
	mapCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider (openai, anthropic, ollama; empty = heuristics only)")
	mapCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")

	// Search flags
	mapCmd.Flags().StringVar(&searchKey, "tavily-key", "", "Tavily API key (default: TAVILY_API_KEY env var)")
}

func runMap(cmd *cobra.Command, args []string) error {
	claims, err := collectClaims(args, claimsFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), mapTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Engine.StrictDomainFilter = cfg.Engine.StrictDomainFilter || strictDomains
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache

	var e *engine.Engine
	if devMode {
		e = engine.New(cfg.Engine, engine.DevDeps())
	} else {
		e, err = engine.FromConfig(cfg)
		if err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Mapping %d claim(s)\n", len(claims))
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", mapTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	result, err := e.MapClaims(ctx, engine.MapRequest{
		Claims:        claims,
		PreferDomains: preferDomains,
		AvoidDomains:  avoidDomains,
		ReturnQueries: returnQueries,
	})
	if err != nil {
		return fmt.Errorf("map failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Mapped %d claim(s)\n", result.Meta.ClaimCount)
		fmt.Fprintf(os.Stderr, "✓ Considered %d candidate(s)\n", result.Meta.CandidateCount)
		fmt.Fprintf(os.Stderr, "✓ Selected %d pick(s), %d reference(s)\n", result.Meta.PickCount, len(result.References))
		fmt.Fprintf(os.Stderr, "✓ Took %dms\n", result.TookMS)
		fmt.Fprintln(os.Stderr)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if outJSON == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outJSON, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	return nil
}

// collectClaims merges command-line claims with the claims file, in that
// order, deduplicating exact repeats.
func collectClaims(args []string, file string) ([]model.RawClaim, error) {
	var texts []string
	texts = append(texts, args...)

	if file != "" {
		fromFile, err := readClaimsFile(file)
		if err != nil {
			return nil, err
		}
		texts = append(texts, fromFile...)
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("no claims given: pass them as arguments or with --file")
	}

	seen := make(map[string]bool)
	claims := make([]model.RawClaim, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		claims = append(claims, model.RawClaim{Text: t})
	}

	return claims, nil
}

// readClaimsFile reads claims from a file, one per line. Blank lines and
// lines starting with # are skipped.
func readClaimsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var claims []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}

	return claims, nil
}
