package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/founder-finder/internal/agent"
	"github.com/pdiddy/founder-finder/internal/companies"
	"github.com/pdiddy/founder-finder/internal/founders"
	"github.com/pdiddy/founder-finder/internal/results"
	"github.com/pdiddy/founder-finder/internal/store"
	"github.com/pdiddy/founder-finder/pkg/types"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Research founders for every company in the input file",
	Long: `Find reads a company list (one "Name (URL)" or bare name per line),
researches each company concurrently through a web-capable agent, and writes
a JSON mapping of company name to founder names. Every input company gets an
entry; a company whose research fails or turns up nothing gets an empty
list. With --cache-db, non-empty results are reused across runs.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringP("input", "i", "companies.txt", "company list file")
	findCmd.Flags().StringP("output", "o", "founders.json", "results file")
	findCmd.Flags().String("logs-dir", "logs", "directory for per-company conversation logs (empty disables)")
	findCmd.Flags().String("provider", "", "agent provider: anthropic or gemini (default anthropic)")
	findCmd.Flags().String("model", "", "model identifier (default per provider)")
	findCmd.Flags().Int("max-turns", 0, "conversation turn budget per company (default 5)")
	findCmd.Flags().String("cache-db", "", "results cache database (empty disables caching)")
	findCmd.Flags().Bool("refresh", false, "ignore cached results and research again")

	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	refresh, _ := cmd.Flags().GetBool("refresh")

	logsDir, _ := cmd.Flags().GetString("logs-dir")
	if !cmd.Flags().Changed("logs-dir") && viper.IsSet("logs_dir") {
		logsDir = viper.GetString("logs_dir")
	}

	cfg, err := findConfig(cmd)
	if err != nil {
		return err
	}

	comps, err := companies.ParseFile(input)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d companies in %s\n\n", len(comps), input)

	researcher, err := agent.New(cfg)
	if err != nil {
		return err
	}

	opts := founders.Options{
		LogsDir: logsDir,
		RunID:   uuid.NewString(),
		Refresh: refresh,
	}

	cacheDB, _ := cmd.Flags().GetString("cache-db")
	if cacheDB == "" {
		cacheDB = viper.GetString("cache_db")
	}
	if cacheDB != "" {
		cache, err := store.Open(cacheDB)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Cache = cache
	}

	resultMap, summary := founders.ResolveAll(context.Background(), researcher, comps, cfg, opts, os.Stdout)

	if err := results.Write(output, resultMap); err != nil {
		return err
	}

	fmt.Printf("\nResults saved to %s\n", output)
	fmt.Println("\nSummary:")
	fmt.Printf("  total companies: %d\n", summary.Total())
	fmt.Printf("  with founders: %d\n", summary.WithFounders)
	fmt.Printf("  without founders: %d\n", summary.Empty)
	if opts.Cache != nil {
		fmt.Printf("  from cache: %d\n", summary.Cached)
	}
	return nil
}

// findConfig builds the agent configuration from flags, falling back to the
// config file for unset flags. It fails when no API key can be resolved, so
// no research starts without one.
func findConfig(cmd *cobra.Command) (types.Config, error) {
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	maxTurns, _ := cmd.Flags().GetInt("max-turns")

	cfg := types.DefaultConfig()

	if provider == "" {
		provider = viper.GetString("provider")
	}
	if provider != "" {
		cfg.Provider = types.Provider(provider)
	}

	if model == "" {
		model = viper.GetString("model")
	}
	if model != "" {
		cfg.Model = model
	} else {
		cfg.Model = types.DefaultModel(cfg.Provider)
	}

	if maxTurns == 0 {
		maxTurns = viper.GetInt("max_turns")
	}
	if maxTurns > 0 {
		cfg.MaxTurns = maxTurns
	}

	if maxTokens := viper.GetInt("max_tokens"); maxTokens > 0 {
		cfg.MaxTokens = maxTokens
	}

	cfg.APIKey = apiKeyFor(cfg.Provider)
	if cfg.APIKey == "" {
		envVar := "ANTHROPIC_API_KEY"
		if cfg.Provider == types.ProviderGemini {
			envVar = "GEMINI_API_KEY"
		}
		return types.Config{}, fmt.Errorf("no API key for provider %s: set %s or add a key file under .secrets/", cfg.Provider, envVar)
	}
	return cfg, nil
}
