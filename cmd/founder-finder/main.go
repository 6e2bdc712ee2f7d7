// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the founder-finder CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/founder-finder/internal/secrets"
	"github.com/pdiddy/founder-finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// apiKeyFor resolves the API key for provider: explicit configuration
// first, then the provider's environment variable, then .secrets/.
func apiKeyFor(provider types.Provider) string {
	if key := viper.GetString("api_key"); key != "" {
		return key
	}
	envVar, secretFile := "ANTHROPIC_API_KEY", "anthropic-api-key"
	if provider == types.ProviderGemini {
		envVar, secretFile = "GEMINI_API_KEY", "gemini-api-key"
	}
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return loadedSecrets[secretFile]
}

// rootCmd is the base command for the founder-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "founder-finder",
	Short: "Find company founders with a web-research agent",
	Long: `founder-finder reads a list of companies, asks a web-capable research agent
who founded each one, and writes the answers to a JSON file. All companies
are researched concurrently; a company whose research fails still gets an
entry with an empty founder list.

Subcommands: find runs the research, verify checks a results file against
expected founders, cache inspects and manages stored results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./founder-finder.yaml or ~/.config/founder-finder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("founder-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "founder-finder"))
		}
	}

	viper.SetEnvPrefix("FOUNDER_FINDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
