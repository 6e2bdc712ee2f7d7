// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/founder-finder/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the results cache (list, delete, clear, export)",
	Long: `Cache manages the local SQLite results cache that find populates.
Use subcommands to inspect cached founder lists, evict entries, or export.`,
}

// --- list subcommand ---

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached founder results",
	RunE:  runCacheList,
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	rows, err := cache.List()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-50s  %-30s  %s\n",
		"Company", "Founders", "Model", "Resolved")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 125))

	for _, r := range rows {
		company := r.Company
		if len(company) > 30 {
			company = company[:27] + "..."
		}
		founders := strings.Join(r.Founders, ", ")
		if len(founders) > 50 {
			founders = founders[:47] + "..."
		}
		model := r.Model
		if len(model) > 30 {
			model = model[:27] + "..."
		}
		resolved := ""
		if !r.ResolvedAt.IsZero() {
			resolved = r.ResolvedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-50s  %-30s  %s\n",
			company, founders, model, resolved)
	}

	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(rows))
	return nil
}

// --- delete subcommand ---

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete [company]",
	Short: "Delete one company's cached result",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheDelete,
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	deleted, err := cache.Delete(args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no cached result for %q", args[0])
	}
	fmt.Printf("Deleted cached result for %s\n", args[0])
	return nil
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached results",
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.Clear()
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %d cached result(s)\n", n)
	return nil
}

// --- export subcommand ---

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cache to YAML or JSON",
	Long: `Export writes every cached result to stdout. The YAML form matches
the expected-founders file format accepted by verify.`,
	RunE: runCacheExport,
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	return cache.Export(os.Stdout, format)
}

// --- shared helpers ---

func openCache(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("cache-db")
	if path == "" {
		path = viper.GetString("cache_db")
	}
	if path == "" {
		path = "founders.db"
	}
	return store.Open(path)
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	cacheCmd.PersistentFlags().String("cache-db", "", "results cache database (default founders.db)")

	// Export flags.
	cacheExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	rootCmd.AddCommand(cacheCmd)
}
