package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tkoide/newsround/internal/config"
	"github.com/tkoide/newsround/internal/history"
	"github.com/tkoide/newsround/internal/pipeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsround",
	Short:   "Duplicate-aware AI news publishing",
	Long:    "Newsround collects AI news, drops near-duplicates against a rolling history, enriches articles with an LLM summary and commentary, and publishes them to WordPress.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Secrets (WP_APP_PASS, OPENAI_API_KEY, NEWSAPI_KEY) may live in
		// a local .env during development.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsround", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsround/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the LLM provider, and the WordPress site.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show history store and last run status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("History store: %s\n\n", store.Path())
		fmt.Println("History:")
		fmt.Printf("  Records: %d\n", stats.HistoryRecords)
		if stats.HistoryRecords > 0 {
			fmt.Printf("  Oldest: %s\n", stats.OldestRecord)
			fmt.Printf("  Newest: %s\n", stats.NewestRecord)
		}
		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		fmt.Printf("  Articles published: %d\n", stats.TotalPublished)

		last, err := store.LastReport()
		if err != nil {
			return fmt.Errorf("getting last run: %w", err)
		}
		if last != nil {
			outcome := "completed"
			if last.Aborted {
				outcome = "aborted"
			}
			fmt.Printf("\nLast run (%s, %s):\n", last.Mode, outcome)
			fmt.Printf("  Started: %s\n", last.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Collected: %d, duplicates: %d, enriched: %d, published: %d, failed: %d\n",
				last.Collected, last.Deduplicated, last.Enriched, last.Published, last.Failed)
		}
		return nil
	},
}

// --- collect command ---

var collectDaysBack int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and dedup articles without enriching or publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Println("Collecting articles from sources...")

		pipe := pipeline.NewDefault(cfg, store, collectDaysBack)
		result, err := pipe.Run(context.Background(), pipeline.ModeCollectOnly)
		printRunResult(result)
		return err
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectDaysBack, "days-back", 1, "Lookback window (days)")
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> dedup -> enrich -> slug -> publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		mode := pipeline.ModeFull
		if dryRun {
			mode = pipeline.ModeDryRun
		}

		pipe := pipeline.NewDefault(cfg, store, daysBack)
		result, err := pipe.Run(context.Background(), mode)
		printRunResult(result)
		if err != nil {
			return err
		}

		if !dryRun && result.Published > 0 {
			fmt.Printf("\nPublished %d article(s) to %s\n", result.Published, cfg.WordPress.URL)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run everything except the publish call, without touching history")
	runCmd.Flags().IntVar(&daysBack, "days-back", 1, "Lookback window (days)")
}

func printRunResult(result *pipeline.RunResult) {
	if result == nil {
		return
	}

	fmt.Println("\nRun complete:")
	fmt.Printf("  Collected: %d\n", result.Collected)
	fmt.Printf("  Duplicates skipped: %d\n", result.Deduplicated)
	if result.Mode != pipeline.ModeCollectOnly {
		fmt.Printf("  Enriched: %d", result.Enriched)
		if result.Fallbacks > 0 {
			fmt.Printf(" (%d excerpt fallbacks)", result.Fallbacks)
		}
		fmt.Println()
		label := "Published"
		if result.Mode == pipeline.ModeDryRun {
			label = "Would publish"
		}
		fmt.Printf("  %s: %d\n", label, result.Published)
	}
	fmt.Printf("  Failed: %d\n", result.Failed)

	if len(result.SourceErrors) > 0 {
		fmt.Println("\nSource errors:")
		for _, se := range result.SourceErrors {
			fmt.Printf("  %s: %v\n", se.Source, se.Err)
		}
	}

	if len(result.Failures) > 0 {
		fmt.Println("\nFailed articles:")
		sort.Slice(result.Failures, func(i, j int) bool {
			return result.Failures[i].Title < result.Failures[j].Title
		})
		for _, f := range result.Failures {
			fmt.Printf("  [%s] %s\n        %s\n", f.Stage, f.Title, f.Reason)
		}
	}

	if result.Aborted {
		fmt.Printf("\nRun aborted: %s\n", result.AbortReason)
	}
}

// --- history command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the dedup history",
}

var historyListCmd = &cobra.Command{
	Use:   "list [days]",
	Short: "List history records within the window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		days := cfg.Dedup.HistoryDays
		if len(args) == 1 {
			days, err = strconv.Atoi(args[0])
			if err != nil || days < 1 {
				return fmt.Errorf("invalid day count: %s", args[0])
			}
		}

		records, err := store.QueryRecent(days)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Printf("No history records in the last %d day(s).\n", days)
			return nil
		}

		fmt.Printf("History (last %d day(s), %d records):\n\n", days, len(records))
		for _, r := range records {
			fmt.Printf("  [%d] %s  %s\n", r.ID, r.Published.Format("2006-01-02"), r.Title)
			if r.Slug != "" {
				fmt.Printf("        %s (%s)\n", r.Slug, r.Source)
			} else {
				fmt.Printf("        %s\n", r.Source)
			}
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove records older than the configured window",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Prune(cfg.Dedup.HistoryDays)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d record(s) older than %d days.\n", removed, cfg.Dedup.HistoryDays)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func openStore() (*history.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return history.Open(filepath.Join(dataDir, "newsround.db"))
}
