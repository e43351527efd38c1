// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-collect CLI: crawl security
// conference proceedings, annotate papers with an LLM, convert Web of Science
// exports, and query the local catalog.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/internal/secrets"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per API key.
const secretsDir = ".secrets/"

var (
	// cfg is the merged configuration, loaded before every command runs.
	cfg types.Config

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	logger = logging.Nop()
)

// rootCmd is the base command for the paper-collect CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-collect",
	Short: "Collect and analyse security conference papers",
	Long: `paper-collect gathers paper metadata from the AAAI, USENIX Security, NDSS
and ACM CCS proceedings, annotates each paper with LLM-derived keywords and a
theme label, converts Web of Science spreadsheet exports to JSON, and keeps
everything in a local SQLite catalog for searching and export.

Each stage is a subcommand: crawl, annotate, convert, and catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Config{
			Level:       cfg.Log.Level,
			Development: cfg.Log.Development,
		})
		if err != nil {
			return err
		}

		s, err := secrets.Load(secretsDir, logger)
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
			logger.Debug("loaded secrets", logging.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
