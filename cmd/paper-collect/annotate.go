// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/li4oya/paper-collect-and-analysis/internal/annotate"
	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Annotate papers with LLM keywords and a theme label",
	Long: `Annotate reads a JSON array of papers, asks the configured model for three
keywords and one theme label per paper, and writes two files: the full
annotated records and a title/keywords/theme_label projection.

Papers are processed one at a time. Papers without an abstract are skipped
without calling the model. A failed call records a sentinel keyword value
and the run continues. On Ctrl-C the papers finished so far are written.

The label vocabulary is read from --labels and shown to the model verbatim.
API keys are read from .secrets/ (dashscope-api-key, anthropic-api-key,
gemini-api-key) unless annotate.api_key is set.`,
	RunE: runAnnotate,
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ac := cfg.Annotate
	if ac.InputFile == "" {
		return errors.New("--input is required")
	}
	outFull, outKeywords := outputPaths(ac)

	papers, err := annotate.LoadPapers(ac.InputFile)
	if err != nil {
		return err
	}
	vocabulary, err := annotate.LoadVocabulary(ac.LabelsFile)
	if err != nil {
		return err
	}

	ai := ac.AIConfig
	ai.APIKey = apiKeyFor(ai)
	backend, err := annotate.NewBackend(cmd.Context(), ai)
	if err != nil {
		return err
	}

	logger.Info("annotating papers",
		logging.String("input", ac.InputFile),
		logging.Int("papers", len(papers)),
		logging.String("provider", string(ai.Provider)),
	)

	a := annotate.New(backend, vocabulary, ai.MaxRetries, logger)
	records, summary, runErr := a.AnnotateAll(cmd.Context(), papers, os.Stdout)

	if err := annotate.WriteJSON(outFull, records); err != nil {
		return err
	}
	if err := annotate.WriteJSON(outKeywords, annotate.Projections(records)); err != nil {
		return err
	}

	fmt.Println()
	summary.WriteTable(os.Stdout)
	fmt.Printf("Full results: %s\nKeywords: %s\n", outFull, outKeywords)

	if runErr != nil {
		return fmt.Errorf("annotation stopped after %d of %d papers: %w", len(records), len(papers), runErr)
	}
	return nil
}

// outputPaths returns the configured output files, deriving
// <input>_keywords.json and <input>_keywords_only.json in the working
// directory when unset.
func outputPaths(ac types.AnnotationConfig) (string, string) {
	base := strings.TrimSuffix(filepath.Base(ac.InputFile), filepath.Ext(ac.InputFile))
	full := ac.OutFull
	if full == "" {
		full = base + "_keywords.json"
	}
	keywords := ac.OutKeywords
	if keywords == "" {
		keywords = base + "_keywords_only.json"
	}
	return full, keywords
}

func init() {
	annotateCmd.Flags().String("input", "", "JSON array of papers to annotate")
	annotateCmd.Flags().String("labels", "labels.txt", "theme label vocabulary file")
	annotateCmd.Flags().String("out-full", "", "full annotated output (default <input>_keywords.json)")
	annotateCmd.Flags().String("out-keywords", "", "keywords-only output (default <input>_keywords_only.json)")
	annotateCmd.Flags().String("provider", "openai", "AI provider: openai, claude, gemini")
	annotateCmd.Flags().String("model", "", "model identifier (default depends on provider)")
	annotateCmd.Flags().String("base-url", "", "override the provider endpoint")
	annotateCmd.Flags().Bool("stream", false, "request streamed completions")
	annotateCmd.Flags().Int("max-retries", 0, "extra attempts for a failed call")

	bindFlag("annotate.input", annotateCmd.Flags().Lookup("input"))
	bindFlag("annotate.labels", annotateCmd.Flags().Lookup("labels"))
	bindFlag("annotate.out_full", annotateCmd.Flags().Lookup("out-full"))
	bindFlag("annotate.out_keywords", annotateCmd.Flags().Lookup("out-keywords"))
	bindFlag("annotate.provider", annotateCmd.Flags().Lookup("provider"))
	bindFlag("annotate.model", annotateCmd.Flags().Lookup("model"))
	bindFlag("annotate.base_url", annotateCmd.Flags().Lookup("base-url"))
	bindFlag("annotate.stream", annotateCmd.Flags().Lookup("stream"))
	bindFlag("annotate.max_retries", annotateCmd.Flags().Lookup("max-retries"))

	rootCmd.AddCommand(annotateCmd)
}
