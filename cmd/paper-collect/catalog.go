// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/li4oya/paper-collect-and-analysis/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local paper catalog (ingest, query, labels, export)",
	Long: `Catalog keeps crawled, annotated, and converted papers in a local SQLite
database (<catalog.dir>/papers.db) with full-text search over title,
abstract, and keywords.`,
}

var catalogIngestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Load crawl, annotation, or Web of Science JSON files",
	Long: `Ingest reads each JSON file, detects whether it holds crawled papers,
annotated papers, or converted Web of Science rows, and upserts every paper.
A paper is keyed by its source and normalized title. Re-ingesting crawl
output keeps keywords and labels from an earlier annotation run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.NewStore(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.IngestFiles(cmd.Context(), args, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("\nIngest complete: %d new, %d updated, %d skipped\n",
			summary.Inserted, summary.Updated, summary.Skipped)
		return nil
	},
}

var catalogQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the catalog with full-text terms and filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := queryOptsFromFlags(cmd, args)
		limit, _ := cmd.Flags().GetInt("limit")
		opts.MaxResults = limit

		store, err := catalog.NewStore(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Query(cmd.Context(), opts)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "ID", "Title", "Source", "Year", "Label"})
		for i, e := range entries {
			t.AppendRow(table.Row{i + 1, e.ID, e.Title, e.Source, e.Year, e.ThemeLabel})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}})
		t.Render()
		fmt.Printf("%d results\n", len(entries))
		return nil
	},
}

var catalogLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Count catalog papers per theme label",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.NewStore(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		counts, err := store.Labels(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Theme label", "Papers"})
		total := 0
		for _, c := range counts {
			t.AppendRow(table.Row{c.Label, c.Papers})
			total += c.Papers
		}
		t.AppendFooter(table.Row{"total", total})
		t.Render()
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Export the catalog to YAML, JSON, or a CSL bibliography",
	Long: `Export writes every catalog entry (or the subset matching the given text
and filters) to <catalog.dir>/export.yaml, export.json, or export.csl.yaml.
The csl format is CSL-YAML, readable by Pandoc and reference managers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		store, err := catalog.NewStore(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		if format == "" {
			format = "yaml"
		}
		if output == "" {
			ext := format
			if format == "csl" {
				ext = "csl.yaml"
			}
			output = store.ExportPath(ext)
		}
		opts := queryOptsFromFlags(cmd, args)

		var n int
		switch format {
		case "yaml":
			n, err = store.ExportYAML(cmd.Context(), opts, output)
		case "json":
			n, err = store.ExportJSON(cmd.Context(), opts, output)
		case "csl":
			n, err = store.ExportCSL(cmd.Context(), opts, output)
		default:
			return fmt.Errorf("unsupported format %q: use yaml, json, or csl", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d papers to %s\n", n, output)
		return nil
	},
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) catalog.QueryOptions {
	source, _ := cmd.Flags().GetString("source")
	label, _ := cmd.Flags().GetString("label")
	year, _ := cmd.Flags().GetString("year")

	return catalog.QueryOptions{
		Text:   strings.Join(args, " "),
		Source: source,
		Label:  label,
		Year:   year,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "filter by source (aaai, ccs, ndss, usenix, wos)")
	cmd.Flags().String("label", "", "filter by theme label")
	cmd.Flags().String("year", "", "filter by year")
}

func init() {
	catalogCmd.PersistentFlags().String("dir", "catalog", "catalog directory (contains papers.db)")
	bindFlag("catalog.dir", catalogCmd.PersistentFlags().Lookup("dir"))

	addFilterFlags(catalogQueryCmd)
	catalogQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogQueryCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(catalogExportCmd)
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or csl (CSL-YAML bibliography)")
	catalogExportCmd.Flags().String("output", "", "export file (default <catalog.dir>/export.<format>)")

	catalogCmd.AddCommand(catalogIngestCmd)
	catalogCmd.AddCommand(catalogQueryCmd)
	catalogCmd.AddCommand(catalogLabelsCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
