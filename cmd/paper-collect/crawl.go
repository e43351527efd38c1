// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/li4oya/paper-collect-and-analysis/internal/catalog"
	"github.com/li4oya/paper-collect-and-analysis/internal/crawl"
	"github.com/li4oya/paper-collect-and-analysis/internal/sites"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [site...]",
	Short: "Crawl conference proceedings into per-site JSON files",
	Long: `Crawl visits the listing pages of each named site (aaai, ccs, ndss,
usenix; all of them when none is given), follows every paper to its detail
page, and writes <out>/<site>_papers.json.

Pages that fail to load are logged and skipped; the site's file is still
written with whatever was collected. Use --ingest to also load the results
into the catalog.`,
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	list, err := buildSites(args, cfg.Crawl.Sites)
	if err != nil {
		return err
	}

	crawler := crawl.New(cfg.Crawl, logger)
	summary, err := crawler.CrawlAll(cmd.Context(), list, cfg.Crawl.OutDir, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\nCrawl complete: %d crawled, %d degraded, %d failed (%d records)\n",
		summary.Crawled, summary.Degraded, summary.Failed, summary.Records)

	if ingest, _ := cmd.Flags().GetBool("ingest"); ingest {
		if err := ingestCrawlOutput(cmd, list); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d site(s) could not be written", summary.Failed)
	}
	return nil
}

// buildSites resolves site names to configured sites. An empty name list
// selects every registered site.
func buildSites(names []string, overrides map[string]types.SiteConfig) ([]sites.Site, error) {
	if len(names) == 0 {
		for _, n := range sites.Names() {
			names = append(names, string(n))
		}
	}

	list := make([]sites.Site, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		sc := overrides[name]
		sc.Name = types.Source(name)
		site, err := sites.New(sc, logger)
		if err != nil {
			return nil, err
		}
		list = append(list, site)
	}
	return list, nil
}

func ingestCrawlOutput(cmd *cobra.Command, list []sites.Site) error {
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	paths := make([]string, 0, len(list))
	for _, site := range list {
		path := crawl.OutputPath(cfg.Crawl.OutDir, site.Name())
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}

	_, err = store.IngestFiles(cmd.Context(), paths, os.Stdout)
	return err
}

func init() {
	crawlCmd.Flags().String("out", "paper_collect", "output directory for <site>_papers.json files")
	crawlCmd.Flags().Int("parallelism", 1, "concurrent requests (1 = sequential)")
	crawlCmd.Flags().Duration("delay", 0, "pause between requests to the same domain")
	crawlCmd.Flags().Duration("timeout", 0, "HTTP request timeout (0 = config default)")
	crawlCmd.Flags().String("user-agent", "", "default User-Agent header")
	crawlCmd.Flags().Bool("ingest", false, "load the crawled files into the catalog")

	bindFlag("crawl.out_dir", crawlCmd.Flags().Lookup("out"))
	bindFlag("crawl.parallelism", crawlCmd.Flags().Lookup("parallelism"))
	bindFlag("crawl.delay", crawlCmd.Flags().Lookup("delay"))
	bindFlag("crawl.timeout", crawlCmd.Flags().Lookup("timeout"))
	bindFlag("crawl.user_agent", crawlCmd.Flags().Lookup("user-agent"))

	rootCmd.AddCommand(crawlCmd)
}
