// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered conference sites",
	Long: `Sites prints every registered site with its year, start URLs, and
allowed domains after applying crawl.sites overrides from the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := buildSites(nil, cfg.Crawl.Sites)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Site", "Year", "Start URLs", "Allowed domains"})
		for _, site := range list {
			reqs := site.StartRequests()
			urls := make([]string, 0, len(reqs))
			for _, r := range reqs {
				urls = append(urls, r.URL)
			}
			t.AppendRow(table.Row{
				site.Name(),
				site.Year(),
				strings.Join(urls, "\n"),
				strings.Join(site.AllowedDomains(), "\n"),
			})
			t.AppendSeparator()
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
