// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// sourceRoots are the directories whose Go packages Stats reports.
var sourceRoots = []string{"cmd", "internal", "pkg", "magefiles"}

// crawlOutputGlob matches the per-site crawl output files.
const crawlOutputGlob = "paper_collect/*_papers.json"

// packageLines holds non-blank Go line counts for one package directory.
type packageLines struct {
	Dir   string
	Prod  int
	Tests int
}

// crawlFile summarises one crawl output file.
type crawlFile struct {
	Path         string
	Records      int
	WithAbstract int
}

// Stats prints non-blank Go lines per package and the record counts of the
// crawl output files.
func Stats() error {
	pkgs, err := countPackageLines(sourceRoots)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Package", "Lines", "Test lines"})
	var prod, tests int
	for _, p := range pkgs {
		t.AppendRow(table.Row{p.Dir, p.Prod, p.Tests})
		prod += p.Prod
		tests += p.Tests
	}
	t.AppendFooter(table.Row{"total", prod, tests})
	t.Render()

	paths, err := filepath.Glob(crawlOutputGlob)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Printf("No crawl output under %s\n", filepath.Dir(crawlOutputGlob))
		return nil
	}

	t = table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Crawl output", "Records", "With abstract"})
	for _, path := range paths {
		f, err := countRecords(path)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{f.Path, f.Records, f.WithAbstract})
	}
	t.Render()
	return nil
}

// countPackageLines walks roots and counts non-blank lines of Go source and
// test files per directory, sorted by directory.
func countPackageLines(roots []string) ([]packageLines, error) {
	byDir := map[string]*packageLines{}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".go" {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			n := countLines(data)

			dir := filepath.Dir(path)
			p, ok := byDir[dir]
			if !ok {
				p = &packageLines{Dir: dir}
				byDir[dir] = p
			}
			if strings.HasSuffix(path, "_test.go") {
				p.Tests += n
			} else {
				p.Prod += n
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]packageLines, 0, len(byDir))
	for _, p := range byDir {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

// countLines returns the number of non-blank lines in data.
func countLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}

// countRecords reads one crawl output file.
func countRecords(path string) (crawlFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crawlFile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []struct {
		Abstract *string `json:"abstract"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return crawlFile{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	f := crawlFile{Path: path, Records: len(records)}
	for _, r := range records {
		if r.Abstract != nil {
			f.WithAbstract++
		}
	}
	return f, nil
}
