// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for paper-collect developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"paper_collect",
	"catalog",
	".secrets",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "paper-collect"
	cmdPkg  = "./cmd/paper-collect"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Crawl builds the CLI and crawls every registered site into paper_collect/.
func Crawl() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "crawl", "--ingest")
}

// Annotate builds the CLI and annotates the file named by $INPUT
// (default paper_collect/usenix_papers.json).
func Annotate() error {
	mg.Deps(Build)
	input := os.Getenv("INPUT")
	if input == "" {
		input = filepath.Join("paper_collect", "usenix_papers.json")
	}
	return sh.RunV(binPath(), "annotate", "--input", input)
}

// Convert builds the CLI and converts the Web of Science export named by $INPUT.
func Convert() error {
	mg.Deps(Build)
	input := os.Getenv("INPUT")
	if input == "" {
		return fmt.Errorf("set INPUT to the .xlsx export to convert")
	}
	return sh.RunV(binPath(), "convert", "--input", input)
}

// Labels builds the CLI and prints the catalog's theme label counts.
func Labels() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "catalog", "labels")
}
