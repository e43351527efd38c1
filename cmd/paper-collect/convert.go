// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/li4oya/paper-collect-and-analysis/internal/spreadsheet"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a Web of Science .xlsx export to JSON",
	Long: `Convert reads the first sheet of a Web of Science export and writes the
Article Title, Abstract, and DOI columns of every non-blank row as a JSON
array. Legacy .xls workbooks are rejected; re-save them as .xlsx first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("input")
		out, _ := cmd.Flags().GetString("output")
		if in == "" {
			return errors.New("--input is required")
		}
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + ".json"
		}
		_, err := spreadsheet.ConvertFile(in, out, os.Stdout)
		return err
	},
}

func init() {
	convertCmd.Flags().String("input", "", "Web of Science .xlsx export")
	convertCmd.Flags().String("output", "", "JSON output file (default: input with .json extension)")

	rootCmd.AddCommand(convertCmd)
}
