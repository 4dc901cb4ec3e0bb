// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/request"
)

var bib2pdCmd = &cobra.Command{
	Use:   "bib2pd",
	Short: "Convert a bib file to a request file",
	Long: `Bib2pd extracts the pmids from a BibTeX export and writes a json
request file whose query searches for exactly those articles, with PDF
download enabled.`,
	RunE: runBib2pd,
}

func init() {
	bib2pdCmd.Flags().StringP("bib-file", "b", "", "path of the bib file")
	bib2pdCmd.Flags().StringP("output-file", "o", "", "request file to write")
	bib2pdCmd.MarkFlagRequired("bib-file")
	bib2pdCmd.MarkFlagRequired("output-file")

	rootCmd.AddCommand(bib2pdCmd)
}

func runBib2pd(cmd *cobra.Command, args []string) error {
	bibFile, _ := cmd.Flags().GetString("bib-file")
	outputFile, _ := cmd.Flags().GetString("output-file")

	data, err := os.ReadFile(bibFile)
	if err != nil {
		return fmt.Errorf("reading bib file: %w", err)
	}

	req := request.ParseBib(string(data))
	if req.QueryStr == "" {
		return fmt.Errorf("no pmids found in %s", bibFile)
	}

	encoded, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, encoded, 0o644); err != nil {
		return fmt.Errorf("writing request file: %w", err)
	}

	fmt.Fprintf(os.Stdout, "wrote: %s\n", outputFile)
	return nil
}
