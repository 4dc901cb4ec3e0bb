// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/fulltext"
)

var fetchPDFCmd = &cobra.Command{
	Use:   "fetch-pdf",
	Short: "Fetch the full-text PDFs for harvested metadata",
	Long: `Fetch-pdf resolves each record in a metadata file to a PDF, preferring
PMC and falling back to the mirror list, converts new PDFs to HTML, and
stamps the record with its artifact references. Records whose PDF already
exists are skipped.`,
	RunE: runFetchPDF,
}

func init() {
	fetchPDFCmd.Flags().StringP("metadata-file", "m", "", "file the metadata was written to")
	fetchPDFCmd.Flags().StringP("output-dir", "o", "", "directory the PDFs are written to")
	fetchPDFCmd.Flags().String("html-dir", "", "directory the HTML is written to (default: html beside the output dir)")
	fetchPDFCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")
	fetchPDFCmd.MarkFlagRequired("metadata-file")
	fetchPDFCmd.MarkFlagRequired("output-dir")

	rootCmd.AddCommand(fetchPDFCmd)
}

func runFetchPDF(cmd *cobra.Command, args []string) error {
	metadataFile, _ := cmd.Flags().GetString("metadata-file")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	htmlDir, _ := cmd.Flags().GetString("html-dir")
	logpath, _ := cmd.Flags().GetString("logpath")

	log, err := newLogger(logpath)
	if err != nil {
		return err
	}
	defer log.Sync()

	metadataFile, err = filepath.Abs(metadataFile)
	if err != nil {
		return err
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	if htmlDir == "" {
		htmlDir = filepath.Join(filepath.Dir(outputDir), "html")
	}

	acquirer := fulltext.NewAcquirer(metadataFile, outputDir, htmlDir, pipelineConfig(), os.Stdout)
	return acquirer.Run(cmd.Context())
}
