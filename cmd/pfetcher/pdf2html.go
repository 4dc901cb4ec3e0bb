// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/render"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

var pdf2htmlCmd = &cobra.Command{
	Use:   "pdf2html",
	Short: "Convert a directory of PDFs to styled HTML",
	Long: `Pdf2html converts every PDF in a directory to HTML with pdf2htmlEX,
running a containerized engine when no local binary is installed, and
embeds the reading stylesheet into each result. PDFs whose HTML already
exists are skipped.`,
	RunE: runPDF2HTML,
}

func init() {
	pdf2htmlCmd.Flags().StringP("pdf-dir", "p", "", "directory holding the PDFs")
	pdf2htmlCmd.Flags().String("html-dir", "", "directory the HTML is written to")
	pdf2htmlCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")
	pdf2htmlCmd.Flags().Float64("zoom", 0, "zoom factor passed to pdf2htmlEX (default 1.5)")
	pdf2htmlCmd.Flags().String("image", "", "container image used when no local pdf2htmlEX exists")
	pdf2htmlCmd.MarkFlagRequired("pdf-dir")
	pdf2htmlCmd.MarkFlagRequired("html-dir")

	rootCmd.AddCommand(pdf2htmlCmd)
}

func runPDF2HTML(cmd *cobra.Command, args []string) error {
	pdfDir, _ := cmd.Flags().GetString("pdf-dir")
	htmlDir, _ := cmd.Flags().GetString("html-dir")
	logpath, _ := cmd.Flags().GetString("logpath")
	zoom, _ := cmd.Flags().GetFloat64("zoom")
	image, _ := cmd.Flags().GetString("image")

	log, err := newLogger(logpath)
	if err != nil {
		return err
	}
	defer log.Sync()

	pdfDir, err = filepath.Abs(pdfDir)
	if err != nil {
		return err
	}
	htmlDir, err = filepath.Abs(htmlDir)
	if err != nil {
		return err
	}

	renderer := render.NewPDF2HTMLEX(types.RenderConfig{Zoom: zoom, Image: image}, os.Stdout)
	return render.RenderDir(renderer, pdfDir, htmlDir, os.Stdout)
}
