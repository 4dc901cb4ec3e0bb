// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts PDFs into self-contained HTML. Conversion runs
// through pdf2htmlEX: the local binary when installed, otherwise a
// containerized engine.
package render

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prophetdb/paper-downloader/internal/container"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

const (
	defaultZoom  = 1.5
	defaultImage = "bwits/pdf2htmlex:latest"
)

// Renderer converts one PDF file into an HTML file inside destDir.
type Renderer interface {
	Render(pdfFile, destDir string) error
}

// PDF2HTMLEX renders through the pdf2htmlEX engine.
type PDF2HTMLEX struct {
	zoom  float64
	image string
	out   io.Writer

	// Seams for tests.
	lookPath      func(file string) (string, error)
	runLocal      func(args []string, output io.Writer) error
	detectRuntime func() (container.Runtime, error)
}

// NewPDF2HTMLEX builds a renderer from cfg. Engine output lines go to out;
// pass nil to discard them.
func NewPDF2HTMLEX(cfg types.RenderConfig, out io.Writer) *PDF2HTMLEX {
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = defaultZoom
	}
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}
	if out == nil {
		out = io.Discard
	}
	return &PDF2HTMLEX{
		zoom:          zoom,
		image:         image,
		out:           out,
		lookPath:      exec.LookPath,
		runLocal:      runLocalEngine,
		detectRuntime: container.DetectRuntime,
	}
}

func runLocalEngine(args []string, output io.Writer) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = output
	cmd.Stderr = output
	return cmd.Run()
}

// Render converts pdfFile into destDir and embeds the bundled stylesheet
// into the result.
func (r *PDF2HTMLEX) Render(pdfFile, destDir string) error {
	args := []string{
		"pdf2htmlEX",
		"--zoom", strconv.FormatFloat(r.zoom, 'f', -1, 64),
		pdfFile,
		"--dest-dir", destDir,
	}

	if _, err := r.lookPath("pdf2htmlEX"); err == nil {
		if err := r.runLocal(args, r.out); err != nil {
			return fmt.Errorf("converting %s: %w", pdfFile, err)
		}
	} else {
		rt, err := r.detectRuntime()
		if err != nil {
			return fmt.Errorf("converting %s: %w", pdfFile, err)
		}
		mounts := []string{filepath.Dir(pdfFile), destDir}
		if err := rt.RunMounted(r.image, mounts, args, r.out); err != nil {
			return fmt.Errorf("converting %s: %w", pdfFile, err)
		}
	}

	htmlFile := filepath.Join(destDir, htmlName(pdfFile))
	if err := EmbedStyles(htmlFile); err != nil {
		return fmt.Errorf("styling %s: %w", htmlFile, err)
	}
	return nil
}

func htmlName(pdfFile string) string {
	base := filepath.Base(pdfFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

// RenderDir converts every PDF in pdfDir into htmlDir. A PDF whose HTML
// already exists is skipped, and one failing file never stops the batch.
func RenderDir(r Renderer, pdfDir, htmlDir string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	entries, err := os.ReadDir(pdfDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", pdfDir, err)
	}
	if err := os.MkdirAll(htmlDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", htmlDir, err)
	}

	var converted, skipped, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		pdfFile := filepath.Join(pdfDir, entry.Name())
		htmlFile := filepath.Join(htmlDir, htmlName(pdfFile))

		if _, err := os.Stat(htmlFile); err == nil {
			skipped++
			fmt.Fprintf(out, "skipped: %s\n", entry.Name())
			continue
		}

		if err := r.Render(pdfFile, htmlDir); err != nil {
			failed++
			fmt.Fprintf(out, "failed: %s: %v\n", entry.Name(), err)
			continue
		}
		converted++
		fmt.Fprintf(out, "converted: %s\n", entry.Name())
	}

	fmt.Fprintf(out, "Render summary: %d converted, %d skipped, %d failed\n",
		converted, skipped, failed)
	return nil
}
