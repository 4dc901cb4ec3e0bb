// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext acquires PDFs for harvested records and keeps the
// metadata file pointing at the artifacts. PMC is tried first when the
// record carries a PMC id; the mirror network is the fallback for records
// with a DOI.
package fulltext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prophetdb/paper-downloader/internal/render"
	"github.com/prophetdb/paper-downloader/internal/scihub"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

const (
	defaultPDFBaseURL  = "https://publications.3steps.cn/publications/pdf/"
	defaultHTMLBaseURI = "s3://publications/html/"
)

// Acquirer walks a metadata file and resolves the full text per record.
type Acquirer struct {
	metadataFile string
	pdfDir       string
	htmlDir      string
	cfg          types.FullTextConfig
	out          io.Writer
	renderer     render.Renderer
	client       *http.Client
	userAgent    string

	// newSession builds a fresh mirror session per record so one
	// record's rotation never affects the next.
	newSession func() *scihub.Session
}

// NewAcquirer builds an acquirer. Status lines go to out; pass nil to
// discard them.
func NewAcquirer(metadataFile, pdfDir, htmlDir string, cfg types.PipelineConfig, out io.Writer) *Acquirer {
	full := cfg.FullText
	if full.PDFBaseURL == "" {
		full.PDFBaseURL = defaultPDFBaseURL
	}
	if full.HTMLBaseURI == "" {
		full.HTMLBaseURI = defaultHTMLBaseURI
	}
	if out == nil {
		out = io.Discard
	}
	fetchCfg := cfg.Fetch
	return &Acquirer{
		metadataFile: metadataFile,
		pdfDir:       pdfDir,
		htmlDir:      htmlDir,
		cfg:          full,
		out:          out,
		renderer:     render.NewPDF2HTMLEX(cfg.Render, out),
		client:       &http.Client{Timeout: cfg.Fetch.Timeout},
		userAgent:    cfg.Fetch.UserAgent,
		newSession:   func() *scihub.Session { return scihub.NewSession(fetchCfg) },
	}
}

// Run resolves every record in the metadata file. Each record is isolated:
// a failed download or render is reported and the walk continues. The
// metadata file is rewritten after every record so progress survives a
// crash mid-batch.
func (a *Acquirer) Run(ctx context.Context) error {
	records, err := readRecords(a.metadataFile)
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}
	if err := os.MkdirAll(a.pdfDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", a.pdfDir, err)
	}
	if err := os.MkdirAll(a.htmlDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", a.htmlDir, err)
	}

	for i := range records {
		pmid := strconv.FormatInt(records[i].PMID, 10)
		pdfPath := filepath.Join(a.pdfDir, pmid+".pdf")
		htmlPath := filepath.Join(a.htmlDir, pmid+".html")

		if _, err := os.Stat(pdfPath); err == nil {
			fmt.Fprintf(a.out, "skipped: %s.pdf exists\n", pmid)
			a.renderMissing(pmid, pdfPath, htmlPath)
			a.updateAndPersist(records, i, pmid, pdfPath)
			continue
		}

		switch {
		case records[i].PMCID != "":
			if err := downloadPMC(ctx, a.client, records[i].PMCID, pdfPath, a.userAgent); err != nil {
				fmt.Fprintf(a.out, "failed: %s via PMC: %v\n", pmid, err)
			} else {
				fmt.Fprintf(a.out, "downloaded: %s via PMC\n", pmid)
			}
		case records[i].DOI != "":
			session := a.newSession()
			if _, err := session.Download(ctx, records[i].DOI, a.pdfDir, pmid+".pdf"); err != nil {
				fmt.Fprintf(a.out, "failed: %s via mirrors: %v\n", pmid, err)
			} else {
				fmt.Fprintf(a.out, "downloaded: %s via mirrors\n", pmid)
			}
		default:
			fmt.Fprintf(a.out, "unresolvable: %s has neither pmcid nor doi\n", pmid)
		}

		a.renderMissing(pmid, pdfPath, htmlPath)
		a.updateAndPersist(records, i, pmid, pdfPath)
	}
	return nil
}

func (a *Acquirer) renderMissing(pmid, pdfPath, htmlPath string) {
	if _, err := os.Stat(pdfPath); err != nil {
		return
	}
	if _, err := os.Stat(htmlPath); err == nil {
		return
	}
	if err := a.renderer.Render(pdfPath, a.htmlDir); err != nil {
		fmt.Fprintf(a.out, "failed: rendering %s.pdf: %v\n", pmid, err)
	}
}

// updateAndPersist stamps the artifact references on record i and rewrites
// the whole metadata file.
func (a *Acquirer) updateAndPersist(records []types.PaperRecord, i int, pmid, pdfPath string) {
	if _, err := os.Stat(pdfPath); err == nil {
		records[i].PDF = fmt.Sprintf(
			"<embed src='%s%s.pdf' width='100%%' height='600px' type='application/pdf'>",
			a.cfg.PDFBaseURL, pmid,
		)
	}
	records[i].HTML = a.cfg.HTMLBaseURI + pmid + ".html"

	if err := writeJSON(a.metadataFile, records); err != nil {
		fmt.Fprintf(a.out, "failed: updating metadata for %s: %v\n", pmid, err)
	}
}

func readRecords(file string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var records []types.PaperRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func writeJSON(file string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}
