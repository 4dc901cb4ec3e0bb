// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/PuerkitoBio/goquery"

	"github.com/prophetdb/paper-downloader/internal/httputil"
)

// pmcSiteBase is the NCBI site root serving PMC article pages. Declared as
// a var so tests can substitute an httptest server.
var pmcSiteBase = "https://www.ncbi.nlm.nih.gov"

// downloadPMC scrapes the PMC article page for its PDF link and saves the
// document to filepath. PMC marks full-text links with the int-view class.
func downloadPMC(ctx context.Context, client *http.Client, pmcid, filepath, userAgent string) error {
	pageURL := pmcSiteBase + "/pmc/articles/" + pmcid + "/"

	resp, err := httputil.Get(ctx, client, pageURL, userAgent)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	href, ok := doc.Find("a.int-view").First().Attr("href")
	if !ok || href == "" {
		return fmt.Errorf("no full-text link on %s", pageURL)
	}

	pdfResp, err := httputil.Get(ctx, client, pmcSiteBase+href, userAgent)
	if err != nil {
		return fmt.Errorf("fetching pdf for %s: %w", pmcid, err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching pdf for %s: HTTP %d", pmcid, pdfResp.StatusCode)
	}

	f, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("saving %s: %w", filepath, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, pdfResp.Body); err != nil {
		return fmt.Errorf("saving %s: %w", filepath, err)
	}
	return nil
}
