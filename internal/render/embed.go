// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

//go:embed pdf.css
var pdfStyles string

// EmbedStyles injects the bundled stylesheet into an HTML file's head so
// the rendered page reads well without external assets.
func EmbedStyles(htmlFile string) error {
	data, err := os.ReadFile(htmlFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", htmlFile, err)
	}
	if hasStyles(string(data)) {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", htmlFile, err)
	}

	doc.Find("head").AppendHtml("<style>" + pdfStyles + "</style>")

	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", htmlFile, err)
	}
	if err := os.WriteFile(htmlFile, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", htmlFile, err)
	}
	return nil
}

// hasStyles reports whether the stylesheet is already embedded. Re-rendered
// files keep a single copy.
func hasStyles(html string) bool {
	return strings.Contains(html, pdfStyles)
}
