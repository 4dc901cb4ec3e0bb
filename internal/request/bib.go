// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package request

import (
	"regexp"
	"strings"
)

// Reference managers export either an explicit pmid field or a pubmed URL
// whose last path segment is the PMID.
var (
	bibPMIDField = regexp.MustCompile(`(?im)^\s*pmid\s*=\s*[{"]?\s*(\d+)`)
	bibURLField  = regexp.MustCompile(`(?im)^\s*url\s*=\s*[{"]([^}"]+)[}"]`)
)

// ParseBib turns a BibTeX export into a harvest request. Every PMID found
// in the entries is OR-joined into one query, and full-text download is
// implied: a reference list is a reading list.
func ParseBib(src string) *HarvestRequest {
	var pmids []string

	for _, m := range bibPMIDField.FindAllStringSubmatch(src, -1) {
		pmids = append(pmids, m[1])
	}

	for _, m := range bibURLField.FindAllStringSubmatch(src, -1) {
		url := strings.TrimSuffix(strings.TrimSpace(m[1]), "/")
		if !strings.Contains(url, "pubmed") {
			continue
		}
		if i := strings.LastIndex(url, "/"); i >= 0 {
			pmids = append(pmids, url[i+1:])
		}
	}

	return &HarvestRequest{
		QueryStr:    strings.Join(pmids, " OR "),
		DownloadPDF: true,
	}
}
