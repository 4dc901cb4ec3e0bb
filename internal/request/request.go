// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package request parses harvest request files. A request arrives as a
// JSON or YAML document carrying the query, or as a BibTeX export whose
// entries are turned into a PMID query.
package request

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// AnonymousAuthor is the record tag used when a request names no author.
const AnonymousAuthor = "Anonymous"

// HarvestRequest is the parsed form of a request file.
type HarvestRequest struct {
	// QueryStr is the PubMed term expression. Single quotes are
	// normalized to double quotes so spreadsheet-mangled queries still
	// parse on the PubMed side.
	QueryStr string `json:"query_str" yaml:"query_str"`

	// Author tags the harvested records. Defaults to AnonymousAuthor.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// DownloadPDF requests full-text acquisition after the harvest.
	DownloadPDF bool `json:"download_pdf" yaml:"download_pdf"`
}

// Format identifies the source encoding of a request file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatBib
)

// UnsupportedFormatError reports a request file whose extension maps to
// no known format.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported request format: %s (expected .json, .yaml or .bib)", e.Path)
}

// DetectFormat maps a file extension to its format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".bib":
		return FormatBib, nil
	default:
		return 0, &UnsupportedFormatError{Path: path}
	}
}

// ParseFile reads and parses a request file, dispatching on its format.
func ParseFile(path string) (*HarvestRequest, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}

	var req *HarvestRequest
	switch format {
	case FormatJSON:
		req = &HarvestRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case FormatYAML:
		req = &HarvestRequest{}
		if err := yaml.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case FormatBib:
		req = ParseBib(string(data))
	}

	req.QueryStr = strings.ReplaceAll(req.QueryStr, "'", `"`)
	if req.Author == "" {
		req.Author = AnonymousAuthor
	}
	return req, nil
}
