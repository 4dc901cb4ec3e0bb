// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scihub resolves paper identifiers to PDF bytes through a rotating
// list of mirror gateways, detecting captcha gates and connection failures
// and failing over to the next mirror.
package scihub

import "strings"

// Kind classifies an input identifier.
type Kind int

const (
	// KindDirectURL is an openly accessible PDF URL.
	KindDirectURL Kind = iota
	// KindIndirectURL is a pay-walled landing URL.
	KindIndirectURL
	// KindPMID is a PubMed identifier.
	KindPMID
	// KindDOI is a digital object identifier. Opaque strings classify
	// here as well; the mirrors accept anything DOI-shaped.
	KindDOI
)

func (k Kind) String() string {
	switch k {
	case KindDirectURL:
		return "url-direct"
	case KindIndirectURL:
		return "url-non-direct"
	case KindPMID:
		return "pmid"
	default:
		return "doi"
	}
}

// Classify determines the identifier kind. It is total: every string maps
// to exactly one kind.
func Classify(identifier string) Kind {
	if strings.HasPrefix(identifier, "http") {
		if strings.HasSuffix(identifier, "pdf") {
			return KindDirectURL
		}
		return KindIndirectURL
	}
	if isDigits(identifier) {
		return KindPMID
	}
	return KindDOI
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
