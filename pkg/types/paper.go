// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperRecord is one article in a project's metadata file. The metadata
// file is a JSON array of these records and is the unit of truth for
// cross-run de-duplication: a pmid present in any prior metadata file is
// not harvested again.
type PaperRecord struct {
	// Tag is the uploader identity stamped on the record at harvest time.
	Tag string `json:"tag"`

	// PMID is the PubMed identifier.
	PMID int64 `json:"pmid"`

	// PMCID is the PubMed Central identifier, empty when the article has
	// no full-text deposit.
	PMCID   string `json:"pmcid"`
	PMCLink string `json:"pmc_link"`

	PubmedLink string `json:"pubmed_link"`

	Title    string `json:"title"`
	Abstract string `json:"abstract"`

	// Authors is a comma-joined author list in source order.
	Authors string `json:"authors"`

	// Journal is the resolved full journal name, "Unknown" when the
	// impact-factor lookup cannot identify it.
	Journal     string `json:"journal"`
	JournalAbbr string `json:"journal_abbr"`

	// ImpactFactor is -1 when no lookup function is configured or the
	// journal is not found.
	ImpactFactor float64 `json:"impact_factor"`

	// Publication is the publication year as reported by PubMed.
	Publication string `json:"publication"`

	DOI     string `json:"doi"`
	DOILink string `json:"doi_link"`

	// PDF and HTML reference the acquired artifacts; both start empty and
	// are filled by the full-text step once the files exist.
	PDF  string `json:"pdf"`
	HTML string `json:"html"`

	// ImportedDate is the harvest date in YYYY-MM-DD form.
	ImportedDate string `json:"imported_date"`
}

// HistoryEntry is one harvest run in a project's history.json ledger.
type HistoryEntry struct {
	Time               string `json:"time"`
	QueryStr           string `json:"query_str"`
	TotalArticles      int    `json:"total_articles"`
	DuplicatedArticles int    `json:"duplicated_articles"`
	ValidArticles      int    `json:"valid_articles"`
	Filename           string `json:"filename"`
}
