// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed harvests article metadata from the NCBI E-utilities.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prophetdb/paper-downloader/internal/httputil"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

// eutilsAPIBase is the NCBI E-utilities endpoint root. Declared as a var so
// tests can substitute an httptest server.
var eutilsAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Article is the subset of a PubMed record the harvester consumes.
type Article struct {
	PMID     string
	Title    string
	Abstract string
	Authors  []string
	Journal  string // ISO abbreviation
	Year     string
	DOI      string
	PMC      string
}

// Client is the query surface of the PubMed API. The harvester depends on
// this interface, not on the HTTP client, so tests can swap in a stub.
type Client interface {
	Count(ctx context.Context, query string) (int, error)
	SearchPage(ctx context.Context, query string, retstart, retmax int) ([]string, error)
	FetchArticle(ctx context.Context, pmid string) (*Article, error)
}

// EUtils talks to the live E-utilities endpoints.
type EUtils struct {
	client    *http.Client
	userAgent string
}

// NewEUtils builds a client from the shared HTTP settings.
func NewEUtils(cfg types.HTTPConfig) *EUtils {
	return &EUtils{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

type eSearchResult struct {
	Count int      `xml:"Count"`
	IDs   []string `xml:"IdList>Id"`
}

// Count returns the total number of articles matching query.
func (e *EUtils) Count(ctx context.Context, query string) (int, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"rettype": {"count"},
	}
	var result eSearchResult
	if err := e.get(ctx, "esearch.fcgi", params, &result); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return result.Count, nil
}

// SearchPage returns one page of PMIDs for query.
func (e *EUtils) SearchPage(ctx context.Context, query string, retstart, retmax int) ([]string, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retstart": {strconv.Itoa(retstart)},
		"retmax":   {strconv.Itoa(retmax)},
	}
	var result eSearchResult
	if err := e.get(ctx, "esearch.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("searching page at %d: %w", retstart, err)
	}
	return result.IDs, nil
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Sections []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			AuthorList struct {
				Authors []struct {
					LastName       string `xml:"LastName"`
					Initials       string `xml:"Initials"`
					CollectiveName string `xml:"CollectiveName"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
			Journal struct {
				ISOAbbreviation string `xml:"ISOAbbreviation"`
				JournalIssue    struct {
					PubDate struct {
						Year        string `xml:"Year"`
						MedlineDate string `xml:"MedlineDate"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	Data struct {
		IDs []struct {
			Type  string `xml:"IdType,attr"`
			Value string `xml:",chardata"`
		} `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// FetchArticle retrieves the full record for one PMID.
func (e *EUtils) FetchArticle(ctx context.Context, pmid string) (*Article, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"xml"},
	}
	var set pubmedArticleSet
	if err := e.get(ctx, "efetch.fcgi", params, &set); err != nil {
		return nil, fmt.Errorf("fetching article %s: %w", pmid, err)
	}
	if len(set.Articles) == 0 {
		return nil, fmt.Errorf("fetching article %s: no record in response", pmid)
	}

	raw := set.Articles[0]
	art := &Article{
		PMID:     pmid,
		Title:    raw.Citation.Article.Title,
		Abstract: strings.Join(raw.Citation.Article.Abstract.Sections, " "),
		Journal:  raw.Citation.Article.Journal.ISOAbbreviation,
		Year:     raw.Citation.Article.Journal.JournalIssue.PubDate.Year,
	}

	if art.Year == "" {
		// MedlineDate covers irregular issues, e.g. "1998 Dec-1999 Jan".
		md := raw.Citation.Article.Journal.JournalIssue.PubDate.MedlineDate
		if len(md) >= 4 {
			art.Year = md[:4]
		}
	}

	for _, a := range raw.Citation.Article.AuthorList.Authors {
		switch {
		case a.CollectiveName != "":
			art.Authors = append(art.Authors, a.CollectiveName)
		case a.Initials != "":
			art.Authors = append(art.Authors, a.LastName+" "+a.Initials)
		case a.LastName != "":
			art.Authors = append(art.Authors, a.LastName)
		}
	}

	for _, id := range raw.Data.IDs {
		switch id.Type {
		case "doi":
			art.DOI = strings.TrimSpace(id.Value)
		case "pmc":
			art.PMC = strings.TrimSpace(id.Value)
		}
	}

	return art, nil
}

func (e *EUtils) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	resp, err := httputil.Get(ctx, e.client, eutilsAPIBase+endpoint+"?"+params.Encode(), e.userAgent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
