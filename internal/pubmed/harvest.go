// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prophetdb/paper-downloader/internal/impact"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

const defaultPageSize = 250

// Options configures a harvest run.
type Options struct {
	// Query is the PubMed term expression. Required.
	Query string

	// Author tags every harvested record. Defaults to "Anonymous".
	Author string

	// DestFile is the metadata file to create. It must not exist yet.
	DestFile string

	// Out receives per-item status lines. Defaults to io.Discard.
	Out io.Writer

	// Notify, when set, receives progress messages at page boundaries.
	Notify func(msg string)

	// ImpactFactor resolves journal impact factors. Defaults to
	// impact.Unknown.
	ImpactFactor impact.Func
}

// Harvester runs one metadata harvest: collect identifiers, drop the ones
// already present in prior runs, fetch full records, persist. A Harvester
// is single-use; its destination file must not exist when it is built.
type Harvester struct {
	client   Client
	opts     Options
	delay    time.Duration
	pageSize int

	counts     int
	pmids      []string
	records    []types.PaperRecord
	duplicates []types.PaperRecord
}

// New builds a harvester. It fails fast when the query is empty or the
// destination file already exists, before any network traffic.
func New(client Client, cfg types.HarvestConfig, opts Options) (*Harvester, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if _, err := os.Stat(opts.DestFile); err == nil {
		return nil, fmt.Errorf("%s does exist, please delete it and retry", opts.DestFile)
	}

	if opts.Author == "" {
		opts.Author = "Anonymous"
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ImpactFactor == nil {
		opts.ImpactFactor = impact.Unknown
	}

	delay := cfg.PageDelay
	if delay <= 0 {
		delay = time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Harvester{client: client, opts: opts, delay: delay, pageSize: pageSize}, nil
}

// Counts returns the total number of matches reported by the search index.
func (h *Harvester) Counts() int { return h.counts }

// Valid returns the number of identifiers that survived de-duplication.
func (h *Harvester) Valid() int { return len(h.pmids) }

// CollectIdentifiers pages through the search results and accumulates
// every PMID. It sleeps the configured delay before each page to respect
// the upstream rate limit, and reports progress after each page.
func (h *Harvester) CollectIdentifiers(ctx context.Context) error {
	count, err := h.client.Count(ctx, h.opts.Query)
	if err != nil {
		return err
	}
	h.counts = count

	for i := 0; i <= count/h.pageSize; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.delay):
		}

		ids, err := h.client.SearchPage(ctx, h.opts.Query, i*h.pageSize, h.pageSize)
		if err != nil {
			return err
		}
		h.pmids = append(h.pmids, ids...)

		fmt.Fprintf(h.opts.Out, "collected: %d/%d identifiers\n", len(h.pmids), count)
		if h.opts.Notify != nil {
			h.opts.Notify(fmt.Sprintf("Fetched the %d/%d articles", (i+1)*h.pageSize, count))
		}
	}
	return nil
}

// RemoveDuplicates drops every identifier that already appears in one of
// the prior metadata files. The prior records matching this run are kept
// aside for the audit file. Unreadable prior files are reported and
// skipped; they never abort the run.
func (h *Harvester) RemoveDuplicates(files []string) {
	for _, file := range files {
		prior, err := readRecords(file)
		if err != nil {
			fmt.Fprintf(h.opts.Out, "skipped: %s: %v\n", file, err)
			continue
		}
		if len(prior) == 0 {
			continue
		}

		current := make(map[string]bool, len(h.pmids))
		for _, pmid := range h.pmids {
			current[pmid] = true
		}

		priorIDs := make(map[string]bool, len(prior))
		for _, rec := range prior {
			if rec.PMID == 0 {
				continue
			}
			pmid := strconv.FormatInt(rec.PMID, 10)
			priorIDs[pmid] = true
			if current[pmid] {
				h.duplicates = append(h.duplicates, rec)
			}
		}

		kept := h.pmids[:0]
		for _, pmid := range h.pmids {
			if !priorIDs[pmid] {
				kept = append(kept, pmid)
			}
		}
		h.pmids = kept
	}
}

// FetchAndPersist fetches the full record for every surviving identifier
// and writes the destination file. A failing identifier is reported and
// skipped; the destination file is always written, even when no record
// survived. Duplicates are written next to it as <name>_duplicated.json.
func (h *Harvester) FetchAndPersist(ctx context.Context) error {
	for _, pmid := range h.pmids {
		article, err := h.client.FetchArticle(ctx, pmid)
		if err != nil {
			fmt.Fprintf(h.opts.Out, "failed: %s: %v\n", pmid, err)
			continue
		}
		h.records = append(h.records, h.buildRecord(pmid, article))
		fmt.Fprintf(h.opts.Out, "fetched: %s\n", pmid)
	}

	if err := writeJSON(h.opts.DestFile, h.recordsOrEmpty()); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	if len(h.duplicates) > 0 {
		dupFile := strings.TrimSuffix(h.opts.DestFile, ".json") + "_duplicated.json"
		if err := writeJSON(dupFile, h.duplicates); err != nil {
			return fmt.Errorf("writing duplicates: %w", err)
		}
	}

	fmt.Fprintf(h.opts.Out, "Harvest summary: %d fetched, %d duplicated, %d failed\n",
		len(h.records), len(h.duplicates), len(h.pmids)-len(h.records))
	return nil
}

func (h *Harvester) buildRecord(pmid string, article *Article) types.PaperRecord {
	id, _ := strconv.ParseInt(pmid, 10, 64)

	rec := types.PaperRecord{
		Tag:          h.opts.Author,
		PMID:         id,
		PMCID:        article.PMC,
		PubmedLink:   "https://pubmed.ncbi.nlm.nih.gov/" + pmid,
		Title:        article.Title,
		Abstract:     strings.ReplaceAll(article.Abstract, "\n", " "),
		Authors:      strings.Join(article.Authors, ", "),
		Journal:      "Unknown",
		JournalAbbr:  article.Journal,
		ImpactFactor: -1,
		Publication:  article.Year,
		DOI:          article.DOI,
		DOILink:      "https://doi.org/" + article.DOI,
		ImportedDate: time.Now().Format("2006-01-02"),
	}
	if article.PMC != "" {
		rec.PMCLink = "https://www.ncbi.nlm.nih.gov/pmc/articles/" + article.PMC
	}
	rec.ImpactFactor, rec.Journal = h.opts.ImpactFactor(article.Journal)
	return rec
}

func (h *Harvester) recordsOrEmpty() []types.PaperRecord {
	if h.records == nil {
		return []types.PaperRecord{}
	}
	return h.records
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
