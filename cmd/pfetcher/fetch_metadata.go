// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/impact"
	"github.com/prophetdb/paper-downloader/internal/notify"
	"github.com/prophetdb/paper-downloader/internal/pubmed"
	"github.com/prophetdb/paper-downloader/internal/request"
	"github.com/prophetdb/paper-downloader/internal/secrets"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

var fetchMetadataCmd = &cobra.Command{
	Use:   "fetch-metadata",
	Short: "Fetch article metadata for a query",
	Long: `Fetch-metadata runs the search described by a request file (json, yaml
or bib) against PubMed, filters out articles already present in sibling
metadata files, and writes one metadata record per article. A successful
run with results is appended to history.json beside the request file.`,
	RunE: runFetchMetadata,
}

func init() {
	fetchMetadataCmd.Flags().DurationP("delay", "d", time.Second, "delay between paginated search requests")
	fetchMetadataCmd.Flags().StringP("output-file", "o", "", "file the metadata is written to")
	fetchMetadataCmd.Flags().StringP("request-file", "c", "", "request file describing the query")
	fetchMetadataCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")
	fetchMetadataCmd.Flags().StringP("token", "t", "", "webhook token for notifications")
	fetchMetadataCmd.Flags().String("factor-db", "/usr/local/share/pfetcher/factor.db", "journal impact factor database")
	fetchMetadataCmd.MarkFlagRequired("output-file")
	fetchMetadataCmd.MarkFlagRequired("request-file")

	rootCmd.AddCommand(fetchMetadataCmd)
}

func runFetchMetadata(cmd *cobra.Command, args []string) error {
	delay, _ := cmd.Flags().GetDuration("delay")
	outputFile, _ := cmd.Flags().GetString("output-file")
	requestFile, _ := cmd.Flags().GetString("request-file")
	logpath, _ := cmd.Flags().GetString("logpath")
	token, _ := cmd.Flags().GetString("token")
	factorDB, _ := cmd.Flags().GetString("factor-db")

	log, err := newLogger(logpath)
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := request.ParseFile(requestFile)
	if err != nil {
		return err
	}

	outputFile, err = filepath.Abs(outputFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	notifier := notify.FromToken(secretDefault(secrets.KeyDingtalkToken, token), os.Stderr)

	impactFn := impact.Unknown
	if store, err := impact.Open(factorDB); err == nil {
		defer store.Close()
		impactFn = store.Lookup
	}

	harvestCfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
		PageDelay:  delay,
	}
	client := pubmed.NewEUtils(harvestCfg.HTTPConfig)
	h, err := pubmed.New(client, harvestCfg, pubmed.Options{
		Query:        req.QueryStr,
		Author:       req.Author,
		DestFile:     outputFile,
		Out:          os.Stdout,
		Notify:       func(msg string) { notifier.Send(msg) },
		ImpactFactor: impactFn,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := h.CollectIdentifiers(ctx); err != nil {
		return err
	}
	notifier.Send(fmt.Sprintf("Fetched articles successfully (%d).", h.Counts()))

	h.RemoveDuplicates(siblingMetadataFiles(filepath.Dir(outputFile)))
	if err := h.FetchAndPersist(ctx); err != nil {
		return err
	}

	if h.Counts() > 0 {
		entry := types.HistoryEntry{
			Time:               time.Now().Format("2006-01-02 15:04:05"),
			QueryStr:           req.QueryStr,
			TotalArticles:      h.Counts(),
			DuplicatedArticles: h.Counts() - h.Valid(),
			ValidArticles:      h.Valid(),
			Filename:           outputFile,
		}
		if err := pubmed.AppendHistory(filepath.Dir(requestFile), entry); err != nil {
			log.Warn("history not recorded")
		}
		notifier.Send(fmt.Sprintf("Duplicated articles: %d, valid articles: %d",
			entry.DuplicatedArticles, entry.ValidArticles))
	}
	return nil
}

// siblingMetadataFiles lists the metadata files already present beside
// the output file. Their records are treated as already harvested.
func siblingMetadataFiles(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	return matches
}
