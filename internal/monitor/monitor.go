// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitor drives the per-project pipeline from filesystem and
// object-store events. A request file landing in a project's config
// directory triggers the harvest; a PDF landing in the pdf directory
// triggers conversion. Every boundary is announced on the notification
// channel and no handler failure ever stops the event loop.
package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prophetdb/paper-downloader/internal/fulltext"
	"github.com/prophetdb/paper-downloader/internal/impact"
	"github.com/prophetdb/paper-downloader/internal/logging"
	"github.com/prophetdb/paper-downloader/internal/notify"
	"github.com/prophetdb/paper-downloader/internal/pubmed"
	"github.com/prophetdb/paper-downloader/internal/render"
	"github.com/prophetdb/paper-downloader/internal/request"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

// Project directory layout. Each project under the root carries these
// subdirectories, seeded lazily on first event.
var projectSubdirs = []string{"pdf", "html", "metadata", "config", "log"}

const keepFile = ".gitkeep"

// Stage is how far a paper has travelled through the pipeline.
type Stage int

const (
	// StagePending means no artifact exists yet.
	StagePending Stage = iota
	// StageMetadata means the metadata record exists.
	StageMetadata
	// StagePDF means the full-text PDF has been acquired.
	StagePDF
	// StageHTML means the rendered HTML exists; the paper is done.
	StageHTML
)

func (s Stage) String() string {
	switch s {
	case StageMetadata:
		return "metadata"
	case StagePDF:
		return "pdf"
	case StageHTML:
		return "html"
	default:
		return "pending"
	}
}

// Artifacts answers existence questions about pipeline artifacts. The
// state machine derives a paper's stage from it instead of keeping its
// own bookkeeping.
type Artifacts interface {
	Exists(path string) bool
}

type osArtifacts struct{}

func (osArtifacts) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Monitor owns the pipeline wiring for one watched root. All
// configuration is passed at construction.
type Monitor struct {
	cfg       types.MonitorConfig
	pipeline  types.PipelineConfig
	log       logging.Logger
	notifier  notify.Notifier
	artifacts Artifacts

	// Pipeline invocations, swappable in tests.
	runHarvest  func(ctx context.Context, req *request.HarvestRequest, configFile, destFile string) (harvestResult, error)
	runFulltext func(ctx context.Context, destFile, pdfDir, htmlDir string) error
	renderDir   func(pdfDir, htmlDir string) error
}

type harvestResult struct {
	Total      int
	Duplicated int
	Valid      int
	QueryStr   string
}

// New builds a monitor. The page delay for event-driven harvests defaults
// to 3s so an unattended run stays gentle on the upstream API.
func New(cfg types.MonitorConfig, pipeline types.PipelineConfig, log logging.Logger) *Monitor {
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 3 * time.Second
	}
	cfg.RootDir = strings.TrimRight(cfg.RootDir, "/")
	pipeline.Harvest.PageDelay = cfg.PageDelay

	m := &Monitor{
		cfg:       cfg,
		pipeline:  pipeline,
		log:       log,
		notifier:  notify.FromToken(cfg.Token, os.Stderr),
		artifacts: osArtifacts{},
	}
	m.runHarvest = m.harvest
	m.runFulltext = m.fulltextRun
	m.renderDir = func(pdfDir, htmlDir string) error {
		renderer := render.NewPDF2HTMLEX(pipeline.Render, os.Stderr)
		return render.RenderDir(renderer, pdfDir, htmlDir, os.Stderr)
	}
	return m
}

// StageOf derives how far the paper identified by pmid has progressed in
// a project.
func (m *Monitor) StageOf(project, pmid string) Stage {
	base := filepath.Join(m.cfg.RootDir, project)
	switch {
	case m.artifacts.Exists(filepath.Join(base, "html", pmid+".html")):
		return StageHTML
	case m.artifacts.Exists(filepath.Join(base, "pdf", pmid+".pdf")):
		return StagePDF
	case m.artifacts.Exists(filepath.Join(base, "metadata", pmid+".json")):
		return StageMetadata
	default:
		return StagePending
	}
}

// EnsureLayout creates the project subdirectories, each seeded with a
// keep-file so empty directories survive object-store round trips.
func EnsureLayout(projectDir string) error {
	if _, err := os.Stat(projectDir); err != nil {
		return fmt.Errorf("project directory %s does not exist", projectDir)
	}
	for _, sub := range projectSubdirs {
		dir := filepath.Join(projectDir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		keep := filepath.Join(dir, keepFile)
		if _, err := os.Stat(keep); os.IsNotExist(err) {
			if err := os.WriteFile(keep, nil, 0o644); err != nil {
				return fmt.Errorf("seeding %s: %w", keep, err)
			}
		}
	}
	return nil
}

// projectName extracts the first path component below the watched root.
func (m *Monitor) projectName(path string) string {
	rel := strings.TrimPrefix(path, m.cfg.RootDir)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part != "" {
			return part
		}
	}
	return ""
}

func (m *Monitor) projectDir(project string) string {
	return filepath.Join(m.cfg.RootDir, project)
}

func (m *Monitor) notify(msg string) {
	if err := m.notifier.Send(msg); err != nil {
		m.log.Warn("notification not delivered", logging.Err(err))
	}
}

// harvest runs the metadata stage for one parsed request.
func (m *Monitor) harvest(ctx context.Context, req *request.HarvestRequest, configFile, destFile string) (harvestResult, error) {
	var impactFn impact.Func
	if store, err := impact.Open(defaultFactorDB); err == nil {
		defer store.Close()
		impactFn = store.Lookup
	}

	client := pubmed.NewEUtils(m.pipeline.Harvest.HTTPConfig)
	h, err := pubmed.New(client, m.pipeline.Harvest, pubmed.Options{
		Query:        req.QueryStr,
		Author:       req.Author,
		DestFile:     destFile,
		Out:          os.Stderr,
		Notify:       func(msg string) { m.notify(msg) },
		ImpactFactor: impactFn,
	})
	if err != nil {
		return harvestResult{}, err
	}

	if err := h.CollectIdentifiers(ctx); err != nil {
		return harvestResult{}, err
	}
	m.notify(fmt.Sprintf("Fetched articles successfully (%d).", h.Counts()))

	h.RemoveDuplicates(priorMetadataFiles(filepath.Dir(destFile)))
	if err := h.FetchAndPersist(ctx); err != nil {
		return harvestResult{}, err
	}

	result := harvestResult{
		Total:      h.Counts(),
		Duplicated: h.Counts() - h.Valid(),
		Valid:      h.Valid(),
		QueryStr:   req.QueryStr,
	}

	if result.Total > 0 {
		entry := types.HistoryEntry{
			Time:               time.Now().Format("2006-01-02 15:04:05"),
			QueryStr:           result.QueryStr,
			TotalArticles:      result.Total,
			DuplicatedArticles: result.Duplicated,
			ValidArticles:      result.Valid,
			Filename:           destFile,
		}
		if err := pubmed.AppendHistory(filepath.Dir(configFile), entry); err != nil {
			m.log.Warn("history not recorded", logging.Err(err))
		}
		m.notify(fmt.Sprintf("Duplicated articles: %d, valid articles: %d",
			result.Duplicated, result.Valid))
	}
	return result, nil
}

// defaultFactorDB is where a deployment drops the journal factor
// reference database; a missing file simply disables the lookup.
var defaultFactorDB = "/usr/local/share/pfetcher/factor.db"

func (m *Monitor) fulltextRun(ctx context.Context, destFile, pdfDir, htmlDir string) error {
	acquirer := fulltext.NewAcquirer(destFile, pdfDir, htmlDir, m.pipeline, os.Stderr)
	return acquirer.Run(ctx)
}

// priorMetadataFiles lists the JSON files already in the metadata
// directory; they define the de-duplication baseline.
func priorMetadataFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}
