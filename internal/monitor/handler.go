// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prophetdb/paper-downloader/internal/logging"
	"github.com/prophetdb/paper-downloader/internal/request"
)

// HandleCreate reacts to one create event. It provisions new project
// directories, dispatches config-file and pdf-file events, and swallows
// everything else. Errors are logged and notified, never returned: the
// event loop outlives any single bad event.
func (m *Monitor) HandleCreate(ctx context.Context, path string) {
	if strings.Contains(path, ".minio.sys") || strings.HasSuffix(path, keepFile) {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		m.log.Debug("event path vanished", logging.String("path", path))
		return
	}

	if info.IsDir() {
		// Only a direct child of the root is a new project.
		if filepath.Join(m.cfg.RootDir, filepath.Base(path)) == path {
			m.log.Info("project created", logging.String("project", filepath.Base(path)))
			m.notify(fmt.Sprintf("Created a new project: %s", filepath.Base(path)))
			if err := EnsureLayout(path); err != nil {
				m.log.Error("project layout not created", logging.Err(err))
			}
		}
		return
	}

	project := m.projectName(path)
	filename := filepath.Base(path)
	if project == "" || strings.HasPrefix(project, ".") || strings.HasPrefix(filename, ".") {
		return
	}

	configDir := filepath.Join(m.projectDir(project), "config") + string(filepath.Separator)
	pdfDir := filepath.Join(m.projectDir(project), "pdf") + string(filepath.Separator)

	switch {
	case strings.HasPrefix(path, pdfDir) && strings.HasSuffix(path, ".pdf"):
		if err := EnsureLayout(m.projectDir(project)); err != nil {
			m.log.Error("project layout not created", logging.Err(err))
			return
		}
		m.handlePDFEvent(project, path)
	case strings.HasPrefix(path, configDir):
		if err := EnsureLayout(m.projectDir(project)); err != nil {
			m.log.Error("project layout not created", logging.Err(err))
			return
		}
		m.handleConfigEvent(ctx, project, path)
	default:
		m.log.Debug("event ignored", logging.String("path", path))
	}
}

// handleConfigEvent runs the full pipeline for one request file: parse,
// collision check, harvest, history, optional PDF acquisition.
func (m *Monitor) handleConfigEvent(ctx context.Context, project, path string) {
	m.log.Info("request file received",
		logging.String("project", project), logging.String("path", path))

	req, err := request.ParseFile(path)
	if err != nil {
		var ufe *request.UnsupportedFormatError
		if errors.As(err, &ufe) {
			m.notify(fmt.Sprintf(
				"%s: received a request file with an unsupported format. Please use bib, json or yaml.",
				project))
		} else {
			m.notify(fmt.Sprintf(
				"%s: received a request file but could not parse it. Please check the file contents.",
				project))
		}
		m.log.Error("request file rejected", logging.Err(err))
		return
	}
	m.notify(fmt.Sprintf("%s: received a new request, processing.", project))

	// A request without an explicit author is tagged with the uploading
	// project, so event-driven harvests stay attributable.
	if req.Author == "" || req.Author == request.AnonymousAuthor {
		req.Author = project
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	destFile := filepath.Join(m.projectDir(project), "metadata", stem+".json")
	if m.artifacts.Exists(destFile) {
		m.notify(fmt.Sprintf(
			"%s: a metadata file with the same name already exists. Please rename the request file and retry.",
			project))
		return
	}
	m.notify(fmt.Sprintf("%s: request file parsed successfully.", project))

	result, err := m.runHarvest(ctx, req, path, destFile)
	if err != nil {
		m.notify(fmt.Sprintf(
			"%s: an error occurred while processing. Administrators can find details in the server log. Error: %v",
			project, err))
		m.log.Error("harvest failed", logging.Err(err))
		return
	}
	m.log.Info("harvest finished",
		logging.String("project", project),
		logging.Int("total", result.Total),
		logging.Int("valid", result.Valid))

	if req.DownloadPDF {
		m.notify(fmt.Sprintf(
			"%s: metadata harvested. Downloading PDFs, this may take a while.", project))
		pdfDir := filepath.Join(m.projectDir(project), "pdf")
		htmlDir := filepath.Join(m.projectDir(project), "html")
		if err := m.runFulltext(ctx, destFile, pdfDir, htmlDir); err != nil {
			m.notify(fmt.Sprintf(
				"%s: an error occurred while downloading PDFs. Error: %v", project, err))
			m.log.Error("full-text acquisition failed", logging.Err(err))
			return
		}
		m.notify(fmt.Sprintf("%s: all PDFs downloaded.", project))
	}

	m.notify(fmt.Sprintf(
		"%s: finished processing the request. The metadata file is ready for download and import.",
		project))
}

// handlePDFEvent converts a freshly uploaded PDF batch to HTML.
func (m *Monitor) handlePDFEvent(project, path string) {
	stem := strings.TrimSuffix(filepath.Base(path), ".pdf")
	m.log.Info("pdf received",
		logging.String("project", project), logging.String("path", path),
		logging.String("stage", m.StageOf(project, stem).String()))
	m.notify(fmt.Sprintf("%s: received a new PDF. Converting to HTML, please wait.", project))

	pdfDir := filepath.Join(m.projectDir(project), "pdf")
	htmlDir := filepath.Join(m.projectDir(project), "html")
	if err := m.renderDir(pdfDir, htmlDir); err != nil {
		m.notify(fmt.Sprintf(
			"%s: an error occurred while converting PDFs. Error: %v", project, err))
		m.log.Error("conversion failed", logging.Err(err))
		return
	}

	if m.StageOf(project, stem) == StageHTML {
		m.notify(fmt.Sprintf("%s: all PDFs converted to HTML.", project))
	}
}
