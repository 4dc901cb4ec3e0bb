// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/prophetdb/paper-downloader/internal/logging"
	"github.com/prophetdb/paper-downloader/internal/secrets"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "pfetcher/0.1"
)

// newLogger builds the command logger. An empty logpath keeps output on
// the console only.
func newLogger(logpath string) (logging.Logger, error) {
	return logging.New("debug", logpath)
}

// pipelineConfig assembles the stage configuration shared by the
// service commands, with secrets filling any credential gaps.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{}
	cfg.Harvest.HTTPConfig = types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent}
	cfg.Fetch.HTTPConfig = types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent}
	secrets.Fill(loadedSecrets, &cfg)
	return cfg
}
