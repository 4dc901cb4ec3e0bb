// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/monitor"
	"github.com/prophetdb/paper-downloader/internal/secrets"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and run the pipeline on new files",
	Long: `Watch monitors a root directory of projects. A new request file in a
project's config directory triggers a harvest; a new PDF in its pdf
directory triggers HTML conversion. The command runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("root-dir", "d", ".", "directory to be monitored")
	watchCmd.Flags().StringP("token", "t", "", "webhook token for notifications")
	watchCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rootDir, _ := cmd.Flags().GetString("root-dir")
	token, _ := cmd.Flags().GetString("token")
	logpath, _ := cmd.Flags().GetString("logpath")

	log, err := newLogger(logpath)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := pipelineConfig()
	cfg.Monitor.RootDir = rootDir
	cfg.Monitor.Token = secretDefault(secrets.KeyDingtalkToken, token)

	m := monitor.New(cfg.Monitor, cfg, log)
	w, err := monitor.NewWatcher(m, log)
	if err != nil {
		return err
	}

	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
