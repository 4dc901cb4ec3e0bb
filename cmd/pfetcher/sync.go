// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/secrets"
	"github.com/prophetdb/paper-downloader/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Label Studio memberships into MinIO accounts",
	Long: `Sync reconciles Label Studio organization memberships into MinIO on an
interval: each organization becomes a bucket and a group, and each member
gets an account with a stable derived secret key. The command runs until
interrupted.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Duration("interval", 5*time.Minute, "time between sync runs")
	syncCmd.Flags().String("ls-server", "http://localhost:8080", "Label Studio server URL")
	syncCmd.Flags().String("ls-token", "", "Label Studio API token")
	syncCmd.Flags().String("minio-server", "http://localhost:9000", "MinIO server URL")
	syncCmd.Flags().String("access-key", "", "MinIO access key")
	syncCmd.Flags().String("secret-key", "", "MinIO secret key")
	syncCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	lsServer, _ := cmd.Flags().GetString("ls-server")
	lsToken, _ := cmd.Flags().GetString("ls-token")
	minioServer, _ := cmd.Flags().GetString("minio-server")
	accessKey, _ := cmd.Flags().GetString("access-key")
	secretKey, _ := cmd.Flags().GetString("secret-key")
	logpath, _ := cmd.Flags().GetString("logpath")

	log, err := newLogger(logpath)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := pipelineConfig().Sync
	cfg.Interval = interval
	cfg.LabelStudioURL = lsServer
	cfg.LabelStudioToken = secretDefault(secrets.KeyLabelStudioToken, lsToken)
	cfg.MinioServer = minioServer
	cfg.MinioAccessKey = secretDefault(secrets.KeyMinioAccessKey, accessKey)
	cfg.MinioSecretKey = secretDefault(secrets.KeyMinioSecretKey, secretKey)

	s, err := syncer.New(cfg, log)
	if err != nil {
		return err
	}

	if err := s.Run(cmd.Context(), cfg.Interval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
