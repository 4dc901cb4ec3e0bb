// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/prophetdb/paper-downloader/internal/monitor"
	"github.com/prophetdb/paper-downloader/internal/secrets"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Listen for MinIO object events and run the pipeline",
	Long: `Minio subscribes to object-created notifications on every bucket of a
MinIO deployment whose buckets are mirrored under the root directory,
and handles each new object the same way watch handles a new file. The
command runs until interrupted.`,
	RunE: runMinio,
}

func init() {
	minioCmd.Flags().StringP("access-key", "u", "", "access key of minio")
	minioCmd.Flags().StringP("secret-key", "p", "", "secret key of minio")
	minioCmd.Flags().StringP("server", "s", "127.0.0.1:9000", "server of minio")
	minioCmd.Flags().BoolP("secure", "S", false, "whether to use https")
	minioCmd.Flags().StringP("token", "t", "", "webhook token for notifications")
	minioCmd.Flags().StringP("root-dir", "d", ".", "root directory the buckets are mirrored to")
	minioCmd.Flags().StringP("logpath", "l", "", "log file (default: console only)")

	rootCmd.AddCommand(minioCmd)
}

func runMinio(cmd *cobra.Command, args []string) error {
	accessKey, _ := cmd.Flags().GetString("access-key")
	secretKey, _ := cmd.Flags().GetString("secret-key")
	server, _ := cmd.Flags().GetString("server")
	secure, _ := cmd.Flags().GetBool("secure")
	token, _ := cmd.Flags().GetString("token")
	rootDir, _ := cmd.Flags().GetString("root-dir")
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
	listener, err := monitor.NewBucketListener(m, server,
		secretDefault(secrets.KeyMinioAccessKey, accessKey),
		secretDefault(secrets.KeyMinioSecretKey, secretKey),
		secure, log)
	if err != nil {
		return err
	}

	if err := listener.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
