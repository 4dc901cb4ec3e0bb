// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monitor

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"

	"github.com/prophetdb/paper-downloader/internal/logging"
)

// bucketAPI is the slice of the MinIO client the listener needs.
type bucketAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	ListenBucketNotification(ctx context.Context, bucketName, prefix, suffix string, events []string) <-chan notification.Info
}

// BucketListener feeds object-store create events into the monitor. Each
// bucket maps to a project directory under the monitor's root, mirrored
// to the local filesystem by the deployment.
type BucketListener struct {
	monitor *Monitor
	client  bucketAPI
	log     logging.Logger
}

// NewBucketListener connects to the MinIO endpoint and prepares a
// listener over every bucket it can see.
func NewBucketListener(m *Monitor, server, accessKey, secretKey string, secure bool, log logging.Logger) (*BucketListener, error) {
	client, err := minio.New(server, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", server, err)
	}
	return newBucketListener(m, client, log), nil
}

func newBucketListener(m *Monitor, client bucketAPI, log logging.Logger) *BucketListener {
	return &BucketListener{monitor: m, client: client, log: log}
}

// Run starts one listening goroutine per bucket and blocks until ctx is
// cancelled and every listener has drained.
func (l *BucketListener) Run(ctx context.Context) error {
	buckets, err := l.client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("listing buckets: %w", err)
	}

	var wg sync.WaitGroup
	for _, bucket := range buckets {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			l.listenBucket(ctx, name)
		}(bucket.Name)
	}
	wg.Wait()
	return ctx.Err()
}

func (l *BucketListener) listenBucket(ctx context.Context, bucket string) {
	l.log.Info("listening", logging.String("bucket", bucket))

	events := l.client.ListenBucketNotification(ctx, bucket, "", "", []string{"s3:ObjectCreated:*"})
	for info := range events {
		if info.Err != nil {
			l.log.Error("notification stream error",
				logging.String("bucket", bucket), logging.Err(info.Err))
			continue
		}
		for _, record := range info.Records {
			if !strings.HasPrefix(record.EventName, "s3:ObjectCreated") {
				continue
			}
			l.dispatch(ctx, record.S3.Bucket.Name, record.S3.Object.Key)
		}
	}
}

// dispatch translates a bucket/key pair into the mirrored local path and
// hands it to the create handler. Object keys arrive URL-encoded.
func (l *BucketListener) dispatch(ctx context.Context, bucket, key string) {
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}
	path := filepath.Join(l.monitor.cfg.RootDir, bucket, filepath.FromSlash(key))
	l.log.Info("object created",
		logging.String("bucket", bucket), logging.String("key", key))
	l.monitor.HandleCreate(ctx, path)
}
