// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scihub

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultMaxAttempts  = 10
	defaultMinRetryWait = 100 * time.Millisecond
	defaultMaxRetryWait = 1000 * time.Millisecond
)

// retryPolicy bounds the retry loop around a fetch. The delay between
// attempts is uniform random in [MinDelay, MaxDelay).
type retryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

func (p retryPolicy) jitter() time.Duration {
	return p.MinDelay + time.Duration(rand.Int63n(int64(p.MaxDelay-p.MinDelay)))
}

// fetchWithRetry runs op up to p.MaxAttempts times, sleeping a jittered
// delay between attempts. Non-retryable errors (mirror exhaustion, missing
// frame) abort immediately.
func fetchWithRetry(ctx context.Context, p retryPolicy, op func() (*Result, error)) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.jitter()):
			}
		}

		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !Retryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}

// Download fetches an identifier with bounded retry and persists the PDF
// under destDir. When filename is empty the generated name is used. It
// returns the path of the written file.
func (s *Session) Download(ctx context.Context, identifier, destDir, filename string) (string, error) {
	result, err := fetchWithRetry(ctx, s.retry, func() (*Result, error) {
		return s.Fetch(ctx, identifier)
	})
	if err != nil {
		return "", err
	}

	if filename == "" {
		filename = result.GeneratedName
	}
	path := filepath.Join(destDir, filename)
	if err := os.WriteFile(path, result.PDF, 0o644); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}
