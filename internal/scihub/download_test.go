// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scihub

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prophetdb/paper-downloader/pkg/types"
)

func TestDownloadWritesFile(t *testing.T) {
	server := httptest.NewServer(mirrorHandler(false))
	defer server.Close()

	session := newTestSession(t, server.URL)
	dir := t.TempDir()

	path, err := session.Download(context.Background(), "10.1000/xyz123", dir, "12345678.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "12345678.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)
}

func TestDownloadGeneratedName(t *testing.T) {
	server := httptest.NewServer(mirrorHandler(false))
	defer server.Close()

	session := newTestSession(t, server.URL)
	dir := t.TempDir()

	path, err := session.Download(context.Background(), "10.1000/xyz123", dir, "")
	require.NoError(t, err)
	assert.Equal(t, generateName(samplePDF, server.URL+"/paper.pdf"), filepath.Base(path))
}

func TestDownloadRecoversAfterRotation(t *testing.T) {
	blocked := httptest.NewServer(mirrorHandler(true))
	defer blocked.Close()
	working := httptest.NewServer(mirrorHandler(false))
	defer working.Close()

	session := newTestSession(t, blocked.URL, working.URL)
	dir := t.TempDir()

	path, err := session.Download(context.Background(), "10.1000/xyz123", dir, "paper.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)
}

func TestDownloadGivesUpOnExhaustion(t *testing.T) {
	blocked := httptest.NewServer(mirrorHandler(true))
	defer blocked.Close()

	session := newTestSession(t, blocked.URL)

	_, err := session.Download(context.Background(), "10.1000/xyz123", t.TempDir(), "paper.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMirrorsExhausted)
}

func TestFetchWithRetryBoundsAttempts(t *testing.T) {
	policy := retryPolicy{MaxAttempts: 4, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	var calls int32
	_, err := fetchWithRetry(context.Background(), policy, func() (*Result, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("transient")
	})
	require.Error(t, err)
	assert.EqualValues(t, 4, calls)
	assert.Contains(t, err.Error(), "giving up after 4 attempts")
}

func TestFetchWithRetryStopsOnTerminalError(t *testing.T) {
	policy := retryPolicy{MaxAttempts: 10, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	var calls int
	_, err := fetchWithRetry(context.Background(), policy, func() (*Result, error) {
		calls++
		return nil, ErrMirrorsExhausted
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMirrorsExhausted)
	assert.Equal(t, 1, calls)
}

func TestFetchWithRetryHonorsContext(t *testing.T) {
	policy := retryPolicy{MaxAttempts: 1000, MinDelay: 50 * time.Millisecond, MaxDelay: 100 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetchWithRetry(ctx, policy, func() (*Result, error) {
		return nil, errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJitterBounds(t *testing.T) {
	policy := retryPolicy{
		MaxAttempts: defaultMaxAttempts,
		MinDelay:    defaultMinRetryWait,
		MaxDelay:    defaultMaxRetryWait,
	}
	for i := 0; i < 1000; i++ {
		d := policy.jitter()
		assert.GreaterOrEqual(t, d, defaultMinRetryWait)
		assert.Less(t, d, defaultMaxRetryWait)
	}
}

// Retry configuration from the fetch config flows into the session.
func TestSessionRetryFromConfig(t *testing.T) {
	session := NewSession(types.FetchConfig{
		MaxAttempts:   3,
		RetryMinDelay: 5 * time.Millisecond,
		RetryMaxDelay: 9 * time.Millisecond,
	})
	assert.Equal(t, 3, session.retry.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, session.retry.MinDelay)
	assert.Equal(t, 9*time.Millisecond, session.retry.MaxDelay)
}
