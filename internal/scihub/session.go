// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scihub

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prophetdb/paper-downloader/pkg/types"
)

// seedMirrors is the default mirror list a session starts from. Mirrors
// come and go as domains are seized; the list is ordered by observed
// reliability.
var seedMirrors = []string{
	"https://sci-hub.ee",
	"https://sci-hub.ru",
	"https://sci-hub.se",
}

// Sentinel errors for the fetch taxonomy. Captcha and connection errors
// rotate the mirror list and are retryable; a request error is terminal
// for the attempt but retried by the bounded wrapper in Download;
// exhaustion and a missing frame are terminal for the identifier.
var (
	ErrMirrorsExhausted = errors.New("ran out of valid mirrors")
	ErrNoFrame          = errors.New("no embedded frame found")
	ErrCaptcha          = errors.New("blocked by captcha")
	ErrConnection       = errors.New("connection failed")
	ErrRequest          = errors.New("request failed")
)

// Retryable reports whether a fetch error is worth another attempt in the
// same session.
func Retryable(err error) bool {
	return !errors.Is(err, ErrMirrorsExhausted) && !errors.Is(err, ErrNoFrame)
}

// Result holds a successfully fetched paper.
type Result struct {
	// PDF is the raw document bytes.
	PDF []byte

	// URL is the resolved source the bytes came from.
	URL string

	// GeneratedName is a stable filename stem: the md5 of the bytes plus
	// the tail of the URL basename.
	GeneratedName string
}

// Session owns one mirror list for one download. Rotation drops the list
// head; sessions are never shared between concurrent downloads, so no
// locking is needed.
type Session struct {
	client    *http.Client
	mirrors   []string
	userAgent string
	retry     retryPolicy
}

// NewSession builds a fetch session seeded from cfg.Mirrors (or the
// built-in list). Certificate verification is disabled: the mirrors
// commonly serve certificates without a complete chain.
func NewSession(cfg types.FetchConfig) *Session {
	mirrors := cfg.Mirrors
	if len(mirrors) == 0 {
		mirrors = append([]string(nil), seedMirrors...)
	}

	retry := retryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		MinDelay:    cfg.RetryMinDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.MinDelay <= 0 {
		retry.MinDelay = defaultMinRetryWait
	}
	if retry.MaxDelay <= retry.MinDelay {
		retry.MaxDelay = defaultMaxRetryWait
	}

	return &Session{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		mirrors:   mirrors,
		userAgent: cfg.UserAgent,
		retry:     retry,
	}
}

// base returns the current mirror base URL.
func (s *Session) base() string {
	return s.mirrors[0] + "/"
}

// rotate drops the current mirror from the front of the list. It returns
// ErrMirrorsExhausted once no mirror remains; a dropped mirror is never
// retried in this session.
func (s *Session) rotate() error {
	s.mirrors = s.mirrors[1:]
	if len(s.mirrors) == 0 {
		return ErrMirrorsExhausted
	}
	return nil
}

// ResolveDirectURL finds the direct PDF source for an identifier. Direct
// URLs pass through unchanged; anything else is resolved through the
// current mirror, which embeds the paper in an iframe.
func (s *Session) ResolveDirectURL(ctx context.Context, identifier string) (string, error) {
	if Classify(identifier) == KindDirectURL {
		return identifier, nil
	}
	return s.searchDirectURL(ctx, identifier)
}

func (s *Session) searchDirectURL(ctx context.Context, identifier string) (string, error) {
	pageURL := s.base() + identifier

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w: %v", identifier, ErrRequest, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if rotateErr := s.rotate(); rotateErr != nil {
			return "", rotateErr
		}
		return "", fmt.Errorf("cannot access %s: %w: %v", pageURL, ErrConnection, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing mirror page %s: %w", pageURL, err)
	}

	src, ok := doc.Find("iframe").Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("resolving %s via %s: %w", identifier, pageURL, ErrNoFrame)
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return src, nil
}

// Fetch resolves the direct URL for an identifier and downloads the PDF
// bytes. A non-PDF response is a soft block (captcha or gating page) and
// rotates the mirror list, as does a connection failure.
func (s *Session) Fetch(ctx context.Context, identifier string) (*Result, error) {
	directURL, err := s.ResolveDirectURL(ctx, identifier)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s (resolved url %s): %w: %v", identifier, directURL, ErrRequest, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if rotateErr := s.rotate(); rotateErr != nil {
			return nil, rotateErr
		}
		return nil, fmt.Errorf("cannot access %s: %w: %v", directURL, ErrConnection, err)
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/pdf") {
		if rotateErr := s.rotate(); rotateErr != nil {
			return nil, rotateErr
		}
		return nil, fmt.Errorf("fetching %s (resolved url %s): %w", identifier, directURL, ErrCaptcha)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s (resolved url %s): %w: %v", identifier, directURL, ErrRequest, err)
	}

	return &Result{
		PDF:           pdf,
		URL:           directURL,
		GeneratedName: generateName(pdf, directURL),
	}, nil
}

// viewFragment strips "#view=..." viewer fragments that mirrors append to
// the PDF basename.
var viewFragment = regexp.MustCompile(`#view=(.+)`)

// generateName returns a unique filename for the paper: the md5 of the
// bytes, then the last 20 characters of the URL basename, which typically
// carries a useful paper identifier.
func generateName(pdf []byte, sourceURL string) string {
	name := sourceURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = viewFragment.ReplaceAllString(name, "")
	if len(name) > 20 {
		name = name[len(name)-20:]
	}
	return fmt.Sprintf("%x-%s", md5.Sum(pdf), name)
}
