// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture auto-registers URLs visited by an automation job
// into an external URL collection.
//
// A Session owns the per-run dedup state. It is created by the job
// controller and discarded with the job, so concurrent controllers
// never share capture state. The filter rejects browser-internal
// schemes and search-engine query pages, then dedups against both the
// session and the collection itself.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Collection is the external URL-collection store. Implementations
// are expected to be backed by the platform's collections service; an
// in-memory implementation is provided for tests and local use.
type Collection interface {
	// AddURL registers url under the given folder. title may be empty.
	AddURL(ctx context.Context, folderID, url, title string) error

	// URLExists reports whether url is already present anywhere in the
	// collection.
	URLExists(ctx context.Context, url string) (bool, error)
}

// excludedPrefixes are URL schemes the browser produces internally.
// They never identify a page worth collecting.
var excludedPrefixes = []string{
	"about:",
	"chrome:",
	"data:",
	"javascript:",
}

// excludedFragments mark search-engine query pages. The agent passes
// through these constantly while researching; the destination pages
// are what matter, not the result listings.
var excludedFragments = []string{
	"google.com/search",
	"bing.com/search",
	"duckduckgo.com/?q",
}

// Excluded reports whether url matches a fixed exclusion pattern:
// browser-internal schemes or search-engine query pages.
func Excluded(url string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	for _, fragment := range excludedFragments {
		if strings.Contains(url, fragment) {
			return true
		}
	}
	return false
}

// Stats counts capture outcomes for an end-of-run summary.
type Stats struct {
	Captured int
	Skipped  int
}

// Session is the capture gate for one automation run. Safe for
// concurrent use.
type Session struct {
	id         string
	folderID   string
	collection Collection
	logger     *slog.Logger

	mu       sync.Mutex
	seen     map[string]struct{}
	captured int
	skipped  int
}

// NewSession creates a capture session targeting folderID in the given
// collection. logger may be nil.
func NewSession(collection Collection, folderID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:         uuid.NewString(),
		folderID:   folderID,
		collection: collection,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
}

// ID returns the session's unique identifier, used to correlate
// capture log lines with a job run.
func (s *Session) ID() string { return s.id }

// Capture decides whether url should be registered and, if so, adds
// it to the collection. Returns true when the URL was newly captured.
//
// Capture is idempotent per session: the URL is marked seen before the
// collection write, so a second call with the same URL is a no-op even
// if both calls race. A failed collection write unmarks the URL so a
// later visit can retry.
func (s *Session) Capture(ctx context.Context, url, title string) (bool, error) {
	if url == "" || Excluded(url) {
		s.skip()
		return false, nil
	}

	s.mu.Lock()
	if _, dup := s.seen[url]; dup {
		s.skipped++
		s.mu.Unlock()
		return false, nil
	}
	s.seen[url] = struct{}{}
	s.mu.Unlock()

	exists, err := s.collection.URLExists(ctx, url)
	if err != nil {
		s.unmark(url)
		return false, fmt.Errorf("capture: checking collection for %s: %w", url, err)
	}
	if exists {
		s.skip()
		return false, nil
	}

	if err := s.collection.AddURL(ctx, s.folderID, url, title); err != nil {
		s.unmark(url)
		return false, fmt.Errorf("capture: adding %s to collection: %w", url, err)
	}

	s.mu.Lock()
	s.captured++
	s.mu.Unlock()
	s.logger.Debug("captured visited url", "session", s.id, "url", url, "folder", s.folderID)
	return true, nil
}

// Stats returns the capture counts so far.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Captured: s.captured, Skipped: s.skipped}
}

func (s *Session) skip() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *Session) unmark(url string) {
	s.mu.Lock()
	delete(s.seen, url)
	s.mu.Unlock()
}
