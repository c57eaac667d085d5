// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"testing"
)

func TestExcluded(t *testing.T) {
	t.Parallel()
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/article", false},
		{"about:blank", true},
		{"chrome://settings", true},
		{"data:text/html,hello", true},
		{"javascript:void(0)", true},
		{"https://www.google.com/search?q=x", true},
		{"https://www.bing.com/search?q=x", true},
		{"https://duckduckgo.com/?q=x", true},
		{"https://www.google.com/maps", false},
	}
	for _, c := range cases {
		if got := Excluded(c.url); got != c.want {
			t.Errorf("Excluded(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestCaptureIdempotentPerSession(t *testing.T) {
	t.Parallel()
	collection := NewMemoryCollection()
	session := NewSession(collection, "research", nil)
	ctx := context.Background()

	first, err := session.Capture(ctx, "https://example.com/a", "Example A")
	if err != nil {
		t.Fatalf("first Capture: %v", err)
	}
	if !first {
		t.Fatal("first Capture returned false")
	}

	second, err := session.Capture(ctx, "https://example.com/a", "Example A")
	if err != nil {
		t.Fatalf("second Capture: %v", err)
	}
	if second {
		t.Fatal("second Capture of same URL returned true")
	}
	if collection.Len() != 1 {
		t.Errorf("collection holds %d URLs, want 1", collection.Len())
	}
}

func TestCaptureSkipsSearchEngineURLs(t *testing.T) {
	t.Parallel()
	collection := NewMemoryCollection()
	session := NewSession(collection, "research", nil)

	captured, err := session.Capture(context.Background(), "https://www.google.com/search?q=x", "")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if captured {
		t.Fatal("search URL was captured")
	}
	if collection.Len() != 0 {
		t.Errorf("collection holds %d URLs, want 0", collection.Len())
	}
	if stats := session.Stats(); stats.Skipped != 1 || stats.Captured != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCaptureSkipsURLsAlreadyInCollection(t *testing.T) {
	t.Parallel()
	collection := NewMemoryCollection()
	ctx := context.Background()
	if err := collection.AddURL(ctx, "other", "https://example.com/a", ""); err != nil {
		t.Fatalf("seeding collection: %v", err)
	}

	session := NewSession(collection, "research", nil)
	captured, err := session.Capture(ctx, "https://example.com/a", "")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if captured {
		t.Fatal("URL already in collection was captured again")
	}
}

// failingCollection fails the first AddURL call, then delegates.
type failingCollection struct {
	*MemoryCollection
	failures int
}

func (f *failingCollection) AddURL(ctx context.Context, folderID, url, title string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("collection unavailable")
	}
	return f.MemoryCollection.AddURL(ctx, folderID, url, title)
}

func TestCaptureRetriesAfterCollectionError(t *testing.T) {
	t.Parallel()
	collection := &failingCollection{MemoryCollection: NewMemoryCollection(), failures: 1}
	session := NewSession(collection, "research", nil)
	ctx := context.Background()

	if _, err := session.Capture(ctx, "https://example.com/a", ""); err == nil {
		t.Fatal("expected error from failing collection")
	}

	// The failed write unmarks the URL, so the next visit captures it.
	captured, err := session.Capture(ctx, "https://example.com/a", "")
	if err != nil {
		t.Fatalf("retry Capture: %v", err)
	}
	if !captured {
		t.Fatal("retry after failure did not capture")
	}
}

func TestCaptureEmptyURL(t *testing.T) {
	t.Parallel()
	session := NewSession(NewMemoryCollection(), "research", nil)
	captured, err := session.Capture(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if captured {
		t.Fatal("empty URL was captured")
	}
}
