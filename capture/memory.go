// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"sync"
)

// MemoryCollection is an in-memory Collection for tests and local
// runs without a collections backend. Safe for concurrent use.
type MemoryCollection struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	folderID string
	title    string
}

// NewMemoryCollection returns an empty in-memory collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{entries: make(map[string]memoryEntry)}
}

// AddURL implements Collection.
func (m *MemoryCollection) AddURL(_ context.Context, folderID, url, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[url] = memoryEntry{folderID: folderID, title: title}
	return nil
}

// URLExists implements Collection.
func (m *MemoryCollection) URLExists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[url]
	return ok, nil
}

// Len returns the number of stored URLs.
func (m *MemoryCollection) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
