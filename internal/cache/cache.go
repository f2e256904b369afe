// Package cache provides the TTL cache in front of board fetches.
//
// Semantics are intentionally simple: entries expire after a fixed TTL or on
// an explicit Clear (the dashboard's manual refresh). There is no request
// deduplication and no coordinated refresh; concurrent misses each fetch.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ratewatch/internal/rates"
)

// DefaultTTL mirrors the dashboard's 10-minute cache window.
const DefaultTTL = 10 * time.Minute

// maxBoards bounds the cache size. One board per source URL; a handful of
// sources is already generous.
const maxBoards = 16

// Snapshots is a TTL cache of board snapshots keyed by source URL.
type Snapshots struct {
	lru *expirable.LRU[string, rates.Snapshot]
}

// New creates a snapshot cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Snapshots {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Snapshots{
		lru: expirable.NewLRU[string, rates.Snapshot](maxBoards, nil, ttl),
	}
}

// Get returns the cached snapshot for url, if present and unexpired.
func (c *Snapshots) Get(url string) (rates.Snapshot, bool) {
	return c.lru.Get(url)
}

// Put stores a snapshot for url.
func (c *Snapshots) Put(url string, snap rates.Snapshot) {
	c.lru.Add(url, snap)
}

// Clear drops every cached snapshot. Bound to the dashboard's manual refresh
// action.
func (c *Snapshots) Clear() {
	c.lru.Purge()
}
