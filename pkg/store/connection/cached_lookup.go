/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"time"

	"github.com/bluele/gcache"
)

type recordGetter interface {
	GetConnectionRecord(connectionID string) (*Record, error)
}

// CachedLookup keeps recently resolved completed connections in an LRU cache.
type CachedLookup struct {
	next  recordGetter
	cache gcache.Cache
	ttl   time.Duration
}

// NewCachedLookup wraps next with a cache of size entries that expire after ttl.
func NewCachedLookup(next recordGetter, size int, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:  next,
		cache: gcache.New(size).LRU().Build(),
		ttl:   ttl,
	}
}

// GetConnectionRecord returns the cached record or loads it. Only completed connections are cached so a
// connection that finishes its handshake is seen on the next lookup.
func (c *CachedLookup) GetConnectionRecord(connectionID string) (*Record, error) {
	if v, err := c.cache.Get(connectionID); err == nil {
		if rec, ok := v.(*Record); ok {
			return rec, nil
		}
	}

	rec, err := c.next.GetConnectionRecord(connectionID)
	if err != nil {
		return nil, err
	}

	if rec.IsCompleted() {
		if err := c.cache.SetWithExpire(connectionID, rec, c.ttl); err != nil {
			logger.Warnf("failed to cache connection %s: %v", connectionID, err)
		}
	}

	return rec, nil
}

// Invalidate drops connectionID from the cache.
func (c *CachedLookup) Invalidate(connectionID string) {
	c.cache.Remove(connectionID)
}
