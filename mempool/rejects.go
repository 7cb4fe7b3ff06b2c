// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"
)

// defaultRejectCacheLimit bounds how many recently rejected transaction
// hashes the pool remembers before evicting the oldest.
const defaultRejectCacheLimit = 5000

// RejectCache remembers transaction hashes recently turned away by
// validation upstream of the pool, so a relayed retransmission of the same
// bad transaction can be refused without repeating that validation.
type RejectCache struct {
	cache lru.Cache
}

// NewRejectCache returns an empty cache bounded to limit entries.
func NewRejectCache(limit uint) *RejectCache {
	return &RejectCache{cache: lru.NewCache(limit)}
}

// Reject records hash as rejected.
func (c *RejectCache) Reject(hash chainhash.Hash) {
	c.cache.Add(hash)
}

// WasRejected reports whether hash was recently rejected.
func (c *RejectCache) WasRejected(hash chainhash.Hash) bool {
	return c.cache.Contains(hash)
}
