// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/wire"
)

// FeeRate is a fee rate expressed in satoshis per 1000 bytes, mirroring the
// reference client's relay-fee unit.
type FeeRate int64

// GetFee returns the fee, in satoshis, a transaction of size bytes must pay
// to clear this rate.
func (r FeeRate) GetFee(size int64) int64 {
	fee := int64(r) * size / 1000
	if fee == 0 && r > 0 && size > 0 {
		fee = int64(r)
	}
	return fee
}

// Entry is a mempool transaction together with its accounting both in
// isolation and including all of its unconfirmed ancestors. The
// with-ancestors counters are what the package selector sorts and tests
// against: a transaction's own fee rate overstates its true priority when
// it is tethered to an expensive, low-fee parent.
type Entry struct {
	Tx *wire.MsgTx

	Hash chainhash.Hash

	Size     int64
	Fee      int64
	SigOps   int64
	Time     int64
	LockTime uint32

	// SizeWithAncestors, FeeWithAncestors and SigOpsWithAncestors
	// aggregate this entry with every unconfirmed transaction it spends
	// from, directly or transitively.
	SizeWithAncestors   int64
	FeeWithAncestors    int64
	SigOpsWithAncestors int64

	parents  map[chainhash.Hash]struct{}
	children map[chainhash.Hash]struct{}
}

// AncestorFeeRate returns the entry's fee-with-ancestors expressed as a per
// byte rate, the comparator the package selector orders candidates by.
func (e *Entry) AncestorFeeRate() float64 {
	if e.SizeWithAncestors == 0 {
		return 0
	}
	return float64(e.FeeWithAncestors) / float64(e.SizeWithAncestors)
}

// ModifiedEntry shadows an Entry whose ancestor accounting has been
// invalidated because one of its ancestors was already added to a block
// template. It is never more than this single purpose: a cheaper copy of
// the counters the entry would carry if recomputed from scratch.
type ModifiedEntry struct {
	Entry *Entry

	SizeWithAncestors   int64
	FeeWithAncestors    int64
	SigOpsWithAncestors int64
}

// AncestorFeeRate mirrors Entry.AncestorFeeRate over the modified counters.
func (m *ModifiedEntry) AncestorFeeRate() float64 {
	if m.SizeWithAncestors == 0 {
		return 0
	}
	return float64(m.FeeWithAncestors) / float64(m.SizeWithAncestors)
}

// Pool is an in-memory transaction pool keyed by hash, with ancestor
// accounting maintained incrementally on insertion. It is the read side the
// block assembler consumes: nothing outside of AddEntry/RemoveEntry
// mutates it once a selection round begins.
type Pool struct {
	mtx     sync.RWMutex
	entries map[chainhash.Hash]*Entry
	rejects *RejectCache
}

// NewPool returns an empty transaction pool.
func NewPool() *Pool {
	return &Pool{
		entries: make(map[chainhash.Hash]*Entry),
		rejects: NewRejectCache(defaultRejectCacheLimit),
	}
}

// Reject marks hash as recently rejected, so a future AddEntry for the same
// transaction is refused without being re-validated by the caller.
func (p *Pool) Reject(hash chainhash.Hash) {
	p.rejects.Reject(hash)
}

// WasRejected reports whether hash was recently rejected.
func (p *Pool) WasRejected(hash chainhash.Hash) bool {
	return p.rejects.WasRejected(hash)
}

// AddEntry inserts tx into the pool with the given base size/fee/sigops,
// computing its ancestor accounting from whichever of its inputs are
// themselves pool entries. It is a no-op, returning nil, for a transaction
// recently rejected via Reject.
func (p *Pool) AddEntry(tx *wire.MsgTx, size, fee, sigOps int64, blockTime int64) *Entry {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	hash := tx.TxHash()
	if p.rejects.WasRejected(hash) {
		return nil
	}

	entry := &Entry{
		Tx:       tx,
		Hash:     hash,
		Size:     size,
		Fee:      fee,
		SigOps:   sigOps,
		Time:     blockTime,
		LockTime: tx.LockTime,
		parents:  make(map[chainhash.Hash]struct{}),
		children: make(map[chainhash.Hash]struct{}),
	}

	entry.SizeWithAncestors = size
	entry.FeeWithAncestors = fee
	entry.SigOpsWithAncestors = sigOps

	for _, txIn := range tx.TxIn {
		parentHash := txIn.PreviousOutPoint.Hash
		parent, ok := p.entries[parentHash]
		if !ok {
			continue
		}
		if _, linked := entry.parents[parentHash]; !linked {
			entry.parents[parentHash] = struct{}{}
			entry.SizeWithAncestors += parent.SizeWithAncestors
			entry.FeeWithAncestors += parent.FeeWithAncestors
			entry.SigOpsWithAncestors += parent.SigOpsWithAncestors
		}
		parent.children[hash] = struct{}{}
	}

	p.entries[hash] = entry
	return entry
}

// RemoveEntry deletes hash from the pool without touching its relatives'
// cached ancestor accounting; callers that mutate a live pool between
// selection rounds are expected to rebuild it.
func (p *Pool) RemoveEntry(hash chainhash.Hash) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	delete(p.entries, hash)
}

// Get returns the entry for hash, if any.
func (p *Pool) Get(hash chainhash.Hash) (*Entry, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	e, ok := p.entries[hash]
	return e, ok
}

// Len returns the number of transactions currently tracked.
func (p *Pool) Len() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.entries)
}

// ByAncestorScore returns every entry in the pool ordered by descending
// ancestor fee rate, the primary index the package selector walks.
func (p *Pool) ByAncestorScore() []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entries := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		si, sj := entries[i].AncestorFeeRate(), entries[j].AncestorFeeRate()
		if si != sj {
			return si > sj
		}
		return entries[i].Hash.String() < entries[j].Hash.String()
	})
	return entries
}

// CalculateDescendants returns every pool entry reachable by following
// child edges from hash, not including hash itself. It is the one-shot walk
// UpdatePackagesForAdded drives for every newly added transaction.
func (p *Pool) CalculateDescendants(hash chainhash.Hash) []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	visited := make(map[chainhash.Hash]struct{})
	var stack []chainhash.Hash
	if start, ok := p.entries[hash]; ok {
		for child := range start.children {
			stack = append(stack, child)
		}
	}

	var descendants []*Entry
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[h]; ok {
			continue
		}
		visited[h] = struct{}{}

		entry, ok := p.entries[h]
		if !ok {
			continue
		}
		descendants = append(descendants, entry)
		for child := range entry.children {
			stack = append(stack, child)
		}
	}
	return descendants
}
