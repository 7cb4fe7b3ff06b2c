// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/blockchain"
)

// maxConsecutiveFailures bounds how many losing candidates in a row the
// selector tolerates before giving up on a near-full block, mirroring the
// reference assembler's MAX_CONSECUTIVE_FAILURES.
const maxConsecutiveFailures = 1000

// nearFullWeightMargin is how close to the weight ceiling a block must be
// before the consecutive-failure counter is allowed to abort selection
// early.
const nearFullWeightMargin = 4000

// SelectionLimits bounds what the package selector may add to a template
// and the per-transaction admission rules it enforces while doing so.
type SelectionLimits struct {
	MaxWeight  int64
	MaxSigOps  int64
	MinFeeRate FeeRate

	// BlockHeight is the height of the candidate block, the reference
	// IsFinalizedTransaction compares a height-interpreted LockTime
	// against.
	BlockHeight int32

	// LockTimeCutoff is the adjusted/median-past time IsFinalizedTransaction
	// compares a timestamp-interpreted LockTime against. The zero Time
	// rejects any entry whose LockTime falls in the timestamp range.
	LockTimeCutoff time.Time

	// IncludeWitness reports whether segwit is active for the candidate
	// block. When false, any witness-bearing entry is refused: it
	// cannot be committed to a block that carries no witness commitment.
	IncludeWitness bool
}

// Candidate is one transaction chosen by the package selector for
// inclusion, carrying the per-transaction weight/fee/sigop cost the caller
// needs to fold into the running block totals.
type Candidate struct {
	Entry  *Entry
	Weight int64
	Fee    int64
	SigOps int64
}

// Selector runs the ancestor-fee-rate package selection algorithm over a
// Pool snapshot: walk candidates by descending ancestor score, and for each
// one that clears the fee floor and the weight/sigop budget, pull in its
// full unconfirmed ancestor set as a single package, topologically ordered
// so parents are added before children.
type Selector struct {
	pool   *Pool
	limits SelectionLimits

	inBlock  map[chainhash.Hash]struct{}
	modified map[chainhash.Hash]*ModifiedEntry
	failed   map[chainhash.Hash]struct{}

	blockWeight int64
	blockSigOps int64
}

// NewSelector prepares a selector over pool with the given limits.
func NewSelector(pool *Pool, limits SelectionLimits) *Selector {
	return &Selector{
		pool:     pool,
		limits:   limits,
		inBlock:  make(map[chainhash.Hash]struct{}),
		modified: make(map[chainhash.Hash]*ModifiedEntry),
		failed:   make(map[chainhash.Hash]struct{}),
	}
}

// weightOf approximates a candidate's block weight as four times its base
// size; the selector uses it for every transaction it adds to the block.
func weightOf(e *Entry) int64 {
	return e.Size * 4
}

// SelectPackages runs the full package-selection loop and returns the
// candidates in the order they must be appended to the block.
func (s *Selector) SelectPackages() []Candidate {
	var result []Candidate
	consecutiveFailed := 0

	for {
		candidate, fromModified, ok := s.nextCandidate()
		if !ok {
			break
		}

		size, fees, sigOps := s.packageTotals(candidate, fromModified)

		if fees < s.limits.MinFeeRate.GetFee(size) {
			// No remaining candidate can do better: the index is sorted
			// by descending ancestor score.
			break
		}

		packageWeight := size * 4
		if !s.testPackage(packageWeight, sigOps) {
			if fromModified {
				delete(s.modified, candidate.Hash)
			}
			s.failed[candidate.Hash] = struct{}{}

			consecutiveFailed++
			if consecutiveFailed > maxConsecutiveFailures &&
				s.blockWeight > s.limits.MaxWeight-nearFullWeightMargin {
				break
			}
			continue
		}

		ancestors := s.unconfirmedAncestors(candidate)
		ancestors = append(ancestors, candidate)
		ancestors = dedupeEntries(ancestors)

		if !s.testPackageTransactions(ancestors) {
			if fromModified {
				delete(s.modified, candidate.Hash)
			}
			s.failed[candidate.Hash] = struct{}{}

			consecutiveFailed++
			if consecutiveFailed > maxConsecutiveFailures &&
				s.blockWeight > s.limits.MaxWeight-nearFullWeightMargin {
				break
			}
			continue
		}

		consecutiveFailed = 0

		sort.SliceStable(ancestors, func(i, j int) bool {
			return len(ancestors[i].parents) < len(ancestors[j].parents)
		})

		for _, a := range ancestors {
			w := weightOf(a)
			result = append(result, Candidate{Entry: a, Weight: w, Fee: a.Fee, SigOps: a.SigOps})
			s.addToBlock(a, w)
			delete(s.modified, a.Hash)
		}

		s.updatePackagesForAdded(ancestors)
	}

	return result
}

// nextCandidate chooses between the top of the ancestor-score index and the
// top of mapModifiedTx, preferring whichever scores higher; ties favour the
// primary index since it advances mi rather than leaving it stalled.
func (s *Selector) nextCandidate() (*Entry, bool, bool) {
	primary := s.pool.ByAncestorScore()

	var modifiedBest *ModifiedEntry
	for _, m := range s.modified {
		if modifiedBest == nil || m.AncestorFeeRate() > modifiedBest.AncestorFeeRate() {
			modifiedBest = m
		}
	}

	var mi *Entry
	for _, e := range primary {
		if s.skip(e.Hash) {
			continue
		}
		mi = e
		break
	}

	if mi == nil {
		if modifiedBest == nil {
			return nil, false, false
		}
		return modifiedBest.Entry, true, true
	}

	if modifiedBest != nil && modifiedBest.AncestorFeeRate() > mi.AncestorFeeRate() {
		return modifiedBest.Entry, true, true
	}

	return mi, false, true
}

func (s *Selector) skip(hash chainhash.Hash) bool {
	if _, ok := s.inBlock[hash]; ok {
		return true
	}
	if _, ok := s.modified[hash]; ok {
		return true
	}
	if _, ok := s.failed[hash]; ok {
		return true
	}
	return false
}

func (s *Selector) packageTotals(e *Entry, fromModified bool) (size, fee, sigOps int64) {
	if fromModified {
		m := s.modified[e.Hash]
		return m.SizeWithAncestors, m.FeeWithAncestors, m.SigOpsWithAncestors
	}
	return e.SizeWithAncestors, e.FeeWithAncestors, e.SigOpsWithAncestors
}

func (s *Selector) testPackage(weight, sigOps int64) bool {
	if s.blockWeight+weight > s.limits.MaxWeight {
		return false
	}
	if s.limits.MaxSigOps > 0 && s.blockSigOps+sigOps > s.limits.MaxSigOps {
		return false
	}
	return true
}

// testPackageTransactions applies the per-transaction admission checks the
// assembler runs once a package is otherwise eligible: every ancestor must
// be finalized as of the candidate block's height/time, and none may carry
// a witness if segwit isn't yet active for that block.
func (s *Selector) testPackageTransactions(ancestors []*Entry) bool {
	for _, e := range ancestors {
		if !blockchain.IsFinalizedTransaction(e.Tx, s.limits.BlockHeight, s.limits.LockTimeCutoff) {
			return false
		}
		if !s.limits.IncludeWitness && e.Tx.HasWitness() {
			return false
		}
	}
	return true
}

// unconfirmedAncestors walks candidate's parent edges transitively,
// excluding anything already in the block, mirroring
// AssumeCalculateMemPoolAncestors + onlyUnconfirmed.
func (s *Selector) unconfirmedAncestors(candidate *Entry) []*Entry {
	visited := make(map[chainhash.Hash]struct{})
	var stack []chainhash.Hash
	for p := range candidate.parents {
		stack = append(stack, p)
	}

	var ancestors []*Entry
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[h]; ok {
			continue
		}
		visited[h] = struct{}{}

		if _, ok := s.inBlock[h]; ok {
			continue
		}

		entry, ok := s.pool.Get(h)
		if !ok {
			continue
		}
		ancestors = append(ancestors, entry)
		for p := range entry.parents {
			stack = append(stack, p)
		}
	}
	return ancestors
}

// addToBlock records weight, counts the candidate as included and removes
// it from future consideration.
func (s *Selector) addToBlock(e *Entry, weight int64) {
	s.blockWeight += weight
	s.blockSigOps += e.SigOps
	s.inBlock[e.Hash] = struct{}{}
}

// updatePackagesForAdded refreshes every descendant of a just-added
// transaction set that isn't itself already included: either seeding a
// fresh ModifiedEntry from its current with-ancestor counters, or
// subtracting the newly included ancestor's size/fee/sigops from an
// existing one.
func (s *Selector) updatePackagesForAdded(added []*Entry) {
	for _, a := range added {
		for _, d := range s.pool.CalculateDescendants(a.Hash) {
			if _, ok := s.inBlock[d.Hash]; ok {
				continue
			}

			m, ok := s.modified[d.Hash]
			if !ok {
				m = &ModifiedEntry{
					Entry:               d,
					SizeWithAncestors:   d.SizeWithAncestors,
					FeeWithAncestors:    d.FeeWithAncestors,
					SigOpsWithAncestors: d.SigOpsWithAncestors,
				}
				s.modified[d.Hash] = m
			}

			m.SizeWithAncestors -= a.Size
			m.FeeWithAncestors -= a.Fee
			m.SigOpsWithAncestors -= a.SigOps
		}
	}
}

func dedupeEntries(entries []*Entry) []*Entry {
	seen := make(map[chainhash.Hash]struct{}, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if _, ok := seen[e.Hash]; ok {
			continue
		}
		seen[e.Hash] = struct{}{}
		out = append(out, e)
	}
	return out
}
