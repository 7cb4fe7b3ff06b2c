// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// medianTimeBlocks is the number of previous blocks which should be used to
// calculate the median time used to validate block timestamps and to
// determine the cutoff for a transaction's finality under protocol-v3.1.
const medianTimeBlocks = 11

// BlockNode represents a block within the block chain and is primarily used
// to aid in selecting the best chain to be the main chain. The chain view
// for the block-production core only needs enough of a block's ancestry to
// answer the questions the kernel check and the assembler ask: its height,
// its hash, its target bits, its timestamp, its median time, and the stake
// modifier in effect when it was produced.
type BlockNode struct {
	// parent is the parent block for this node.
	parent *BlockNode

	// hash is the double sha256 of the block this node represents.
	hash chainhash.Hash

	// height is the position in the block chain.
	height int32

	// bits defines the proof of work/proof of stake target for the
	// block.
	bits uint32

	// timestamp is the unix timestamp the block was created.
	timestamp int64

	// flags records block-kind bits, notably wire.BlockProofOfStake.
	flags uint32

	// stakeModifier is the kernel modifier chained from this block,
	// computed once on acceptance and immutable thereafter:
	// H(kernelHash(this) || stakeModifier(parent)), zero at genesis.
	stakeModifier chainhash.Hash
}

// NewBlockNode returns a new block node for the given block hash, height,
// target bits, timestamp, block-kind flags and parent node. The cumulative
// work sum is not tracked here: the block-production core selects its
// working tip from the caller's best-chain view, it does not reimplement
// chain selection.
func NewBlockNode(hash *chainhash.Hash, height int32, bits uint32,
	timestamp int64, flags uint32, parent *BlockNode) *BlockNode {

	return &BlockNode{
		parent:    parent,
		hash:      *hash,
		height:    height,
		bits:      bits,
		timestamp: timestamp,
		flags:     flags,
	}
}

// Hash returns the hash of the block this node represents.
func (node *BlockNode) Hash() chainhash.Hash { return node.hash }

// Height returns the height of the block this node represents.
func (node *BlockNode) Height() int32 { return node.height }

// Bits returns the difficulty target of the block this node represents.
func (node *BlockNode) Bits() uint32 { return node.bits }

// Timestamp returns the unix timestamp of the block this node represents.
func (node *BlockNode) Timestamp() int64 { return node.timestamp }

// Parent returns the parent block node, or nil for the genesis node.
func (node *BlockNode) Parent() *BlockNode { return node.parent }

// IsProofOfStake reports whether the block this node represents is a staked
// block.
func (node *BlockNode) IsProofOfStake() bool {
	const blockProofOfStake = 1 << 0
	return node.flags&blockProofOfStake != 0
}

// StakeModifier returns the stake modifier in effect when this block was
// produced, fed as the leading bytes of every descendant's kernel hash
// pre-image.
func (node *BlockNode) StakeModifier() chainhash.Hash { return node.stakeModifier }

// SetStakeModifier records the stake modifier computed for this node.
func (node *BlockNode) SetStakeModifier(modifier chainhash.Hash) {
	node.stakeModifier = modifier
}

// Ancestor returns the ancestor block node at the provided height by
// walking backwards through the parent chain. The returned block will be
// nil when a height is requested that is after the height of the passed
// node or is less than zero.
func (node *BlockNode) Ancestor(height int32) *BlockNode {
	if height < 0 || height > node.height {
		return nil
	}

	n := node
	for ; n != nil && n.height != height; n = n.parent {
	}
	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance'
// blocks before this node. This is equivalent to calling Ancestor with the
// node's height minus the provided distance.
func (node *BlockNode) RelativeAncestor(distance int32) *BlockNode {
	return node.Ancestor(node.height - distance)
}

// timeSorter implements sort.Interface to allow a slice of timestamps to be
// sorted.
type timeSorter []int64

func (s timeSorter) Len() int           { return len(s) }
func (s timeSorter) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s timeSorter) Less(i, j int) bool { return s[i] < s[j] }

// CalcPastMedianTime calculates the median time of the previous few blocks
// prior to, and including, the block node. It is primarily used as a
// protection mechanism against nodes setting the time too far in the past
// and is also used to compute m_lock_time_cutoff once protocol-v3.1 is
// active.
func (node *BlockNode) CalcPastMedianTime() int64 {
	timestamps := make([]int64, 0, medianTimeBlocks)
	iterNode := node
	for i := 0; i < medianTimeBlocks && iterNode != nil; i++ {
		timestamps = append(timestamps, iterNode.timestamp)
		iterNode = iterNode.parent
	}

	sort.Sort(timeSorter(timestamps))
	return timestamps[len(timestamps)/2]
}
