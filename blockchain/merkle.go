// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/wire"
)

// RollingMerkleTree computes the double SHA256 merkle root over a set of leaf
// hashes. Interior nodes are opportunistically computed as new leaves are
// added to the tree, consolidating any nodes that have both a left and right
// child before permitting another leaf to be added. As a result, a
// RollingMerkleTree only requires O(log n) additional storage to compute the
// final root.
type RollingMerkleTree struct {
	nodes map[uint32]chainhash.Hash
	num   uint32

	buf   [2 * chainhash.HashSize]byte
	both  []byte
	left  []byte
	right []byte
}

// MakeRollingMerkleTree creates a RollingMerkleTree that is preallocated for
// size leaves. More than size leaves may be pushed onto the tree, though may
// result in more wasteful allocations than is necessary.
func MakeRollingMerkleTree(size int) RollingMerkleTree {
	logn := int(math.Log2(float64(size)) + 1)

	t := RollingMerkleTree{
		nodes: make(map[uint32]chainhash.Hash, logn),
	}

	t.both = t.buf[:]
	t.left = t.buf[:chainhash.HashSize]
	t.right = t.buf[chainhash.HashSize:]

	return t
}

// Push adds the next leaf to the RollingMerkleTree.
func (t *RollingMerkleTree) Push(hash *chainhash.Hash) {
	t.num++

	idx := t.num - 1
	if idx%2 == 0 {
		t.nodes[idx] = *hash
	} else {
		t.prune(hash)
	}
}

// Root returns the final merkle root of all elements added via Push.
func (t *RollingMerkleTree) Root() chainhash.Hash {
	switch len(t.nodes) {
	case 0:
		return chainhash.Hash{}
	case 1:
		return t.nodes[0]
	default:
		t.prune(nil)
		return t.nodes[0]
	}
}

// prune iteratively consolidates all complete subtrees into a single hash
// stored in nodes, matching the bitcoin convention of duplicating a lone
// left leaf when the leaf count at a level is odd.
func (t *RollingMerkleTree) prune(leaf *chainhash.Hash) {
	final := leaf == nil

	for i := t.num - 1; i > 0; i /= 2 {
		if i%2 == 0 {
			if !final {
				return
			}
			if left, ok := t.nodes[i]; ok {
				delete(t.nodes, i)
				t.nodes[i/2] = t.hashMerkleBranches(&left, &left)
			}
			continue
		}

		left, ok := t.nodes[i-1]
		if !ok && final {
			continue
		} else if !ok && !final {
			return
		}

		delete(t.nodes, i-1)

		var right chainhash.Hash
		if !final && i == t.num-1 {
			right = *leaf
		} else {
			right = t.nodes[i]
			delete(t.nodes, i)
		}

		t.nodes[i/2] = t.hashMerkleBranches(&left, &right)
	}
}

func (t *RollingMerkleTree) hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	copy(t.left, left[:])
	copy(t.right, right[:])
	return chainhash.DoubleHashH(t.both)
}

// CalcMerkleRoot computes the merkle root over a block's transaction list in
// wire order. The assembler calls this every time it mutates the
// transaction set after initial assembly: extra-nonce bumps, coinstake
// injection, and witness-commitment regeneration all require a fresh root.
func CalcMerkleRoot(txns []*wire.MsgTx) chainhash.Hash {
	tree := MakeRollingMerkleTree(len(txns))
	for _, tx := range txns {
		hash := tx.TxHash()
		tree.Push(&hash)
	}
	return tree.Root()
}
