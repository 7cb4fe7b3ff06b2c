// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mining implements block template assembly: selecting mempool
packages under a weight and sigop budget, building the coinbase, and,
when a wallet is supplied, delegating to it for proof-of-stake coinstake
construction.

BlockAssembler.CreateNewBlock is the package's entry point. It returns
either a fully formed BlockTemplate, a nil template with a nil error
(no coinstake could be minted for the current search window, retry
later), or a non-nil error if assembly itself failed.

IncrementExtraNonce and RegenerateCommitments support external tooling
that mutates a template after CreateNewBlock returns it: bumping the
coinbase's extra-nonce space, or re-deriving the witness commitment
after transactions have been reordered.
*/
package mining
