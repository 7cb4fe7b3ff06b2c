// Copyright (c) 2014-2018 The BlackCoin Developers
// Copyright (c) 2011-2013 The PPCoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/wire"
)

// sigHashAll is the only legacy hash type this checker recognizes: the
// coinstake's kernel input is never signed with anything else.
const sigHashAll = 1

// P2PKHSignatureChecker is the default, narrow SignatureChecker: it
// recognizes only pay-to-pubkey-hash kernel outputs and verifies a single
// DER-encoded ECDSA signature plus public key pushed onto the spending
// input's signature script. P2SH, segwit and multisig kernels are out of
// scope; callers that need them supply their own SignatureChecker.
type P2PKHSignatureChecker struct{}

// VerifySignature implements SignatureChecker.
func (P2PKHSignatureChecker) VerifySignature(coin Coin, tx *wire.MsgTx, inputIndex int) bool {
	pkHash, ok := extractP2PKHHash(coin.PkScript)
	if !ok {
		return false
	}
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return false
	}

	sigWithType, pubKeyBytes, ok := extractSigAndPubKey(tx.TxIn[inputIndex].SignatureScript)
	if !ok || len(sigWithType) == 0 {
		return false
	}

	if !bytes.Equal(btcutil.Hash160(pubKeyBytes), pkHash) {
		return false
	}

	hashType := sigWithType[len(sigWithType)-1]
	derSig := sigWithType[:len(sigWithType)-1]

	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	sigHash, err := calcLegacySignatureHash(tx, inputIndex, coin.PkScript, hashType)
	if err != nil {
		return false
	}

	return sig.Verify(sigHash, pubKey)
}

// extractP2PKHHash recognizes the canonical
// OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG script shape and returns
// the embedded public key hash.
func extractP2PKHHash(pkScript []byte) ([]byte, bool) {
	const (
		opDup         = 0x76
		opHash160     = 0xa9
		opEqualVerify = 0x88
		opCheckSig    = 0xac
		pushData20    = 0x14
	)
	if len(pkScript) != 25 {
		return nil, false
	}
	if pkScript[0] != opDup || pkScript[1] != opHash160 || pkScript[2] != pushData20 ||
		pkScript[23] != opEqualVerify || pkScript[24] != opCheckSig {
		return nil, false
	}
	return pkScript[3:23], true
}

// extractSigAndPubKey decodes the two canonical data pushes a P2PKH input's
// signature script carries: <sig+hashtype> <pubkey>. Only minimal direct
// pushes (opcode 1-75) are accepted; anything else is unrecognized.
func extractSigAndPubKey(sigScript []byte) (sig, pubKey []byte, ok bool) {
	items, ok := decodeDirectPushes(sigScript)
	if !ok || len(items) != 2 {
		return nil, nil, false
	}
	return items[0], items[1], true
}

func decodeDirectPushes(script []byte) ([][]byte, bool) {
	var items [][]byte
	for i := 0; i < len(script); {
		op := script[i]
		if op < 1 || op > 75 {
			return nil, false
		}
		end := i + 1 + int(op)
		if end > len(script) {
			return nil, false
		}
		items = append(items, script[i+1:end])
		i = end
	}
	return items, true
}

// calcLegacySignatureHash computes the pre-segwit SIGHASH_ALL digest for
// tx's inputIndex-th input spending a coin whose locking script is
// subScript: a copy of tx with subScript substituted into the target
// input's signature script, every other input's signature script emptied,
// the hash type appended as a little-endian uint32, double-SHA-256'd.
func calcLegacySignatureHash(tx *wire.MsgTx, inputIndex int, subScript []byte, hashType byte) ([]byte, error) {
	if hashType != sigHashAll {
		return nil, fmt.Errorf("sigcheck: unsupported hash type %#x", hashType)
	}

	txCopy := tx.Copy()
	for i, in := range txCopy.TxIn {
		if i == inputIndex {
			in.SignatureScript = subScript
		} else {
			in.SignatureScript = nil
		}
	}

	var buf bytes.Buffer
	if err := txCopy.SerializeNoWitness(&buf); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(hashType)); err != nil {
		return nil, err
	}

	return chainhash.DoubleHashB(buf.Bytes()), nil
}
