// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the canonical little-endian wire encoding used for
// block and transaction serialization. It mirrors btcsuite/btcd's wire
// package in naming and structure, extended with the fields the proof-of-
// stake kernel is consensus-critical over: a per-transaction Time and a
// per-header Flags bitfield marking proof-of-stake blocks.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxVarIntPayload is the maximum payload size for a variable length integer.
const MaxVarIntPayload = 9

// littleEndian is the byte order used for all wire encodings in this package.
var littleEndian = binary.LittleEndian

// ReadVarInt reads a variable length integer from r and returns it as a uint64.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	var rv uint64
	switch prefix[0] {
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		rv = littleEndian.Uint64(b[:])
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		rv = uint64(littleEndian.Uint32(b[:]))
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		rv = uint64(littleEndian.Uint16(b[:]))
	default:
		rv = uint64(prefix[0])
	}
	return rv, nil
}

// WriteVarInt writes a variable length integer to w.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		_, err := w.Write([]byte{byte(val)})
		return err
	}
	if val <= 0xffff {
		buf := make([]byte, 3)
		buf[0] = 0xfd
		littleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	}
	if val <= 0xffffffff {
		buf := make([]byte, 5)
		buf[0] = 0xfe
		littleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	}
	buf := make([]byte, 9)
	buf[0] = 0xff
	littleEndian.PutUint64(buf[1:], val)
	_, err := w.Write(buf)
	return err
}

// ReadVarBytes reads a variable length byte array, preceded by its length
// encoded as a variable length integer, capping the allowed size to guard
// against malicious or malformed inputs triggering large allocations.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, fmt.Errorf("%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes writes a variable length byte array, preceded by its length
// encoded as a variable length integer.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(b[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	littleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func writeInt32(w io.Writer, v int32) error {
	return writeUint32(w, uint32(v))
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(b[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	littleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func writeInt64(w io.Writer, v int64) error {
	return writeUint64(w, uint64(v))
}

func readHash(r io.Reader, h *chainhash.Hash) error {
	_, err := io.ReadFull(r, h[:])
	return err
}

func writeHash(w io.Writer, h *chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}
