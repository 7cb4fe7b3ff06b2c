// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
)

// AddrSource supplies the payout address a proof-of-work candidate's
// coinbase pays to. Callers that rotate across several addresses (mining
// pool payout, load-spreading across a wallet's keypool) implement this
// instead of hard-coding a single scriptPubKey into every CreateNewBlock
// call.
type AddrSource interface {
	// NextAddr returns the address the next candidate's coinbase should
	// pay to.
	NextAddr() btcutil.Address

	// NumAddrs returns the number of addresses currently registered.
	NumAddrs() int

	// ListEncodedAddrs returns the string encoding of every registered
	// address.
	ListEncodedAddrs() []string

	// AddAddr registers addr, failing if it is already present.
	AddAddr(addr btcutil.Address) error

	// RemoveAddr unregisters addr, failing if it is not present.
	RemoveAddr(addr btcutil.Address) error
}

// RoundRobinAddrSource is a concurrency-safe AddrSource that cycles through
// its registered addresses in insertion order, spreading payouts evenly
// rather than favoring whichever address happens to sort first.
type RoundRobinAddrSource struct {
	mu   sync.RWMutex
	addr []btcutil.Address
	next int
}

// NewRoundRobinAddrSource returns a RoundRobinAddrSource seeded with
// initial. Duplicate entries in initial are silently dropped.
func NewRoundRobinAddrSource(initial []btcutil.Address) *RoundRobinAddrSource {
	s := &RoundRobinAddrSource{addr: make([]btcutil.Address, 0, len(initial))}
	for _, a := range initial {
		_ = s.AddAddr(a)
	}
	return s
}

// NextAddr returns the next address in rotation, wrapping back to the start
// once every registered address has been used once.
func (s *RoundRobinAddrSource) NextAddr() btcutil.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.addr) == 0 {
		return nil
	}
	a := s.addr[s.next%len(s.addr)]
	s.next++
	return a
}

// NumAddrs returns the number of addresses currently registered.
func (s *RoundRobinAddrSource) NumAddrs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addr)
}

// ListEncodedAddrs returns the string encoding of every registered address.
func (s *RoundRobinAddrSource) ListEncodedAddrs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.addr))
	for i, a := range s.addr {
		out[i] = a.EncodeAddress()
	}
	return out
}

// AddAddr registers addr, failing if it is already present.
func (s *RoundRobinAddrSource) AddAddr(addr btcutil.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.addr {
		if a.EncodeAddress() == addr.EncodeAddress() {
			return fmt.Errorf("address %s already registered", addr.EncodeAddress())
		}
	}
	s.addr = append(s.addr, addr)
	return nil
}

// RemoveAddr unregisters addr, failing if it is not present.
func (s *RoundRobinAddrSource) RemoveAddr(addr btcutil.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.addr {
		if a.EncodeAddress() == addr.EncodeAddress() {
			s.addr = append(s.addr[:i], s.addr[i+1:]...)
			if s.next > i {
				s.next--
			}
			return nil
		}
	}
	return fmt.Errorf("address %s not registered", addr.EncodeAddress())
}
