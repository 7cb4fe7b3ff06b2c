// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staking

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lateminer/blackcoin-more/mining"
	"github.com/lateminer/blackcoin-more/wire"
	"golang.org/x/sync/errgroup"
)

const (
	// walletLockedRetry is how long the loop sleeps before re-checking
	// an unlocked wallet.
	walletLockedRetry = 5 * time.Second

	// networkRetry is how long the loop sleeps before re-checking sync
	// and peer conditions.
	networkRetry = 10 * time.Second

	// verificationProgressThreshold is the minimum chain-verification
	// progress the loop requires before it will attempt to stake.
	verificationProgressThreshold = 0.996

	// minSubmitDelay and maxSubmitJitter bound the pause after a
	// successfully submitted block, spreading stakers' next attempts out
	// to reduce orphan races.
	minSubmitDelay  = 16 * time.Second
	maxSubmitJitter = 3 * time.Second
)

// Wallet is the staking collaborator: a mining.Wallet plus the keystore
// state the loop's gating logic and block signing need.
type Wallet interface {
	mining.Wallet

	// IsLocked reports whether the wallet's keys are currently
	// unavailable for signing.
	IsLocked() bool

	// GetKeyPoolSize returns the number of keys available for new
	// payout addresses. Staking is disabled outright when this is zero.
	GetKeyPoolSize() int

	// AvailableCoinsForStaking returns the number of UTXOs currently
	// eligible to stake, sampled once at Start to seed pos_timio.
	AvailableCoinsForStaking() int

	// SignBlock signs a successfully assembled proof-of-stake block with
	// the key controlling its coinstake's kernel input.
	SignBlock(block *wire.MsgBlock) error
}

// ChainService is the subset of node state the loop gates on before
// attempting to stake, and the submission path for a solved block.
type ChainService interface {
	// IsInitialBlockDownload reports whether the node is still catching
	// up to the network.
	IsInitialBlockDownload() bool

	// VerificationProgress estimates how close the active chain is to
	// the network's best known tip, in [0, 1].
	VerificationProgress() float64

	// PeerCount returns the number of currently connected peers.
	PeerCount() int

	// ProcessBlockFound re-validates block against the current tip and,
	// if it still extends it, relays it to the rest of the node.
	ProcessBlockFound(block *wire.MsgBlock) error
}

// Config configures a Miner.
type Config struct {
	// Assembler builds the block templates the loop solves.
	Assembler *mining.BlockAssembler

	// PayToScript is the scriptPubKey a proof-of-stake coinbase's
	// (empty) output would otherwise carry; kept only so the assembler
	// has a non-nil value to pass through.
	PayToScript []byte

	// Enabled mirrors the `staking` master-switch option ANDed with the
	// negation of `nostaking`. Checked once per loop iteration.
	Enabled func() bool

	// StakeTimeioMillis is the `staketimio` base, in milliseconds, pos_timio
	// is computed from.
	StakeTimeioMillis int64

	// AlertFunc, if set, is invoked whenever the loop's warning message
	// changes (not on every tick), mirroring the notify-on-transition
	// behavior of the reference client's alert bus.
	AlertFunc func(string)
}

// Miner runs the staking loop (C6): gating on wallet/network state, driving
// the block assembler, signing, and submitting solved blocks. Exactly one
// Miner's loop goroutine is expected to run at a time.
type Miner struct {
	cfg    Config
	wallet Wallet
	chain  ChainService

	enable   atomic.Bool
	quit     chan struct{}
	eg       *errgroup.Group
	posTimio time.Duration

	warnMu  sync.Mutex
	warning string

	lastErrMu sync.Mutex
	lastErr   error
}

// NewMiner returns a Miner configured per cfg. It does not start the loop;
// call Start with the wallet and chain collaborators once they are
// available.
func NewMiner(cfg Config) *Miner {
	m := &Miner{cfg: cfg}
	m.enable.Store(true)
	return m
}

// Start seeds pos_timio from w's currently eligible stake outputs and
// launches the loop goroutine. It is an error to call Start twice without
// an intervening Stop/WaitStopped.
func (m *Miner) Start(w Wallet, cs ChainService) error {
	if m.quit != nil {
		return fmt.Errorf("staking: already started")
	}

	m.wallet = w
	m.chain = cs

	n := w.AvailableCoinsForStaking()
	m.posTimio = time.Duration(m.cfg.StakeTimeioMillis)*time.Millisecond +
		time.Duration(30*math.Sqrt(float64(n)))*time.Millisecond

	m.quit = make(chan struct{})
	m.eg = new(errgroup.Group)
	m.eg.Go(m.run)

	log.Infof("Staking loop started, pos_timio=%s", m.posTimio)
	return nil
}

// Stop is InterruptStaking: it flips the enable flag false and joins the
// loop goroutine, however long the current iteration's sleep takes to
// notice.
func (m *Miner) Stop() {
	m.enable.Store(false)
	m.WaitStopped()
}

// WaitStopped is StopStaking: it closes the quit channel, which wakes a
// loop blocked in a sleep and makes it return, then joins the loop
// goroutine without touching the enable flag. It is used when the loop has
// already exited on its own (e.g. the Disabled state) and the caller just
// needs to observe that.
func (m *Miner) WaitStopped() {
	if m.quit == nil {
		return
	}
	select {
	case <-m.quit:
	default:
		close(m.quit)
	}

	err := m.eg.Wait()
	m.lastErrMu.Lock()
	m.lastErr = err
	m.lastErrMu.Unlock()
	m.quit = nil
}

// Err returns the error the loop goroutine exited with, or nil if it has not
// run, is still running, or exited cleanly. Callers typically check this
// after WaitStopped/Stop to distinguish a graceful shutdown from a fatal
// block-assembly failure.
func (m *Miner) Err() error {
	m.lastErrMu.Lock()
	defer m.lastErrMu.Unlock()
	return m.lastErr
}

// Warning returns the loop's current warning message, or the empty string
// if nothing is wrong.
func (m *Miner) Warning() string {
	m.warnMu.Lock()
	defer m.warnMu.Unlock()
	return m.warning
}

// setWarning updates the warning message, invoking AlertFunc only when the
// message actually changes.
func (m *Miner) setWarning(msg string) {
	m.warnMu.Lock()
	changed := msg != m.warning
	m.warning = msg
	m.warnMu.Unlock()

	if changed && m.cfg.AlertFunc != nil {
		m.cfg.AlertFunc(msg)
	}
}

// sleep pauses for d or returns early if the loop is asked to stop,
// reporting which happened.
func (m *Miner) sleep(d time.Duration) (stopped bool) {
	select {
	case <-m.quit:
		return true
	case <-time.After(d):
		return false
	}
}

// run is the staking loop's state machine. It is launched via errgroup.Go,
// which captures its return value as the loop's exit error: nil for a clean
// shutdown (interrupted or disabled), non-nil for a fatal assembly failure a
// caller can inspect afterward through Err.
func (m *Miner) run() error {
	var extraNonce uint64
	for {
		if !m.enable.Load() || m.cfg.Enabled == nil || !m.cfg.Enabled() ||
			m.wallet.GetKeyPoolSize() == 0 {
			log.Infof("Staking disabled, exiting loop")
			return nil
		}

		if m.wallet.IsLocked() {
			m.setWarning("Staking suspended due to locked wallet")
			if m.sleep(walletLockedRetry) {
				return nil
			}
			continue
		}

		if m.chain.PeerCount() == 0 || m.chain.IsInitialBlockDownload() ||
			m.chain.VerificationProgress() < verificationProgressThreshold {
			m.setWarning("Staking suspended while synchronizing with network")
			if m.sleep(networkRetry) {
				return nil
			}
			continue
		}

		m.setWarning("")

		tmpl, err := m.tryCreateBlock()
		if err != nil {
			// A real assembly failure, not "nothing to stake this
			// second" (that case is the nil-template/nil-error
			// return below). The reference loop treats this as
			// fatal to the current run: warn and exit rather than
			// spin on a condition that will not self-heal.
			m.setWarning(fmt.Sprintf("Block creation failed: %v", err))
			m.sleep(networkRetry)
			return fmt.Errorf("staking: block assembly failed: %w", err)
		}
		if tmpl == nil {
			if m.sleep(m.posTimio) {
				return nil
			}
			continue
		}

		height := tmpl.Height - 1
		if err := mining.IncrementExtraNonce(tmpl.Block, height, &extraNonce); err != nil {
			m.setWarning(fmt.Sprintf("Block creation failed: %v", err))
			m.sleep(networkRetry)
			return fmt.Errorf("staking: extra nonce increment failed: %w", err)
		}

		if err := m.wallet.SignBlock(tmpl.Block); err != nil {
			m.setWarning(fmt.Sprintf("Block creation failed: %v", err))
			m.sleep(networkRetry)
			return fmt.Errorf("staking: signing failed: %w", err)
		}

		if err := m.chain.ProcessBlockFound(tmpl.Block); err != nil {
			log.Errorf("ProcessBlockFound rejected staked block: %v", err)
			if m.sleep(networkRetry) {
				return nil
			}
			continue
		}

		log.Infof("Submitted staked block at height %d", tmpl.Height)
		jitter := time.Duration(rand.Int63n(int64(maxSubmitJitter)))
		if m.sleep(minSubmitDelay + jitter) {
			return nil
		}
	}
}

// tryCreateBlock invokes the assembler under the wallet+chain locking
// discipline the caller is assumed to already hold (the Wallet/ChainService
// implementations own their own locks; this core imposes no additional
// synchronization beyond the single-loop-goroutine invariant).
func (m *Miner) tryCreateBlock() (*mining.BlockTemplate, error) {
	tmpl, _, err := m.cfg.Assembler.CreateNewBlock(m.cfg.PayToScript, m.wallet)
	return tmpl, err
}
