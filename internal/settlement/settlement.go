// Package settlement produces ledger transaction references for registry
// operations. The only implementation is a simulator; a real ledger client
// would satisfy the same Settler interface.
package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/stwalsh4118/deedchain/internal/models"
)

var (
	// ErrSettlementFailed is returned when the ledger rejects or cannot process a settlement.
	ErrSettlementFailed = errors.New("settlement failed")
	// ErrSettlementTimeout is returned when a settlement does not finish in time.
	ErrSettlementTimeout = errors.New("settlement timed out")
)

// DefaultTimeout bounds a single settlement when no timeout is configured.
const DefaultTimeout = 30 * time.Second

var hashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Settler records an operation on the ledger and returns its reference.
type Settler interface {
	Settle(ctx context.Context) (models.TransactionRef, error)
}

// SettlerFunc adapts a function to the Settler interface.
type SettlerFunc func(ctx context.Context) (models.TransactionRef, error)

// Settle calls f(ctx).
func (f SettlerFunc) Settle(ctx context.Context) (models.TransactionRef, error) {
	return f(ctx)
}

// Simulator fakes ledger confirmation with a bounded random delay.
type Simulator struct {
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	entropy  io.Reader

	mu    sync.Mutex
	rng   *mrand.Rand
	block int64
}

// SimulatorOption customises a Simulator.
type SimulatorOption func(*Simulator)

// WithSleep replaces the delay function. Tests pass a no-op.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SimulatorOption {
	return func(s *Simulator) {
		s.sleep = sleep
	}
}

// WithSeed makes delays and block numbers reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithEntropy replaces the source of transaction hash bytes.
func WithEntropy(r io.Reader) SimulatorOption {
	return func(s *Simulator) {
		s.entropy = r
	}
}

// NewSimulator creates a simulator waiting between minDelay and maxDelay per settlement.
func NewSimulator(minDelay, maxDelay time.Duration, opts ...SimulatorOption) *Simulator {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	s := &Simulator{
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepContext,
		entropy:  rand.Reader,
		rng:      mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.block = 5_000_000 + s.rng.Int64N(1_000_000)
	return s
}

// Settle waits for the simulated confirmation and returns a fresh reference.
func (s *Simulator) Settle(ctx context.Context) (models.TransactionRef, error) {
	if err := s.sleep(ctx, s.delay()); err != nil {
		return models.TransactionRef{}, err
	}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(s.entropy, buf); err != nil {
		return models.TransactionRef{}, fmt.Errorf("failed to generate transaction hash: %w", err)
	}

	return models.TransactionRef{
		Hash:        "0x" + hex.EncodeToString(buf),
		BlockNumber: s.nextBlock(),
	}, nil
}

func (s *Simulator) delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.maxDelay - s.minDelay
	if span <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int64N(int64(span)+1))
}

func (s *Simulator) nextBlock() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block += 1 + s.rng.Int64N(3)
	return s.block
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type timeoutSettler struct {
	next    Settler
	timeout time.Duration
}

// WithTimeout bounds every settlement of next by timeout. Expiry yields
// ErrSettlementTimeout, any other failure or a malformed reference yields
// ErrSettlementFailed. Hashes are returned lowercased whatever case the ledger
// reports them in. A non-positive timeout selects DefaultTimeout.
func WithTimeout(next Settler, timeout time.Duration) Settler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutSettler{next: next, timeout: timeout}
}

type settleResult struct {
	ref models.TransactionRef
	err error
}

func (t *timeoutSettler) Settle(ctx context.Context) (models.TransactionRef, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// Buffered so a settler that ignores ctx cannot leak the goroutine forever.
	done := make(chan settleResult, 1)
	go func() {
		ref, err := t.next.Settle(ctx)
		done <- settleResult{ref: ref, err: err}
	}()

	var res settleResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = settleResult{err: ctx.Err()}
	}

	switch {
	case res.err == nil:
		if !ValidRef(res.ref) {
			return models.TransactionRef{}, fmt.Errorf("%w: malformed transaction reference", ErrSettlementFailed)
		}
		res.ref.Hash = strings.ToLower(res.ref.Hash)
		return res.ref, nil
	case errors.Is(res.err, ErrSettlementTimeout), errors.Is(res.err, ErrSettlementFailed):
		return models.TransactionRef{}, res.err
	case errors.Is(res.err, context.DeadlineExceeded):
		return models.TransactionRef{}, fmt.Errorf("%w after %s", ErrSettlementTimeout, t.timeout)
	default:
		return models.TransactionRef{}, fmt.Errorf("%w: %w", ErrSettlementFailed, res.err)
	}
}

// ValidRef reports whether ref has a 0x-prefixed 64 hex digit hash, in either
// case, and a positive block.
func ValidRef(ref models.TransactionRef) bool {
	return hashPattern.MatchString(ref.Hash) && ref.BlockNumber > 0
}

// ExplorerURL links a transaction hash on the given block explorer host.
func ExplorerURL(host, hash string) string {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "https://"), "/")
	return "https://" + host + "/tx/" + hash
}
