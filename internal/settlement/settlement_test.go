package settlement

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/deedchain/internal/models"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestSimulator_Settle(t *testing.T) {
	sim := NewSimulator(time.Second, 3*time.Second, WithSleep(noSleep), WithSeed(7))

	first, err := sim.Settle(context.Background())
	require.NoError(t, err)
	second, err := sim.Settle(context.Background())
	require.NoError(t, err)

	assert.True(t, ValidRef(first), "hash %q", first.Hash)
	assert.True(t, ValidRef(second))
	assert.NotEqual(t, first.Hash, second.Hash)
	assert.Greater(t, second.BlockNumber, first.BlockNumber)
}

func TestSimulator_DelayWithinBounds(t *testing.T) {
	var delays []time.Duration
	record := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	sim := NewSimulator(time.Second, 3*time.Second, WithSleep(record), WithSeed(1))

	for i := 0; i < 50; i++ {
		_, err := sim.Settle(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, delays, 50)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestSimulator_DeterministicEntropy(t *testing.T) {
	sim := NewSimulator(0, 0, WithEntropy(bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))))

	ref, err := sim.Settle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x"+string(bytes.Repeat([]byte("ab"), 32)), ref.Hash)
}

func TestSimulator_EntropyFailure(t *testing.T) {
	sim := NewSimulator(0, 0, WithEntropy(bytes.NewReader(nil)))

	_, err := sim.Settle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate transaction hash")
}

func TestSimulator_HonorsCancellation(t *testing.T) {
	sim := NewSimulator(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Settle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout_Expires(t *testing.T) {
	blocking := SettlerFunc(func(ctx context.Context) (models.TransactionRef, error) {
		<-ctx.Done()
		return models.TransactionRef{}, ctx.Err()
	})

	_, err := WithTimeout(blocking, 20*time.Millisecond).Settle(context.Background())
	assert.ErrorIs(t, err, ErrSettlementTimeout)
	assert.NotErrorIs(t, err, ErrSettlementFailed)
}

func TestWithTimeout_SettlerIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := SettlerFunc(func(context.Context) (models.TransactionRef, error) {
		<-release
		return models.TransactionRef{}, nil
	})

	start := time.Now()
	_, err := WithTimeout(stuck, 20*time.Millisecond).Settle(context.Background())
	assert.ErrorIs(t, err, ErrSettlementTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithTimeout_WrapsFailures(t *testing.T) {
	boom := errors.New("ledger rejected")
	failing := SettlerFunc(func(context.Context) (models.TransactionRef, error) {
		return models.TransactionRef{}, boom
	})

	_, err := WithTimeout(failing, time.Second).Settle(context.Background())
	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.ErrorIs(t, err, boom)
}

func TestWithTimeout_RejectsMalformedReference(t *testing.T) {
	bad := SettlerFunc(func(context.Context) (models.TransactionRef, error) {
		return models.TransactionRef{Hash: "0x1234", BlockNumber: 1}, nil
	})

	_, err := WithTimeout(bad, time.Second).Settle(context.Background())
	assert.ErrorIs(t, err, ErrSettlementFailed)
}

func TestWithTimeout_NormalizesUppercaseHash(t *testing.T) {
	upper := SettlerFunc(func(context.Context) (models.TransactionRef, error) {
		return models.TransactionRef{Hash: "0x" + string(bytes.Repeat([]byte("AB"), 32)), BlockNumber: 7}, nil
	})

	ref, err := WithTimeout(upper, time.Second).Settle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x"+string(bytes.Repeat([]byte("ab"), 32)), ref.Hash)
	assert.Equal(t, int64(7), ref.BlockNumber)
}

func TestWithTimeout_PassesThrough(t *testing.T) {
	sim := NewSimulator(0, 0, WithSleep(noSleep))

	ref, err := WithTimeout(sim, 0).Settle(context.Background())
	require.NoError(t, err)
	assert.True(t, ValidRef(ref))
}

func TestValidRef(t *testing.T) {
	good := "0x" + string(bytes.Repeat([]byte("0f"), 32))
	assert.True(t, ValidRef(models.TransactionRef{Hash: good, BlockNumber: 1}))
	assert.False(t, ValidRef(models.TransactionRef{Hash: good, BlockNumber: 0}))
	assert.False(t, ValidRef(models.TransactionRef{Hash: good[2:], BlockNumber: 3}))
	assert.True(t, ValidRef(models.TransactionRef{Hash: "0x" + string(bytes.Repeat([]byte("0F"), 32)), BlockNumber: 3}))
	assert.False(t, ValidRef(models.TransactionRef{Hash: "0x" + string(bytes.Repeat([]byte("0g"), 32)), BlockNumber: 3}))
}

func TestExplorerURL(t *testing.T) {
	hash := "0x" + string(bytes.Repeat([]byte("a1"), 32))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash, ExplorerURL("sepolia.etherscan.io", hash))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash, ExplorerURL("https://sepolia.etherscan.io/", hash))
}
