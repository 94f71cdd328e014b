package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/ledger"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := ledger.NewRateLimiter(10, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("balance"), "request %d within burst", i)
	}

	assert.False(t, rl.Allow("balance"), "burst exhausted")
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := ledger.NewRateLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := rl.Wait(ctx, "submit")
	require.NoError(t, err)

	start := time.Now()
	err = rl.Wait(ctx, "submit")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_SeparateOperations(t *testing.T) {
	rl := ledger.NewRateLimiter(10, 2)

	assert.True(t, rl.Allow("balance"))
	assert.True(t, rl.Allow("balance"))
	assert.False(t, rl.Allow("balance")) // exhausted

	// submit has its own bucket
	assert.True(t, rl.Allow("submit"))
	assert.True(t, rl.Allow("submit"))
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	rl := ledger.NewRateLimiter(1, 1)

	err := rl.Wait(context.Background(), "epoch")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = rl.Wait(ctx, "epoch")
	assert.Error(t, err)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := ledger.NewRateLimiter(100, 100)

	var wg sync.WaitGroup
	successes := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			successes <- rl.Allow("balance")
		}()
	}

	wg.Wait()
	close(successes)

	count := 0
	for s := range successes {
		if s {
			count++
		}
	}

	assert.GreaterOrEqual(t, count, 90)
	assert.LessOrEqual(t, count, 110)
}
