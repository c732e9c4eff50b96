package testutil

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepClock_AdvancesPerCall(t *testing.T) {
	clock := NewStepClock(time.Time{}, 0)

	assert.Equal(t, DefaultEpoch, clock.Now())
	assert.Equal(t, DefaultEpoch.Add(time.Second), clock.Now())
	assert.Equal(t, DefaultEpoch.Add(2*time.Second), clock.Peek())
	assert.Equal(t, DefaultEpoch.Add(2*time.Second), clock.Now())
}

func TestStepClock_Reset(t *testing.T) {
	start := time.Date(2030, 5, 5, 5, 5, 5, 0, time.UTC)
	clock := NewStepClock(start, time.Millisecond)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, start, clock.Now())
}

func TestStepClock_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	clock := NewStepClock(time.Date(2024, 1, 1, 1, 0, 0, 0, loc), time.Second)
	assert.Equal(t, time.UTC, clock.Now().Location())
}

func TestStepClock_ConcurrentUnique(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Nanosecond)

	const goroutines = 50
	const calls = 100
	results := make(chan time.Time, goroutines*calls)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				results <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		require.False(t, seen[ts], "duplicate instant %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, goroutines*calls)
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs()
	first := ids.Generate()
	second := ids.Generate()

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", first)
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", second)
	assert.Less(t, first, second)

	ids.Reset()
	assert.Equal(t, first, ids.Generate())
}

func TestSeededReader_Deterministic(t *testing.T) {
	a := make([]byte, 100)
	b := make([]byte, 100)
	_, err := io.ReadFull(NewSeededReader("seed"), a)
	require.NoError(t, err)
	_, err = io.ReadFull(NewSeededReader("seed"), b)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c := make([]byte, 100)
	_, err = io.ReadFull(NewSeededReader("other"), c)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
