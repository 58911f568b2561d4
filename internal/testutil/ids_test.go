package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs_Format(t *testing.T) {
	ids := NewSequentialIDs("")

	assert.Equal(t, "ch-0001", ids.NewID())
	assert.Equal(t, "ch-0002", ids.NewID())
	assert.Equal(t, int64(2), ids.Issued())

	custom := NewSequentialIDs("x")
	assert.Equal(t, "x-0001", custom.NewID())
}

func TestSequentialIDs_Reset(t *testing.T) {
	ids := NewSequentialIDs("ch")
	ids.NewID()
	ids.NewID()

	ids.Reset()
	assert.Equal(t, int64(0), ids.Issued())
	assert.Equal(t, "ch-0001", ids.NewID())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs("ch")
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]string, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]string, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = ids.NewID()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, row := range results {
		for _, id := range row {
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}

func TestSequentialIDs_Deterministic(t *testing.T) {
	a := NewSequentialIDs("ch")
	b := NewSequentialIDs("ch")

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.NewID(), b.NewID())
	}
}
