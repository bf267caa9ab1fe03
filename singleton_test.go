package deviceinfo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/deviceinfo/platform"
)

func resetInstance(t *testing.T) {
	t.Helper()
	instance.Store(nil)
	t.Cleanup(func() { instance.Store(nil) })
}

func TestInstance_BeforeInitialize(t *testing.T) {
	resetInstance(t)

	s, err := Instance()
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitialize_FirstCallWins(t *testing.T) {
	resetInstance(t)

	first := Initialize(platform.NewFake(30), DefaultConfig())
	other := DefaultConfig()
	other.CachingEnabled = false
	second := Initialize(platform.NewFake(21), other)

	assert.Same(t, first, second)
	assert.True(t, second.Config().CachingEnabled)

	got, err := Instance()
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestInitialize_Concurrent(t *testing.T) {
	resetInstance(t)

	const n = 32
	got := make([]*SDK, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Initialize(platform.NewFake(30), DefaultConfig())
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}
