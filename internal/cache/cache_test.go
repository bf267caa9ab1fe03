package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSlotEmpty(t *testing.T) {
	var s Slot[string]

	_, ok := s.Get(t0, time.Hour)
	assert.False(t, ok)

	_, ok = s.StoredAt()
	assert.False(t, ok)
}

func TestSlotPutGet(t *testing.T) {
	var s Slot[string]
	s.Put("payload", t0)

	v, ok := s.Get(t0.Add(10*time.Minute), 30*time.Minute)
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	at, ok := s.StoredAt()
	require.True(t, ok)
	assert.Equal(t, t0, at)
}

func TestSlotExpiryBoundary(t *testing.T) {
	var s Slot[int]
	s.Put(1, t0)

	_, ok := s.Get(t0.Add(30*time.Minute), 30*time.Minute)
	assert.True(t, ok, "age equal to expiration is still valid")

	_, ok = s.Get(t0.Add(30*time.Minute+time.Nanosecond), 30*time.Minute)
	assert.False(t, ok)

	_, ok = s.StoredAt()
	assert.True(t, ok, "expired entries stay until cleared")
}

func TestSlotZeroAndNegativeExpiration(t *testing.T) {
	var s Slot[int]
	s.Put(1, t0)

	_, ok := s.Get(t0, 0)
	assert.True(t, ok)
	_, ok = s.Get(t0.Add(time.Millisecond), 0)
	assert.False(t, ok)
	_, ok = s.Get(t0, -time.Minute)
	assert.False(t, ok)
}

func TestSlotOverwriteAndClear(t *testing.T) {
	var s Slot[int]
	s.Put(1, t0)
	s.Put(2, t0.Add(time.Minute))

	v, ok := s.Get(t0.Add(time.Minute), time.Hour)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	s.Clear()
	_, ok = s.Get(t0.Add(time.Minute), time.Hour)
	assert.False(t, ok)
	_, ok = s.StoredAt()
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	var a, b, c Slot[string]
	var empty Slot[int]
	a.Put("a", t0)
	b.Put("b", t0.Add(20*time.Minute))
	c.Put("c", t0.Add(40*time.Minute))

	st := Summarize(t0.Add(45*time.Minute), 30*time.Minute, &a, &b, &c, &empty)

	assert.Equal(t, 3, st.TotalEntries)
	assert.Equal(t, 2, st.ValidEntries)
	assert.Equal(t, 1, st.ExpiredEntries)
	assert.Equal(t, t0, st.Oldest)
	assert.Equal(t, t0.Add(40*time.Minute), st.Newest)
}

func TestSummarizeEmpty(t *testing.T) {
	var a Slot[string]
	st := Summarize(t0, time.Minute, &a)

	assert.Equal(t, Stats{}, st)
	assert.True(t, st.Oldest.IsZero())
}

func TestSlotConcurrentAccess(t *testing.T) {
	var s Slot[int]
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Put(i, t0)
			s.Get(t0, time.Minute)
			s.StoredAt()
		}(i)
	}
	wg.Wait()

	_, ok := s.Get(t0, time.Minute)
	assert.True(t, ok)
}
