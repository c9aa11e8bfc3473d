package voicesource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndGetIsFIFO(t *testing.T) {
	s := New()
	s.AppendAudioDTO([]byte{1})
	s.AppendAudioDTO([]byte{2})
	s.AppendAudioDTO([]byte{3})

	f1, ok := s.GetAudioFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{1}, f1)

	f2, ok := s.GetAudioFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{2}, f2)

	f3, ok := s.GetAudioFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{3}, f3)

	_, ok = s.GetAudioFrame()
	assert.False(t, ok)
}

func TestGetAudioFrameEmptyReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.GetAudioFrame()
	assert.False(t, ok)
}

func TestAppendOverflowDropsOldest(t *testing.T) {
	s := New()
	for i := 0; i < Capacity+5; i++ {
		s.AppendAudioDTO([]byte{byte(i)})
	}
	assert.Equal(t, Capacity, s.QueueLen())

	f, ok := s.GetAudioFrame()
	require.True(t, ok)
	// The first 5 frames (0..4) should have been evicted.
	assert.Equal(t, []byte{5}, f)
}

func TestIsActiveReflectsQueueAndRecency(t *testing.T) {
	s := New()
	assert.False(t, s.IsActive())

	s.AppendAudioDTO([]byte{1})
	assert.True(t, s.IsActive())

	_, _ = s.GetAudioFrame()
	assert.True(t, s.IsActive(), "still within ActiveTimeout after drain")
}

func TestLastActivityTimeUpdates(t *testing.T) {
	s := New()
	assert.True(t, s.LastActivityTime().IsZero())

	before := time.Now()
	s.AppendAudioDTO([]byte{1})
	assert.False(t, s.LastActivityTime().Before(before))
}
