package statsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	var states []bool

	cb := NewCircuitBreaker(3, time.Minute)
	cb.now = func() time.Time { return now }
	cb.onChange = func(open bool) { states = append(states, open) }

	t.Run("stays closed below threshold", func(t *testing.T) {
		cb.RecordFailure()
		cb.RecordFailure()
		assert.True(t, cb.Allow())
		assert.False(t, cb.IsOpen())
	})

	t.Run("opens at threshold", func(t *testing.T) {
		cb.RecordFailure()
		assert.True(t, cb.IsOpen())
		assert.False(t, cb.Allow())
	})

	t.Run("half-open after cooldown reopens on one failure", func(t *testing.T) {
		now = now.Add(time.Minute + time.Second)
		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.True(t, cb.IsOpen())
	})

	t.Run("success closes", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.False(t, cb.IsOpen())
		cb.RecordFailure()
		assert.False(t, cb.IsOpen())
	})

	assert.Equal(t, []bool{true, false, true, false}, states)
}
