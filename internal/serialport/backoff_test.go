package serialport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := newBackoff()

	for i := 0; i < 40; i++ {
		d := b.next()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 75*time.Second) // 60s cap plus the +25% jitter ceiling
	}

	// After many iterations the underlying delay should have saturated at
	// the 60s cap (plus or minus jitter on the value returned).
	assert.LessOrEqual(t, b.current, 60*time.Second)
}

func TestBackoffResetReturnsToInitial(t *testing.T) {
	b := newBackoff()
	for i := 0; i < 10; i++ {
		b.next()
	}
	b.reset()
	assert.Equal(t, 50*time.Millisecond, b.current)
}
