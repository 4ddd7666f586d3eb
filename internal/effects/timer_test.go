package effects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	var gcd Timer
	assert.Zero(t, gcd.ReadyAt())

	gcd.Reset(time.Second, 2500*time.Millisecond)
	assert.Equal(t, 3500*time.Millisecond, gcd.ReadyAt())

	gcd.Reset(2*time.Second, 0)
	assert.Equal(t, 2*time.Second, gcd.ReadyAt(), "reset replaces the ready time")

	gcd.Shift(-2600 * time.Millisecond)
	assert.Equal(t, -600*time.Millisecond, gcd.ReadyAt())

	assert.Panics(t, func() { gcd.Reset(0, -time.Second) })
}
