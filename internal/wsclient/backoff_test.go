package wsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectDelayDoubles(t *testing.T) {
	base := 1 * time.Second
	max := 30 * time.Second

	assert.Equal(t, 1*time.Second, reconnectDelay(base, max, 1))
	assert.Equal(t, 2*time.Second, reconnectDelay(base, max, 2))
	assert.Equal(t, 4*time.Second, reconnectDelay(base, max, 3))
	assert.Equal(t, 8*time.Second, reconnectDelay(base, max, 4))
	assert.Equal(t, 16*time.Second, reconnectDelay(base, max, 5))
}

func TestReconnectDelayCapped(t *testing.T) {
	base := 1 * time.Second
	max := 30 * time.Second

	assert.Equal(t, max, reconnectDelay(base, max, 6))
	assert.Equal(t, max, reconnectDelay(base, max, 20))
}

func TestReconnectDelayBaseAboveCap(t *testing.T) {
	assert.Equal(t, 5*time.Second, reconnectDelay(10*time.Second, 5*time.Second, 1))
}

func TestReconnectDelayClampsAttempt(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, base, reconnectDelay(base, 30*time.Second, 0))
	assert.Equal(t, base, reconnectDelay(base, 30*time.Second, -3))
}
