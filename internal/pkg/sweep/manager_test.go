package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stop must wake both workers and return; a worker that misses the stop
// signal would leave Stop waiting on the WaitGroup forever.
func TestManagerStopTerminatesWorkers(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}

	for cycle := 0; cycle < 3; cycle++ {
		m.Start()
		require.True(t, m.IsRunning())

		done := make(chan struct{})
		go func() {
			m.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Stop did not return on cycle %d", cycle)
		}
		assert.False(t, m.IsRunning())
	}
}

func TestManagerStartStopIdempotent(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}

	m.Stop() // not running, must be a no-op
	assert.False(t, m.IsRunning())

	m.Start()
	m.Start() // second start is a no-op
	assert.True(t, m.IsRunning())

	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())
}
