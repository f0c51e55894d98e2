package webhook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_FirstCallWins(t *testing.T) {
	d := NewDebouncer(30 * time.Second)

	assert.True(t, d.TryAccept())
	assert.False(t, d.TryAccept())
	assert.False(t, d.TryAccept())
}

func TestDebouncer_WindowElapses(t *testing.T) {
	now := time.Unix(1700000000, 0)
	d := NewDebouncer(30 * time.Second)
	d.now = func() time.Time { return now }

	assert.True(t, d.TryAccept())

	now = now.Add(29 * time.Second)
	assert.False(t, d.TryAccept())

	now = now.Add(2 * time.Second)
	assert.True(t, d.TryAccept())

	// The winning call reset the window.
	now = now.Add(29 * time.Second)
	assert.False(t, d.TryAccept())
}

func TestDebouncer_DefaultWindow(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, DefaultDebounceWindow, d.window)
}

func TestDebouncer_ConcurrentCallsAdmitOne(t *testing.T) {
	d := NewDebouncer(time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.TryAccept() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}
