package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectDriverPollReturnsAfterTimeout(t *testing.T) {
	d := NewSelectDriver()
	defer d.Close()

	start := time.Now()
	ready, err := d.Poll(20)
	assert.NoError(t, err)
	assert.Empty(t, ready)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSelectDriverWakeUpInterruptsPoll(t *testing.T) {
	d := NewSelectDriver()
	defer d.Close()

	done := make(chan struct{})
	go func() {
		d.Poll(-1)
		close(done)
	}()

	d.WakeUp()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WakeUp did not interrupt a blocked Poll")
	}
}

func TestSelectDriverRegisterUnregisterAreNoops(t *testing.T) {
	d := NewSelectDriver()
	defer d.Close()

	assert.NoError(t, d.RegisterFD(3, Read))
	assert.NoError(t, d.UnregisterFD(3, Read))
}
