package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirpx/cobject/kernel"
)

type dispatchSpy struct {
	*kernel.Object
	timerFired int
}

func newDispatchSpy() *dispatchSpy {
	s := &dispatchSpy{Object: kernel.New(nil, nil)}
	s.SetSelf(s)
	return s
}

func (s *dispatchSpy) OnTimerEvent(e *kernel.Event) { s.timerFired++ }

func TestProcessEventsFiresDueTimer(t *testing.T) {
	d := New(NewSelectDriver())
	spy := newDispatchSpy()
	d.RegisterTimer(1, spy.Object)

	// ProcessEvents must run on the goroutine that owns spy (a
	// require.Eventually condition runs on a goroutine of its own).
	for deadline := time.Now().Add(time.Second); spy.timerFired == 0 && time.Now().Before(deadline); {
		d.ProcessEvents(5)
	}
	require.Positive(t, spy.timerFired)
}

func TestProcessEventsDeliversPostedEventsForCallingThread(t *testing.T) {
	d := New(NewSelectDriver())
	obj := kernel.New(nil, nil)

	spy := &dispatchSpy{Object: obj}
	spy.SetSelf(spy)

	kernel.PostEvent(obj, kernel.NewTimerEvent(99))
	processed := d.ProcessEvents(0)
	assert.True(t, processed)
	assert.Equal(t, 1, spy.timerFired)
}

func TestUnregisterTimerStopsFurtherTicks(t *testing.T) {
	d := New(NewSelectDriver())
	spy := newDispatchSpy()
	id := d.RegisterTimer(1, spy.Object)

	for deadline := time.Now().Add(time.Second); spy.timerFired == 0 && time.Now().Before(deadline); {
		d.ProcessEvents(5)
	}
	require.Positive(t, spy.timerFired)

	require.True(t, d.UnregisterTimer(id))
	fired := spy.timerFired
	d.ProcessEvents(10)
	assert.Equal(t, fired, spy.timerFired)
}

func TestProcessEventsDoesNotDeliverTimerOwnedByAnotherThread(t *testing.T) {
	d := New(NewSelectDriver())

	otherCh := make(chan *dispatchSpy, 1)
	go func() {
		s := &dispatchSpy{Object: kernel.New(nil, nil)}
		s.SetSelf(s)
		otherCh <- s
	}()
	other := <-otherCh
	require.NotEqual(t, kernel.CurrentThread(), other.Thread())

	d.RegisterTimer(1, other.Object)

	require.Eventually(t, func() bool {
		d.ProcessEvents(5)
		return kernel.PostedEventCount() > 0
	}, time.Second, 2*time.Millisecond)

	assert.Equal(t, 0, other.timerFired, "a timer owned by another thread must not be delivered on this goroutine")

	posted := kernel.TakeEventsFor(other.Thread())
	require.Len(t, posted, 1)
	kernel.Dispatch(posted[0].Receiver, posted[0].Event)
	assert.Equal(t, 1, other.timerFired, "the owning thread's own drain must still receive it")
}

func TestStartingUpAndShuttingDownAreIdempotent(t *testing.T) {
	d := New(NewSelectDriver())
	assert.NotPanics(t, func() {
		d.StartingUp()
		d.StartingUp()
		d.ShuttingDown()
		d.ShuttingDown()
	})
}
