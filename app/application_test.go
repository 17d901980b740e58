package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dirpx/cobject/kernel"
)

type timerSpy struct {
	*kernel.Object
	fired chan struct{}
}

func newTimerSpy() *timerSpy {
	s := &timerSpy{Object: kernel.New(nil, nil), fired: make(chan struct{}, 8)}
	s.SetSelf(s)
	return s
}

func (s *timerSpy) OnTimerEvent(e *kernel.Event) {
	select {
	case s.fired <- struct{}{}:
	default:
	}
}

func TestApplicationSingletonGuard(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	defer a.Close()

	_, err = New()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestNewWithDriverSelectBuildsWorkingApplication(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := NewWithDriver("select")
	require.NoError(t, err)
	defer a.Close()

	done := make(chan int, 1)
	go func() { done <- a.Exec() }()

	a.Quit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Exec did not return after Quit")
	}
}

func TestNewWithDriverRejectsUnknownName(t *testing.T) {
	_, err := NewWithDriver("not-a-real-driver")
	assert.Error(t, err)
	assert.Nil(t, Instance())
}

func TestApplicationExecQuitReturnsZero(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New()
	require.NoError(t, err)
	defer a.Close()

	done := make(chan int, 1)
	go func() { done <- a.Exec() }()

	time.Sleep(10 * time.Millisecond)
	a.Quit()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(time.Second):
		t.Fatal("Exec did not return after Quit")
	}
}

func TestApplicationExitReturnsGivenCode(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New()
	require.NoError(t, err)
	defer a.Close()

	done := make(chan int, 1)
	go func() { done <- a.Exec() }()

	a.Exit(7)
	select {
	case code := <-done:
		assert.Equal(t, 7, code)
	case <-time.After(time.Second):
		t.Fatal("Exec did not return after Exit")
	}
}

func TestApplicationStartTimerFiresDuringExec(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New()
	require.NoError(t, err)
	defer a.Close()

	// The spy must be owned by the goroutine running Exec: the dispatcher
	// only delivers a timer directly to an object its own thread owns.
	spyCh := make(chan *timerSpy, 1)
	done := make(chan int, 1)
	go func() {
		spyCh <- newTimerSpy()
		done <- a.Exec()
	}()
	spy := <-spyCh

	id := spy.StartTimer(1)
	require.NotZero(t, id)

	select {
	case <-spy.fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired during Exec")
	}

	a.Quit()
	<-done
}

func TestApplicationPostEventWakesExecPromptly(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, err := New()
	require.NoError(t, err)
	defer a.Close()

	// The receiver must be owned by the goroutine running Exec: Exec only
	// drains posted events addressed to objects its own thread owns.
	objCh := make(chan *kernel.Object, 1)
	done := make(chan int, 1)
	go func() {
		objCh <- kernel.New(nil, nil)
		done <- a.Exec()
	}()
	obj := <-objCh

	start := time.Now()
	a.PostEvent(obj, kernel.NewUserEvent(kernel.EventUser))
	require.Eventually(t, func() bool {
		return kernel.PostedEventCount() == 0
	}, time.Second, time.Millisecond)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	a.Quit()
	<-done
}
