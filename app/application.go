// Package app implements the process-wide Application singleton and its
// timer/event-loop services (spec §4.7): exactly one Application exists
// per process, owns the one Dispatcher, and binds itself into package
// kernel as the Scheduler Object.StartTimer/DeleteLater/etc. talk to.
package app

import (
	"errors"
	"sync"

	"github.com/dirpx/cobject/dispatch"
	"github.com/dirpx/cobject/internal/klog"
	"github.com/dirpx/cobject/kernel"
)

// ErrAlreadyRunning is returned by New when an Application already exists
// in this process (spec §4.7 "exactly one Application singleton per
// process").
var ErrAlreadyRunning = errors.New("app: an Application already exists in this process")

// Application is the process-wide singleton described in spec §4.7,
// grounded on original_source/src/cobject/capplication.cpp for its
// exec/quit/exit semantics and on the teacher's sync.Once-guarded lazy
// singleton style (internal/runtime_wasm.go's GetRuntime) for the
// construction-time guard below.
type Application struct {
	dispatcher *dispatch.Dispatcher

	quitOnce sync.Once
	quit     chan struct{}

	mu       sync.Mutex
	exitCode int
}

var (
	singletonMu sync.Mutex
	singleton   *Application
)

// New constructs the process Application, choosing the best Driver
// available on this platform (dispatch.NewDefault) and binding itself as
// the kernel.Scheduler every Object reaches through. It fails with
// ErrAlreadyRunning if an Application already exists. It is equivalent to
// NewWithDriver("").
func New() (*Application, error) {
	return NewWithDriver("")
}

// NewWithDriver is New, but resolves its Dispatcher's Driver by name via
// dispatch.NewFromName instead of always taking the platform default — the
// seam config.Config.Driver (and the --driver flag) is wired into. An empty
// name behaves like New.
func NewWithDriver(driverName string) (*Application, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton != nil {
		return nil, ErrAlreadyRunning
	}

	driver, err := dispatch.NewFromName(driverName)
	if err != nil {
		return nil, err
	}

	a := &Application{
		dispatcher: dispatch.New(driver),
		quit:       make(chan struct{}),
	}
	kernel.Bind(a)
	singleton = a
	return a, nil
}

// Instance returns the process Application, or nil if none has been
// constructed yet.
func Instance() *Application {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// Exec runs the event loop on the calling goroutine until Quit or Exit is
// called, processing due timers, ready socket notifiers, and posted events
// addressed to objects owned by this goroutine's thread (spec §4.7, and
// the §5/§9 resolution recorded in SPEC_FULL.md: several goroutines may
// each call Exec, one per thread that owns objects, since ProcessEvents
// only drains events for its caller's own thread). Returns the code
// passed to Exit, or 0 if Quit was called.
func (a *Application) Exec() int {
	a.dispatcher.StartingUp()
	defer a.dispatcher.ShuttingDown()

	for {
		select {
		case <-a.quit:
			a.mu.Lock()
			code := a.exitCode
			a.mu.Unlock()
			return code
		default:
		}
		a.dispatcher.ProcessEvents(50)
	}
}

// Quit stops every Exec loop with exit code 0.
func (a *Application) Quit() { a.Exit(0) }

// Exit stops every Exec loop with the given exit code.
func (a *Application) Exit(code int) {
	a.mu.Lock()
	a.exitCode = code
	a.mu.Unlock()
	a.quitOnce.Do(func() { close(a.quit) })
	a.dispatcher.WakeUp()
}

// PostEvent enqueues e for receiver on the process-wide posted-event queue
// and wakes any blocked Exec loop so it notices promptly (spec §4.7,
// §4.5). Implements kernel.Scheduler.
func (a *Application) PostEvent(receiver *kernel.Object, e *kernel.Event) {
	kernel.PostEvent(receiver, e)
	a.dispatcher.WakeUp()
}

// SendEvent delivers e synchronously to receiver's event hook, bypassing
// the queue (spec §4.7).
func (a *Application) SendEvent(receiver *kernel.Object, e *kernel.Event) bool {
	return kernel.SendEvent(receiver, e)
}

// RemovePostedEvents drops queued events addressed to receiver whose type
// is one of types (or all of them, if none given).
func (a *Application) RemovePostedEvents(receiver *kernel.Object, types ...kernel.EventType) {
	kernel.RemovePostedEvents(receiver, types...)
}

// StartTimer arms a repeating timer for receiver. Implements
// kernel.Scheduler.
func (a *Application) StartTimer(intervalMs int, receiver *kernel.Object) int {
	return a.dispatcher.RegisterTimer(intervalMs, receiver)
}

// KillTimer cancels the timer with the given id. Implements
// kernel.Scheduler.
func (a *Application) KillTimer(id int) bool {
	return a.dispatcher.UnregisterTimer(id)
}

// UnregisterTimers cancels every timer owned by receiver. Implements
// kernel.Scheduler.
func (a *Application) UnregisterTimers(receiver *kernel.Object) {
	a.dispatcher.UnregisterTimersFor(receiver)
}

// RegisterSocketNotifier arms socket-activity notification for fd/dir,
// delivered to receiver as a SocketActivity event.
func (a *Application) RegisterSocketNotifier(fd int, dir dispatch.SocketDirection, receiver *kernel.Object) error {
	return a.dispatcher.RegisterSocketNotifier(fd, dir, receiver)
}

// UnregisterSocketNotifier disarms socket-activity notification for fd/dir.
func (a *Application) UnregisterSocketNotifier(fd int, dir dispatch.SocketDirection) {
	a.dispatcher.UnregisterSocketNotifier(fd, dir)
}

// Close tears down the process Application: it unbinds itself from
// package kernel and clears the singleton so a later test or process
// phase may call New again. Exec loops already returned from Quit/Exit
// should be joined before calling Close.
func (a *Application) Close() {
	kernel.Unbind(a)
	singletonMu.Lock()
	if singleton == a {
		singleton = nil
	}
	singletonMu.Unlock()
	klog.Infow("application closed")
}
