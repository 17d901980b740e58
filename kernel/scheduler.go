package kernel

import "sync"

// Scheduler is the small surface an Object needs from the process-wide
// application/dispatcher (package app) to implement start_timer,
// kill_timer, unregister_timers, and delete_later, without kernel importing
// app (which itself imports kernel and dispatch). app.Application binds
// itself as the Scheduler at construction via Bind.
type Scheduler interface {
	StartTimer(intervalMs int, receiver *Object) int
	KillTimer(id int) bool
	UnregisterTimers(receiver *Object)
	PostEvent(receiver *Object, e *Event)
}

var (
	schedulerMu sync.Mutex
	scheduler   Scheduler
)

// Bind registers s as the process-wide scheduler. Called once by
// app.New().
func Bind(s Scheduler) {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	scheduler = s
}

// Unbind clears the process-wide scheduler, used when an Application shuts
// down.
func Unbind(s Scheduler) {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if scheduler == s {
		scheduler = nil
	}
}

func currentScheduler() Scheduler {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	return scheduler
}
