//go:build !linux

package dispatch

import (
	"fmt"
	"runtime"
)

// newEpollNamed backs NewFromName("epoll") on platforms with no
// EpollDriver: an explicit request for it is a startup error rather than a
// silent fallback to SelectDriver.
func newEpollNamed() (Driver, error) {
	return nil, fmt.Errorf("dispatch: epoll driver not available on GOOS=%s", runtime.GOOS)
}
