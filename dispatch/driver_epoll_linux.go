//go:build linux

package dispatch

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// EpollDriver is the Linux platform driver named in spec §4.6/§9 ("two
// platform drivers... on Linux"). Grounded directly on
// momentics-hioload-ws/reactor/epoll_reactor.go — the same
// EpollCreate1/EpollCtl/EpollWait call shape and fd-keyed callback table —
// ported from golang.org/x/sys/unix (already a dependency by way of the
// same pack repo's go.mod) instead of the std syscall package, since unix
// carries the eventfd wrapper EpollDriver uses for WakeUp.
type EpollDriver struct {
	epfd   int
	wakeFD int

	mu    sync.Mutex
	masks map[int]uint32
}

// NewEpollDriver creates an epoll instance plus an eventfd used to
// interrupt a blocked Poll call from another goroutine.
func NewEpollDriver() (*EpollDriver, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("dispatch: epoll_create1: %w", err)
	}

	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("dispatch: eventfd: %w", err)
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFD),
	}); err != nil {
		unix.Close(wakeFD)
		unix.Close(epfd)
		return nil, fmt.Errorf("dispatch: epoll_ctl add wake fd: %w", err)
	}

	return &EpollDriver{
		epfd:   epfd,
		wakeFD: wakeFD,
		masks:  make(map[int]uint32),
	}, nil
}

// newEpollNamed backs NewFromName("epoll") on Linux.
func newEpollNamed() (Driver, error) { return NewEpollDriver() }

func directionBit(dir SocketDirection) uint32 {
	if dir == Write {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN
}

// RegisterFD arms fd for the given direction, merging with any direction
// already armed on the same descriptor.
func (d *EpollDriver) RegisterFD(fd int, dir SocketDirection) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, had := d.masks[fd]
	next := prev | directionBit(dir)
	op := unix.EPOLL_CTL_MOD
	if !had {
		op = unix.EPOLL_CTL_ADD
	}

	if err := unix.EpollCtl(d.epfd, op, fd, &unix.EpollEvent{Events: next, Fd: int32(fd)}); err != nil {
		return fmt.Errorf("dispatch: epoll_ctl: %w", err)
	}
	d.masks[fd] = next
	return nil
}

// UnregisterFD disarms fd for the given direction, removing the descriptor
// entirely once no direction remains armed.
func (d *EpollDriver) UnregisterFD(fd int, dir SocketDirection) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, had := d.masks[fd]
	if !had {
		return nil
	}
	next := prev &^ directionBit(dir)
	if next == 0 {
		delete(d.masks, fd)
		if err := unix.EpollCtl(d.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
			return fmt.Errorf("dispatch: epoll_ctl del: %w", err)
		}
		return nil
	}
	d.masks[fd] = next
	if err := unix.EpollCtl(d.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: next, Fd: int32(fd)}); err != nil {
		return fmt.Errorf("dispatch: epoll_ctl mod: %w", err)
	}
	return nil
}

// Poll blocks for at most timeoutMs milliseconds (no bound if negative)
// waiting for armed descriptors to become ready.
func (d *EpollDriver) Poll(timeoutMs int) ([]ReadyFD, error) {
	const maxEvents = 128
	var raw [maxEvents]unix.EpollEvent

	n, err := unix.EpollWait(d.epfd, raw[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch: epoll_wait: %w", err)
	}

	var ready []ReadyFD
	for i := 0; i < n; i++ {
		ev := raw[i]
		fd := int(ev.Fd)
		if fd == d.wakeFD {
			d.drainWake()
			continue
		}
		if ev.Events&unix.EPOLLIN != 0 {
			ready = append(ready, ReadyFD{FD: fd, Dir: Read})
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			ready = append(ready, ReadyFD{FD: fd, Dir: Write})
		}
	}
	return ready, nil
}

func (d *EpollDriver) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(d.wakeFD, buf[:])
		if err != nil {
			return
		}
		if binary.LittleEndian.Uint64(buf[:]) > 0 {
			return
		}
	}
}

// WakeUp interrupts a blocked Poll call from another goroutine.
func (d *EpollDriver) WakeUp() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(d.wakeFD, buf[:])
}

// Close releases the epoll and eventfd descriptors.
func (d *EpollDriver) Close() error {
	_ = unix.Close(d.wakeFD)
	return unix.Close(d.epfd)
}
