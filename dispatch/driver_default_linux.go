//go:build linux

package dispatch

// NewDefault builds the best Driver available on this platform: a real
// epoll-backed driver on Linux, falling back to the portable SelectDriver
// only if epoll setup itself fails (e.g. a sandboxed environment with
// epoll_create1 blocked).
func NewDefault() (Driver, error) {
	d, err := NewEpollDriver()
	if err != nil {
		return NewSelectDriver(), nil
	}
	return d, nil
}
