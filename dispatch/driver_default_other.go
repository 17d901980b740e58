//go:build !linux

package dispatch

// NewDefault builds the portable SelectDriver on platforms with no
// epoll-backed EpollDriver (spec §9's sanctioned "minimal selector/poll
// driver for headless scenarios").
func NewDefault() (Driver, error) {
	return NewSelectDriver(), nil
}
