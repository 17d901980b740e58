package dispatch

import "fmt"

// NewFromName builds the Driver named by name: "" or "default" (the
// platform-best-effort NewDefault chain), "select" (the portable, headless
// SelectDriver), or "epoll" (the Linux-only EpollDriver — requesting it
// explicitly on a non-Linux platform is an error, not a silent fallback to
// SelectDriver, so a misconfigured --driver flag is caught at startup
// rather than degrading quietly). This is what config.Config.Driver is
// wired into by app.NewWithDriver.
func NewFromName(name string) (Driver, error) {
	switch name {
	case "", "default":
		return NewDefault()
	case "select":
		return NewSelectDriver(), nil
	case "epoll":
		return newEpollNamed()
	default:
		return nil, fmt.Errorf("dispatch: unknown driver %q", name)
	}
}
