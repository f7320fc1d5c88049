package tools

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrPrivateAddress is returned when a fetch would connect to a loopback,
// private, link-local or unspecified address.
var ErrPrivateAddress = errors.New("destination address is not public")

// IsPublicAddr reports whether ip is routable on the public internet.
// IPv4-mapped IPv6 addresses are judged by their IPv4 form.
func IsPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// dialGuard returns a net.Dialer Control func that refuses connections to
// addresses rejected by allow. It runs after DNS resolution and for every
// redirect hop.
func dialGuard(allow func(netip.AddrPort) bool) func(network, address string, c syscall.RawConn) error {
	return func(_, address string, _ syscall.RawConn) error {
		ap, err := netip.ParseAddrPort(address)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
		}
		if !allow(ap) {
			return fmt.Errorf("%w: %s", ErrPrivateAddress, ap.Addr())
		}
		return nil
	}
}

// guardedTransport is http.DefaultTransport restricted to addresses allowed
// by allow. Proxies are disabled so the guard sees the real destination.
func guardedTransport(allow func(netip.AddrPort) bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialGuard(allow),
	}
	t.DialContext = dialer.DialContext
	return t
}

func publicAddrPort(ap netip.AddrPort) bool {
	return IsPublicAddr(ap.Addr())
}
