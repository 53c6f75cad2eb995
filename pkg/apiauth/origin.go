package apiauth

import (
	"net/http"
	"net/netip"
	"strings"
)

// clientOrigin determines the network origin of r.
//
// With trustProxy set the service sits behind a gateway, and the origin is
// the first X-Forwarded-For entry, else X-Real-IP. A request without either
// header did not come through the gateway and has no origin.
// Otherwise the origin is the transport peer address.
func clientOrigin(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	if !trustProxy {
		return parseAddr(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return parseAddr(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return parseAddr(xri)
	}

	return netip.Addr{}, false
}

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
