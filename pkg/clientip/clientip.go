// Package clientip identifies the peer of an HTTP request for rate limiting
// and access logs.
package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealClientIP returns the address of the connecting peer, taken from
// r.RemoteAddr only. Forwarding headers are ignored since any client can set
// them. IPv4-mapped IPv6 addresses are unmapped so one client has one key.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	host = strings.TrimSpace(host)
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().WithZone("").String()
	}
	return host
}
