/* SPDX-License-Identifier: MIT */

// Package transport carries the client's peer-address type: a thin
// "host:port" wrapper around net.UDPAddr, shaped after the reference
// client's Endpoint so the rest of the client never touches net.UDPConn
// directly. Binding and driving an actual UDP socket is the out-of-scope
// I/O collaborator (§1): this package only resolves and stringifies the
// addresses the handshake engine and connection registry key their state
// by.
package transport

import (
	"fmt"
	"net"
	"strings"
)

// Endpoint is a resolved UDP peer address, analogous to the reference
// client's Endpoint but without the source-address caching a full WireGuard
// roaming peer needs.
type Endpoint struct {
	addr *net.UDPAddr
}

// String renders the endpoint as "ip:port", used as the connection
// registry's map key.
func (e Endpoint) String() string {
	if e.addr == nil {
		return ""
	}
	return e.addr.String()
}

// ParseEndpoint resolves a "host:port" string into an Endpoint, the way
// StdNetBind.ParseEndpoint does for the reference client. host must be an IP
// literal; host names are rejected, not looked up.
func ParseEndpoint(s string) (Endpoint, error) {
	addr, err := parseUDPAddr(s)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{addr: addr}, nil
}

func parseUDPAddr(s string) (*net.UDPAddr, error) {
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return nil, err
	}
	if i := strings.LastIndexByte(host, '%'); i > 0 && strings.IndexByte(host, ':') >= 0 {
		host = host[:i]
	}
	if ip := net.ParseIP(host); ip == nil {
		return nil, fmt.Errorf("transport: failed to parse IP address: %s", host)
	}
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return nil, err
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		addr.IP = ip4
	}
	return addr, nil
}
