// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netutil

import (
	"encoding/binary"
	"fmt"
	"net"
)

// ParseIPv4 parses a dotted-quad string into its network-byte-order
// uint32 representation, matching the key layout the classifier maps
// use so a user-space insert compares directly against packet fields.
func ParseIPv4(s string) (uint32, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, fmt.Errorf("not an IP address: %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address: %q", s)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// IsLiteralIPv4 reports whether s parses as a dotted-quad IPv4 literal.
func IsLiteralIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// FormatIPv4 renders a network-byte-order uint32 key back to dotted-quad.
func FormatIPv4(key uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, key)
	return net.IP(b).String()
}

// IPv4FromNetIP converts a net.IP (expected to carry a v4 address) to
// the network-byte-order uint32 map key, returning false if it isn't
// a v4 address.
func IPv4FromNetIP(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}
