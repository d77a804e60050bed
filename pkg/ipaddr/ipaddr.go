// Package ipaddr converts between dotted-decimal IPv4 strings and
// host-order 32-bit integers as used by the routing table.
package ipaddr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned for input that is not a valid
// dotted-decimal IPv4 address.
var ErrInvalidAddress = errors.New("invalid IPv4 address")

// ErrInvalidPrefixLength is returned for prefix lengths outside [0,32].
var ErrInvalidPrefixLength = errors.New("invalid IPv4 prefix length")

// ParseAddress parses a dotted-decimal IPv4 address into a host-order
// uint32.
func ParseAddress(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	octets := addr.As4()
	return binary.BigEndian.Uint32(octets[:]), nil
}

// FormatAddress renders a host-order uint32 as a dotted-decimal string.
func FormatAddress(addr uint32) string {
	var octets [4]byte
	binary.BigEndian.PutUint32(octets[:], addr)
	return netip.AddrFrom4(octets).String()
}

// ParseCIDR parses "a.b.c.d/len" notation into a host-order address
// and a prefix length.
func ParseCIDR(s string) (uint32, uint8, error) {
	addrPart, lenPart, found := strings.Cut(s, "/")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q has no prefix length", ErrInvalidAddress, s)
	}
	addr, err := ParseAddress(addrPart)
	if err != nil {
		return 0, 0, err
	}
	prefixLen, err := strconv.ParseUint(lenPart, 10, 8)
	if err != nil || prefixLen > 32 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPrefixLength, lenPart)
	}
	return addr, uint8(prefixLen), nil
}

// MaskFromLength returns the netmask for a prefix length. A length of
// zero yields the empty mask, matching everything.
func MaskFromLength(prefixLen uint8) uint32 {
	if prefixLen == 0 {
		return 0
	}
	if prefixLen >= 32 {
		return 0xFFFFFFFF
	}
	return 0xFFFFFFFF << (32 - prefixLen)
}
