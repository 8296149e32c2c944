package slping

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is used when an address does not name a port.
const DefaultPort = 25565

var ErrInvalidAddr = errors.New("invalid server address")

// ParseAddr splits addr into host and port. The port is optional and
// IPv6 literals may be given with or without brackets.
func ParseAddr(addr string) (string, uint16, error) {
	if addr == "" {
		return "", 0, fmt.Errorf("%w: empty", ErrInvalidAddr)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return addr, DefaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			return strings.Trim(addr, "[]"), DefaultPort, nil
		}
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidAddr, err)
	}

	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host in %q", ErrInvalidAddr, addr)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("%w: port %q", ErrInvalidAddr, portStr)
	}

	return host, uint16(port), nil
}
