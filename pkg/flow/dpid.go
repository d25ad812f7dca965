package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// DPID is a switch datapath identifier, rendered as eight colon-separated
// hex octets (e.g. "00:00:00:00:00:00:00:01"). It is the primary key for
// stored intent and the routing key for outbound messages.
type DPID string

// ParseDPID validates that s is a canonical colon-separated hex DPID and
// returns it typed.
func ParseDPID(s string) (DPID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 8 {
		return "", fmt.Errorf("flow: invalid dpid %q: want 8 colon-separated octets", s)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return "", fmt.Errorf("flow: invalid dpid %q: octet %q is not 2 hex digits", s, p)
		}
		if _, err := strconv.ParseUint(p, 16, 8); err != nil {
			return "", fmt.Errorf("flow: invalid dpid %q: %w", s, err)
		}
	}
	return DPID(s), nil
}

// String returns the canonical rendering of the DPID.
func (d DPID) String() string { return string(d) }
