// Package ofp defines the in-memory OpenFlow vocabulary shared by the
// 1.0 and 1.3 message builders: reserved ports and tables, flow
// modification commands, and the error codes the orchestrator inspects.
//
// The wire codec that packs these values onto a socket is an external
// collaborator (it is assumed to already exist); this package only
// carries the constants and small value types the rest of the module
// assigns and compares.
package ofp

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PortNo identifies a physical or logical switch port.
type PortNo uint32

// Reserved port numbers.
const (
	// PortMax is the highest port number not reserved for special use.
	PortMax PortNo = 0xffffff00

	// PortController sends the packet to the controller.
	PortController PortNo = 0xfffffffd

	// PortAny is used in flow-mod/flow-stats matches to mean "no
	// restriction on output port".
	PortAny PortNo = 0xffffffff
)

// Version identifies the OpenFlow wire protocol version a switch speaks.
type Version uint8

const (
	// VersionOF10 is OpenFlow 1.0.
	VersionOF10 Version = 0x01

	// VersionOF13 is OpenFlow 1.3.
	VersionOF13 Version = 0x04

	// EthTypeIPv4 is the dl_type value identifying an IPv4 payload.
	EthTypeIPv4 uint16 = 0x0800
)

// TableID identifies a flow table.
type TableID uint8

// TableAll addresses every table in flow deletion commands.
const TableAll TableID = 0xff

// VIDPresent is OR'd onto a VLAN-VID OXM payload to mark the VLAN
// header as present (OF1.3's OFPVID_PRESENT).
const VIDPresent uint16 = 0x1000

// VIDMask strips VIDPresent back off a decoded VLAN-VID.
const VIDMask uint16 = 0x0fff

// PortConfig is a bitmask of per-port administrative flags.
type PortConfig uint32

// PortConfigNoForward drops packets forwarded to the port (OFPPC_NO_FWD).
const PortConfigNoForward PortConfig = 1 << 5

// FlowModCommand is the operation a FlowMod requests.
type FlowModCommand uint8

const (
	// FlowAdd installs a new flow entry.
	FlowAdd FlowModCommand = iota

	// FlowDelete removes every flow entry matching a non-strict
	// comparison of the request.
	FlowDelete

	// FlowDeleteStrict removes only the flow entry that exactly
	// matches wildcards and priority.
	FlowDeleteStrict
)

func (c FlowModCommand) String() string {
	switch c {
	case FlowAdd:
		return "add"
	case FlowDelete:
		return "delete"
	case FlowDeleteStrict:
		return "delete_strict"
	default:
		return fmt.Sprintf("FlowModCommand(%d)", uint8(c))
	}
}

// BadActionCode enumerates OFPET_BAD_ACTION error sub-codes relevant to
// flow-mod dispatch.
type BadActionCode uint16

// OFPBACBadOutPort is raised when a flow-mod's output action names a
// port the switch cannot forward to.
const OFPBACBadOutPort BadActionCode = 4

// HWAddress is a 6-byte Ethernet MAC address.
type HWAddress [6]byte

// ParseHWAddress parses a colon-separated hex MAC string such as
// "aa:bb:cc:dd:ee:ff".
func ParseHWAddress(s string) (HWAddress, error) {
	var addr HWAddress
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("ofp: invalid hardware address %q", s)
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return addr, fmt.Errorf("ofp: invalid hardware address %q", s)
		}
		addr[i] = b[0]
	}
	return addr, nil
}

// String renders the address in colon-separated hex form.
func (a HWAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}
