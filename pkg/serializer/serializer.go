// Package serializer implements bidirectional translation between the
// JSON flow schema (pkg/flow) and the in-memory OpenFlow 1.0/1.3
// FlowMod/FlowStats structures (pkg/openflow/ofp10, ofp13) — spec §4.B,
// §4.C, §4.D. The wire codec that packs these structures onto a socket
// remains an external collaborator; this package only builds and reads
// the in-memory objects.
package serializer

import (
	"fmt"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
)

// ErrUnsupportedVersion is returned by ForVersion for any version other
// than OpenFlow 1.0 or 1.3.
var ErrUnsupportedVersion = fmt.Errorf("serializer: unsupported openflow version")

// FlowMod is implemented by *ofp10.FlowMod and *ofp13.FlowMod: the
// common surface the orchestrator needs regardless of which wire
// version built the message (spec design note: "tagged variant with two
// trait implementations, no runtime reflection").
type FlowMod interface {
	SetCommand(ofp.FlowModCommand)
	GetCommand() ofp.FlowModCommand
}

// Serializer is the per-version translator selected by ForVersion
// (component D). FromDict builds a FlowMod carrying the given command;
// ToDict is its inverse, reading a version-specific FlowStats value
// (an *ofp10.FlowStats or *ofp13.FlowStats, matching the Serializer's
// own version) back into the JSON schema.
type Serializer interface {
	FromDict(d flow.Description, command ofp.FlowModCommand) (FlowMod, error)
	ToDict(flowStats any) (flow.Description, error)
}

func errWrongFlowStatsType(want string, got any) error {
	return fmt.Errorf("serializer: ToDict expects *%s, got %T", want, got)
}

// ForVersion dispatches on a switch's negotiated OpenFlow version
// (spec §4.D): 0x01 selects the OF1.0 serializer, 0x04 the OF1.3
// serializer. Any other version is a fatal UnsupportedVersion.
func ForVersion(version ofp.Version) (Serializer, error) {
	switch version {
	case ofp.VersionOF10:
		return OFP10{}, nil
	case ofp.VersionOF13:
		return OFP13{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, uint8(version))
	}
}
