// Package ofp13 provides the in-memory OpenFlow 1.3 FlowMod/FlowStats
// structures the serializer builds and reads, including OXM TLV matches
// and apply-actions instructions (spec §4.C). As with ofp10, the wire
// codec is an external collaborator; only the structures needed to
// assign/read fields are modeled here.
package ofp13

import "flowmanager/pkg/openflow/ofp"

// OxmField identifies which match field an OxmTLV encodes.
type OxmField uint8

const (
	OxmInPort OxmField = iota
	OxmEthSrc
	OxmEthDst
	OxmEthType
	OxmVlanVID
	OxmVlanPCP
	OxmIPv4Src
	OxmIPv4Dst
	OxmIPProto
	OxmIPDscp // nw_tos
	OxmTCPSrc // tp_src
	OxmTCPDst // tp_dst
)

// OxmTLV is one OpenFlow Extensible Match type-length-value entry. Value
// holds the already-encoded big-endian payload (VLAN-VID already OR'd
// with OFPVID_PRESENT where applicable).
type OxmTLV struct {
	Field OxmField
	Value []byte
}

// Match is an OXM match: an unordered set of TLVs, at most one per field.
type Match struct {
	OxmFields map[OxmField]OxmTLV
}

// Set installs or replaces a TLV in the match.
func (m *Match) Set(f OxmField, value []byte) {
	if m.OxmFields == nil {
		m.OxmFields = make(map[OxmField]OxmTLV)
	}
	m.OxmFields[f] = OxmTLV{Field: f, Value: value}
}

// Get returns the TLV for a field, if present.
func (m Match) Get(f OxmField) (OxmTLV, bool) {
	tlv, ok := m.OxmFields[f]
	return tlv, ok
}

// Action is one element of an apply-actions instruction's action list.
type Action interface{ of13Action() }

// ActionOutput sends matching packets out a port (or to the controller).
type ActionOutput struct{ Port ofp.PortNo }

func (ActionOutput) of13Action() {}

// ActionSetField rewrites a single match field (used for set_vlan).
type ActionSetField struct{ TLV OxmTLV }

func (ActionSetField) of13Action() {}

// ActionPush pushes a new VLAN header (push_vlan); EtherType is 0x8100
// for customer tags, 0x88A8 for service ("s") tags.
type ActionPush struct{ EtherType uint16 }

func (ActionPush) of13Action() {}

// ActionPopVLAN pops the outermost VLAN header.
type ActionPopVLAN struct{}

func (ActionPopVLAN) of13Action() {}

// Instruction is one element of a FlowMod's instruction set.
type Instruction interface{ of13Instruction() }

// InstructionApplyActions executes its action list immediately.
type InstructionApplyActions struct{ Actions []Action }

func (InstructionApplyActions) of13Instruction() {}

// FlowMod is a flow-table modification request carrying exactly one
// InstructionApplyActions (spec §4.C).
type FlowMod struct {
	Command      ofp.FlowModCommand
	TableID      ofp.TableID
	Priority     uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	Cookie       uint64
	CookieMask   uint64
	Match        Match
	Instructions []Instruction
}

// FlowStats is a flow entry as reported back by the switch.
type FlowStats struct {
	TableID      ofp.TableID
	Priority     uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	Cookie       uint64
	Match        Match
	Instructions []Instruction
}

// SetCommand overwrites the flow-mod command in place.
func (f *FlowMod) SetCommand(c ofp.FlowModCommand) { f.Command = c }

// GetCommand returns the flow-mod's command.
func (f *FlowMod) GetCommand() ofp.FlowModCommand { return f.Command }

// OutputPorts returns every port named by an output action across the
// flow-mod's apply-actions instructions, in order.
func (f *FlowMod) OutputPorts() []ofp.PortNo {
	var ports []ofp.PortNo
	for _, instr := range f.Instructions {
		apply, ok := instr.(InstructionApplyActions)
		if !ok {
			continue
		}
		for _, a := range apply.Actions {
			if out, ok := a.(ActionOutput); ok {
				ports = append(ports, out.Port)
			}
		}
	}
	return ports
}

// Actions concatenates the action lists of every InstructionApplyActions
// in order, ignoring any other instruction type (spec §4.C to_dict).
func (f FlowStats) Actions() []Action {
	var actions []Action
	for _, instr := range f.Instructions {
		if apply, ok := instr.(InstructionApplyActions); ok {
			actions = append(actions, apply.Actions...)
		}
	}
	return actions
}
