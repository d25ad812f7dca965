// Package ofp10 provides the in-memory OpenFlow 1.0 FlowMod/FlowStats
// structures the serializer builds and reads. Only the fields spec §4.B
// requires are modeled; the wire codec that would pack these onto a
// socket is an external collaborator.
package ofp10

import "flowmanager/pkg/openflow/ofp"

// Match is the OF1.0 match field set recognized by this module
// (spec §4.B): in_port, dl_src, dl_dst, dl_type, dl_vlan, dl_vlan_pcp,
// nw_src, nw_dst, nw_proto.
type Match struct {
	Wildcards uint32
	InPort    *uint32
	DLSrc     *ofp.HWAddress
	DLDst     *ofp.HWAddress
	DLType    *uint16
	DLVlan    *uint16
	DLVlanPCP *uint8
	NWSrc     *uint32 // packed IPv4, host byte order
	NWDst     *uint32
	NWProto   *uint8
}

// Action is one element of a FlowMod's ordered action list.
type Action interface{ of10Action() }

// ActionOutput sends matching packets out a port (or to the controller).
type ActionOutput struct{ Port ofp.PortNo }

func (ActionOutput) of10Action() {}

// ActionSetVLANVID rewrites the 802.1Q VLAN id.
type ActionSetVLANVID struct{ VlanID uint16 }

func (ActionSetVLANVID) of10Action() {}

// FlowMod is a flow-table modification request.
type FlowMod struct {
	Command     ofp.FlowModCommand
	TableID     ofp.TableID
	Priority    uint16
	IdleTimeout uint16
	HardTimeout uint16
	Cookie      uint64
	Match       Match
	Actions     []Action
}

// FlowStats is a flow entry as reported back by the switch.
type FlowStats struct {
	TableID     ofp.TableID
	Priority    uint16
	IdleTimeout uint16
	HardTimeout uint16
	Cookie      uint64
	Match       Match
	Actions     []Action
}

// NewFlowMod builds a FlowMod with the attribute defaults spec §4.B
// assumes before from_dict overlays the requested fields.
func NewFlowMod(cmd ofp.FlowModCommand) *FlowMod {
	return &FlowMod{Command: cmd}
}

// SetCommand overwrites the flow-mod command in place.
func (f *FlowMod) SetCommand(c ofp.FlowModCommand) { f.Command = c }

// GetCommand returns the flow-mod's command.
func (f *FlowMod) GetCommand() ofp.FlowModCommand { return f.Command }

// OutputPorts returns every port named by an output action in the
// flow-mod, in action order.
func (f *FlowMod) OutputPorts() []ofp.PortNo {
	var ports []ofp.PortNo
	for _, a := range f.Actions {
		if out, ok := a.(ActionOutput); ok {
			ports = append(ports, out.Port)
		}
	}
	return ports
}
