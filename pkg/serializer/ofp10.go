package serializer

import (
	"encoding/binary"
	"net"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/openflow/ofp10"
)

// OFP10 is the OpenFlow 1.0 serializer (spec §4.B).
type OFP10 struct{}

// FromDict builds an OF1.0 FlowMod from a flow description (from_dict).
func (OFP10) FromDict(d flow.Description, command ofp.FlowModCommand) (FlowMod, error) {
	fm := ofp10.NewFlowMod(command)

	if d.TableID != nil {
		fm.TableID = ofp.TableID(*d.TableID)
	}
	if d.Priority != nil {
		fm.Priority = *d.Priority
	}
	if d.IdleTimeout != nil {
		fm.IdleTimeout = *d.IdleTimeout
	}
	if d.HardTimeout != nil {
		fm.HardTimeout = *d.HardTimeout
	}
	if d.Cookie != nil {
		fm.Cookie = *d.Cookie
	}

	m := &fm.Match
	if d.Match.Wildcards != nil {
		m.Wildcards = *d.Match.Wildcards
	}
	if d.Match.InPort != nil {
		m.InPort = d.Match.InPort
	}
	if d.Match.DLSrc != nil {
		if mac, err := ofp.ParseHWAddress(*d.Match.DLSrc); err == nil {
			m.DLSrc = &mac
		}
	}
	if d.Match.DLDst != nil {
		if mac, err := ofp.ParseHWAddress(*d.Match.DLDst); err == nil {
			m.DLDst = &mac
		}
	}
	if d.Match.DLType != nil {
		m.DLType = d.Match.DLType
	}
	if d.Match.DLVlan != nil {
		m.DLVlan = d.Match.DLVlan
	}
	if d.Match.DLVlanPCP != nil {
		m.DLVlanPCP = d.Match.DLVlanPCP
	}
	if d.Match.NWSrc != nil {
		if packed, ok := packIPv4(*d.Match.NWSrc); ok {
			m.NWSrc = &packed
		}
	}
	if d.Match.NWDst != nil {
		if packed, ok := packIPv4(*d.Match.NWDst); ok {
			m.NWDst = &packed
		}
	}
	if d.Match.NWProto != nil {
		m.NWProto = d.Match.NWProto
	}

	for _, action := range d.Actions {
		switch action.ActionType {
		case flow.ActionSetVLAN:
			if action.VlanID != nil {
				fm.Actions = append(fm.Actions, ofp10.ActionSetVLANVID{VlanID: *action.VlanID})
			}
		case flow.ActionOutput:
			if action.Port != nil {
				fm.Actions = append(fm.Actions, ofp10.ActionOutput{Port: portNoFromValue(*action.Port)})
			}
		default:
			// push_vlan/pop_vlan have no OF1.0 representation; dropped.
		}
	}

	return fm, nil
}

// ToDict is the inverse of FromDict: it reads an *ofp10.FlowStats back
// into the JSON schema.
func (OFP10) ToDict(flowStats any) (flow.Description, error) {
	fs, ok := flowStats.(*ofp10.FlowStats)
	if !ok {
		return flow.Description{}, errWrongFlowStatsType("ofp10.FlowStats", flowStats)
	}

	var d flow.Description
	tableID := uint8(fs.TableID)
	d.TableID = &tableID
	d.Priority = &fs.Priority
	d.IdleTimeout = &fs.IdleTimeout
	d.HardTimeout = &fs.HardTimeout
	d.Cookie = &fs.Cookie

	m := fs.Match
	if m.Wildcards != 0 {
		d.Match.Wildcards = &m.Wildcards
	}
	d.Match.InPort = m.InPort
	if m.DLSrc != nil {
		s := m.DLSrc.String()
		d.Match.DLSrc = &s
	}
	if m.DLDst != nil {
		s := m.DLDst.String()
		d.Match.DLDst = &s
	}
	d.Match.DLType = m.DLType
	d.Match.DLVlan = m.DLVlan
	d.Match.DLVlanPCP = m.DLVlanPCP
	if m.NWSrc != nil {
		s := unpackIPv4(*m.NWSrc)
		d.Match.NWSrc = &s
	}
	if m.NWDst != nil {
		s := unpackIPv4(*m.NWDst)
		d.Match.NWDst = &s
	}
	d.Match.NWProto = m.NWProto

	for _, action := range fs.Actions {
		switch a := action.(type) {
		case ofp10.ActionSetVLANVID:
			vid := a.VlanID
			d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionSetVLAN, VlanID: &vid})
		case ofp10.ActionOutput:
			port := portValueFromNo(a.Port)
			d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionOutput, Port: &port})
		}
	}

	return d, nil
}

func portNoFromValue(p flow.PortValue) ofp.PortNo {
	if p.Controller {
		return ofp.PortController
	}
	return ofp.PortNo(p.Number)
}

func portValueFromNo(p ofp.PortNo) flow.PortValue {
	if p == ofp.PortController {
		return flow.ControllerPort()
	}
	return flow.Port(uint32(p))
}

func packIPv4(s string) (uint32, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

func unpackIPv4(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return net.IP(b[:]).String()
}
