package serializer

import (
	"encoding/binary"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/openflow/ofp13"
)

// OFP13 is the OpenFlow 1.3 serializer (spec §4.C): match fields become
// OXM TLVs, actions are wrapped in a single apply-actions instruction.
type OFP13 struct{}

// FromDict builds an OF1.3 FlowMod with one InstructionApplyActions.
func (OFP13) FromDict(d flow.Description, command ofp.FlowModCommand) (FlowMod, error) {
	fm := &ofp13.FlowMod{Command: command}

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
	if d.CookieMask != nil {
		fm.CookieMask = *d.CookieMask
	}

	encodeOxm(&fm.Match, d.Match)

	var actions []ofp13.Action
	for _, action := range d.Actions {
		switch action.ActionType {
		case flow.ActionSetVLAN:
			if action.VlanID != nil {
				var payload [2]byte
				binary.BigEndian.PutUint16(payload[:], *action.VlanID|ofp.VIDPresent)
				actions = append(actions, ofp13.ActionSetField{
					TLV: ofp13.OxmTLV{Field: ofp13.OxmVlanVID, Value: payload[:]},
				})
			}
		case flow.ActionOutput:
			if action.Port != nil {
				actions = append(actions, ofp13.ActionOutput{Port: portNoFromValue(*action.Port)})
			}
		case flow.ActionPushVLAN:
			ethertype := uint16(0x8100)
			if action.TagType == "s" {
				ethertype = 0x88A8
			}
			actions = append(actions, ofp13.ActionPush{EtherType: ethertype})
		case flow.ActionPopVLAN:
			actions = append(actions, ofp13.ActionPopVLAN{})
		}
	}
	fm.Instructions = append(fm.Instructions, ofp13.InstructionApplyActions{Actions: actions})

	return fm, nil
}

// ToDict is the inverse of FromDict: it reads an *ofp13.FlowStats back
// into the JSON schema, concatenating apply-actions instructions only.
func (OFP13) ToDict(flowStats any) (flow.Description, error) {
	fs, ok := flowStats.(*ofp13.FlowStats)
	if !ok {
		return flow.Description{}, errWrongFlowStatsType("ofp13.FlowStats", flowStats)
	}

	var d flow.Description
	tableID := uint8(fs.TableID)
	d.TableID = &tableID
	d.Priority = &fs.Priority
	d.IdleTimeout = &fs.IdleTimeout
	d.HardTimeout = &fs.HardTimeout
	d.Cookie = &fs.Cookie

	decodeOxm(fs.Match, &d.Match)

	for _, action := range fs.Actions() {
		switch a := action.(type) {
		case ofp13.ActionSetField:
			if a.TLV.Field == ofp13.OxmVlanVID && len(a.TLV.Value) == 2 {
				vid := binary.BigEndian.Uint16(a.TLV.Value) & ofp.VIDMask
				d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionSetVLAN, VlanID: &vid})
			}
		case ofp13.ActionOutput:
			port := portValueFromNo(a.Port)
			d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionOutput, Port: &port})
		case ofp13.ActionPush:
			tagType := "c"
			if a.EtherType == 0x88A8 {
				tagType = "s"
			}
			d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionPushVLAN, TagType: tagType})
		case ofp13.ActionPopVLAN:
			d.Actions = append(d.Actions, flow.Action{ActionType: flow.ActionPopVLAN})
		}
	}

	return d, nil
}

// encodeOxm translates recognized match fields (spec §4.C's table) into
// OXM TLVs appended to m.
func encodeOxm(m *ofp13.Match, fields flow.Match) {
	if fields.InPort != nil {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], *fields.InPort)
		m.Set(ofp13.OxmInPort, b[:])
	}
	if fields.DLSrc != nil {
		if mac, err := ofp.ParseHWAddress(*fields.DLSrc); err == nil {
			b := mac
			m.Set(ofp13.OxmEthSrc, b[:])
		}
	}
	if fields.DLDst != nil {
		if mac, err := ofp.ParseHWAddress(*fields.DLDst); err == nil {
			b := mac
			m.Set(ofp13.OxmEthDst, b[:])
		}
	}
	if fields.DLType != nil {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], *fields.DLType)
		m.Set(ofp13.OxmEthType, b[:])
	}
	if fields.DLVlan != nil {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], *fields.DLVlan|ofp.VIDPresent)
		m.Set(ofp13.OxmVlanVID, b[:])
	}
	if fields.DLVlanPCP != nil {
		m.Set(ofp13.OxmVlanPCP, []byte{*fields.DLVlanPCP})
	}
	if fields.NWSrc != nil {
		if packed, ok := packIPv4(*fields.NWSrc); ok {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], packed)
			m.Set(ofp13.OxmIPv4Src, b[:])
		}
	}
	if fields.NWDst != nil {
		if packed, ok := packIPv4(*fields.NWDst); ok {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], packed)
			m.Set(ofp13.OxmIPv4Dst, b[:])
		}
	}
	if fields.NWProto != nil {
		m.Set(ofp13.OxmIPProto, []byte{*fields.NWProto})
	}
	if fields.NWTos != nil {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(*fields.NWTos))
		m.Set(ofp13.OxmIPDscp, b[:])
	}
	if fields.TPSrc != nil {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], *fields.TPSrc)
		m.Set(ofp13.OxmTCPSrc, b[:])
	}
	if fields.TPDst != nil {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], *fields.TPDst)
		m.Set(ofp13.OxmTCPDst, b[:])
	}
}

// decodeOxm is encodeOxm's inverse.
func decodeOxm(m ofp13.Match, fields *flow.Match) {
	if tlv, ok := m.Get(ofp13.OxmInPort); ok && len(tlv.Value) == 4 {
		v := binary.BigEndian.Uint32(tlv.Value)
		fields.InPort = &v
	}
	if tlv, ok := m.Get(ofp13.OxmEthSrc); ok && len(tlv.Value) == 6 {
		var mac ofp.HWAddress
		copy(mac[:], tlv.Value)
		s := mac.String()
		fields.DLSrc = &s
	}
	if tlv, ok := m.Get(ofp13.OxmEthDst); ok && len(tlv.Value) == 6 {
		var mac ofp.HWAddress
		copy(mac[:], tlv.Value)
		s := mac.String()
		fields.DLDst = &s
	}
	if tlv, ok := m.Get(ofp13.OxmEthType); ok && len(tlv.Value) == 2 {
		v := binary.BigEndian.Uint16(tlv.Value)
		fields.DLType = &v
	}
	if tlv, ok := m.Get(ofp13.OxmVlanVID); ok && len(tlv.Value) == 2 {
		v := binary.BigEndian.Uint16(tlv.Value) & ofp.VIDMask
		fields.DLVlan = &v
	}
	if tlv, ok := m.Get(ofp13.OxmVlanPCP); ok && len(tlv.Value) == 1 {
		v := tlv.Value[0]
		fields.DLVlanPCP = &v
	}
	if tlv, ok := m.Get(ofp13.OxmIPv4Src); ok && len(tlv.Value) == 4 {
		s := unpackIPv4(binary.BigEndian.Uint32(tlv.Value))
		fields.NWSrc = &s
	}
	if tlv, ok := m.Get(ofp13.OxmIPv4Dst); ok && len(tlv.Value) == 4 {
		s := unpackIPv4(binary.BigEndian.Uint32(tlv.Value))
		fields.NWDst = &s
	}
	if tlv, ok := m.Get(ofp13.OxmIPProto); ok && len(tlv.Value) == 1 {
		v := tlv.Value[0]
		fields.NWProto = &v
	}
	if tlv, ok := m.Get(ofp13.OxmIPDscp); ok && len(tlv.Value) == 2 {
		v := uint8(binary.BigEndian.Uint16(tlv.Value))
		fields.NWTos = &v
	}
	if tlv, ok := m.Get(ofp13.OxmTCPSrc); ok && len(tlv.Value) == 2 {
		v := binary.BigEndian.Uint16(tlv.Value)
		fields.TPSrc = &v
	}
	if tlv, ok := m.Get(ofp13.OxmTCPDst); ok && len(tlv.Value) == 2 {
		v := binary.BigEndian.Uint16(tlv.Value)
		fields.TPDst = &v
	}
}
