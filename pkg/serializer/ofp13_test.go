package serializer

import (
	"testing"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/openflow/ofp13"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOFP13_FromDict_EncodesOxmAndSingleInstruction(t *testing.T) {
	d := flow.Description{
		Match: flow.Match{
			InPort: u32(4),
			DLType: u16(ofp.EthTypeIPv4),
		},
		Actions: []flow.Action{
			{ActionType: flow.ActionOutput, Port: &flow.PortValue{Number: 1}},
		},
	}

	mod, err := OFP13{}.FromDict(d, ofp.FlowAdd)
	require.NoError(t, err)

	fm, ok := mod.(*ofp13.FlowMod)
	require.True(t, ok)
	require.Len(t, fm.Instructions, 1, "exactly one apply-actions instruction")

	tlv, ok := fm.Match.Get(ofp13.OxmInPort)
	require.True(t, ok)
	assert.Len(t, tlv.Value, 4)

	apply := fm.Instructions[0].(ofp13.InstructionApplyActions)
	require.Len(t, apply.Actions, 1)
	out, ok := apply.Actions[0].(ofp13.ActionOutput)
	require.True(t, ok)
	assert.Equal(t, ofp.PortNo(1), out.Port)
}

func TestOFP13_FromDict_SetVLANEncodesVIDPresent(t *testing.T) {
	vlan := uint16(42)
	d := flow.Description{
		Actions: []flow.Action{
			{ActionType: flow.ActionSetVLAN, VlanID: &vlan},
		},
	}

	mod, err := OFP13{}.FromDict(d, ofp.FlowAdd)
	require.NoError(t, err)
	fm := mod.(*ofp13.FlowMod)
	apply := fm.Instructions[0].(ofp13.InstructionApplyActions)
	require.Len(t, apply.Actions, 1)

	setField, ok := apply.Actions[0].(ofp13.ActionSetField)
	require.True(t, ok)
	assert.Equal(t, ofp13.OxmVlanVID, setField.TLV.Field)
}

func TestOFP13_FromDict_PushVLANServiceTag(t *testing.T) {
	d := flow.Description{
		Actions: []flow.Action{
			{ActionType: flow.ActionPushVLAN, TagType: "s"},
		},
	}

	mod, err := OFP13{}.FromDict(d, ofp.FlowAdd)
	require.NoError(t, err)
	fm := mod.(*ofp13.FlowMod)
	apply := fm.Instructions[0].(ofp13.InstructionApplyActions)
	push, ok := apply.Actions[0].(ofp13.ActionPush)
	require.True(t, ok)
	assert.Equal(t, uint16(0x88A8), push.EtherType)
}

func TestOFP13_ToDict_RoundTripsMatchAndActions(t *testing.T) {
	tableID := uint8(3)
	nwProto := uint8(6)
	d := flow.Description{
		TableID: &tableID,
		Match: flow.Match{
			NWSrc:   strp("172.16.0.5"),
			NWProto: &nwProto,
		},
		Actions: []flow.Action{
			{ActionType: flow.ActionPopVLAN},
		},
	}

	mod, err := OFP13{}.FromDict(d, ofp.FlowAdd)
	require.NoError(t, err)
	fm := mod.(*ofp13.FlowMod)

	fs := &ofp13.FlowStats{
		TableID:      fm.TableID,
		Match:        fm.Match,
		Instructions: fm.Instructions,
	}

	back, err := OFP13{}.ToDict(fs)
	require.NoError(t, err)
	require.NotNil(t, back.Match.NWSrc)
	assert.Equal(t, "172.16.0.5", *back.Match.NWSrc)
	require.Len(t, back.Actions, 1)
	assert.Equal(t, flow.ActionPopVLAN, back.Actions[0].ActionType)
}

func TestOFP13_ToDict_WrongType(t *testing.T) {
	_, err := OFP13{}.ToDict(42)
	assert.Error(t, err)
}
