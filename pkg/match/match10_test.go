package match

import (
	"testing"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"

	"github.com/stretchr/testify/assert"
)

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }
func u32(v uint32) *uint32 { return &v }
func str(v string) *string { return &v }

// wildcardNWGroup wildcards nw_tos, nw_proto, tp_src and tp_dst, which
// noStrict10 otherwise requires to be present and equal on both sides.
const wildcardNWGroup = wildcardNWTos | wildcardNWProto | wildcardTPSrc | wildcardTPDst

func TestFlowOF10_ExactMatch(t *testing.T) {
	exact := func() flow.Description {
		return flow.Description{Match: flow.Match{
			InPort:  u32(1),
			DLType:  u16(ofp.EthTypeIPv4),
			NWSrc:   str("10.0.0.1"),
			NWDst:   str("10.0.0.2"),
			NWProto: u8(6),
			NWTos:   u8(0),
			TPSrc:   u16(1234),
			TPDst:   u16(80),
		}}
	}
	requested := exact()
	stored := exact()

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFlowOF10_MismatchedInPort(t *testing.T) {
	requested := flow.Description{Match: flow.Match{InPort: u32(1)}}
	stored := flow.Description{Match: flow.Match{InPort: u32(2)}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF10_WildcardedFieldSkipsComparison(t *testing.T) {
	wildcards := wildcardInPort | wildcardNWGroup
	requested := flow.Description{Match: flow.Match{Wildcards: &wildcards, InPort: u32(1)}}
	stored := flow.Description{Match: flow.Match{InPort: u32(99)}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFlowOF10_MissingEqualsMissing(t *testing.T) {
	wildcards := wildcardNWGroup
	requested := flow.Description{Match: flow.Match{Wildcards: &wildcards}}
	stored := flow.Description{Match: flow.Match{}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFlowOF10_StrictFieldMissingOnOneSideMismatches(t *testing.T) {
	requested := flow.Description{Match: flow.Match{NWProto: u8(6)}}
	stored := flow.Description{Match: flow.Match{}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF10_IPv4PrefixWildcardMasksHostBits(t *testing.T) {
	// 8 bits wildcarded on nw_src (a /24 match); nw_dst (32 bits) and the
	// nw_tos/nw_proto/tp_src/tp_dst group are fully wildcarded.
	wildcards := uint32(8)<<wildcardNWSrcShift | uint32(32)<<wildcardNWDstShift | wildcardNWGroup
	requested := flow.Description{Match: flow.Match{
		DLType: u16(ofp.EthTypeIPv4),
		NWSrc:  str("10.0.0.1"),
		Wildcards: &wildcards,
	}}
	stored := flow.Description{Match: flow.Match{
		DLType: u16(ofp.EthTypeIPv4),
		NWSrc:  str("10.0.0.200"),
	}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok, "same /24 should match under an 8-bit nw_src wildcard")
}

func TestFlowOF10_IPv4PrefixWildcardRejectsDifferentPrefix(t *testing.T) {
	wildcards := uint32(8) << wildcardNWSrcShift
	requested := flow.Description{Match: flow.Match{
		DLType: u16(ofp.EthTypeIPv4),
		NWSrc:  str("10.0.0.1"),
		Wildcards: &wildcards,
	}}
	stored := flow.Description{Match: flow.Match{
		DLType: u16(ofp.EthTypeIPv4),
		NWSrc:  str("10.0.1.200"),
	}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF10_NonIPv4FlowSkipsNWSrcSubMatch(t *testing.T) {
	// dl_type absent on both sides: the nw_src prefix check must not run
	// at all, regardless of what nw_src carries (the §9 redesign fix).
	wildcards := wildcardNWGroup
	requested := flow.Description{Match: flow.Match{Wildcards: &wildcards, NWSrc: str("10.0.0.1")}}
	stored := flow.Description{Match: flow.Match{NWSrc: str("192.168.0.1")}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFlowOF10_RequestWithoutDLTypeIgnoresStoredDLType(t *testing.T) {
	// The request doesn't name dl_type at all, so the IPv4 sub-match must
	// not run even though the stored flow happens to be an IPv4 flow with
	// a different nw_src — the decision consults only the requested side.
	// dl_type is wildcarded so the always-checked dl_type comparison does
	// not reject the pair first.
	wildcards := wildcardDLType | wildcardNWGroup
	requested := flow.Description{Match: flow.Match{Wildcards: &wildcards, NWSrc: str("10.0.0.1")}}
	stored := flow.Description{Match: flow.Match{
		DLType: u16(ofp.EthTypeIPv4),
		NWSrc:  str("192.168.0.1"),
	}}

	_, ok, err := Flow(requested, ofp.VersionOF10, stored)
	assert.NoError(t, err)
	assert.True(t, ok, "absent dl_type on the requested side must skip the nw_src sub-match entirely")
}

func TestFlowOF10_UnsupportedVersion(t *testing.T) {
	_, _, err := Flow(flow.Description{}, ofp.Version(0x99), flow.Description{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
