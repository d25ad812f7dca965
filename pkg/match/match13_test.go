package match

import (
	"testing"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"

	"github.com/stretchr/testify/assert"
)

func u64(v uint64) *uint64 { return &v }

func TestFlowOF13_CookieMaskShortCircuit(t *testing.T) {
	mask := uint64(0xFF)
	requested := flow.Description{Cookie: u64(0x42), CookieMask: &mask}
	stored := flow.Description{Cookie: u64(0x142)}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.True(t, ok, "low byte of both cookies is 0x42, masked comparison should match")
}

func TestFlowOF13_CookieMaskShortCircuitMismatch(t *testing.T) {
	mask := uint64(0xFF)
	requested := flow.Description{Cookie: u64(0x42), CookieMask: &mask}
	stored := flow.Description{Cookie: u64(0x143)}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF13_AnyFieldMatches(t *testing.T) {
	requested := flow.Description{Match: flow.Match{
		InPort: u32(1),
		DLDst:  str("aa:bb:cc:dd:ee:ff"),
	}}
	stored := flow.Description{Match: flow.Match{
		InPort: u32(99),
		DLDst:  str("aa:bb:cc:dd:ee:ff"),
	}}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.True(t, ok, "dl_dst matches even though in_port does not: OR semantics")
}

func TestFlowOF13_NoFieldMatches(t *testing.T) {
	requested := flow.Description{Match: flow.Match{InPort: u32(1)}}
	stored := flow.Description{Match: flow.Match{InPort: u32(2)}}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF13_EmptyRequestMatchesNothing(t *testing.T) {
	requested := flow.Description{}
	stored := flow.Description{Match: flow.Match{InPort: u32(2)}}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowOF13_CIDRFieldContainsStoredAddress(t *testing.T) {
	requested := flow.Description{Match: flow.Match{IPv4Src: str("10.0.0.0/24")}}
	stored := flow.Description{Match: flow.Match{IPv4Src: str("10.0.0.55")}}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFlowOF13_CIDRFieldExcludesStoredAddress(t *testing.T) {
	requested := flow.Description{Match: flow.Match{IPv4Src: str("10.0.0.0/24")}}
	stored := flow.Description{Match: flow.Match{IPv4Src: str("10.0.1.55")}}

	_, ok, err := Flow(requested, ofp.VersionOF13, stored)
	assert.NoError(t, err)
	assert.False(t, ok)
}
