package match

import (
	"net"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
)

// OFPFW_* wildcard bits, as defined by the OpenFlow 1.0 wire protocol.
const (
	wildcardInPort  uint32 = 1 << 0
	wildcardDLVlan  uint32 = 1 << 1
	wildcardDLSrc   uint32 = 1 << 2
	wildcardDLDst   uint32 = 1 << 3
	wildcardDLType  uint32 = 1 << 4
	wildcardNWProto uint32 = 1 << 5
	wildcardTPSrc   uint32 = 1 << 6
	wildcardTPDst   uint32 = 1 << 7

	wildcardNWSrcShift uint32 = 8
	wildcardNWSrcBits  uint32 = 6
	wildcardNWSrcMask  uint32 = ((1 << wildcardNWSrcBits) - 1) << wildcardNWSrcShift

	wildcardNWDstShift uint32 = 14
	wildcardNWDstBits  uint32 = 6
	wildcardNWDstMask  uint32 = ((1 << wildcardNWDstBits) - 1) << wildcardNWDstShift

	wildcardDLVlanPCP uint32 = 1 << 20
	wildcardNWTos     uint32 = 1 << 21
)

// alwaysCheckedFields is the OF1.0 wildcard-gated field group spec §4.A
// lists explicitly: IN_PORT, DL_VLAN_PCP, DL_VLAN, DL_SRC, DL_DST,
// DL_TYPE, each compared with the "missing equals missing" rule.
var alwaysCheckedFields = []struct {
	bit  uint32
	name string
}{
	{wildcardInPort, "in_port"},
	{wildcardDLVlanPCP, "dl_vlan_pcp"},
	{wildcardDLVlan, "dl_vlan"},
	{wildcardDLSrc, "dl_src"},
	{wildcardDLDst, "dl_dst"},
	{wildcardDLType, "dl_type"},
}

// strictFields is the OF1.0 group requiring equality with no
// missing-equals-missing exception: NW_TOS, NW_PROTO, TP_SRC, TP_DST.
var strictFields = []struct {
	bit  uint32
	name string
}{
	{wildcardNWTos, "nw_tos"},
	{wildcardNWProto, "nw_proto"},
	{wildcardTPSrc, "tp_src"},
	{wildcardTPDst, "tp_dst"},
}

// noStrict10 implements match10_no_strict (spec §4.A).
func noStrict10(requested, stored flow.Description) bool {
	wildcards := requested.Match.WildcardsValue()

	for _, f := range alwaysCheckedFields {
		if wildcards&f.bit != 0 {
			continue
		}
		reqVal, reqOK := requested.Match.Field(f.name)
		storedVal, storedOK := stored.Match.Field(f.name)
		if !fieldsEqual(reqVal, reqOK, storedVal, storedOK) {
			return false
		}
	}

	// §9's redesign flag: an earlier revision inverted this check and
	// ran the IPv4 sub-match for every dl_type. Correctly, the nw_src/
	// nw_dst prefix-wildcard comparison only applies to IPv4 flows.
	if ethTypeIsIPv4(requested, stored) {
		if !ipv4FieldMatches(requested, stored, wildcards, wildcardNWSrcMask, wildcardNWSrcShift, "nw_src") {
			return false
		}
		if !ipv4FieldMatches(requested, stored, wildcards, wildcardNWDstMask, wildcardNWDstShift, "nw_dst") {
			return false
		}
	}

	for _, f := range strictFields {
		if wildcards&f.bit != 0 {
			continue
		}
		reqVal, reqOK := requested.Match.Field(f.name)
		storedVal, storedOK := stored.Match.Field(f.name)
		if !fieldsEqualStrict(reqVal, reqOK, storedVal, storedOK) {
			return false
		}
	}

	return true
}

// ipv4FieldMatches applies the OFPFW_NW_{SRC,DST}_MASK/SHIFT
// prefix-length wildcard (spec §4.A): wildcardAmount bits of host
// address are insignificant, capped at 32 (fully wildcarded).
func ipv4FieldMatches(requested, stored flow.Description, wildcards, mask, shift uint32, name string) bool {
	amount := (wildcards & mask) >> shift
	if amount > 32 {
		amount = 32
	}
	if amount >= 32 {
		return true
	}

	reqRaw, reqOK := requested.Match.Field(name)
	if !reqOK {
		return false
	}
	reqIP := net.ParseIP(reqRaw.(string))
	if reqIP == nil {
		return false
	}
	reqIP = reqIP.To4()
	if reqIP == nil {
		return false
	}

	storedRaw, storedOK := stored.Match.Field(name)
	if !storedOK {
		return false
	}
	storedIP := net.ParseIP(storedRaw.(string))
	if storedIP == nil {
		return false
	}
	storedIP = storedIP.To4()
	if storedIP == nil {
		return false
	}

	effectiveMask := (uint32(0xFFFFFFFF) << amount) & 0xFFFFFFFF
	reqBits := ipv4ToUint32(reqIP)
	storedBits := ipv4ToUint32(storedIP)
	return reqBits&effectiveMask == storedBits&effectiveMask
}

// ethTypeIsIPv4 decides whether the flow pair being compared is an IPv4
// flow, consulting only the requested side's dl_type (spec §9's
// redesign note; the original implementation's _match_ipv4_10 never
// inspects the stored side for this decision either). A request that
// doesn't name dl_type at all skips the IPv4 sub-match entirely,
// regardless of what the stored flow carries.
func ethTypeIsIPv4(requested, _ flow.Description) bool {
	v, ok := requested.Match.Field("dl_type")
	if !ok {
		return false
	}
	return v.(uint64) == uint64(ofp.EthTypeIPv4)
}

func ipv4ToUint32(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}
