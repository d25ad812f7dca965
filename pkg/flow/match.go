package flow

// Match carries the recognized OpenFlow match-field names from spec §3.
// Every field is optional; a nil pointer means the field was absent from
// the JSON document, which the match engine treats as distinct from a
// zero value or an empty string.
type Match struct {
	InPort     *uint32 `json:"in_port,omitempty"`
	DLSrc      *string `json:"dl_src,omitempty"`
	DLDst      *string `json:"dl_dst,omitempty"`
	DLType     *uint16 `json:"dl_type,omitempty"`
	DLVlan     *uint16 `json:"dl_vlan,omitempty"`
	DLVlanPCP  *uint8  `json:"dl_vlan_pcp,omitempty"`
	NWSrc      *string `json:"nw_src,omitempty"`
	NWDst      *string `json:"nw_dst,omitempty"`
	NWProto    *uint8  `json:"nw_proto,omitempty"`
	NWTos      *uint8  `json:"nw_tos,omitempty"`
	TPSrc      *uint16 `json:"tp_src,omitempty"`
	TPDst      *uint16 `json:"tp_dst,omitempty"`
	IPv4Src    *string `json:"ipv4_src,omitempty"`
	IPv4Dst    *string `json:"ipv4_dst,omitempty"`
	IPv6Src    *string `json:"ipv6_src,omitempty"`
	IPv6Dst    *string `json:"ipv6_dst,omitempty"`
	Wildcards  *uint32 `json:"wildcards,omitempty"`
}

// FieldNames recognized on a Match, in the order spec §3 lists them.
var FieldNames = []string{
	"in_port", "dl_src", "dl_dst", "dl_type", "dl_vlan", "dl_vlan_pcp",
	"nw_src", "nw_dst", "nw_proto", "nw_tos", "tp_src", "tp_dst",
	"ipv4_src", "ipv4_dst", "ipv6_src", "ipv6_dst", "wildcards",
}

// Field returns the value of the named match field and whether it was
// present. Integer fields are returned as uint64, string fields (MAC/IP)
// as string.
func (m Match) Field(name string) (value any, present bool) {
	switch name {
	case "in_port":
		return derefU64(m.InPort)
	case "dl_src":
		return derefStr(m.DLSrc)
	case "dl_dst":
		return derefStr(m.DLDst)
	case "dl_type":
		return derefU64(m.DLType)
	case "dl_vlan":
		return derefU64(m.DLVlan)
	case "dl_vlan_pcp":
		return derefU64(m.DLVlanPCP)
	case "nw_src":
		return derefStr(m.NWSrc)
	case "nw_dst":
		return derefStr(m.NWDst)
	case "nw_proto":
		return derefU64(m.NWProto)
	case "nw_tos":
		return derefU64(m.NWTos)
	case "tp_src":
		return derefU64(m.TPSrc)
	case "tp_dst":
		return derefU64(m.TPDst)
	case "ipv4_src":
		return derefStr(m.IPv4Src)
	case "ipv4_dst":
		return derefStr(m.IPv4Dst)
	case "ipv6_src":
		return derefStr(m.IPv6Src)
	case "ipv6_dst":
		return derefStr(m.IPv6Dst)
	case "wildcards":
		return derefU64(m.Wildcards)
	default:
		return nil, false
	}
}

func derefStr(p *string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func derefU64[T ~uint8 | ~uint16 | ~uint32 | ~uint64](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return uint64(*p), true
}

// WildcardsValue returns the OF1.0 wildcards bitmask, defaulting to 0
// ("all fields significant") when absent.
func (m Match) WildcardsValue() uint32 {
	if m.Wildcards == nil {
		return 0
	}
	return *m.Wildcards
}
