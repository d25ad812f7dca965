package match

import (
	"net"

	"flowmanager/pkg/flow"
)

// ipCIDRFields is the set of CIDR-bearing match fields; each has the
// same name on both sides, but the requested side carries a CIDR string
// and the stored side a bare address.
var ipCIDRFields = map[string]bool{
	"ipv4_src": true,
	"ipv4_dst": true,
	"ipv6_src": true,
	"ipv6_dst": true,
}

// noStrict13 implements match13_no_strict (spec §4.A): cookie-mask
// short-circuit, then "any field matches" iteration over request.match.
func noStrict13(requested, stored flow.Description) bool {
	if requested.CookieMaskValue() != 0 && stored.Cookie != nil {
		mask := requested.CookieMaskValue()
		return requested.CookieValue()&mask == stored.CookieValue()&mask
	}

	for _, name := range flow.FieldNames {
		if name == "wildcards" {
			continue
		}
		reqVal, reqOK := requested.Match.Field(name)
		if !reqOK {
			continue
		}

		if ipCIDRFields[name] {
			if cidrFieldMatches(reqVal.(string), stored, name) {
				return true
			}
			continue
		}

		storedVal, storedOK := stored.Match.Field(name)
		if storedOK && reqVal == storedVal {
			return true
		}
	}
	return false
}

// cidrFieldMatches implements the CIDR sub-match: the requested value is
// a CIDR string, the stored value a bare address; they match when the
// stored address falls within the requested network (spec §4.A:
// ip_network(stored+"/"+requested.netmask) == ip_network(requested,
// strict=false), which holds exactly when the requested network
// contains the stored address under the same prefix length).
func cidrFieldMatches(requestedCIDR string, stored flow.Description, name string) bool {
	_, network, err := net.ParseCIDR(requestedCIDR)
	if err != nil {
		return false
	}

	storedRaw, ok := stored.Match.Field(name)
	if !ok {
		return false
	}
	storedIP := net.ParseIP(storedRaw.(string))
	if storedIP == nil {
		return false
	}

	return network.Contains(storedIP)
}
