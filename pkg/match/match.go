// Package match implements the non-strict flow-matching predicate engine
// (spec §4.A): given a requested flow description, decide whether a
// stored flow satisfies it, version-aware. It backs both deletion
// (spec §4.F's non-strict delete) and consistency reconciliation.
package match

import (
	"fmt"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
)

// ErrUnsupportedVersion is returned for any OpenFlow version other than
// 1.0 (0x01) or 1.3 (0x04).
var ErrUnsupportedVersion = fmt.Errorf("match: unsupported openflow version")

// Flow decides whether stored matches requested under the given
// OpenFlow version's non-strict semantics (spec §4.A). It returns the
// stored flow unchanged on a match, ok=false on no match, and a non-nil
// error only for an unrecognized version. Neither input is mutated.
func Flow(requested flow.Description, version ofp.Version, stored flow.Description) (flow.Description, bool, error) {
	switch version {
	case ofp.VersionOF10:
		return stored, noStrict10(requested, stored), nil
	case ofp.VersionOF13:
		return stored, noStrict13(requested, stored), nil
	default:
		return flow.Description{}, false, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, uint8(version))
	}
}

// fieldsEqual implements the "missing equals missing" comparison spec
// §4.A requires for the OF1.0 always-checked field group: both sides
// absent counts as equal, one side absent counts as unequal.
func fieldsEqual(reqVal any, reqPresent bool, storedVal any, storedPresent bool) bool {
	if !reqPresent && !storedPresent {
		return true
	}
	if reqPresent != storedPresent {
		return false
	}
	return reqVal == storedVal
}

// fieldsEqualStrict implements the comparison spec §4.A requires for
// NW_TOS/NW_PROTO/TP_SRC/TP_DST: missing on either side is a mismatch.
func fieldsEqualStrict(reqVal any, reqPresent bool, storedVal any, storedPresent bool) bool {
	if !reqPresent || !storedPresent {
		return false
	}
	return reqVal == storedVal
}
