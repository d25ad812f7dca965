// Package intent implements the persistent flow-intent store (spec
// §4.E): a single document per controller process recording, for every
// switch, the ordered flow-mod commands the operator has requested.
package intent

import (
	"encoding/json"

	"flowmanager/pkg/flow"
)

// DocumentID is the reserved "id" key spec §3/§6 carry on the
// persistence document and strip on load; never exposed in memory.
const DocumentID = "flow_persistence"

// Namespace is the persistence-service namespace this subsystem's
// record lives under (spec §6).
const Namespace = "kytos.flow.persistence"

// Entry is one element of a switch's flow_list: the command applied and
// the flow description it was applied to (spec §3).
type Entry struct {
	Command flow.Command    `json:"command"`
	Flow    flow.Description `json:"flow"`
}

// SwitchIntent is the stored intent for one DPID.
type SwitchIntent struct {
	FlowList []Entry `json:"flow_list"`
}

// Map is the in-memory intent map: DPID to its stored flow_list. It
// never carries the reserved "id" key (spec §3).
type Map map[flow.DPID]*SwitchIntent

// Clone copies m into a new map with a fresh SwitchIntent and a fresh
// flow_list slice per DPID, the scratch-copy step used before mutating
// stored intent. The flow descriptions' pointer fields and action
// slices are not copied; they are shared with m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for dpid, si := range m {
		cloned := &SwitchIntent{FlowList: make([]Entry, len(si.FlowList))}
		copy(cloned.FlowList, si.FlowList)
		out[dpid] = cloned
	}
	return out
}

// MarshalDocument renders m as the on-disk document shape: a flat
// object carrying the reserved id key alongside one key per DPID
// (spec §4.E, §6).
func MarshalDocument(m Map) ([]byte, error) {
	flat := make(map[string]any, len(m)+1)
	flat["id"] = DocumentID
	for dpid, si := range m {
		flat[string(dpid)] = si
	}
	return json.Marshal(flat)
}

// UnmarshalDocument parses the on-disk document shape back into a Map,
// stripping the reserved id key.
func UnmarshalDocument(data []byte) (Map, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	m := make(Map, len(raw))
	for key, value := range raw {
		if key == "id" {
			continue
		}
		var si SwitchIntent
		if err := json.Unmarshal(value, &si); err != nil {
			return nil, err
		}
		m[flow.DPID(key)] = &si
	}
	return m, nil
}
