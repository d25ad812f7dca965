// Package ofswitch models the switch, connection, and interface objects
// the controller framework hands to this subsystem (spec §1's "out of
// scope" collaborator: "the controller framework that supplies switch
// objects and event buffers"). Only the surface the orchestrator reads
// or mutates is modeled: negotiated protocol version, enabled/disabled
// administrative state, live flow table, and per-port config flags.
package ofswitch

import (
	"sync"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/openflow/ofp"
)

// Connection is the switch's control-plane socket handle, passed through
// to the outbound event bus as the FlowMod's destination (spec §4.F
// step 3). The wire transport is an external collaborator; this is an
// opaque routing token from this subsystem's point of view.
type Connection struct {
	DPID     flow.DPID
	Protocol Protocol
}

// Protocol carries the negotiated OpenFlow version (spec §4.D).
type Protocol struct {
	Version ofp.Version
}

// Interface is a physical or logical port on a switch.
type Interface struct {
	Port   ofp.PortNo
	Config ofp.PortConfig
}

// Switch is a connected OpenFlow switch as seen by this subsystem:
// identity, negotiated version, administrative state, the live flow
// table (as reported by flow_stats), and its interfaces. Switches are
// owned by the controller framework; this subsystem only reads them,
// except for the interface config field, which §4.F.5 requires setting
// in response to OFPBAC_BAD_OUT_PORT errors.
type Switch struct {
	DPID       flow.DPID
	Connection Connection
	Enabled    bool

	mu         sync.RWMutex
	flows      []Flow
	interfaces map[ofp.PortNo]*Interface
}

// Flow is one entry of a switch's live flow table, tagged with the
// serializer-neutral description used to compare it against stored
// intent (the "flow object" spec §4.F refers to).
type Flow struct {
	Description flow.Description
}

// New returns a Switch with the given identity, negotiated version, and
// initial administrative state.
func New(dpid flow.DPID, version ofp.Version, enabled bool) *Switch {
	return &Switch{
		DPID:       dpid,
		Connection: Connection{DPID: dpid, Protocol: Protocol{Version: version}},
		Enabled:    enabled,
		interfaces: make(map[ofp.PortNo]*Interface),
	}
}

// Flows returns a snapshot of the switch's live flow table.
func (s *Switch) Flows() []Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Flow, len(s.flows))
	copy(out, s.flows)
	return out
}

// SetFlows replaces the switch's live flow table, e.g. from a
// flow_stats.received event.
func (s *Switch) SetFlows(flows []Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows = flows
}

// Interface returns the interface for port, creating a default
// (unconfigured) one on first reference.
func (s *Switch) Interface(port ofp.PortNo) *Interface {
	s.mu.Lock()
	defer s.mu.Unlock()
	iface, ok := s.interfaces[port]
	if !ok {
		iface = &Interface{Port: port}
		s.interfaces[port] = iface
	}
	return iface
}

// SetInterfaceConfig ORs flag onto the named port's config, the action
// spec §4.F.5 requires on OFPBAC_BAD_OUT_PORT.
func (s *Switch) SetInterfaceConfig(port ofp.PortNo, flag ofp.PortConfig) {
	iface := s.Interface(port)
	s.mu.Lock()
	defer s.mu.Unlock()
	iface.Config |= flag
}

// Registry is the set of switches currently known to the controller
// framework, keyed by DPID.
type Registry struct {
	mu       sync.RWMutex
	switches map[flow.DPID]*Switch
}

// NewRegistry returns an empty switch registry.
func NewRegistry() *Registry {
	return &Registry{switches: make(map[flow.DPID]*Switch)}
}

// Put adds or replaces a switch.
func (r *Registry) Put(sw *Switch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.switches[sw.DPID] = sw
}

// Get looks up a switch by DPID.
func (r *Registry) Get(dpid flow.DPID) (*Switch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sw, ok := r.switches[dpid]
	return sw, ok
}

// Remove deletes a switch from the registry, e.g. on disconnect.
func (r *Registry) Remove(dpid flow.DPID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.switches, dpid)
}

// Enabled returns every enabled switch currently registered, the target
// set for an apply() call with no explicit dpid (spec §4.F.2).
func (r *Registry) Enabled() []*Switch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Switch, 0, len(r.switches))
	for _, sw := range r.switches {
		if sw.Enabled {
			out = append(out, sw)
		}
	}
	return out
}

// All returns every registered switch regardless of administrative
// state, the target set for apply(command=delete) with no explicit dpid.
func (r *Registry) All() []*Switch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Switch, 0, len(r.switches))
	for _, sw := range r.switches {
		out = append(out, sw)
	}
	return out
}
