// Package orchestrator implements the flow controller (spec §4.F): it
// translates admin requests into FlowMods, dispatches them over the
// event bus, persists intent, replays it on switch reconnection, and
// reconciles live flow tables against stored intent.
package orchestrator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"flowmanager/pkg/eventbus"
	"flowmanager/pkg/flow"
	"flowmanager/pkg/intent"
	"flowmanager/pkg/match"
	"flowmanager/pkg/ofswitch"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/serializer"

	"go.uber.org/zap"
)

// outputPorts is satisfied by every FlowMod that can report the ports
// its output actions name, used by OnOpenFlowError to apply
// OFPPC_NO_FWD (spec §4.F.5).
type outputPorts interface {
	OutputPorts() []ofp.PortNo
}

// OpenFlowErrorEvent is the content of an inbound ofpt_error event
// (spec §6): the transaction id it responds to, and the switch-reported
// error classification.
type OpenFlowErrorEvent struct {
	XID           uint32
	BadActionCode *ofp.BadActionCode
	ErrorType     string
	ErrorCode     string
}

// FlowEventRequest is the content of an inbound flows.install/
// flows.delete event (spec §6).
type FlowEventRequest struct {
	DPID     flow.DPID
	FlowDict flow.Doc
}

// Controller is the flow orchestrator (component F). All mutations to
// stored intent, the resent-set, and the in-flight record are
// serialized by mu, a single coarse mutex held across the
// deep-copy-mutate-persist sequence (spec §5).
type Controller struct {
	logger      *zap.Logger
	bus         eventbus.Bus
	switches    *ofswitch.Registry
	intentStore *intent.Store

	consistencyEnabled bool
	cookieIgnore       []match.Range
	tableIgnore        []match.Range

	xidCounter uint32

	mu       sync.Mutex
	stored   intent.Map
	resent   map[flow.DPID]bool
	inFlight *inFlightRecord
}

// New builds a Controller with an empty in-memory stored-intent cache;
// it does not read intentStore. LoadIntent seeds the cache from the
// persistence store.
func New(logger *zap.Logger, bus eventbus.Bus, switches *ofswitch.Registry, intentStore *intent.Store, cfg Config) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FlowsDictMaxSize <= 0 {
		cfg.FlowsDictMaxSize = FlowsDictMaxSize
	}

	cookie, table := cfg.parsedIgnoreRanges(func(kind string, err error) {
		logger.Warn("ignoring malformed consistency ignore-range", zap.String("kind", kind), zap.Error(err))
	})

	return &Controller{
		logger:             logger,
		bus:                bus,
		switches:           switches,
		intentStore:        intentStore,
		consistencyEnabled: cfg.EnableConsistencyCheck,
		cookieIgnore:       cookie,
		tableIgnore:        table,
		stored:             make(intent.Map),
		resent:             make(map[flow.DPID]bool),
		inFlight:           newInFlightRecord(cfg.FlowsDictMaxSize),
	}
}

// LoadIntent blocks on the persistence store's restore budget and seeds
// the in-memory stored-intent cache. Call once at startup; a timeout
// degrades to an empty cache rather than failing (spec §7,
// PersistenceUnavailable).
func (c *Controller) LoadIntent(getData func() (intent.Map, error)) {
	data, err := getData()
	if err != nil {
		c.logger.Warn("flow intent unavailable at startup, degrading to in-memory-only", zap.Error(err))
		return
	}
	c.mu.Lock()
	c.stored = data
	c.mu.Unlock()
}

func (c *Controller) nextXID() uint32 {
	return atomic.AddUint32(&c.xidCounter, 1)
}

// List returns per-DPID flow lists drawn from the switch's live flow
// table (spec §4.F.1). A nil dpid lists every registered switch.
func (c *Controller) List(dpid *flow.DPID) (map[flow.DPID][]flow.Description, error) {
	result := make(map[flow.DPID][]flow.Description)

	if dpid != nil {
		sw, ok := c.switches.Get(*dpid)
		if !ok {
			return nil, ErrNotFound
		}
		result[*dpid] = describeFlows(sw)
		return result, nil
	}

	for _, sw := range c.switches.All() {
		result[sw.DPID] = describeFlows(sw)
	}
	return result, nil
}

func describeFlows(sw *ofswitch.Switch) []flow.Description {
	flows := sw.Flows()
	out := make([]flow.Description, len(flows))
	for i, f := range flows {
		out[i] = f.Description
	}
	return out
}

// Apply translates and dispatches every flow in doc.Flows to the target
// switch set (spec §4.F.2): a single switch when dpid is given;
// otherwise every enabled switch for add, and every registered switch
// (enabled or not) for delete and delete_strict. A disabled switch
// rejects add with ErrSwitchDisabled.
func (c *Controller) Apply(command flow.Command, doc flow.Doc, dpid *flow.DPID) error {
	if command != flow.CommandAdd && command != flow.CommandDelete && command != flow.CommandDeleteStrict {
		return ErrInvalidCommand
	}
	if len(doc.Flows) == 0 {
		return ErrInvalidPayload
	}

	var targets []*ofswitch.Switch
	if dpid != nil {
		sw, ok := c.switches.Get(*dpid)
		if !ok {
			return ErrNotFound
		}
		if command == flow.CommandAdd && !sw.Enabled {
			return ErrSwitchDisabled
		}
		targets = []*ofswitch.Switch{sw}
	} else if command == flow.CommandAdd {
		targets = c.switches.Enabled()
	} else {
		targets = c.switches.All()
	}

	for _, sw := range targets {
		for _, d := range doc.Flows {
			if err := c.dispatchFlow(sw, d, command, true); err != nil {
				if errors.Is(err, serializer.ErrUnsupportedVersion) {
					return err
				}
				c.logger.Error("failed to dispatch flow",
					zap.String("dpid", sw.DPID.String()),
					zap.String("command", string(command)),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// dispatchFlow runs the per-flow dispatch procedure (spec §4.F): build
// the FlowMod, publish it, record it in-flight, publish the
// flow.added/flow.removed notification, and optionally merge the flow
// into stored intent.
func (c *Controller) dispatchFlow(sw *ofswitch.Switch, d flow.Description, command flow.Command, mergeIntentInto bool) error {
	ser, err := serializer.ForVersion(sw.Connection.Protocol.Version)
	if err != nil {
		return err
	}

	ofCommand, err := ofCommandFor(command)
	if err != nil {
		return err
	}

	flowMod, err := ser.FromDict(d, ofCommand)
	if err != nil {
		return fmt.Errorf("orchestrator: build flow-mod: %w", err)
	}

	xid := c.nextXID()

	c.bus.Publish(eventbus.Event{
		Topic: eventbus.TopicFlowModOut,
		Content: map[string]any{
			"destination": sw.Connection,
			"message":     flowMod,
			"xid":         xid,
		},
	})

	c.mu.Lock()
	c.inFlight.Put(xid, inFlightEntry{DPID: sw.DPID, Flow: d, Command: command, FlowMod: flowMod})
	c.mu.Unlock()

	notifyTopic := eventbus.TopicFlowAdded
	if command != flow.CommandAdd {
		notifyTopic = eventbus.TopicFlowRemoved
	}
	c.bus.Publish(eventbus.Event{
		Topic: notifyTopic,
		Content: map[string]any{
			"datapath": sw.DPID,
			"flow":     d,
		},
	})

	if mergeIntentInto {
		c.mu.Lock()
		persist, snapshot := c.mergeIntentLocked(sw.DPID, sw.Connection.Protocol.Version, intent.Entry{Command: command, Flow: d})
		c.mu.Unlock()
		if persist {
			c.intentStore.SaveFlow(snapshot)
		}
	}

	return nil
}

func ofCommandFor(command flow.Command) (ofp.FlowModCommand, error) {
	switch command {
	case flow.CommandAdd:
		return ofp.FlowAdd, nil
	case flow.CommandDelete:
		return ofp.FlowDelete, nil
	case flow.CommandDeleteStrict:
		return ofp.FlowDeleteStrict, nil
	default:
		return 0, ErrInvalidCommand
	}
}

// mergeIntentLocked implements store_changed_flows (spec §4.F): it
// mutates a deep copy of stored intent, never the live map directly,
// and returns whether the result actually changed (a no-op merge must
// not persist).
//
// Callers must hold mu.
func (c *Controller) mergeIntentLocked(dpid flow.DPID, version ofp.Version, entry intent.Entry) (changed bool, snapshot intent.Map) {
	cloned := c.stored.Clone()

	si, known := cloned[dpid]
	if !known {
		cloned[dpid] = &intent.SwitchIntent{FlowList: []intent.Entry{entry}}
		c.stored = cloned
		return true, cloned
	}

	marked := make(map[int]bool)
	noop := false

	if entry.Command == flow.CommandDelete {
		for i, e := range si.FlowList {
			if _, ok, _ := match.Flow(entry.Flow, version, e.Flow); ok {
				marked[i] = true
			}
		}
	} else {
		for i, e := range si.FlowList {
			if !flowObjectsEqual(e.Flow, entry.Flow) {
				continue
			}
			if e.Command == entry.Command {
				noop = true
			} else {
				marked[i] = true
			}
			break
		}
	}

	if noop {
		return false, nil
	}

	newList := make([]intent.Entry, 0, len(si.FlowList)+1)
	for i, e := range si.FlowList {
		if marked[i] {
			continue
		}
		newList = append(newList, e)
	}
	newList = append(newList, entry)

	cloned[dpid] = &intent.SwitchIntent{FlowList: newList}
	c.stored = cloned
	return true, cloned
}

// flowObjectsEqual compares two flow descriptions the way spec §4.F's
// "compares equal to the incoming flow as a flow object" requires:
// structural equality of the normalized JSON schema, the closest stand-
// in available for comparing the serializer's built FlowMod objects
// without re-deriving them.
func flowObjectsEqual(a, b flow.Description) bool {
	return reflect.DeepEqual(a, b)
}

// OnHandshakeCompleted replays stored intent for a newly connected
// switch, exactly once per process lifetime per DPID (spec §4.F.3).
func (c *Controller) OnHandshakeCompleted(sw *ofswitch.Switch) {
	c.mu.Lock()
	if c.resent[sw.DPID] {
		c.mu.Unlock()
		return
	}
	c.resent[sw.DPID] = true

	var entries []intent.Entry
	if si, ok := c.stored[sw.DPID]; ok {
		entries = append(entries, si.FlowList...)
	}
	c.mu.Unlock()

	for _, e := range entries {
		if err := c.dispatchFlow(sw, e.Flow, e.Command, false); err != nil {
			c.logger.Error("failed to resend stored flow",
				zap.String("dpid", sw.DPID.String()),
				zap.Error(err),
			)
		}
	}
}

// OnFlowStats runs the consistency passes when enabled (spec §4.F.4,
// the canonical event-driven design per spec §9).
func (c *Controller) OnFlowStats(sw *ofswitch.Switch) {
	if !c.consistencyEnabled {
		return
	}
	c.storehousePass(sw)
	c.switchPass(sw)
}

// OnOpenFlowError correlates a switch-reported error with the FlowMod
// that caused it and publishes a flow.error notification (spec §4.F.5).
// An unrecognized xid (a mod not originated here) is silently ignored.
func (c *Controller) OnOpenFlowError(ev OpenFlowErrorEvent) {
	c.mu.Lock()
	entry, ok := c.inFlight.Get(ev.XID)
	c.mu.Unlock()
	if !ok {
		return
	}

	if ev.BadActionCode != nil && *ev.BadActionCode == ofp.OFPBACBadOutPort {
		if ports, ok := entry.FlowMod.(outputPorts); ok {
			if sw, found := c.switches.Get(entry.DPID); found {
				for _, port := range ports.OutputPorts() {
					sw.SetInterfaceConfig(port, ofp.PortConfigNoForward)
				}
			}
		}
	}

	c.bus.Publish(eventbus.Event{
		Topic: eventbus.TopicFlowError,
		Content: map[string]any{
			"datapath":      entry.DPID,
			"flow":          entry.Flow,
			"error_command": entry.Command,
			"error_type":    ev.ErrorType,
			"error_code":    ev.ErrorCode,
		},
	})
}

// OnEventRequest accepts flows.install/flows.delete bus events and
// invokes the corresponding apply (spec §4.F.6).
func (c *Controller) OnEventRequest(topic string, req FlowEventRequest) error {
	switch topic {
	case eventbus.TopicFlowsInstall:
		return c.Apply(flow.CommandAdd, req.FlowDict, &req.DPID)
	case eventbus.TopicFlowsDelete:
		return c.Apply(flow.CommandDelete, req.FlowDict, &req.DPID)
	default:
		return fmt.Errorf("orchestrator: unrecognized event topic %q", topic)
	}
}
