package server

import (
	"testing"

	"flowmanager/pkg/eventbus"
	"flowmanager/pkg/flow"
	"flowmanager/pkg/intent"
	"flowmanager/pkg/ofswitch"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWiredController(t *testing.T) (*eventbus.InProcess, *ofswitch.Registry, *orchestrator.Controller) {
	t.Helper()
	bus := eventbus.New()
	switches := ofswitch.NewRegistry()
	store := intent.NewInMemory(nil, nil)
	cfg := orchestrator.DefaultConfig()
	cfg.EnableConsistencyCheck = true
	controller := orchestrator.New(nil, bus, switches, store, cfg)
	subscribeBusEvents(bus, controller, nil)
	return bus, switches, controller
}

func recordServerEvents(bus *eventbus.InProcess, topic string) *[]eventbus.Event {
	events := &[]eventbus.Event{}
	bus.Subscribe(topic, func(ev eventbus.Event) {
		*events = append(*events, ev)
	})
	return events
}

func TestSubscribeBusEvents_HandshakeCompletedReplaysStoredIntent(t *testing.T) {
	bus, switches, controller := newWiredController(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:10")
	sw := ofswitch.New(dpid, ofp.VersionOF13, true)
	switches.Put(sw)

	port := uint32(1)
	doc := flow.Doc{Flows: []flow.Description{{Match: flow.Match{InPort: &port}}}}
	require.NoError(t, controller.Apply(flow.CommandAdd, doc, &dpid))

	flowModEvents := recordServerEvents(bus, eventbus.TopicFlowModOut)

	bus.Publish(eventbus.Event{
		Topic:   eventbus.TopicHandshakeCompleted,
		Content: map[string]any{"switch": sw},
	})

	assert.Len(t, *flowModEvents, 1, "handshake.completed must dispatch the stored intent for the switch")
}

func TestSubscribeBusEvents_FlowStatsRunsConsistency(t *testing.T) {
	bus, switches, _ := newWiredController(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:11")
	sw := ofswitch.New(dpid, ofp.VersionOF13, true)
	switches.Put(sw)

	port := uint32(2)
	sw.SetFlows([]ofswitch.Flow{{Description: flow.Description{Match: flow.Match{InPort: &port}}}})

	flowModEvents := recordServerEvents(bus, eventbus.TopicFlowModOut)

	bus.Publish(eventbus.Event{
		Topic:   eventbus.TopicFlowStatsReceived,
		Content: map[string]any{"switch": sw},
	})

	assert.Len(t, *flowModEvents, 1, "flow_stats.received must trigger a consistency pass that removes the unexpected flow")
}

func TestSubscribeBusEvents_OpenFlowErrorCorrelatesInFlightEntry(t *testing.T) {
	bus, switches, controller := newWiredController(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:12")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, true))

	errorEvents := recordServerEvents(bus, eventbus.TopicFlowError)
	flowModEvents := recordServerEvents(bus, eventbus.TopicFlowModOut)

	port := flow.PortValue{Number: 3}
	doc := flow.Doc{Flows: []flow.Description{
		{Actions: []flow.Action{{ActionType: flow.ActionOutput, Port: &port}}},
	}}
	require.NoError(t, controller.Apply(flow.CommandAdd, doc, &dpid))
	require.Len(t, *flowModEvents, 1)
	xid, _ := (*flowModEvents)[0].Content["xid"].(uint32)

	badOutPort := ofp.OFPBACBadOutPort
	bus.Publish(eventbus.Event{
		Topic: eventbus.TopicOpenFlowError,
		Content: map[string]any{
			"error": orchestrator.OpenFlowErrorEvent{
				XID:           xid,
				BadActionCode: &badOutPort,
				ErrorType:     "bad_action",
				ErrorCode:     "bad_out_port",
			},
		},
	})

	assert.Len(t, *errorEvents, 1, "ofpt_error must publish a flow.error notification")
}

func TestSubscribeBusEvents_FlowsInstallEventDispatches(t *testing.T) {
	bus, switches, _ := newWiredController(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:13")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, true))

	flowModEvents := recordServerEvents(bus, eventbus.TopicFlowModOut)

	port := uint32(5)
	bus.Publish(eventbus.Event{
		Topic: eventbus.TopicFlowsInstall,
		Content: map[string]any{
			"request": orchestrator.FlowEventRequest{
				DPID:     dpid,
				FlowDict: flow.Doc{Flows: []flow.Description{{Match: flow.Match{InPort: &port}}}},
			},
		},
	})

	assert.Len(t, *flowModEvents, 1, "flows.install event must dispatch an add")
}
