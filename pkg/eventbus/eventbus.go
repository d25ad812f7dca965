// Package eventbus is the in-process stand-in for the controller
// framework's publish/subscribe event bus (spec §1, §6): the orchestrator
// publishes outbound FlowMods and app notifications here, and receives
// switch-originated events (handshake, flow stats, OpenFlow errors)
// through the same abstraction. The real bus that multiplexes these onto
// wire sockets and other backend apps is an external collaborator; this
// package only supplies the boundary and a workable in-process default.
package eventbus

import "sync"

// Outbound and inbound topic names, matching spec.md §6 verbatim.
const (
	TopicHandshakeCompleted = "kytos/of_core.handshake.completed"
	TopicFlowStatsReceived  = "kytos/of_core.flow_stats.received"
	TopicOpenFlowError      = "kytos/of_core.ofpt_error"
	TopicFlowsInstall       = "kytos.flow_manager.flows.install"
	TopicFlowsDelete        = "kytos.flow_manager.flows.delete"

	TopicFlowModOut  = "kytos/flow_manager.messages.out.ofpt_flow_mod"
	TopicFlowAdded   = "kytos/flow_manager.flow.added"
	TopicFlowRemoved = "kytos/flow_manager.flow.removed"
	TopicFlowError   = "kytos/flow_manager.flow.error"
)

// Event is the envelope carried on the bus: a topic name and an
// arbitrary, topic-defined payload (the content mappings of spec §6).
type Event struct {
	Topic   string
	Content map[string]any
}

// Handler receives events published to a topic it subscribed to.
type Handler func(Event)

// Bus is the publish/subscribe surface the orchestrator and its
// producers share. In this in-process implementation Publish does not
// enqueue: it delivers to subscribers synchronously on the publishing
// goroutine and returns once every handler has run.
type Bus interface {
	Publish(Event)
	Subscribe(topic string, h Handler)
}

// InProcess is a minimal in-memory Bus: a fixed routing table of topic
// to subscriber list, guarded by a single mutex.
type InProcess struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

// New returns an empty in-process bus.
func New() *InProcess {
	return &InProcess{subs: make(map[string][]Handler)}
}

// Subscribe registers h to be invoked for every event published on topic.
func (b *InProcess) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish delivers ev to every handler subscribed to ev.Topic. Handlers
// run synchronously and in subscription order; a producer that wants
// fire-and-forget semantics (as spec §4.E requires for persistence
// callbacks) should subscribe a handler that itself dispatches
// asynchronously.
func (b *InProcess) Publish(ev Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[ev.Topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
