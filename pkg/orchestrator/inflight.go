package orchestrator

import (
	"flowmanager/pkg/flow"
	"flowmanager/pkg/serializer"
)

// inFlightEntry is one record of the in-flight table (spec §3): every
// FlowMod handed to the event bus, keyed by its transaction id.
type inFlightEntry struct {
	DPID    flow.DPID
	Flow    flow.Description
	Command flow.Command
	FlowMod serializer.FlowMod
}

// inFlightRecord is the FIFO-bounded ordered mapping described in
// spec §3 and §9's "mutable ordered mapping with FIFO eviction" design
// note: an insertion-ordered key sequence plus a lookup index, evicting
// the oldest entry once at capacity. It carries no lock of its own —
// the orchestrator's single coarse mutex (spec §5) guards every access.
type inFlightRecord struct {
	capacity int
	order    []uint32
	entries  map[uint32]inFlightEntry
}

func newInFlightRecord(capacity int) *inFlightRecord {
	return &inFlightRecord{
		capacity: capacity,
		entries:  make(map[uint32]inFlightEntry),
	}
}

// Put records entry under xid, evicting the oldest entry (by insertion
// order) if the table is at capacity.
func (r *inFlightRecord) Put(xid uint32, entry inFlightEntry) {
	if _, exists := r.entries[xid]; !exists {
		r.order = append(r.order, xid)
	}
	r.entries[xid] = entry

	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.entries, oldest)
	}
}

// Get looks up the entry recorded for xid.
func (r *inFlightRecord) Get(xid uint32) (inFlightEntry, bool) {
	e, ok := r.entries[xid]
	return e, ok
}

// Len reports the current number of tracked in-flight entries.
func (r *inFlightRecord) Len() int {
	return len(r.entries)
}
