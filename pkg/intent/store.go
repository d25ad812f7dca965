package intent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flowmanager/pkg/cluster/etcd"

	"go.uber.org/zap"
)

// BoxRestoreAttempts and BoxRestoreTimer bound GetData's poll loop
// (spec §4.E, §6: BOX_RESTORE_ATTEMPTS = 10, BOX_RESTORE_TIMER ~ 100ms).
const (
	BoxRestoreAttempts = 10
	BoxRestoreTimer    = 100 * time.Millisecond
)

// ErrNotFound is returned by GetData when the persistence record has
// not materialized within the restore budget.
var ErrNotFound = errors.New("intent: persistence record not retrievable within budget")

// recordKey is the single etcd key backing this subsystem's persistence
// record, namespaced per spec §6.
const recordKey = "/" + Namespace + "/" + DocumentID

// Store is the process-wide singleton persistence client (spec §4.E,
// design note: "one process-wide value initialized at startup, injected
// into the orchestrator"). It enumerates its record at construction,
// loading it if present or creating an empty one, then serves
// subsequent reads from an in-memory cache kept current by SaveFlow.
//
// The external persistence service is modeled as asynchronous: the
// initial enumerate/load/create and every SaveFlow both run on a
// background goroutine, matching the event-bus-with-callback shape spec
// §4.E and §9 describe. GetData blocks on a bounded poll of the
// materialization flag rather than the goroutine directly, so a caller
// governed by BOX_RESTORE_ATTEMPTS never waits past budget.
type Store struct {
	client *etcd.Client
	logger *zap.Logger

	ready chan struct{}

	mu      sync.RWMutex
	data    Map
	loadErr error
}

// New starts materializing the persistence record in the background and
// returns immediately; callers that need the data block on GetData.
func New(client *etcd.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		client: client,
		logger: logger,
		ready:  make(chan struct{}),
	}

	go s.materialize()

	return s
}

// NewInMemory returns a Store with no backing persistence client: reads
// see data immediately, and writes are kept in memory only. Used by
// tests and by standalone operation without a configured persistence
// backend.
func NewInMemory(data Map, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if data == nil {
		data = make(Map)
	}
	s := &Store{logger: logger, ready: make(chan struct{}), data: data}
	close(s.ready)
	return s
}

func (s *Store) materialize() {
	defer close(s.ready)

	if s.client == nil {
		s.data = make(Map)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	value, err := s.client.Get(ctx, recordKey)
	switch {
	case err == nil:
		data, derr := UnmarshalDocument([]byte(value))
		if derr != nil {
			s.loadErr = fmt.Errorf("intent: decode persisted record: %w", derr)
			return
		}
		s.mu.Lock()
		s.data = data
		s.mu.Unlock()

	case errors.Is(err, etcd.ErrKeyNotFound):
		empty := make(Map)
		if perr := s.persist(ctx, empty); perr != nil {
			s.loadErr = fmt.Errorf("intent: create empty record: %w", perr)
			return
		}
		s.mu.Lock()
		s.data = empty
		s.mu.Unlock()

	default:
		s.loadErr = fmt.Errorf("intent: enumerate persistence record: %w", err)
	}
}

// GetData blocks until the persistence record has materialized, polling
// up to BoxRestoreAttempts times at BoxRestoreTimer intervals, and
// returns ErrNotFound if the budget is exhausted (spec §4.E).
func (s *Store) GetData(ctx context.Context) (Map, error) {
	timer := time.NewTimer(BoxRestoreTimer)
	defer timer.Stop()

	for attempt := 0; attempt < BoxRestoreAttempts; attempt++ {
		select {
		case <-s.ready:
			s.mu.RLock()
			defer s.mu.RUnlock()
			if s.loadErr != nil {
				return nil, s.loadErr
			}
			return s.data.Clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			timer.Reset(BoxRestoreTimer)
		}
	}
	return nil, ErrNotFound
}

// SaveFlow overwrites the record's data with doc and persists it
// fire-and-forget: the caller does not wait on the write, matching
// spec §4.E/§7's "persistence errors are logged and do not block
// dispatch" rule. The in-memory cache is updated synchronously so a
// concurrent GetData observes the new intent immediately.
func (s *Store) SaveFlow(doc Map) {
	cloned := doc.Clone()

	s.mu.Lock()
	s.data = cloned
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.persist(ctx, cloned); err != nil {
			s.logger.Error("failed to persist flow intent", zap.Error(err))
		}
	}()
}

func (s *Store) persist(ctx context.Context, doc Map) error {
	if s.client == nil {
		return nil
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.client.Put(ctx, recordKey, string(data)); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}
