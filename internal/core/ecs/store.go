package ecs

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options tunes a Store.
type Options struct {
	// CompactEvery is the number of Update calls between bag compactions.
	// Zero or negative disables periodic compaction.
	CompactEvery int
	// InitialCapacity presizes the entity pool and each component bag.
	InitialCapacity int
}

func DefaultOptions() Options {
	return Options{CompactEvery: 60, InitialCapacity: 256}
}

// Store is the entity registry: it owns the entity pool, the component bags
// and a deferred destruction queue drained by Update. The loop goroutine is
// the only structural writer; other goroutines may read concurrently.
type Store struct {
	mu           sync.RWMutex
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	pending      map[EntityID]struct{}
	opts         Options
	updates      uint64
	log          *zap.Logger
}

func NewStore(opts Options, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.InitialCapacity <= 0 {
		opts.InitialCapacity = 256
	}
	return &Store{
		pool:         NewEntityPool(opts.InitialCapacity),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
		pending:      make(map[EntityID]struct{}, 64),
		opts:         opts,
		log:          log,
	}
}

func (s *Store) CreateEntity() EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Create()
}

func (s *Store) Alive(id EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Alive(id)
}

// Len returns the number of live entities, including ones queued for destruction.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Len()
}

// DestroyEntity queues an entity for removal on the next Update.
// Safe to call while iterating query results.
func (s *Store) DestroyEntity(id EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pool.Alive(id) {
		return
	}
	if _, queued := s.pending[id]; queued {
		return
	}
	s.pending[id] = struct{}{}
	s.destroyQueue = append(s.destroyQueue, id)
}

// PendingDestroy reports whether id is queued for destruction.
func (s *Store) PendingDestroy(id EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[id]
	return ok
}

// Update drains the destroy queue and periodically compacts the bags.
// It is the only place entities are structurally removed.
func (s *Store) Update(_ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	destroyed := 0
	for _, id := range s.destroyQueue {
		s.registry.RemoveAll(id)
		if s.pool.Destroy(id) {
			destroyed++
		}
		delete(s.pending, id)
	}
	s.destroyQueue = s.destroyQueue[:0]

	s.updates++
	if s.opts.CompactEvery > 0 && s.updates%uint64(s.opts.CompactEvery) == 0 {
		if n := s.registry.CompactAll(); n > 0 {
			s.log.Debug("compacted component bags", zap.Int("dropped", n))
		}
	}
	if destroyed > 0 {
		s.log.Debug("destroyed entities", zap.Int("count", destroyed))
	}
}

// Compact forces a compaction of every bag.
func (s *Store) Compact() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.CompactAll()
}

// AddComponent attaches value to id, replacing any component of the same type.
// Fails with ErrEntityNotFound when id is unknown or destroyed.
func AddComponent[T any](s *Store, id EntityID, value T) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pool.Alive(id) {
		t := TypeOf[T]()
		s.log.Warn("add component to unknown entity",
			zap.Stringer("entity", id), zap.String("component", t.String()))
		return nil, fmt.Errorf("add %s to %s: %w", t, id, ErrEntityNotFound)
	}
	c := new(T)
	*c = value
	lookup[T](s.registry, true, s.opts.InitialCapacity).Set(id, c)
	return c, nil
}

// GetComponent returns the active component of type T owned by id.
func GetComponent[T any](s *Store, id EntityID) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.pool.Alive(id) {
		return nil, false
	}
	b := lookup[T](s.registry, false, 0)
	if b == nil {
		return nil, false
	}
	return b.Get(id)
}

// HasComponent reports whether id owns an active component of type T.
func HasComponent[T any](s *Store, id EntityID) bool {
	_, ok := GetComponent[T](s, id)
	return ok
}

// Require is GetComponent for write paths that want an error.
func Require[T any](s *Store, id EntityID) (*T, error) {
	if !s.Alive(id) {
		return nil, fmt.Errorf("require %s on %s: %w", TypeOf[T](), id, ErrEntityNotFound)
	}
	c, ok := GetComponent[T](s, id)
	if !ok {
		return nil, fmt.Errorf("require %s on %s: %w", TypeOf[T](), id, ErrInvalidComponentState)
	}
	return c, nil
}

// GetComponents returns every active component of type T. Order is unspecified.
func GetComponents[T any](s *Store) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := lookup[T](s.registry, false, 0)
	if b == nil {
		return nil
	}
	return b.Values()
}

// RemoveComponent soft-deletes the component of type T owned by id.
func RemoveComponent[T any](s *Store, id EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := lookup[T](s.registry, false, 0)
	if b == nil {
		return false
	}
	return b.Remove(id)
}

// Count returns the number of active components of type T.
func Count[T any](s *Store) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := lookup[T](s.registry, false, 0)
	if b == nil {
		return 0
	}
	return b.Len()
}
