package ecs

// Base records component ownership. Component types embed it so that the
// store can stamp the owner on attach and flag the value inactive on removal.
// Both fields are owned by the store; callers remove components through
// RemoveComponent or DestroyEntity.
type Base struct {
	entity EntityID
	active bool
}

func (b *Base) Owner() EntityID { return b.entity }
func (b *Base) IsActive() bool  { return b.active }

func (b *Base) setState(id EntityID, active bool) {
	b.entity = id
	b.active = active
}

// stateful is satisfied by any component embedding Base.
type stateful interface {
	setState(id EntityID, active bool)
}

// bag is the type-erased view of a Bag the Registry works with.
type bag interface {
	Remove(id EntityID) bool
	Has(id EntityID) bool
	Len() int
	Compact() int
	IDs() []EntityID
}

type bagEntry[T any] struct {
	id     EntityID
	value  *T
	active bool
}

// Bag is a type-indexed component collection. Removal only flags entries
// inactive so that slices handed out to iterating callers stay valid;
// Compact discards the inactive entries later.
type Bag[T any] struct {
	entries  []bagEntry[T]
	index    map[EntityID]int // live entry position
	inactive int
}

func NewBag[T any](capacity int) *Bag[T] {
	return &Bag[T]{
		entries: make([]bagEntry[T], 0, capacity),
		index:   make(map[EntityID]int, capacity),
	}
}

// Set attaches c to id, soft-deleting any previous value of the same type.
func (b *Bag[T]) Set(id EntityID, c *T) {
	if pos, ok := b.index[id]; ok {
		b.deactivate(pos)
	}
	if s, ok := any(c).(stateful); ok {
		s.setState(id, true)
	}
	b.index[id] = len(b.entries)
	b.entries = append(b.entries, bagEntry[T]{id: id, value: c, active: true})
}

func (b *Bag[T]) Get(id EntityID) (*T, bool) {
	pos, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return b.entries[pos].value, true
}

// Remove flags the component inactive. Returns whether one was present.
func (b *Bag[T]) Remove(id EntityID) bool {
	pos, ok := b.index[id]
	if !ok {
		return false
	}
	b.deactivate(pos)
	delete(b.index, id)
	return true
}

func (b *Bag[T]) deactivate(pos int) {
	e := &b.entries[pos]
	if !e.active {
		return
	}
	e.active = false
	if s, ok := any(e.value).(stateful); ok {
		s.setState(e.id, false)
	}
	b.inactive++
}

func (b *Bag[T]) Has(id EntityID) bool {
	_, ok := b.index[id]
	return ok
}

// Len returns the number of active components.
func (b *Bag[T]) Len() int { return len(b.index) }

// Inactive returns the number of soft-deleted entries awaiting compaction.
func (b *Bag[T]) Inactive() int { return b.inactive }

// Each visits every active component.
func (b *Bag[T]) Each(fn func(EntityID, *T)) {
	for i := range b.entries {
		if e := &b.entries[i]; e.active {
			fn(e.id, e.value)
		}
	}
}

// Values returns a fresh slice of all active components.
func (b *Bag[T]) Values() []*T {
	out := make([]*T, 0, len(b.index))
	for i := range b.entries {
		if b.entries[i].active {
			out = append(out, b.entries[i].value)
		}
	}
	return out
}

// IDs returns the owners of all active components.
func (b *Bag[T]) IDs() []EntityID {
	out := make([]EntityID, 0, len(b.index))
	for id := range b.index {
		out = append(out, id)
	}
	return out
}

// Compact drops inactive entries and returns how many were discarded.
func (b *Bag[T]) Compact() int {
	if b.inactive == 0 {
		return 0
	}
	dropped := b.inactive
	live := make([]bagEntry[T], 0, len(b.index))
	for _, e := range b.entries {
		if e.active {
			b.index[e.id] = len(live)
			live = append(live, e)
		}
	}
	b.entries = live
	b.inactive = 0
	return dropped
}
