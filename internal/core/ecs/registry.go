package ecs

import "reflect"

// Registry maps component types to their bags and supports bulk cleanup
// on entity destroy.
type Registry struct {
	bags map[reflect.Type]bag
}

func NewRegistry() *Registry {
	return &Registry{
		bags: make(map[reflect.Type]bag, 16),
	}
}

// TypeOf returns the registry key for component type T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// lookup returns the bag for T, creating it when create is set.
func lookup[T any](r *Registry, create bool, capacity int) *Bag[T] {
	t := TypeOf[T]()
	if b, ok := r.bags[t]; ok {
		return b.(*Bag[T])
	}
	if !create {
		return nil
	}
	b := NewBag[T](capacity)
	r.bags[t] = b
	return b
}

func (r *Registry) get(t reflect.Type) bag {
	return r.bags[t]
}

// RemoveAll flags the given entity's component inactive in every bag.
// Returns how many components were removed.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, b := range r.bags {
		if b.Remove(id) {
			n++
		}
	}
	return n
}

// CompactAll compacts every bag and returns the number of discarded entries.
func (r *Registry) CompactAll() int {
	n := 0
	for _, b := range r.bags {
		n += b.Compact()
	}
	return n
}

// Types returns the number of registered component types.
func (r *Registry) Types() int { return len(r.bags) }
