package ecs

import "reflect"

// Query returns the entities holding an active component of every listed type.
// An unregistered type yields an empty result.
func (s *Store) Query(types ...reflect.Type) []EntityID {
	if len(types) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	bags := make([]bag, 0, len(types))
	for _, t := range types {
		b := s.registry.get(t)
		if b == nil || b.Len() == 0 {
			return nil
		}
		bags = append(bags, b)
	}

	// Iterate the smallest bag and look up the others.
	smallest := 0
	for i, b := range bags {
		if b.Len() < bags[smallest].Len() {
			smallest = i
		}
	}

	var out []EntityID
outer:
	for _, id := range bags[smallest].IDs() {
		for i, b := range bags {
			if i != smallest && !b.Has(id) {
				continue outer
			}
		}
		out = append(out, id)
	}
	return out
}

type pair[A, B any] struct {
	id EntityID
	a  *A
	b  *B
}

type triple[A, B, C any] struct {
	id EntityID
	a  *A
	b  *B
	c  *C
}

// Each2 visits entities that have both component A and B.
// The join is collected under the read lock and fn runs without it, so fn
// may add components or destroy entities.
func Each2[A, B any](s *Store, fn func(EntityID, *A, *B)) {
	s.mu.RLock()
	sa := lookup[A](s.registry, false, 0)
	sb := lookup[B](s.registry, false, 0)
	if sa == nil || sb == nil {
		s.mu.RUnlock()
		return
	}
	var rows []pair[A, B]
	if sa.Len() <= sb.Len() {
		sa.Each(func(id EntityID, a *A) {
			if b, ok := sb.Get(id); ok {
				rows = append(rows, pair[A, B]{id, a, b})
			}
		})
	} else {
		sb.Each(func(id EntityID, b *B) {
			if a, ok := sa.Get(id); ok {
				rows = append(rows, pair[A, B]{id, a, b})
			}
		})
	}
	s.mu.RUnlock()

	for _, r := range rows {
		fn(r.id, r.a, r.b)
	}
}

// Each3 visits entities that have components A, B, and C.
func Each3[A, B, C any](s *Store, fn func(EntityID, *A, *B, *C)) {
	s.mu.RLock()
	sa := lookup[A](s.registry, false, 0)
	sb := lookup[B](s.registry, false, 0)
	sc := lookup[C](s.registry, false, 0)
	if sa == nil || sb == nil || sc == nil {
		s.mu.RUnlock()
		return
	}
	var rows []triple[A, B, C]
	visit := func(id EntityID) {
		a, ok := sa.Get(id)
		if !ok {
			return
		}
		b, ok := sb.Get(id)
		if !ok {
			return
		}
		if c, ok := sc.Get(id); ok {
			rows = append(rows, triple[A, B, C]{id, a, b, c})
		}
	}
	// Iterate the smallest bag
	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		sa.Each(func(id EntityID, _ *A) { visit(id) })
	case sb.Len() <= sc.Len():
		sb.Each(func(id EntityID, _ *B) { visit(id) })
	default:
		sc.Each(func(id EntityID, _ *C) { visit(id) })
	}
	s.mu.RUnlock()

	for _, r := range rows {
		fn(r.id, r.a, r.b, r.c)
	}
}

// Each1 visits every active component of type A with its owner.
func Each1[A any](s *Store, fn func(EntityID, *A)) {
	s.mu.RLock()
	sa := lookup[A](s.registry, false, 0)
	if sa == nil {
		s.mu.RUnlock()
		return
	}
	type row struct {
		id EntityID
		a  *A
	}
	rows := make([]row, 0, sa.Len())
	sa.Each(func(id EntityID, a *A) { rows = append(rows, row{id, a}) })
	s.mu.RUnlock()

	for _, r := range rows {
		fn(r.id, r.a)
	}
}
