package ecs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	Base
	X, Y float64
}

type velocity struct {
	Base
	DX, DY float64
}

// plain has no Base; the store must still track it.
type plain struct {
	N int
}

func newTestStore() *Store {
	return NewStore(DefaultOptions(), nil)
}

func TestCreateEntityHasNoComponents(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()

	assert.False(t, id.IsZero())
	_, ok := GetComponent[position](s, id)
	assert.False(t, ok)
	_, ok = GetComponent[plain](s, id)
	assert.False(t, ok)
}

func TestCreateEntityUnique(t *testing.T) {
	s := newTestStore()
	seen := make(map[EntityID]bool)
	for i := 0; i < 1000; i++ {
		id := s.CreateEntity()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 1000, s.Len())
}

func TestAddComponentStampsOwner(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()

	p, err := AddComponent(s, id, position{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, id, p.Owner())
	assert.True(t, p.IsActive())

	got, ok := GetComponent[position](s, id)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1.0, got.X)
}

func TestAddComponentUnknownEntity(t *testing.T) {
	s := newTestStore()

	_, err := AddComponent(s, NewEntityID(42, 1), position{})
	assert.ErrorIs(t, err, ErrEntityNotFound)

	id := s.CreateEntity()
	s.DestroyEntity(id)
	s.Update(0)
	_, err = AddComponent(s, id, position{})
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestAddComponentOverwrites(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()

	first, err := AddComponent(s, id, position{X: 1})
	require.NoError(t, err)
	second, err := AddComponent(s, id, position{X: 2})
	require.NoError(t, err)

	assert.False(t, first.IsActive())
	got, ok := GetComponent[position](s, id)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, GetComponents[position](s), 1)
	assert.Equal(t, 1, Count[position](s))
}

func TestRemoveComponentIsSoft(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()
	p, err := AddComponent(s, id, position{X: 5})
	require.NoError(t, err)

	assert.True(t, RemoveComponent[position](s, id))
	assert.False(t, RemoveComponent[position](s, id))
	assert.False(t, RemoveComponent[velocity](s, id))

	// The pointer is still valid, only flagged inactive.
	assert.False(t, p.IsActive())
	assert.Equal(t, 5.0, p.X)
	_, ok := GetComponent[position](s, id)
	assert.False(t, ok)
	assert.Empty(t, GetComponents[position](s))
}

func TestActiveFlagMatchesReadPaths(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()
	p, err := AddComponent(s, id, position{})
	require.NoError(t, err)

	assert.True(t, p.IsActive())
	_, ok := GetComponent[position](s, id)
	assert.True(t, ok)
	assert.Len(t, GetComponents[position](s), 1)
	assert.Equal(t, []EntityID{id}, s.Query(TypeOf[position]()))

	require.True(t, RemoveComponent[position](s, id))

	assert.False(t, p.IsActive())
	_, ok = GetComponent[position](s, id)
	assert.False(t, ok)
	assert.Empty(t, GetComponents[position](s))
	assert.Empty(t, s.Query(TypeOf[position]()))
	assert.Equal(t, 0, Count[position](s))
}

func TestDestroyIsDeferredUntilUpdate(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()
	p, err := AddComponent(s, id, position{})
	require.NoError(t, err)
	_, err = AddComponent(s, id, plain{N: 1})
	require.NoError(t, err)

	s.DestroyEntity(id)
	assert.True(t, s.PendingDestroy(id))
	_, ok := GetComponent[position](s, id)
	assert.True(t, ok, "destroy must not take effect before Update")

	s.Update(time.Millisecond)

	assert.False(t, s.Alive(id))
	assert.False(t, p.IsActive())
	_, ok = GetComponent[position](s, id)
	assert.False(t, ok)
	_, ok = GetComponent[plain](s, id)
	assert.False(t, ok)
	assert.NotContains(t, s.Query(TypeOf[position]()), id)
	assert.Equal(t, 0, s.Len())
}

func TestDestroyTwiceQueuesOnce(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()
	s.DestroyEntity(id)
	s.DestroyEntity(id)
	s.Update(0)
	assert.Equal(t, 0, s.Len())
	s.Update(0)
	assert.Equal(t, 0, s.Len())
}

func TestDestroyWhileIterating(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 10; i++ {
		id := s.CreateEntity()
		_, err := AddComponent(s, id, position{X: float64(i)})
		require.NoError(t, err)
	}

	visited := 0
	for _, p := range GetComponents[position](s) {
		s.DestroyEntity(p.Owner())
		visited++
	}
	assert.Equal(t, 10, visited)
	assert.Len(t, GetComponents[position](s), 10)

	s.Update(0)
	assert.Empty(t, GetComponents[position](s))
}

func TestStaleIDAfterSlotReuse(t *testing.T) {
	s := newTestStore()
	old := s.CreateEntity()
	_, err := AddComponent(s, old, position{X: 1})
	require.NoError(t, err)
	s.DestroyEntity(old)
	s.Update(0)

	fresh := s.CreateEntity()
	assert.Equal(t, old.Index(), fresh.Index())
	assert.NotEqual(t, old, fresh)
	_, err = AddComponent(s, fresh, position{X: 2})
	require.NoError(t, err)

	_, ok := GetComponent[position](s, old)
	assert.False(t, ok)
	got, ok := GetComponent[position](s, fresh)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.X)
}

func TestQueryIntersection(t *testing.T) {
	s := newTestStore()
	both := s.CreateEntity()
	onlyPos := s.CreateEntity()
	onlyVel := s.CreateEntity()

	_, _ = AddComponent(s, both, position{})
	_, _ = AddComponent(s, both, velocity{})
	_, _ = AddComponent(s, onlyPos, position{})
	_, _ = AddComponent(s, onlyVel, velocity{})

	got := s.Query(TypeOf[position](), TypeOf[velocity]())
	assert.Equal(t, []EntityID{both}, got)

	assert.ElementsMatch(t, []EntityID{both, onlyPos}, s.Query(TypeOf[position]()))
	assert.Empty(t, s.Query(TypeOf[plain]()))
	assert.Empty(t, s.Query())

	RemoveComponent[velocity](s, both)
	assert.Empty(t, s.Query(TypeOf[position](), TypeOf[velocity]()))
}

func TestEach2AllowsStructuralChanges(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 5; i++ {
		id := s.CreateEntity()
		_, _ = AddComponent(s, id, position{X: float64(i)})
		_, _ = AddComponent(s, id, velocity{DX: 1})
	}

	n := 0
	Each2(s, func(id EntityID, p *position, v *velocity) {
		p.X += v.DX
		// Adding during iteration must not deadlock.
		_, err := AddComponent(s, id, plain{N: n})
		require.NoError(t, err)
		n++
	})
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, Count[plain](s))

	m := 0
	Each3(s, func(_ EntityID, _ *position, _ *velocity, _ *plain) { m++ })
	assert.Equal(t, 5, m)
}

func TestPeriodicCompaction(t *testing.T) {
	s := NewStore(Options{CompactEvery: 3, InitialCapacity: 8}, nil)
	var keep []EntityID
	for i := 0; i < 20; i++ {
		id := s.CreateEntity()
		_, _ = AddComponent(s, id, position{X: float64(i)})
		if i%2 == 0 {
			s.DestroyEntity(id)
		} else {
			keep = append(keep, id)
		}
	}

	s.Update(0)
	b := lookup[position](s.registry, false, 0)
	assert.Equal(t, 10, b.Inactive(), "no compaction before the cadence")

	s.Update(0)
	s.Update(0)
	assert.Equal(t, 0, b.Inactive())
	assert.Len(t, b.entries, 10)

	for _, id := range keep {
		p, ok := GetComponent[position](s, id)
		require.True(t, ok)
		assert.Equal(t, id, p.Owner())
	}
}

func TestRequire(t *testing.T) {
	s := newTestStore()
	id := s.CreateEntity()

	_, err := Require[position](s, id)
	assert.ErrorIs(t, err, ErrInvalidComponentState)

	_, err = Require[position](s, NewEntityID(99, 1))
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, _ = AddComponent(s, id, position{})
	p, err := Require[position](s, id)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSpawnAndDestroyFive(t *testing.T) {
	s := newTestStore()
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := s.CreateEntity()
		_, err := AddComponent(s, id, position{X: float64(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids {
		s.DestroyEntity(id)
	}
	s.Update(0)
	assert.Empty(t, GetComponents[position](s))
}

func TestConcurrentReadsDuringUpdate(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 100; i++ {
		id := s.CreateEntity()
		_, _ = AddComponent(s, id, position{})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = GetComponents[position](s)
			_ = s.Query(TypeOf[position]())
		}
	}()
	for i := 0; i < 200; i++ {
		id := s.CreateEntity()
		_, _ = AddComponent(s, id, position{})
		s.DestroyEntity(id)
		s.Update(0)
	}
	<-done
	assert.Equal(t, 100, Count[position](s))
}
