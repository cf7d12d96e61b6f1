package physics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

func TestCellOfNegativeCoordinates(t *testing.T) {
	g := NewIndex(64)

	cx, cy := g.CellOf(mathx.V(-0.5, -64))
	assert.Equal(t, int64(-1), cx)
	assert.Equal(t, int64(-1), cy)

	cx, cy = g.CellOf(mathx.V(63.9, 64))
	assert.Equal(t, int64(0), cx)
	assert.Equal(t, int64(1), cy)
}

func TestInsertCoversOverlappedCells(t *testing.T) {
	g := NewIndex(64)
	g.Insert(1, mathx.V(63, 0), 5)

	assert.Equal(t, 4, g.Cells())
	assert.Contains(t, g.At(mathx.V(10, 10)), ecs.EntityID(1))
	assert.Contains(t, g.At(mathx.V(70, 10)), ecs.EntityID(1))
	assert.Contains(t, g.At(mathx.V(10, -10)), ecs.EntityID(1))
	assert.Contains(t, g.At(mathx.V(70, -10)), ecs.EntityID(1))
	assert.Empty(t, g.At(mathx.V(200, 200)))
}

func TestZeroRadiusUsesCenterCell(t *testing.T) {
	g := NewIndex(64)
	g.Insert(1, mathx.V(10, 10), 0)
	g.Insert(2, mathx.V(10, 10), -4)
	assert.Equal(t, 1, g.Cells())
	assert.ElementsMatch(t, []ecs.EntityID{1, 2}, g.At(mathx.V(1, 1)))
}

func TestClearKeepsNothing(t *testing.T) {
	g := NewIndex(0)
	assert.Equal(t, DefaultCellSize, g.CellSize())

	g.Insert(1, mathx.V(0, 0), 100)
	g.Clear()
	assert.Equal(t, 0, g.Cells())
	assert.Empty(t, g.At(mathx.V(0, 0)))
	assert.Empty(t, g.QueryRadius(mathx.V(0, 0), 200))
}

func TestQueryRadiusDedupes(t *testing.T) {
	g := NewIndex(10)
	g.Insert(1, mathx.V(10, 10), 6)
	g.Insert(2, mathx.V(100, 100), 1)

	got := g.QueryRadius(mathx.V(10, 10), 8)
	assert.Equal(t, []ecs.EntityID{1}, got)
	assert.Nil(t, g.QueryRadius(mathx.V(0, 0), -1))
}

func TestFarCoordinatesStayBounded(t *testing.T) {
	g := NewIndex(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Insert(1, mathx.V(math.MaxInt32+0.5, 0), 0)
		g.Insert(2, mathx.V(math.MaxInt32+0.5, math.MaxInt32+0.5), 0.75)
		g.Insert(3, mathx.V(math.MaxInt64, -math.MaxFloat64), 2)
		g.Insert(4, mathx.V(math.Inf(1), math.NaN()), 1)
		_ = g.QueryRadius(mathx.V(math.MaxInt32, 0), 3)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("insert near the int32 boundary did not return")
	}

	assert.Contains(t, g.At(mathx.V(math.MaxInt32+0.5, 0)), ecs.EntityID(1))
	assert.LessOrEqual(t, g.Cells(), 16)
}

func TestHugeRadiusGoesOversized(t *testing.T) {
	g := NewIndex(10)
	g.Insert(1, mathx.V(0, 0), 1e9)
	g.Insert(2, mathx.V(5, 5), 1)

	assert.Equal(t, []ecs.EntityID{1}, g.Oversized())
	assert.Equal(t, 1, g.Cells())
	assert.ElementsMatch(t, []ecs.EntityID{1, 2}, g.QueryRadius(mathx.V(5, 5), 1))
	assert.ElementsMatch(t, []ecs.EntityID{1, 2}, g.QueryRadius(mathx.V(0, 0), 1e12))

	g.Clear()
	assert.Empty(t, g.Oversized())
}
