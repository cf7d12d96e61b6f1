package physics

import (
	"math"

	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

// DefaultCellSize is roughly twice the radius of the largest common body.
const DefaultCellSize = 64.0

// MaxCellSpan caps the cells a body may cover per axis. Bodies spanning
// more are kept in a separate oversized list and tested against everyone.
const MaxCellSpan = 16

// cellLimit bounds cell coordinates so that cell arithmetic never overflows
// and far-away or non-finite positions collapse onto the outermost cells.
const cellLimit = 1 << 52

type cellKey struct {
	cx int64
	cy int64
}

// Index is a uniform grid rebuilt every physics step. Bodies are inserted
// into every cell their bounding circle overlaps, so a pair straddling a
// cell boundary still shares at least one cell.
// Accessed only from the loop goroutine, no locks.
type Index struct {
	cellSize  float64
	cells     map[cellKey][]ecs.EntityID
	occupied  []cellKey // insertion order, for deterministic iteration
	oversized []ecs.EntityID
}

func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 || math.IsInf(cellSize, 0) || math.IsNaN(cellSize) {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: cellSize,
		cells:    make(map[cellKey][]ecs.EntityID, 256),
		occupied: make([]cellKey, 0, 256),
	}
}

func (g *Index) CellSize() float64 { return g.cellSize }

func (g *Index) toCell(v float64) int64 {
	c := math.Floor(v / g.cellSize)
	switch {
	case math.IsNaN(c):
		return 0
	case c > cellLimit:
		return cellLimit
	case c < -cellLimit:
		return -cellLimit
	}
	return int64(c)
}

// CellOf returns the cell coordinates containing p.
func (g *Index) CellOf(p mathx.Vec2) (int64, int64) {
	return g.toCell(p.X), g.toCell(p.Y)
}

// Clear empties all cells, keeping their backing arrays.
func (g *Index) Clear() {
	// Drop the map when stale empty cells dominate, e.g. after a swarm moved away.
	if len(g.cells) > 1024 && len(g.cells) > 4*len(g.occupied) {
		g.cells = make(map[cellKey][]ecs.EntityID, len(g.occupied)*2)
	} else {
		for _, k := range g.occupied {
			g.cells[k] = g.cells[k][:0]
		}
	}
	g.occupied = g.occupied[:0]
	g.oversized = g.oversized[:0]
}

// Insert adds id to every cell overlapped by the circle at pos.
// A non-positive radius inserts into the center cell only; a circle wider
// than MaxCellSpan cells goes to the oversized list instead.
func (g *Index) Insert(id ecs.EntityID, pos mathx.Vec2, radius float64) {
	if radius < 0 || math.IsNaN(radius) {
		radius = 0
	}
	minCX, maxCX := g.toCell(pos.X-radius), g.toCell(pos.X+radius)
	minCY, maxCY := g.toCell(pos.Y-radius), g.toCell(pos.Y+radius)
	if maxCX-minCX >= MaxCellSpan || maxCY-minCY >= MaxCellSpan {
		g.oversized = append(g.oversized, id)
		return
	}
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			g.add(cellKey{cx: cx, cy: cy}, id)
		}
	}
}

func (g *Index) add(k cellKey, id ecs.EntityID) {
	cell := g.cells[k]
	if len(cell) == 0 {
		g.occupied = append(g.occupied, k)
	}
	g.cells[k] = append(cell, id)
}

// Cells returns the number of occupied cells.
func (g *Index) Cells() int { return len(g.occupied) }

// EachCell visits every occupied cell's member list.
// INTERNAL USE ONLY - the slice is reused by the next rebuild.
func (g *Index) EachCell(fn func(members []ecs.EntityID)) {
	for _, k := range g.occupied {
		fn(g.cells[k])
	}
}

// Oversized returns the bodies too large for cell insertion.
// INTERNAL USE ONLY - the slice is reused by the next rebuild.
func (g *Index) Oversized() []ecs.EntityID { return g.oversized }

// At returns the members of the cell containing p.
func (g *Index) At(p mathx.Vec2) []ecs.EntityID {
	cx, cy := g.CellOf(p)
	return g.cells[cellKey{cx: cx, cy: cy}]
}

// QueryRadius returns the unique members of all cells overlapped by the
// circle plus every oversized body. Caller does fine-grained distance
// filtering. A query wider than MaxCellSpan cells scans the occupied cells
// instead of the covered ones.
func (g *Index) QueryRadius(p mathx.Vec2, radius float64) []ecs.EntityID {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}
	seen := make(map[ecs.EntityID]struct{})
	var out []ecs.EntityID
	collect := func(ids []ecs.EntityID) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	minCX, maxCX := g.toCell(p.X-radius), g.toCell(p.X+radius)
	minCY, maxCY := g.toCell(p.Y-radius), g.toCell(p.Y+radius)
	if maxCX-minCX >= MaxCellSpan || maxCY-minCY >= MaxCellSpan {
		for _, k := range g.occupied {
			if k.cx >= minCX && k.cx <= maxCX && k.cy >= minCY && k.cy <= maxCY {
				collect(g.cells[k])
			}
		}
	} else {
		for cy := minCY; cy <= maxCY; cy++ {
			for cx := minCX; cx <= maxCX; cx++ {
				collect(g.cells[cellKey{cx: cx, cy: cy}])
			}
		}
	}
	collect(g.oversized)
	return out
}
