package main

import "math"

// SpatialCellSize is ~2x the largest enemy radius
const SpatialCellSize = 2.0

// Entity kinds stored in the grid
const (
	RefEnemy    byte = 'e'
	RefPlayer   byte = 'p'
	RefAsteroid byte = 'a'
)

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte
	Idx  int // index into the corresponding flat list
}

// SpatialGrid is a fixed-size grid over the square [-extent, extent]
// on the arena floor for broad-phase collision queries. Points outside
// are clamped to the border cells.
type SpatialGrid struct {
	extent float64
	cell   float64
	cols   int
	cells  [][]EntityRef
}

// NewSpatialGrid creates a grid covering [-extent, extent] on X and Z
func NewSpatialGrid(extent, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = SpatialCellSize
	}
	cols := int(math.Ceil(2*extent/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	return &SpatialGrid{
		extent: extent,
		cell:   cellSize,
		cols:   cols,
		cells:  make([][]EntityRef, cols*cols),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) coord(v float64) int {
	c := int((v + g.extent) / g.cell)
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, z float64, ref EntityRef) {
	idx := g.coord(z)*g.cols + g.coord(x)
	g.cells[idx] = append(g.cells[idx], ref)
}

// InsertCircle adds an entity reference to all cells overlapping its bounding box
func (g *SpatialGrid) InsertCircle(x, z, radius float64, ref EntityRef) {
	for cz := g.coord(z - radius); cz <= g.coord(z+radius); cz++ {
		for cx := g.coord(x - radius); cx <= g.coord(x+radius); cx++ {
			idx := cz*g.cols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// Query returns all entity refs in cells that overlap the given bounding box
func (g *SpatialGrid) Query(x, z, radius float64) []EntityRef {
	return g.QueryBuf(x, z, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice, avoiding per-call allocation
func (g *SpatialGrid) QueryBuf(x, z, radius float64, buf []EntityRef) []EntityRef {
	for cz := g.coord(z - radius); cz <= g.coord(z+radius); cz++ {
		for cx := g.coord(x - radius); cx <= g.coord(x+radius); cx++ {
			buf = append(buf, g.cells[cz*g.cols+cx]...)
		}
	}
	return buf
}
