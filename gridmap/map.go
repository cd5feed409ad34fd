// Package gridmap defines the occupancy-grid map surface the particle
// filter consumes: world<->cell transforms, bounds checking, and the
// free-cell predicate. It deliberately does not parse any map file
// format; building a Grid from a source file is the caller's job.
package gridmap

import "math"

// OccState is the per-cell occupancy state.
type OccState int8

const (
	Free    OccState = -1
	Unknown OccState = 0
	Occupied OccState = 1
)

// Cell is a single occupancy-grid cell.
type Cell struct {
	OccState OccState
}

// Map is the read-only surface the filter core consumes. A shared
// pointer to one Map may be read by multiple filter instances
// concurrently; nothing in the core mutates it.
type Map interface {
	SizeX() int
	SizeY() int
	Scale() float64
	OriginX() float64
	OriginY() float64

	// GridX/GridY convert a world coordinate to a grid index using a
	// half-cell bias plus the map's half-extent offset.
	GridX(worldX float64) int
	GridY(worldY float64) int

	// WorldX/WorldY convert a grid index back to a world coordinate.
	WorldX(i int) float64
	WorldY(j int) float64

	// Valid reports whether (i, j) is within grid bounds.
	Valid(i, j int) bool

	// WorldExtentX/WorldExtentY report the map's world-space width and
	// height (size * scale), used by the bounded uniform sampler.
	WorldExtentX() float64
	WorldExtentY() float64

	// CellAt returns the cell at (i, j). Callers must check Valid first.
	CellAt(i, j int) Cell

	// IsFree reports whether the world coordinate maps to a valid,
	// free (-1) cell.
	IsFree(worldX, worldY float64) bool
}

// Grid is a dense in-memory occupancy grid, the map representation the
// core's own tests and demo use. Real deployments back Map with whatever
// the upstream mapping subsystem produces; Grid exists only so this
// module is self-contained.
type Grid struct {
	sizeX, sizeY  int
	scale         float64
	originX       float64
	originY       float64
	cells         []Cell
}

// NewGrid allocates a sizeX x sizeY grid at the given world scale
// (meters per cell), centered so that the grid's own center is the
// origin (originX, originY) offset.
func NewGrid(sizeX, sizeY int, scale, originX, originY float64) *Grid {
	return &Grid{
		sizeX:   sizeX,
		sizeY:   sizeY,
		scale:   scale,
		originX: originX,
		originY: originY,
		cells:   make([]Cell, sizeX*sizeY),
	}
}

func (g *Grid) SizeX() int        { return g.sizeX }
func (g *Grid) SizeY() int        { return g.sizeY }
func (g *Grid) Scale() float64    { return g.scale }
func (g *Grid) OriginX() float64  { return g.originX }
func (g *Grid) OriginY() float64  { return g.originY }

// GridX mirrors MAP_GXWX: floor-toward-nearest with a half-cell bias,
// offset by half the grid's world extent. Uses math.Floor rather than a
// truncating conversion, since Go's int() truncates toward zero and
// would misround negative world coordinates.
func (g *Grid) GridX(worldX float64) int {
	return int(math.Floor((worldX-g.originX)/g.scale+0.5)) + g.sizeX/2
}

func (g *Grid) GridY(worldY float64) int {
	return int(math.Floor((worldY-g.originY)/g.scale+0.5)) + g.sizeY/2
}

func (g *Grid) WorldX(i int) float64 {
	return g.originX + (float64(i)-0.5*float64(g.sizeX))*g.scale
}

func (g *Grid) WorldY(j int) float64 {
	return g.originY + (float64(j)-0.5*float64(g.sizeY))*g.scale
}

func (g *Grid) Valid(i, j int) bool {
	return i >= 0 && i < g.sizeX && j >= 0 && j < g.sizeY
}

func (g *Grid) index(i, j int) int {
	return j*g.sizeX + i
}

func (g *Grid) CellAt(i, j int) Cell {
	return g.cells[g.index(i, j)]
}

// SetOccState sets the occupancy state of cell (i, j). Used by tests and
// the demo CLI to build up a map; not part of the Map interface, since
// the core never mutates a map.
func (g *Grid) SetOccState(i, j int, s OccState) {
	g.cells[g.index(i, j)] = Cell{OccState: s}
}

func (g *Grid) IsFree(worldX, worldY float64) bool {
	i, j := g.GridX(worldX), g.GridY(worldY)
	return g.Valid(i, j) && g.CellAt(i, j).OccState == Free
}

// WorldExtentX and WorldExtentY report the map's world-space width and
// height, used by the bounded uniform sampler.
func (g *Grid) WorldExtentX() float64 { return float64(g.sizeX) * g.scale }
func (g *Grid) WorldExtentY() float64 { return float64(g.sizeY) * g.scale }
