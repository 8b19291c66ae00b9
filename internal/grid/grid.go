// Package grid builds the fixed lattice of world-space cells agents navigate
// on and answers the spatial questions the agents ask of it.
package grid

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dyluth/trove/pkg/geom"
)

// DefaultMarginFraction is the share of each stage dimension kept clear of
// cells for the walls.
const DefaultMarginFraction = 0.2

// Cell identifies one lattice position by row (X axis) and column (Z axis).
type Cell struct {
	Row int
	Col int
}

// World is an immutable rectangular lattice generated once per run.
type World struct {
	cells    [][]geom.Vec3
	rows     int
	cols     int
	cellSize float64
	origin   geom.Vec3
	halfW    float64
	halfD    float64
}

// Build lays out the lattice for a stage of the given width (X) and depth
// (Z). The usable area is the stage shrunk by marginFraction and the lattice
// is centred on origin.
func Build(stageWidth, stageDepth, cellSize, marginFraction float64, origin geom.Vec3) (*World, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	if stageWidth <= 0 || stageDepth <= 0 {
		return nil, fmt.Errorf("stage dimensions must be positive, got %vx%v", stageWidth, stageDepth)
	}
	if marginFraction < 0 || marginFraction >= 1 {
		return nil, fmt.Errorf("margin fraction must be in [0, 1), got %v", marginFraction)
	}

	usableW := stageWidth * (1 - marginFraction)
	usableD := stageDepth * (1 - marginFraction)

	rows := int(math.Floor(usableW / cellSize))
	cols := int(math.Floor(usableD / cellSize))
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("stage %vx%v too small for cell size %v", stageWidth, stageDepth, cellSize)
	}

	startX := origin.X - float64(rows)*cellSize/2 + cellSize/2
	startZ := origin.Z - float64(cols)*cellSize/2 + cellSize/2

	cells := make([][]geom.Vec3, rows)
	for i := 0; i < rows; i++ {
		cells[i] = make([]geom.Vec3, cols)
		for j := 0; j < cols; j++ {
			cells[i][j] = geom.Vec3{
				X: startX + float64(i)*cellSize,
				Y: origin.Y,
				Z: startZ + float64(j)*cellSize,
			}
		}
	}

	return &World{
		cells:    cells,
		rows:     rows,
		cols:     cols,
		cellSize: cellSize,
		origin:   origin,
		halfW:    usableW / 2,
		halfD:    usableD / 2,
	}, nil
}

func (w *World) Rows() int { return w.rows }
func (w *World) Cols() int { return w.cols }
func (w *World) CellSize() float64 { return w.cellSize }
func (w *World) Origin() geom.Vec3 { return w.origin }
func (w *World) Len() int { return w.rows * w.cols }

// At returns the world position of a cell. The cell must be in bounds.
func (w *World) At(c Cell) geom.Vec3 {
	return w.cells[c.Row][c.Col]
}

// InBounds reports whether c lies on the lattice.
func (w *World) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < w.rows && c.Col >= 0 && c.Col < w.cols
}

// NearestCell returns the cell closest to pos. Ties keep the first cell in
// row-major order.
func (w *World) NearestCell(pos geom.Vec3) Cell {
	best := Cell{Row: -1, Col: -1}
	minDist := math.Inf(1)
	for i := 0; i < w.rows; i++ {
		for j := 0; j < w.cols; j++ {
			d := pos.Dist(w.cells[i][j])
			if d < minDist {
				minDist = d
				best = Cell{Row: i, Col: j}
			}
		}
	}
	return best
}

// neighborOffsets is the scan order used for target selection: +row, +col,
// -row, -col. Agent behaviour is only reproducible while this stays fixed.
var neighborOffsets = [4]Cell{
	{Row: 1, Col: 0},
	{Row: 0, Col: 1},
	{Row: -1, Col: 0},
	{Row: 0, Col: -1},
}

// Neighbors returns the in-bounds 4-neighbours of c in priority order.
func (w *World) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(neighborOffsets))
	for _, off := range neighborOffsets {
		n := Cell{Row: c.Row + off.Row, Col: c.Col + off.Col}
		if w.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Positions returns every cell position in row-major order.
func (w *World) Positions() []geom.Vec3 {
	out := make([]geom.Vec3, 0, w.Len())
	for i := 0; i < w.rows; i++ {
		out = append(out, w.cells[i]...)
	}
	return out
}

// Corners returns the corners of the usable area: down-left, down-right,
// up-left, up-right.
func (w *World) Corners() [4]geom.Vec3 {
	o := w.origin
	return [4]geom.Vec3{
		{X: o.X - w.halfW, Y: o.Y, Z: o.Z - w.halfD},
		{X: o.X + w.halfW, Y: o.Y, Z: o.Z - w.halfD},
		{X: o.X - w.halfW, Y: o.Y, Z: o.Z + w.halfD},
		{X: o.X + w.halfW, Y: o.Y, Z: o.Z + w.halfD},
	}
}

// RandomCell samples a uniformly random cell whose position is not
// excluded. It gives up after maxTries samples and reports ok=false.
func (w *World) RandomCell(rng *rand.Rand, exclude func(geom.Vec3) bool, maxTries int) (geom.Vec3, bool) {
	for try := 0; try < maxTries; try++ {
		c := w.cells[rng.Intn(w.rows)][rng.Intn(w.cols)]
		if exclude == nil || !exclude(c) {
			return c, true
		}
	}
	return geom.Zero, false
}

// RandomFree picks a uniformly random cell not present in occupied. When
// the lattice is full it returns ok=false so the caller can skip the spawn.
func (w *World) RandomFree(rng *rand.Rand, occupied map[geom.Vec3]bool) (geom.Vec3, bool) {
	free := make([]geom.Vec3, 0, w.Len())
	for i := 0; i < w.rows; i++ {
		for j := 0; j < w.cols; j++ {
			if !occupied[w.cells[i][j]] {
				free = append(free, w.cells[i][j])
			}
		}
	}
	if len(free) == 0 {
		return geom.Zero, false
	}
	return free[rng.Intn(len(free))], true
}
