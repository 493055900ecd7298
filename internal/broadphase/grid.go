// Package broadphase keeps a spatial hash of body bounds and answers
// conservative sweep-corridor queries against it.
package broadphase

import (
	"github.com/chewxy/math32"

	"shapecast/internal/geometry"
)

// DefaultCellSize is the edge of a grid cell in world units.
const DefaultCellSize = 5.0

// maxCellsPerBody is the span above which a body is kept in the oversized
// list instead of being stamped into every cell it covers.
const maxCellsPerBody = 64

// CellKey addresses one grid cell.
type CellKey struct {
	X, Y, Z int
}

type cellRange struct {
	lo, hi CellKey
}

// maxCellCoord bounds cell coordinates so keys and spans stay far from int
// overflow. Bounds reaching past it are never stamped into the grid.
const maxCellCoord = 1 << 28

func posToCell(x, y, z, cellSize float32) (CellKey, bool) {
	var k CellKey
	for i, v := range [3]float32{x, y, z} {
		c := math32.Floor(v / cellSize)
		if !(c >= -maxCellCoord && c <= maxCellCoord) {
			return CellKey{}, false
		}
		switch i {
		case 0:
			k.X = int(c)
		case 1:
			k.Y = int(c)
		default:
			k.Z = int(c)
		}
	}
	return k, true
}

// cellsOf is the range of cells b covers. ok is false when b reaches past
// the addressable grid.
func cellsOf(b geometry.AABB, cellSize float32) (cellRange, bool) {
	lo, okLo := posToCell(b.Min.X, b.Min.Y, b.Min.Z, cellSize)
	hi, okHi := posToCell(b.Max.X, b.Max.Y, b.Max.Z, cellSize)
	return cellRange{lo: lo, hi: hi}, okLo && okHi
}

// count is the number of cells in the range, saturating well above any
// useful limit so huge ranges cannot overflow.
func (r cellRange) count() int {
	n := 1
	for _, span := range [3]int{r.hi.X - r.lo.X + 1, r.hi.Y - r.lo.Y + 1, r.hi.Z - r.lo.Z + 1} {
		if span <= 0 {
			return 0
		}
		if n > 1<<30/span {
			return 1 << 30
		}
		n *= span
	}
	return n
}

// walk visits every cell of the range, stepping each axis in the sign of
// dir so cells near the start of a sweep come first.
func (r cellRange) walk(dir [3]float32, visit func(CellKey) bool) {
	xs, xe, xd := axisOrder(r.lo.X, r.hi.X, dir[0])
	ys, ye, yd := axisOrder(r.lo.Y, r.hi.Y, dir[1])
	zs, ze, zd := axisOrder(r.lo.Z, r.hi.Z, dir[2])
	for x := xs; x != xe; x += xd {
		for y := ys; y != ye; y += yd {
			for z := zs; z != ze; z += zd {
				if !visit(CellKey{x, y, z}) {
					return
				}
			}
		}
	}
}

func axisOrder(lo, hi int, d float32) (start, end, step int) {
	if d < 0 {
		return hi, lo - 1, -1
	}
	return lo, hi + 1, 1
}
