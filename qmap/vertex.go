// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"github.com/chewxy/math32"

	"qbsp/math/vec"
)

// PointEqualEpsilon is the distance below which two emitted vertices
// are identified.
const PointEqualEpsilon = 0.05

type hashVert struct {
	point vec.Vec3
	num   int
}

// VertexTable deduplicates emitted vertices with a spatial hash on
// integer floor coordinates. Each vertex is recorded under all 27
// neighbouring buckets so a query within PointEqualEpsilon finds it
// even across an integer boundary.
type VertexTable struct {
	verts []vec.Vec3
	hash  map[[3]int][]hashVert
}

func NewVertexTable() *VertexTable {
	return &VertexTable{
		hash: make(map[[3]int][]hashVert),
	}
}

func hashKey(p vec.Vec3) [3]int {
	return [3]int{
		int(math32.Floor(p.X)),
		int(math32.Floor(p.Y)),
		int(math32.Floor(p.Z)),
	}
}

// FindEmitted returns the id of an already emitted vertex within
// PointEqualEpsilon of p. Latest insertions are found first.
func (t *VertexTable) FindEmitted(p vec.Vec3) (int, bool) {
	for _, hv := range t.hash[hashKey(p)] {
		if vec.Distance(hv.point, p) <= PointEqualEpsilon {
			return hv.num, true
		}
	}
	return 0, false
}

// Emit returns the id for p, appending it if no emitted vertex is
// close enough.
func (t *VertexTable) Emit(p vec.Vec3) int {
	if num, ok := t.FindEmitted(p); ok {
		return num
	}
	num := len(t.verts)
	t.verts = append(t.verts, p)

	base := hashKey(p)
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				key := [3]int{base[0] + x, base[1] + y, base[2] + z}
				// most recent first
				t.hash[key] = append([]hashVert{{point: p, num: num}}, t.hash[key]...)
			}
		}
	}
	return num
}

func (t *VertexTable) Vert(i int) vec.Vec3 {
	return t.verts[i]
}

func (t *VertexTable) Len() int {
	return len(t.verts)
}
