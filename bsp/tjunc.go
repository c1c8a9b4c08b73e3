// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"

	"qbsp/conlog"
	"qbsp/geom"
	"qbsp/math/vec"
	"qbsp/qmap"
	"qbsp/settings"
)

type tjuncStats struct {
	degenerate     atomic.Int64
	tjunctions     atomic.Int64
	faceOverflows  atomic.Int64
	faceCollapse   atomic.Int64
	rotates        atomic.Int64
	noRotates      atomic.Int64
	retopology     atomic.Int64
	faceRetopology atomic.Int64
	mwt            atomic.Int64
	triMWT         atomic.Int64
	faceMWT        atomic.Int64
}

const triangleAngleEpsilon = 0.01 // degrees

// pointOnEdge projects p onto the edge and reports the projected
// distance if p lies on the open interval (start, end) and within
// DefaultOnEpsilon of the line.
func pointOnEdge(p, edgeStart, edgeDir vec.Vec3, start, end float32) (float32, bool) {
	delta := vec.Sub(p, edgeStart)
	dist := vec.Dot(delta, edgeDir)

	// off an end
	if dist <= start || dist >= end {
		return 0, false
	}

	exact := vec.Add(edgeStart, edgeDir.Scale(dist))
	off := vec.Sub(p, exact)
	if math32.Abs(off.Length()) > DefaultOnEpsilon {
		return 0, false
	}
	return dist, true
}

// testEdge splits the edge p1-p2 at every table vertex lying on it and
// appends the start points of the resulting tjunction free pieces to
// the superface. Reenters itself for both halves of a split.
func (w *tjuncWorker) testEdge(start, end float32, p1, p2, startVert int,
	edgeVerts []int, edgeStart, edgeDir vec.Vec3, superface *[]int) {
	if p1 == p2 {
		w.stats.degenerate.Add(1)
		return
	}

	for k := startVert; k < len(edgeVerts); k++ {
		j := edgeVerts[k]
		if j == p1 || j == p2 {
			continue
		}

		dist, on := pointOnEdge(w.d.Verts.Vert(j), edgeStart, edgeDir, start, end)
		if !on {
			continue
		}

		// break the edge
		w.stats.tjunctions.Add(1)

		w.testEdge(start, dist, p1, j, k+1, edgeVerts, edgeStart, edgeDir, superface)
		w.testEdge(dist, end, j, p2, k+1, edgeVerts, edgeStart, edgeDir, superface)
		return
	}

	// the edge p1 to p2 is now free of tjunctions
	*superface = append(*superface, p1)
}

func findEdgeVertsR(d *qmap.Data, node *Node, aabb geom.Bounds, verts *[]int) {
	if node.IsLeaf() {
		return
	}
	if node.Bounds.Disjoint(aabb) {
		return
	}

	for _, f := range node.Faces {
		for _, v := range f.OriginalVertices {
			if aabb.ContainsPoint(d.Verts.Vert(v)) {
				*verts = append(*verts, v)
			}
		}
	}

	findEdgeVertsR(d, node.Children[0], aabb, verts)
	findEdgeVertsR(d, node.Children[1], aabb, verts)
}

// findEdgeVerts collects every emitted vertex inside a loose box
// around the edge p1-p2.
func findEdgeVerts(d *qmap.Data, headnode *Node, p1, p2 vec.Vec3, verts *[]int) {
	aabb := geom.EmptyBounds()
	aabb.AddPoint(p1)
	aabb.AddPoint(p2)
	findEdgeVertsR(d, headnode, aabb.Grow(1), verts)
}

// createSuperFace rebuilds the face vertex loop with every world
// vertex that lies on one of its edges inserted in order.
func (w *tjuncWorker) createSuperFace(f *Face) []int {
	superface := make([]int, 0, len(f.OriginalVertices)*2)

	var edgeVerts []int
	n := len(f.OriginalVertices)
	for i := 0; i < n; i++ {
		v1 := f.OriginalVertices[i]
		v2 := f.OriginalVertices[(i+1)%n]

		edgeStart := w.d.Verts.Vert(v1)
		e2 := w.d.Verts.Vert(v2)

		edgeVerts = edgeVerts[:0]
		findEdgeVerts(w.d, w.headnode, edgeStart, e2, &edgeVerts)

		delta := vec.Sub(e2, edgeStart)
		edgeDir, length := delta.NormalizeLength()
		w.testEdge(0, length, v1, v2, 0, edgeVerts, edgeStart, edgeDir, &superface)
	}

	return superface
}

func angleOfTriangle(a, b, c vec.Vec3) float64 {
	ax, ay, az := float64(a.X), float64(a.Y), float64(a.Z)
	bx, by, bz := float64(b.X), float64(b.Y), float64(b.Z)
	cx, cy, cz := float64(c.X), float64(c.Y), float64(c.Z)

	num := (bx-ax)*(cx-ax) + (by-ay)*(cy-ay) + (bz-az)*(cz-az)
	den := math.Sqrt((bx-ax)*(bx-ax)+(by-ay)*(by-ay)+(bz-az)*(bz-az)) *
		math.Sqrt((cx-ax)*(cx-ax)+(cy-ay)*(cy-ay)+(cz-az)*(cz-az))

	return math.Acos(num/den) * (180.0 / math.Pi)
}

// triangleIsValid reports whether the triangle has no angle sharper
// than angleEpsilon degrees, i.e. it has a usable area.
func triangleIsValid(d *qmap.Data, v0, v1, v2 int, angleEpsilon float64) bool {
	p0 := d.Verts.Vert(v0)
	p1 := d.Verts.Vert(v1)
	p2 := d.Verts.Vert(v2)
	return angleOfTriangle(p0, p1, p2) >= angleEpsilon &&
		angleOfTriangle(p1, p2, p0) >= angleEpsilon &&
		angleOfTriangle(p2, p0, p1) >= angleEpsilon
}

// splitFaceIntoFragments cuts a loop with too many edges into pieces
// of at most maxedges vertices. Adjacent pieces share their seam edge.
func splitFaceIntoFragments(face []int, maxedges int, stats *tjuncStats) [][]int {
	var out [][]int
	for len(face) > maxedges {
		stats.faceOverflows.Add(1)

		newf := make([]int, maxedges)
		copy(newf, face[:maxedges])
		out = append(out, newf)

		// keep the first vertex and the closing edge we just wrote
		face = append(face[:1], face[maxedges-1:]...)
	}
	return append(out, face)
}

type triIndices [3]int

// triangleExists looks for the triangle a b c in any rotation and
// returns its index.
func triangleExists(triangles []triIndices, a, b, c int) (int, bool) {
	for i, tri := range triangles {
		for s := 0; s < 3; s++ {
			if tri[s] == a && tri[(s+1)%3] == b && tri[(s+2)%3] == c {
				return i, true
			}
		}
	}
	return 0, false
}

// findBestFan returns the indices of the largest run of triangles that
// can be wound into a single fan.
func findBestFan(triangles []triIndices, numVertices int) []int {
	var best []int

	for _, tri := range triangles {
		for perm := 0; perm < 3; perm++ {
			first := tri[perm]
			mid := tri[(perm+1)%3]
			last := tri[(perm+2)%3]

			var myTri []int
			for ; last != first; last = (last + 1) % numVertices {
				ftri, ok := triangleExists(triangles, first, mid, last)
				if !ok {
					continue
				}
				myTri = append(myTri, ftri)
				mid = last
			}

			if len(best) == 0 || len(myTri) > len(best) {
				best = myTri
			}
		}
	}

	return best
}

// findSeedVertex returns the vertex shared by every triangle of the
// fan, the fan center.
func findSeedVertex(triangles []triIndices, fan []int) int {
	verts := map[int]bool{}
	for _, v := range triangles[fan[0]] {
		verts[v] = true
	}

	for _, fi := range fan[1:] {
		tri := triangles[fi]
		for v := range verts {
			if v != tri[0] && v != tri[1] && v != tri[2] {
				delete(verts, v)
			}
		}
		if len(verts) == 1 {
			break
		}
	}

	for v := range verts {
		return v
	}
	return -1
}

// compressTrianglesIntoFans packs the triangle soup into as few fans
// as possible. The returned loops reference the global vertex table.
func compressTrianglesIntoFans(triangles []triIndices, vertices []int) [][]int {
	var compiled [][]int

	for len(triangles) > 0 {
		fan := findBestFan(triangles, len(vertices))

		// with only single triangle fans left, add the rest directly
		if len(fan) <= 1 {
			for _, tri := range triangles {
				compiled = append(compiled,
					[]int{vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]})
			}
			break
		}

		seed := findSeedVertex(triangles, fan)

		// order the fan verts to match the original winding, starting
		// from the seed
		seen := map[int]bool{}
		var verts []int
		for _, fi := range fan {
			for _, v := range triangles[fi] {
				if !seen[v] {
					seen[v] = true
					verts = append(verts, v)
				}
			}
		}
		n := len(vertices)
		key := func(v int) int {
			if v < seed {
				return n + v
			}
			return v
		}
		sort.Slice(verts, func(a, b int) bool {
			return key(verts[a]) < key(verts[b])
		})

		out := make([]int, len(verts))
		for i, v := range verts {
			out[i] = vertices[v]
		}
		compiled = append(compiled, out)

		// remove the packed triangles, back to front
		sort.Sort(sort.Reverse(sort.IntSlice(fan)))
		for _, fi := range fan {
			triangles = append(triangles[:fi], triangles[fi+1:]...)
		}
	}

	return compiled
}

// minimumWeightTriangulation computes the perimeter minimal
// triangulation of the convex loop. Triangles below the angle floor
// carry a near infinite weight so they are only chosen when no valid
// triangulation exists.
func minimumWeightTriangulation(d *qmap.Data, indices []int, vertices [][2]float64) []triIndices {
	n := len(vertices)

	t := make([]float64, n*n)
	k := make([]int, n*n)
	for i := range k {
		k[i] = -1
	}

	dist2d := func(a, b [2]float64) float64 {
		dx := a[0] - b[0]
		dy := a[1] - b[1]
		return math.Sqrt(dx*dx + dy*dy)
	}

	for diagonal := 0; diagonal < n; diagonal++ {
		for i, j := 0, diagonal; j < n; i, j = i+1, j+1 {
			if j < i+2 {
				continue
			}

			t[i+j*n] = math.MaxFloat64

			for m := i + 1; m <= j-1; m++ {
				var weight float64
				if !triangleIsValid(d, indices[i], indices[j], indices[m], triangleAngleEpsilon) {
					weight = math.Nextafter(math.MaxFloat64, 0)
				} else {
					weight = dist2d(vertices[i], vertices[j]) +
						dist2d(vertices[j], vertices[m]) +
						dist2d(vertices[m], vertices[i]) +
						t[i+m*n] + t[m+j*n]
				}
				if weight < t[i+j*n] {
					t[i+j*n] = weight
					k[i+j*n] = m
				}
			}
		}
	}

	var triangles []triIndices
	queue := [][2]int{{0, n - 1}}
	for len(queue) > 0 {
		edge := queue[0]
		queue = queue[1:]

		if edge[0] == edge[1] {
			continue
		}
		c := k[edge[0]+edge[1]*n]
		if c == -1 {
			continue
		}

		tri := triIndices{edge[0], edge[1], c}
		sort.Ints(tri[:])
		triangles = append(triangles, tri)

		queue = append(queue, [2]int{edge[0], c}, [2]int{c, edge[1]})
	}

	return triangles
}

func tangentAndBitangent(n vec.Vec3) (vec.Vec3, vec.Vec3) {
	axis := vec.Vec3{X: 1}
	if math32.Abs(n.X) >= math32.Abs(n.Y) && math32.Abs(n.X) >= math32.Abs(n.Z) {
		axis = vec.Vec3{Y: 1}
	}
	cu := vec.Cross(n, axis)
	u := cu.Normalize()
	cv := vec.Cross(n, u)
	v := cv.Normalize()
	return u, v
}

// mwtFace triangulates the face loop in its plane and packs the
// triangles back into fans.
func (w *tjuncWorker) mwtFace(f *Face, vertices []int) [][]int {
	plane := w.d.Planes.Get(f.PlaneNum)
	normal := plane.Normal
	if f.PlaneSide {
		normal = normal.Scale(-1)
	}
	u, v := tangentAndBitangent(normal)

	points2d := make([][2]float64, len(vertices))
	for i, vi := range vertices {
		p := w.d.Verts.Vert(vi)
		points2d[i] = [2]float64{float64(vec.Dot(p, u)), float64(vec.Dot(p, v))}
	}

	tris := minimumWeightTriangulation(w.d, vertices, points2d)
	w.stats.triMWT.Add(int64(len(tris)))

	return compressTrianglesIntoFans(tris, vertices)
}

// retopologizeFace splits a loop that cannot be fanned from any single
// start vertex into several valid fans. Returns nil on failure.
func (w *tjuncWorker) retopologizeFace(vertices []int) [][]int {
	var result [][]int
	input := append([]int(nil), vertices...)

	mod := func(i, n int) int {
		return ((i % n) + n) % n
	}

	// reports whether the vertex after end lies on the closing edge
	// end -> seed, which would make the next triangle invalid
	nextPointOnEdge := func(seed, end int) bool {
		n := len(input)
		v0 := w.d.Verts.Vert(input[seed])
		v2 := w.d.Verts.Vert(input[end])
		delta := vec.Sub(v0, v2)
		dir, length := delta.NormalizeLength()
		next := w.d.Verts.Vert(input[mod(end+1, n)])
		_, on := pointOnEdge(next, v2, dir, 0, length)
		return on
	}

	for len(input) > 0 {
		if len(input) < 3 {
			// degenerated a triangle somewhere
			return nil
		}
		n := len(input)

		// find a seed triangle, allowing a wrap around since the last
		// two triangles may be the only valid ones
		seed := 0
		end := 0
		for ; seed < n; seed++ {
			v0 := input[seed]
			v1 := input[(seed+1)%n]
			end = (seed + 2) % n
			v2 := input[end]

			if !triangleIsValid(w.d, v0, v1, v2, triangleAngleEpsilon) {
				continue
			}
			if nextPointOnEdge(seed, end) {
				continue
			}
			break
		}
		if seed == n {
			// no non zero area triangle anywhere
			return nil
		}

		// wind from the seed until a point on the closing edge would
		// degenerate the next triangle
		wrap := end
		for end = (end + 1) % n; end != wrap; end = (end + 1) % n {
			if nextPointOnEdge(seed, end) {
				end = mod(end-1, n)
				break
			}
		}

		var tri []int

		if seed == end {
			// the whole loop is one fan
			result = append(result, input)
			break
		} else if end == wrap {
			// wrapped around fully; rotate so the seed leads
			tri = make([]int, 0, n)
			tri = append(tri, input[seed:]...)
			tri = append(tri, input[:seed]...)
			result = append(result, tri)
			break
		}

		if end < seed {
			// the end point is behind the seed, clip off both sides
			for x, first := seed, true; x != end || first; x = (x + 1) % n {
				tri = append(tri, input[x])
				first = false
			}
			tri = append(tri, input[end])
		} else {
			tri = append(tri, input[seed:end+1]...)
		}
		result = append(result, tri)

		// cut the emitted fan interior out of the input, keeping the
		// edge seed-end for the next round
		if end < seed {
			copy(input, input[end:seed+1])
			input = input[:seed+1-end]
		} else {
			input = append(input[:seed+1], input[end:]...)
		}
	}

	return result
}

// fixFaceEdges welds the face to the vertices of its neighbours and
// retopologizes the result into fragments free of zero area triangles.
func (w *tjuncWorker) fixFaceEdges(f *Face) {
	if w.opts.TJunc == settings.TJuncNone {
		f.Fragments = []Fragment{{OutputVertices: f.OriginalVertices}}
		return
	}

	superface := w.createSuperFace(f)

	if len(superface) < 3 {
		// entire face collapsed
		w.stats.faceCollapse.Add(1)
		return
	} else if len(superface) == 3 {
		f.Fragments = []Fragment{{OutputVertices: f.OriginalVertices}}
		return
	}

	var faces [][]int

	// MWT generates the optimal result when asked for
	if w.opts.TJunc >= settings.TJuncMWT {
		faces = w.mwtFace(f, superface)
		if len(faces) > 0 {
			w.stats.mwt.Add(1)
			w.stats.faceMWT.Add(int64(len(faces) - 1))
		}
	}

	// brute force rotating the start point until no triangle of the
	// fan degenerates
	if len(faces) == 0 && w.opts.TJunc >= settings.TJuncRotate {
		n := len(superface)
		i := 0
		for ; i < n; i++ {
			x := 0
			for ; x < n-2; x++ {
				v0 := superface[i]
				v1 := superface[(i+x+1)%n]
				v2 := superface[(i+x+2)%n]
				if !triangleIsValid(w.d, v0, v1, v2, triangleAngleEpsilon) {
					break
				}
			}
			if x == n-2 {
				break
			}
		}

		if i == n {
			// rotation cannot fix it, try re-topology
			if w.opts.TJunc >= settings.TJuncRetopologize {
				if retopo := w.retopologizeFace(superface); len(retopo) > 1 {
					w.stats.retopology.Add(1)
					w.stats.faceRetopology.Add(int64(len(retopo) - 1))
					faces = retopo
				}
			}
			if len(faces) == 0 {
				// keep the superface, zero area triangles and all
				w.stats.noRotates.Add(1)
			}
		} else if i != 0 {
			w.stats.rotates.Add(1)
			rotated := make([]int, 0, n)
			rotated = append(rotated, superface[i:]...)
			rotated = append(rotated, superface[:i]...)
			faces = append(faces, rotated)
		}
	}

	if len(faces) == 0 {
		faces = append(faces, superface)
	}

	if w.opts.MaxEdges > 0 {
		var limited [][]int
		for _, face := range faces {
			limited = append(limited, splitFaceIntoFragments(face, w.opts.MaxEdges, w.stats)...)
		}
		faces = limited
	}

	f.Fragments = make([]Fragment, 0, len(faces))
	for _, face := range faces {
		f.Fragments = append(f.Fragments, Fragment{OutputVertices: face})
	}
}

func findFixableFacesR(node *Node, faces *[]*Face) {
	if node.IsLeaf() {
		return
	}
	for _, f := range node.Faces {
		// omitted faces have no emitted vertices
		if len(f.OriginalVertices) > 0 {
			*faces = append(*faces, f)
		}
	}
	findFixableFacesR(node.Children[0], faces)
	findFixableFacesR(node.Children[1], faces)
}

type tjuncWorker struct {
	d        *qmap.Data
	headnode *Node
	opts     *settings.Options
	stats    *tjuncStats
}

// TJuncStats is the counter snapshot of one T-junction pass.
type TJuncStats struct {
	Degenerate     int64
	TJunctions     int64
	FaceOverflows  int64
	FaceCollapse   int64
	Rotates        int64
	NoRotates      int64
	Retopology     int64
	FaceRetopology int64
	MWT            int64
	TriMWT         int64
	FaceMWT        int64
}

// TJunc repairs T-junctions on every face of the tree and produces the
// final face fragments.
func TJunc(d *qmap.Data, tree *Tree, opts *settings.Options) TJuncStats {
	var stats tjuncStats
	var faces []*Face
	findFixableFacesR(tree.HeadNode, &faces)

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(faces) {
		threads = len(faces)
	}
	if threads < 1 {
		threads = 1
	}

	work := make(chan *Face)
	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &tjuncWorker{d: d, headnode: tree.HeadNode, opts: opts, stats: &stats}
			for f := range work {
				w.fixFaceEdges(f)
			}
		}()
	}
	for _, f := range faces {
		work <- f
	}
	close(work)
	wg.Wait()

	if n := stats.degenerate.Load(); n > 0 {
		conlog.Statf("%5d edges degenerated", n)
	}
	if n := stats.faceCollapse.Load(); n > 0 {
		conlog.Statf("%5d faces degenerated", n)
	}
	if n := stats.tjunctions.Load(); n > 0 {
		conlog.Statf("%5d edges added by tjunctions", n)
	}
	if n := stats.mwt.Load(); n > 0 {
		conlog.Statf("%5d faces ran through MWT", n)
		conlog.Statf("%5d new faces added via MWT (from %d triangles)",
			stats.faceMWT.Load(), stats.triMWT.Load())
	}
	if n := stats.retopology.Load(); n > 0 {
		conlog.Statf("%5d faces re-topologized", n)
		conlog.Statf("%5d new faces added by re-topology", stats.faceRetopology.Load())
	}
	if n := stats.rotates.Load(); n > 0 {
		conlog.Statf("%5d faces rotated", n)
	}
	if n := stats.noRotates.Load(); n > 0 {
		conlog.Statf("%5d faces unable to be rotated or re-topologized", n)
	}
	if n := stats.faceOverflows.Load(); n > 0 {
		conlog.Statf("%5d faces added by splitting large faces", n)
	}

	return TJuncStats{
		Degenerate:     stats.degenerate.Load(),
		TJunctions:     stats.tjunctions.Load(),
		FaceOverflows:  stats.faceOverflows.Load(),
		FaceCollapse:   stats.faceCollapse.Load(),
		Rotates:        stats.rotates.Load(),
		NoRotates:      stats.noRotates.Load(),
		Retopology:     stats.retopology.Load(),
		FaceRetopology: stats.faceRetopology.Load(),
		MWT:            stats.mwt.Load(),
		TriMWT:         stats.triMWT.Load(),
		FaceMWT:        stats.faceMWT.Load(),
	}
}
