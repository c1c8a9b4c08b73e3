// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"testing"

	"qbsp/geom"
	"qbsp/math/vec"
	"qbsp/qmap"
	"qbsp/settings"
)

// tjuncScene sets up a minimal tree: one interior node on z=0 holding
// the faces, two empty leaf children.
func tjuncScene() (*qmap.Data, *Tree) {
	d := qmap.NewData(&qmap.Quake2Game{})
	d.Planes.Add(geom.Plane{Normal: vec.Vec3{Z: 1}, Dist: 0})

	big := geom.EmptyBounds()
	big.AddPoint(vec.Vec3{X: -1024, Y: -1024, Z: -1024})
	big.AddPoint(vec.Vec3{X: 1024, Y: 1024, Z: 1024})

	head := &Node{PlaneNum: 0, Bounds: big}
	for i := range head.Children {
		head.Children[i] = &Node{PlaneNum: PlanenumLeaf, Bounds: big, Parent: head}
	}
	return d, &Tree{HeadNode: head, Bounds: big}
}

func addSceneFace(d *qmap.Data, tree *Tree, pts ...vec.Vec3) *Face {
	f := &Face{PlaneNum: 0, W: geom.Winding(pts)}
	for _, p := range pts {
		f.OriginalVertices = append(f.OriginalVertices, d.Verts.Emit(p))
	}
	tree.HeadNode.Faces = append(tree.HeadNode.Faces, f)
	return f
}

func tjuncOpts(level settings.TJuncLevel) *settings.Options {
	opts := settings.Default()
	opts.TJunc = level
	opts.Threads = 1
	return &opts
}

func TestPointOnEdge(t *testing.T) {
	start := vec.Vec3{}
	dir := vec.Vec3{X: 1}

	if dist, ok := pointOnEdge(vec.Vec3{X: 4}, start, dir, 0, 8); !ok || dist != 4 {
		t.Errorf("midpoint = %v %v, want 4 true", dist, ok)
	}
	if _, ok := pointOnEdge(vec.Vec3{X: 8}, start, dir, 0, 8); ok {
		t.Error("endpoint reported on the open interval")
	}
	if _, ok := pointOnEdge(vec.Vec3{X: -1}, start, dir, 0, 8); ok {
		t.Error("point before the edge reported on it")
	}
	if _, ok := pointOnEdge(vec.Vec3{X: 4, Y: 1}, start, dir, 0, 8); ok {
		t.Error("point a unit off the line reported on it")
	}
	if dist, ok := pointOnEdge(vec.Vec3{X: 4, Y: 0.25}, start, dir, 0, 8); !ok || dist != 4 {
		t.Errorf("near point = %v %v, want 4 true", dist, ok)
	}
}

func TestTJuncSeedRotate(t *testing.T) {
	d, tree := tjuncScene()

	// big quad with a neighbour whose corner splits its bottom edge
	big := addSceneFace(d, tree,
		vec.Vec3{X: 0, Y: 0}, vec.Vec3{X: 0, Y: 8},
		vec.Vec3{X: 8, Y: 8}, vec.Vec3{X: 8, Y: 0})
	small := addSceneFace(d, tree,
		vec.Vec3{X: 4, Y: 0}, vec.Vec3{X: 8, Y: 0},
		vec.Vec3{X: 8, Y: -8}, vec.Vec3{X: 4, Y: -8})

	stats := TJunc(d, tree, tjuncOpts(settings.TJuncRotate))

	if stats.TJunctions != 1 {
		t.Errorf("tjunctions = %d, want 1", stats.TJunctions)
	}
	if stats.Rotates != 1 {
		t.Errorf("rotates = %d, want 1", stats.Rotates)
	}
	if len(big.Fragments) != 1 {
		t.Fatalf("big face fragments = %d, want 1", len(big.Fragments))
	}
	if got := len(big.Fragments[0].OutputVertices); got != 5 {
		t.Errorf("big fragment has %d vertices, want 5", got)
	}
	if len(small.Fragments) != 1 || len(small.Fragments[0].OutputVertices) != 4 {
		t.Errorf("small face fragments = %v, want one quad", small.Fragments)
	}

	// the rotated loop must not start a fan with the colinear run
	frag := big.Fragments[0].OutputVertices
	for x := 0; x < len(frag)-2; x++ {
		if !triangleIsValid(d, frag[0], frag[x+1], frag[x+2], triangleAngleEpsilon) {
			t.Errorf("fragment fan triangle %d is degenerate", x)
		}
	}
}

// squareLoop is a square with two extra vertices on each side; no
// start vertex gives a fan free of zero area triangles.
func squareLoop() []vec.Vec3 {
	return []vec.Vec3{
		{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 16, Y: 0}, {X: 24, Y: 0},
		{X: 24, Y: 8}, {X: 24, Y: 16}, {X: 24, Y: 24},
		{X: 16, Y: 24}, {X: 8, Y: 24}, {X: 0, Y: 24},
		{X: 0, Y: 16}, {X: 0, Y: 8},
	}
}

func TestTJuncRotateFailure(t *testing.T) {
	d, tree := tjuncScene()
	f := addSceneFace(d, tree, squareLoop()...)

	stats := TJunc(d, tree, tjuncOpts(settings.TJuncRotate))

	if stats.NoRotates != 1 {
		t.Errorf("norotates = %d, want 1", stats.NoRotates)
	}
	if len(f.Fragments) != 1 || len(f.Fragments[0].OutputVertices) != 12 {
		t.Errorf("fragments = %v, want the unchanged 12 vertex loop", f.Fragments)
	}
}

func TestTJuncRetopologize(t *testing.T) {
	d, tree := tjuncScene()
	f := addSceneFace(d, tree, squareLoop()...)

	stats := TJunc(d, tree, tjuncOpts(settings.TJuncRetopologize))

	if stats.Retopology != 1 {
		t.Fatalf("retopology = %d, want 1", stats.Retopology)
	}
	if len(f.Fragments) < 2 {
		t.Fatalf("fragments = %d, want >= 2", len(f.Fragments))
	}
	total := 0
	for i, frag := range f.Fragments {
		n := len(frag.OutputVertices)
		if n < 3 {
			t.Errorf("fragment %d has %d vertices", i, n)
		}
		total += n - 2
		// every fan triangle carries area
		for x := 0; x < n-2; x++ {
			if !triangleIsValid(d, frag.OutputVertices[0], frag.OutputVertices[x+1],
				frag.OutputVertices[x+2], triangleAngleEpsilon) {
				t.Errorf("fragment %d triangle %d is degenerate", i, x)
			}
		}
	}
	// the fans triangulate the full 12-gon
	if total != 10 {
		t.Errorf("fragments cover %d triangles, want 10", total)
	}
}

func TestTJuncMWT(t *testing.T) {
	d, tree := tjuncScene()
	f := addSceneFace(d, tree, squareLoop()...)

	stats := TJunc(d, tree, tjuncOpts(settings.TJuncMWT))

	if stats.MWT != 1 {
		t.Fatalf("mwt = %d, want 1", stats.MWT)
	}
	if stats.TriMWT != 10 {
		t.Errorf("trimwt = %d, want 10 (n-2 triangles)", stats.TriMWT)
	}
	if int64(len(f.Fragments)) != stats.FaceMWT+1 {
		t.Errorf("fragments = %d, facemwt = %d", len(f.Fragments), stats.FaceMWT)
	}
	for i, frag := range f.Fragments {
		n := len(frag.OutputVertices)
		if n < 3 {
			t.Fatalf("fragment %d has %d vertices", i, n)
		}
		for x := 0; x < n-2; x++ {
			if !triangleIsValid(d, frag.OutputVertices[0], frag.OutputVertices[x+1],
				frag.OutputVertices[x+2], triangleAngleEpsilon) {
				t.Errorf("fragment %d triangle %d is degenerate", i, x)
			}
		}
	}
}

func TestTJuncNone(t *testing.T) {
	d, tree := tjuncScene()
	f := addSceneFace(d, tree,
		vec.Vec3{X: 0, Y: 0}, vec.Vec3{X: 0, Y: 8},
		vec.Vec3{X: 8, Y: 8}, vec.Vec3{X: 8, Y: 0})

	stats := TJunc(d, tree, tjuncOpts(settings.TJuncNone))
	if stats.TJunctions != 0 {
		t.Errorf("tjunctions = %d, want 0", stats.TJunctions)
	}
	if len(f.Fragments) != 1 || len(f.Fragments[0].OutputVertices) != 4 {
		t.Errorf("fragments = %v, want the original quad", f.Fragments)
	}
}

func TestSplitFaceIntoFragments(t *testing.T) {
	var stats tjuncStats
	loop := make([]int, 12)
	for i := range loop {
		loop[i] = i
	}

	frags := splitFaceIntoFragments(loop, 8, &stats)
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, want 2", len(frags))
	}
	if got := stats.faceOverflows.Load(); got != 1 {
		t.Errorf("faceoverflows = %d, want 1", got)
	}
	if len(frags[0]) != 8 || len(frags[1]) != 6 {
		t.Fatalf("fragment sizes = %d %d, want 8 6", len(frags[0]), len(frags[1]))
	}
	// the pieces share the seam edge 0-7
	if frags[0][0] != 0 || frags[0][7] != 7 {
		t.Errorf("first fragment = %v", frags[0])
	}
	if frags[1][0] != 0 || frags[1][1] != 7 {
		t.Errorf("second fragment = %v, want to open with the 0-7 seam", frags[1])
	}
}

func TestTangentAndBitangent(t *testing.T) {
	normals := []vec.Vec3{
		{Z: 1}, {Z: -1}, {X: 1}, {Y: 1},
		{X: 0.6, Y: 0.8}, {X: 0.577, Y: 0.577, Z: 0.577},
	}
	for _, n := range normals {
		u, v := tangentAndBitangent(n)
		for i, b := range []vec.Vec3{u, v} {
			if d := b.Length(); d < 0.999 || d > 1.001 {
				t.Errorf("normal %v: basis vector %d = %v has length %v", n, i, b, d)
			}
			if d := vec.Dot(b, n); d > 0.001 || d < -0.001 {
				t.Errorf("normal %v: basis vector %d = %v not in the plane (dot %v)", n, i, b, d)
			}
		}
		if d := vec.Dot(u, v); d > 0.001 || d < -0.001 {
			t.Errorf("normal %v: basis not orthogonal (dot %v)", n, d)
		}
	}
}

func TestTriangleIsValid(t *testing.T) {
	d := qmap.NewData(&qmap.Quake2Game{})
	a := d.Verts.Emit(vec.Vec3{})
	b := d.Verts.Emit(vec.Vec3{X: 8})
	c := d.Verts.Emit(vec.Vec3{X: 8, Y: 8})
	mid := d.Verts.Emit(vec.Vec3{X: 4})

	if !triangleIsValid(d, a, b, c, triangleAngleEpsilon) {
		t.Error("right triangle reported degenerate")
	}
	if triangleIsValid(d, a, mid, b, triangleAngleEpsilon) {
		t.Error("colinear triangle reported valid")
	}
}
