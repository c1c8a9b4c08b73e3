// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"testing"

	"qbsp/geom"
	"qbsp/math/vec"
)

func TestPlanePairs(t *testing.T) {
	var ps Planes

	p := geom.Plane{Normal: vec.Vec3{Z: 1}, Dist: 32}
	id := ps.Add(p)
	if id != 0 {
		t.Errorf("positive plane id = %d, want 0", id)
	}
	if ps.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ps.Len())
	}

	inv := ps.Get(id ^ 1)
	if inv.Normal.Z != -1 || inv.Dist != -32 {
		t.Errorf("inverse plane = %v %v, want -z -32", inv.Normal, inv.Dist)
	}

	// adding the negative orientation first still stores the positive
	// one at the even id
	var ps2 Planes
	neg := p.Inverse()
	id2 := ps2.Add(neg)
	if id2 != 1 {
		t.Errorf("negative plane id = %d, want 1", id2)
	}
	if got := ps2.Get(0); !got.Positive() {
		t.Errorf("plane at even id is not positive: %v", got.Normal)
	}
}

func TestPlaneOpposition(t *testing.T) {
	var ps Planes
	ps.Add(geom.Plane{Normal: vec.Vec3{X: 1}, Dist: 16})
	ps.Add(geom.Plane{Normal: vec.Vec3{X: 0.6, Y: 0.8}, Dist: -5})

	for id := 0; id < ps.Len(); id += 2 {
		a := ps.Get(id)
		b := ps.Get(id ^ 1)
		sum := vec.Add(a.Normal, b.Normal)
		if sum.Length() > 1e-6 {
			t.Errorf("plane %d: normals do not cancel: %v", id, sum)
		}
		if a.Dist+b.Dist != 0 {
			t.Errorf("plane %d: dists do not cancel: %v %v", id, a.Dist, b.Dist)
		}
	}
}

func TestAddOrFind(t *testing.T) {
	var ps Planes

	p := geom.Plane{Normal: vec.Vec3{Y: 1}, Dist: 64}
	id := ps.AddOrFind(p)
	if again := ps.AddOrFind(p); again != id {
		t.Errorf("AddOrFind returned %d, want %d", again, id)
	}
	if inv := ps.AddOrFind(p.Inverse()); inv != id^1 {
		t.Errorf("AddOrFind(inverse) = %d, want %d", inv, id^1)
	}
	if ps.Len() != 2 {
		t.Errorf("Len() = %d after repeated AddOrFind, want 2", ps.Len())
	}

	// a slightly perturbed plane still finds the stored one
	q := geom.Plane{Normal: vec.Vec3{X: 0.000001, Y: 1}, Dist: 64.001}
	if got := ps.AddOrFind(q); got != id {
		t.Errorf("AddOrFind(perturbed) = %d, want %d", got, id)
	}
}
