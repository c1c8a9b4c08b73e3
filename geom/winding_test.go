// SPDX-License-Identifier: GPL-2.0-or-later

package geom

import (
	"testing"

	"github.com/chewxy/math32"

	"qbsp/math/vec"
)

func quad(s float32) Winding {
	return Winding{
		{X: -s, Y: -s, Z: 0},
		{X: s, Y: -s, Z: 0},
		{X: s, Y: s, Z: 0},
		{X: -s, Y: s, Z: 0},
	}
}

func TestBaseWindingOnPlane(t *testing.T) {
	p := Plane{Normal: vec.Vec3{X: 0.6, Y: 0.8, Z: 0}, Dist: 10}
	w := BaseWindingForPlane(p, 4096)
	if len(w) != 4 {
		t.Fatalf("base winding has %d points, want 4", len(w))
	}
	for i, pt := range w {
		if d := p.DistanceTo(pt); math32.Abs(d) > 0.01 {
			t.Errorf("point %d is %v off the plane", i, d)
		}
	}
}

func TestBaseWindingOrientation(t *testing.T) {
	p := Plane{Normal: vec.Vec3{Z: 1}, Dist: 5}
	w := BaseWindingForPlane(p, 1024)
	n := w.normal()
	n = n.Normalize()
	// clockwise seen from the plane front: the Newell normal points
	// against the plane normal
	if vec.Dot(n, p.Normal) > -0.99 {
		t.Errorf("base winding normal %v is not opposite plane normal %v", n, p.Normal)
	}
}

func TestWindingArea(t *testing.T) {
	w := quad(2)
	if a := w.Area(); math32.Abs(a-16) > 0.001 {
		t.Errorf("Area = %v want 16", a)
	}
}

func TestWindingIsTiny(t *testing.T) {
	if quad(2).IsTiny() {
		t.Errorf("4x4 quad reported tiny")
	}
	if !quad(0.1).IsTiny() {
		t.Errorf("0.2x0.2 quad not reported tiny")
	}
	if !(Winding{{X: 1}, {X: 2}}).IsTiny() {
		t.Errorf("two point winding not reported tiny")
	}
}

func TestClipSplits(t *testing.T) {
	w := quad(4)
	p := Plane{Normal: vec.Vec3{X: 1}, Dist: 0}
	front, back := w.Clip(p, 0.001, false)
	if front == nil || back == nil {
		t.Fatalf("clip through the middle lost a side: front=%v back=%v", front, back)
	}
	if a := front.Area(); math32.Abs(a-32) > 0.01 {
		t.Errorf("front area = %v want 32", a)
	}
	if a := back.Area(); math32.Abs(a-32) > 0.01 {
		t.Errorf("back area = %v want 32", a)
	}
	for _, pt := range front {
		if pt.X < -0.001 {
			t.Errorf("front point %v behind plane", pt)
		}
	}
}

func TestClipAllFront(t *testing.T) {
	w := quad(4)
	p := Plane{Normal: vec.Vec3{X: 1}, Dist: -10}
	front, back := w.Clip(p, 0.001, false)
	if back != nil {
		t.Errorf("back = %v want nil", back)
	}
	if len(front) != 4 {
		t.Errorf("front has %d points want 4", len(front))
	}
}

func TestClipOnPlane(t *testing.T) {
	w := quad(4)
	p := Plane{Normal: vec.Vec3{Z: 1}, Dist: 0}
	front, back := w.Clip(p, 0.001, true)
	if back != nil || front == nil {
		t.Errorf("keepOn clip: front=%v back=%v", front, back)
	}
	front, back = w.Clip(p, 0.001, false)
	if front != nil || back != nil {
		t.Errorf("drop clip kept the winding: front=%v back=%v", front, back)
	}
}

func TestReversed(t *testing.T) {
	w := quad(1)
	r := w.Reversed()
	n1 := w.normal()
	n2 := r.normal()
	if vec.Dot(n1, n2) >= 0 {
		t.Errorf("reversed winding does not flip the normal")
	}
}
