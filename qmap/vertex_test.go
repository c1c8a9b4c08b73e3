// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"testing"

	"qbsp/math/vec"
)

func TestVertexEmitRoundTrip(t *testing.T) {
	vt := NewVertexTable()

	p := vec.Vec3{X: 12.5, Y: -3, Z: 100}
	id := vt.Emit(p)
	if got, ok := vt.FindEmitted(p); !ok || got != id {
		t.Errorf("FindEmitted = %d %v, want %d true", got, ok, id)
	}
	if again := vt.Emit(p); again != id {
		t.Errorf("re-Emit = %d, want %d", again, id)
	}
	if vt.Len() != 1 {
		t.Errorf("Len() = %d, want 1", vt.Len())
	}
}

func TestVertexDedupEpsilon(t *testing.T) {
	vt := NewVertexTable()

	id := vt.Emit(vec.Vec3{X: 1, Y: 2, Z: 3})
	near := vec.Vec3{X: 1.04, Y: 2, Z: 3}
	if got := vt.Emit(near); got != id {
		t.Errorf("Emit(near) = %d, want %d", got, id)
	}

	far := vec.Vec3{X: 1.2, Y: 2, Z: 3}
	if got := vt.Emit(far); got == id {
		t.Errorf("Emit(far) reused id %d", id)
	}
}

func TestVertexDedupAcrossIntegerBoundary(t *testing.T) {
	vt := NewVertexTable()

	// both sides of x=2; different hash buckets, same vertex
	id := vt.Emit(vec.Vec3{X: 1.99, Y: 0, Z: 0})
	if got := vt.Emit(vec.Vec3{X: 2.01, Y: 0, Z: 0}); got != id {
		t.Errorf("Emit across boundary = %d, want %d", got, id)
	}
}

func TestVertexVert(t *testing.T) {
	vt := NewVertexTable()
	p := vec.Vec3{X: -8, Y: 16, Z: 24}
	id := vt.Emit(p)
	if got := vt.Vert(id); got != p {
		t.Errorf("Vert(%d) = %v, want %v", id, got, p)
	}
}
