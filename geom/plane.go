// SPDX-License-Identifier: GPL-2.0-or-later

package geom

import (
	"github.com/chewxy/math32"

	"qbsp/math/vec"
)

const (
	// NormalEpsilon is the allowed deviation per normal component when
	// two planes are compared for equality.
	NormalEpsilon = 0.00001
	// DistEpsilon is the allowed deviation of the plane distance when
	// two planes are compared for equality.
	DistEpsilon = 0.01
)

// Plane is an oriented half space. Points p with
// Dot(Normal, p) - Dist > 0 are on the front side.
type Plane struct {
	Normal vec.Vec3
	Dist   float32
}

// Inverse returns the same unoriented plane facing the other way.
func (p Plane) Inverse() Plane {
	return Plane{
		Normal: p.Normal.Scale(-1),
		Dist:   -p.Dist,
	}
}

// DistanceTo returns the signed distance of pt to the plane,
// calculated in double precision.
func (p *Plane) DistanceTo(pt vec.Vec3) float32 {
	return vec.DoublePrecDot(p.Normal, pt) - p.Dist
}

// Type returns the dominant axis of the plane normal.
func (p *Plane) Type() int {
	return p.Normal.MaxAxis()
}

// Positive reports whether the dominant normal component is non
// negative. Of an opposing plane pair exactly one is positive.
func (p *Plane) Positive() bool {
	return p.Normal.Idx(p.Type()) >= 0
}

func (p *Plane) EpsilonEqual(o *Plane) bool {
	return vec.EpsilonEqual(p.Normal, o.Normal, NormalEpsilon) &&
		math32.Abs(p.Dist-o.Dist) <= DistEpsilon
}

// PlaneFromPoints builds the plane through the three given points.
// The normal follows the map file convention: for points given
// clockwise when seen from the front the normal points at the viewer.
// ok is false if the points are colinear.
func PlaneFromPoints(p0, p1, p2 vec.Vec3) (Plane, bool) {
	t1 := vec.Sub(p0, p1)
	t2 := vec.Sub(p2, p1)
	n := vec.Cross(t1, t2)
	if n.Length() == 0 {
		return Plane{}, false
	}
	n = n.Normalize()
	return Plane{
		Normal: n,
		Dist:   vec.DoublePrecDot(p0, n),
	}, true
}
