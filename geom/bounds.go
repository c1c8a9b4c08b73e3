// SPDX-License-Identifier: GPL-2.0-or-later

package geom

import (
	"github.com/chewxy/math32"

	"qbsp/math/vec"
)

// Bounds is an axis aligned bounding box.
type Bounds struct {
	Mins vec.Vec3
	Maxs vec.Vec3
}

// EmptyBounds returns a bounds that contains no point. Adding any
// point to it makes it valid.
func EmptyBounds() Bounds {
	return Bounds{
		Mins: vec.Vec3{X: math32.MaxFloat32, Y: math32.MaxFloat32, Z: math32.MaxFloat32},
		Maxs: vec.Vec3{X: -math32.MaxFloat32, Y: -math32.MaxFloat32, Z: -math32.MaxFloat32},
	}
}

func (b *Bounds) AddPoint(p vec.Vec3) {
	b.Mins = vec.Min(b.Mins, p)
	b.Maxs = vec.Max(b.Maxs, p)
}

func Union(a, b Bounds) Bounds {
	return Bounds{
		Mins: vec.Min(a.Mins, b.Mins),
		Maxs: vec.Max(a.Maxs, b.Maxs),
	}
}

// Valid reports whether the bounds describes a non inverted volume.
func (b *Bounds) Valid() bool {
	return b.Mins.X <= b.Maxs.X &&
		b.Mins.Y <= b.Maxs.Y &&
		b.Mins.Z <= b.Maxs.Z
}

// Grow returns the bounds padded by d on all six sides.
func (b Bounds) Grow(d float32) Bounds {
	pad := vec.Vec3{X: d, Y: d, Z: d}
	return Bounds{
		Mins: vec.Sub(b.Mins, pad),
		Maxs: vec.Add(b.Maxs, pad),
	}
}

func (b *Bounds) ContainsPoint(p vec.Vec3) bool {
	return p.X >= b.Mins.X && p.X <= b.Maxs.X &&
		p.Y >= b.Mins.Y && p.Y <= b.Maxs.Y &&
		p.Z >= b.Mins.Z && p.Z <= b.Maxs.Z
}

// Disjoint reports whether a and b share no point.
func (b *Bounds) Disjoint(o Bounds) bool {
	return b.Mins.X > o.Maxs.X || b.Maxs.X < o.Mins.X ||
		b.Mins.Y > o.Maxs.Y || b.Maxs.Y < o.Mins.Y ||
		b.Mins.Z > o.Maxs.Z || b.Maxs.Z < o.Mins.Z
}
