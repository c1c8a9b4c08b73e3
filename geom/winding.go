// SPDX-License-Identifier: GPL-2.0-or-later

package geom

import (
	"github.com/chewxy/math32"

	"qbsp/math/vec"
)

const (
	SideFront = 0
	SideBack  = 1
	SideOn    = 2
)

// TinyWindingArea is the projected area below which a winding is
// treated as empty.
const TinyWindingArea = 0.25

// Winding is a convex polygon on a plane, wound clockwise when seen
// from the front side of the plane.
type Winding []vec.Vec3

// BaseWindingForPlane returns a large quad on p covering at least
// extent units in every direction.
func BaseWindingForPlane(p Plane, extent float32) Winding {
	axis := p.Type()

	var up vec.Vec3
	switch axis {
	case 0, 1:
		up.Z = 1
	case 2:
		up.X = 1
	}
	v := vec.Dot(up, p.Normal)
	up = vec.Sub(up, p.Normal.Scale(v))
	up = up.Normalize()

	org := p.Normal.Scale(p.Dist)
	right := vec.Cross(up, p.Normal)

	up = up.Scale(extent)
	right = right.Scale(extent)

	return Winding{
		vec.Sub(vec.Add(org, up), right),
		vec.Add(vec.Add(org, up), right),
		vec.Sub(vec.Add(org, right), up),
		vec.Sub(vec.Sub(org, right), up),
	}
}

func (w Winding) Copy() Winding {
	c := make(Winding, len(w))
	copy(c, w)
	return c
}

// Reversed returns the winding wound the other way around.
func (w Winding) Reversed() Winding {
	r := make(Winding, len(w))
	for i, p := range w {
		r[len(w)-1-i] = p
	}
	return r
}

func (w Winding) Center() vec.Vec3 {
	var c vec.Vec3
	for _, p := range w {
		c = vec.Add(c, p)
	}
	return c.Scale(1 / float32(len(w)))
}

func (w Winding) Bounds() Bounds {
	b := EmptyBounds()
	for _, p := range w {
		b.AddPoint(p)
	}
	return b
}

// Area returns the polygon area.
func (w Winding) Area() float32 {
	var total float32
	for i := 2; i < len(w); i++ {
		d1 := vec.Sub(w[i-1], w[0])
		d2 := vec.Sub(w[i], w[0])
		c := vec.Cross(d1, d2)
		total += 0.5 * c.Length()
	}
	return total
}

// normal returns the polygon normal by the Newell method. It does not
// require the winding to be convex.
func (w Winding) normal() vec.Vec3 {
	var n vec.Vec3
	for i := range w {
		a := w[i]
		b := w[(i+1)%len(w)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// IsTiny reports whether the area of the winding projected onto the
// two non dominant axes of its plane is below TinyWindingArea.
func (w Winding) IsTiny() bool {
	if len(w) < 3 {
		return true
	}
	n := w.normal()
	axis := n.MaxAxis()
	u := (axis + 1) % 3
	v := (axis + 2) % 3

	var area float32
	for i := range w {
		a := w[i]
		b := w[(i+1)%len(w)]
		area += a.Idx(u)*b.Idx(v) - b.Idx(u)*a.Idx(v)
	}
	return math32.Abs(area*0.5) < TinyWindingArea
}

// Clip cuts the winding with p. It returns the polygon on the front
// side and the one on the back side; either may be nil. A winding
// lying entirely on the plane goes to the front side if keepOn is
// set, otherwise it is dropped.
func (w Winding) Clip(p Plane, epsilon float32, keepOn bool) (Winding, Winding) {
	dists := make([]float32, len(w)+1)
	sides := make([]int, len(w)+1)
	var counts [3]int

	for i, pt := range w {
		d := p.DistanceTo(pt)
		dists[i] = d
		switch {
		case d > epsilon:
			sides[i] = SideFront
		case d < -epsilon:
			sides[i] = SideBack
		default:
			sides[i] = SideOn
		}
		counts[sides[i]]++
	}
	dists[len(w)] = dists[0]
	sides[len(w)] = sides[0]

	if counts[SideFront] == 0 && counts[SideBack] == 0 {
		if keepOn {
			return w, nil
		}
		return nil, nil
	}
	if counts[SideFront] == 0 {
		return nil, w
	}
	if counts[SideBack] == 0 {
		return w, nil
	}

	front := make(Winding, 0, len(w)+4)
	back := make(Winding, 0, len(w)+4)

	for i, pt := range w {
		switch sides[i] {
		case SideOn:
			front = append(front, pt)
			back = append(back, pt)
			continue
		case SideFront:
			front = append(front, pt)
		case SideBack:
			back = append(back, pt)
		}
		if sides[i+1] == SideOn || sides[i+1] == sides[i] {
			continue
		}

		// generate the split point
		next := w[(i+1)%len(w)]
		frac := dists[i] / (dists[i] - dists[i+1])
		var mid vec.Vec3
		for k := 0; k < 3; k++ {
			// avoid rounding error on exactly axial planes
			switch {
			case p.Normal.Idx(k) == 1:
				mid.SetIdx(k, p.Dist)
			case p.Normal.Idx(k) == -1:
				mid.SetIdx(k, -p.Dist)
			default:
				mid.SetIdx(k, pt.Idx(k)+frac*(next.Idx(k)-pt.Idx(k)))
			}
		}
		front = append(front, mid)
		back = append(back, mid)
	}

	return front, back
}
