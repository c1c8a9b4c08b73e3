// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"qbsp/geom"
)

// Planes stores every plane that can appear in the output. Planes are
// kept in opposing pairs: the positive orientation at an even id, its
// inverse at the directly following odd id. Flipping a plane is id^1,
// id>>1 identifies the unoriented plane.
type Planes struct {
	planes []geom.Plane
}

// Add appends both orientations of p and returns the id of the
// orientation that was passed in.
func (ps *Planes) Add(p geom.Plane) int {
	n := len(ps.planes)
	if p.Positive() {
		ps.planes = append(ps.planes, p, p.Inverse())
		return n
	}
	ps.planes = append(ps.planes, p.Inverse(), p)
	return n + 1
}

// Find returns the id of a stored plane approximately equal to p.
func (ps *Planes) Find(p geom.Plane) (int, bool) {
	for i := range ps.planes {
		if ps.planes[i].EpsilonEqual(&p) {
			return i, true
		}
	}
	return 0, false
}

func (ps *Planes) AddOrFind(p geom.Plane) int {
	if id, ok := ps.Find(p); ok {
		return id
	}
	return ps.Add(p)
}

func (ps *Planes) Get(id int) geom.Plane {
	return ps.planes[id]
}

func (ps *Planes) Len() int {
	return len(ps.planes)
}
