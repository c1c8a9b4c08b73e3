// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"github.com/pkg/errors"

	"qbsp/geom"
)

// Side is one half space of a convex brush.
type Side struct {
	PlaneNum int
	TexInfo  int
	Contents Contents
	// Visible is set by MarkVisibleSides for sides adjacent to a leaf
	// of differing visible contents.
	Visible bool
	// Bevel sides only matter for collision hulls and never generate
	// faces or splits.
	Bevel bool
	// Winding is the part of the side plane inside the brush.
	Winding geom.Winding
}

// Brush is a convex volume described by the intersection of its side
// half spaces. Brushes are owned by their entity; leaves reference
// them without owning.
type Brush struct {
	Sides    []*Side
	Bounds   geom.Bounds
	Contents Contents
	// FuncAreaportal points at the owning area portal entity for
	// brushes with area portal contents.
	FuncAreaportal *Entity
}

// MakeWindings derives the side windings and the brush bounds from
// the side planes. Sides whose winding clips away or ends up tiny
// lose it; a brush left without volume is malformed.
func (b *Brush) MakeWindings(planes *Planes, extent float32) error {
	bounds := geom.EmptyBounds()

	for i, side := range b.Sides {
		plane := planes.Get(side.PlaneNum)
		w := geom.BaseWindingForPlane(plane, extent)

		for j, other := range b.Sides {
			if j == i || other.Bevel {
				continue
			}
			// keep what is behind every other side
			back := planes.Get(other.PlaneNum ^ 1)
			w, _ = w.Clip(back, 0.01, false)
			if w == nil {
				break
			}
		}

		if w == nil || w.IsTiny() {
			side.Winding = nil
			continue
		}
		side.Winding = w
		for _, p := range w {
			bounds.AddPoint(p)
		}
	}

	if !bounds.Valid() {
		return errors.New("brush with no volume")
	}
	for i := 0; i < 3; i++ {
		if bounds.Mins.Idx(i) < -2*extent || bounds.Maxs.Idx(i) > 2*extent {
			return errors.Errorf("brush bounds out of range: %v -> %v", bounds.Mins, bounds.Maxs)
		}
	}
	b.Bounds = bounds
	return nil
}
