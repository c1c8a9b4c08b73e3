// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"

	"qbsp/conlog"
	"qbsp/geom"
	"qbsp/qmap"
	"qbsp/settings"
)

const (
	psideFront  = 1
	psideBack   = 2
	psideBoth   = psideFront | psideBack
	psideFacing = 4
)

// bspSide is the working copy of a brush side during tree building.
// original points back at the map side so visibility marking reaches
// the source brush.
type bspSide struct {
	planeNum int
	winding  geom.Winding
	original *qmap.Side
	// onNode is set once the side lies on a node plane; it can no
	// longer be a split candidate below that node.
	onNode bool
}

// bspBrush is the working copy of a brush. Splitting creates new
// working copies; original always names the map brush.
type bspBrush struct {
	sides    []*bspSide
	bounds   geom.Bounds
	original *qmap.Brush
}

type treeStats struct {
	nodes  int
	leafs  int
	splits int
}

type treeBuilder struct {
	d     *qmap.Data
	opts  *settings.Options
	stats treeStats
}

// BuildTree partitions the entity brushes into a tree whose leaves
// are homogeneous in contents.
func BuildTree(d *qmap.Data, ent *qmap.Entity, opts *settings.Options) (*Tree, error) {
	c := &treeBuilder{d: d, opts: opts}

	var list []*bspBrush
	bounds := geom.EmptyBounds()
	for _, b := range ent.Brushes {
		bb := &bspBrush{original: b, bounds: b.Bounds}
		for _, s := range b.Sides {
			if s.Winding == nil || s.Bevel {
				continue
			}
			bb.sides = append(bb.sides, &bspSide{
				planeNum: s.PlaneNum,
				winding:  s.Winding.Copy(),
				original: s,
			})
		}
		if len(bb.sides) < 4 {
			return nil, errors.Errorf("brush with only %d usable sides", len(bb.sides))
		}
		list = append(list, bb)
		bounds = geom.Union(bounds, b.Bounds)
	}
	if len(list) == 0 {
		return nil, errors.New("entity without usable brushes")
	}

	head, err := c.build(list)
	if err != nil {
		return nil, err
	}
	conlog.Statf("%5d nodes", c.stats.nodes)
	conlog.Statf("%5d leafs", c.stats.leafs)
	conlog.Statf("%5d brush splits", c.stats.splits)

	return &Tree{HeadNode: head, Bounds: bounds}, nil
}

func (c *treeBuilder) build(brushes []*bspBrush) (*Node, error) {
	node := &Node{}

	planeNum, detail := c.selectSplitPlane(brushes)
	if planeNum == -1 {
		c.leafNode(node, brushes)
		return node, nil
	}
	c.stats.nodes++
	node.PlaneNum = planeNum
	node.DetailSeparator = detail

	front, back, err := c.splitBrushList(brushes, planeNum)
	if err != nil {
		return nil, err
	}
	for i, childBrushes := range [2][]*bspBrush{front, back} {
		child, err := c.build(childBrushes)
		if err != nil {
			return nil, err
		}
		child.Parent = node
		node.Children[i] = child
	}
	return node, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// selectSplitPlane scores every untried side plane of the brush list
// and returns the positive plane id of the best one, or -1 when no
// plane separates the set. Structural sides are preferred; a split
// found only among detail sides makes the node a detail separator.
func (c *treeBuilder) selectSplitPlane(brushes []*bspBrush) (int, bool) {
	for pass := 0; pass < 2; pass++ {
		best := -1
		bestValue := 0
		seen := make(map[int]bool)

		for _, b := range brushes {
			for _, s := range b.sides {
				if s.onNode {
					continue
				}
				if detailSide(s) != (pass == 1) {
					continue
				}
				pnum := s.planeNum &^ 1
				if seen[pnum] {
					continue
				}
				seen[pnum] = true

				front, back, facing, splits := 0, 0, 0, 0
				for _, test := range brushes {
					sides, nsplits := c.testBrushToPlane(test, pnum)
					splits += nsplits
					if sides&psideFacing != 0 {
						facing++
					}
					if sides&psideFront != 0 {
						front++
					}
					if sides&psideBack != 0 {
						back++
					}
				}
				if facing == 0 && (front == 0 || back == 0) {
					// does not separate anything
					continue
				}

				value := 5*facing - 5*splits - abs(front-back)
				plane := c.d.Planes.Get(pnum)
				if axial(&plane) {
					value += 5
				}
				if front == 0 || back == 0 {
					// still usable through its facing sides, but a
					// real separation is preferred
					value -= 5
				}

				if best == -1 || value > bestValue ||
					(value == bestValue && pnum < best) {
					best = pnum
					bestValue = value
				}
			}
		}
		if best != -1 {
			return best, pass == 1
		}
	}
	return -1, false
}

func detailSide(s *bspSide) bool {
	return s.original != nil && s.original.Contents&qmap.ContentsDetail != 0
}

func axial(p *geom.Plane) bool {
	n := p.Normal.Idx(p.Type())
	return n == 1 || n == -1
}

// testBrushToPlane classifies the brush against the plane. A brush
// with a side on the plane itself reports facing and lies entirely on
// the other side of that side's normal.
func (c *treeBuilder) testBrushToPlane(b *bspBrush, planeNum int) (int, int) {
	for _, s := range b.sides {
		if s.planeNum&^1 == planeNum {
			if s.planeNum == planeNum {
				return psideBack | psideFacing, 0
			}
			return psideFront | psideFacing, 0
		}
	}

	plane := c.d.Planes.Get(planeNum)
	result := 0
	splits := 0
	for _, s := range b.sides {
		sideFront, sideBack := false, false
		for _, pt := range s.winding {
			d := plane.DistanceTo(pt)
			if d > 0.1 {
				sideFront = true
			} else if d < -0.1 {
				sideBack = true
			}
		}
		if sideFront && sideBack {
			splits++
		}
		if sideFront {
			result |= psideFront
		}
		if sideBack {
			result |= psideBack
		}
	}
	return result, splits
}

func (c *treeBuilder) splitBrushList(brushes []*bspBrush, planeNum int) ([]*bspBrush, []*bspBrush, error) {
	var front, back []*bspBrush

	for _, b := range brushes {
		sides, _ := c.testBrushToPlane(b, planeNum)

		if sides == psideBoth {
			f, bk, err := c.splitBrush(b, planeNum)
			if err != nil {
				return nil, nil, err
			}
			c.stats.splits++
			if f != nil {
				front = append(front, f)
			}
			if bk != nil {
				back = append(back, bk)
			}
			continue
		}

		if sides&psideFacing != 0 {
			for _, s := range b.sides {
				if s.planeNum&^1 == planeNum {
					s.onNode = true
				}
			}
		}
		if sides&psideFront != 0 {
			front = append(front, b)
			continue
		}
		back = append(back, b)
	}
	return front, back, nil
}

// splitBrush cuts b with the plane. Either returned piece may be nil;
// when one piece degenerates the whole brush goes to the other side.
func (c *treeBuilder) splitBrush(b *bspBrush, planeNum int) (*bspBrush, *bspBrush, error) {
	plane := c.d.Planes.Get(planeNum)

	var dFront, dBack float32
	for _, s := range b.sides {
		for _, pt := range s.winding {
			d := plane.DistanceTo(pt)
			if d > dFront {
				dFront = d
			}
			if d < dBack {
				dBack = d
			}
		}
	}
	if dFront < 0.1 {
		return nil, b, nil
	}
	if dBack > -0.1 {
		return b, nil, nil
	}

	// the part of the split plane inside the brush
	w := geom.BaseWindingForPlane(plane, c.opts.WorldExtent)
	for _, s := range b.sides {
		if w == nil {
			break
		}
		_, w = w.Clip(c.d.Planes.Get(s.planeNum), 0, false)
	}
	if w == nil || w.IsTiny() {
		// plane is parallel to a brush face and barely inside
		if c.brushMostlyOnFront(b, plane) {
			return b, nil, nil
		}
		return nil, b, nil
	}

	fb := &bspBrush{original: b.original}
	bb := &bspBrush{original: b.original}
	for _, s := range b.sides {
		cwf, cwb := s.winding.Clip(plane, 0, false)
		if cwf != nil && !cwf.IsTiny() {
			fb.sides = append(fb.sides, &bspSide{
				planeNum: s.planeNum,
				winding:  cwf,
				original: s.original,
				onNode:   s.onNode,
			})
		}
		if cwb != nil && !cwb.IsTiny() {
			bb.sides = append(bb.sides, &bspSide{
				planeNum: s.planeNum,
				winding:  cwb,
				original: s.original,
				onNode:   s.onNode,
			})
		}
	}

	fb.sides = append(fb.sides, &bspSide{
		planeNum: planeNum ^ 1,
		winding:  w.Reversed(),
		onNode:   true,
	})
	bb.sides = append(bb.sides, &bspSide{
		planeNum: planeNum,
		winding:  w.Copy(),
		onNode:   true,
	})

	fOK := validPiece(fb)
	bOK := validPiece(bb)
	switch {
	case !fOK && !bOK:
		return nil, nil, errors.New("split produced no valid piece on either side")
	case !fOK:
		return nil, b, nil
	case !bOK:
		return b, nil, nil
	}
	return fb, bb, nil
}

func validPiece(b *bspBrush) bool {
	if len(b.sides) < 4 {
		return false
	}
	bounds := geom.EmptyBounds()
	for _, s := range b.sides {
		for _, pt := range s.winding {
			bounds.AddPoint(pt)
		}
	}
	if !bounds.Valid() {
		return false
	}
	b.bounds = bounds
	return true
}

func (c *treeBuilder) brushMostlyOnFront(b *bspBrush, plane geom.Plane) bool {
	var max float32
	front := false
	for _, s := range b.sides {
		for _, pt := range s.winding {
			d := plane.DistanceTo(pt)
			if d > max {
				max = d
				front = true
			}
			if -d > max {
				max = -d
				front = false
			}
		}
	}
	return front
}

func (c *treeBuilder) leafNode(node *Node, brushes []*bspBrush) {
	node.PlaneNum = PlanenumLeaf
	node.Contents = 0
	for _, b := range brushes {
		node.Contents |= b.original.Contents
		found := false
		for _, o := range node.OriginalBrushes {
			if o == b.original {
				found = true
				break
			}
		}
		if !found {
			node.OriginalBrushes = append(node.OriginalBrushes, b.original)
		}
	}
	c.stats.leafs++
}
