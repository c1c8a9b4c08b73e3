// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"

	"qbsp/conlog"
	"qbsp/geom"
	"qbsp/math/vec"
	"qbsp/qmap"
	"qbsp/settings"
)

type portalStats struct {
	tinyPortals int
	portals     int
}

// ClusterContents merges the leaf contents of the whole subtree.
func ClusterContents(d *qmap.Data, node *Node) qmap.Contents {
	if node.IsLeaf() {
		return node.Contents
	}
	return d.Game.ClusterContents(
		ClusterContents(d, node.Children[0]),
		ClusterContents(d, node.Children[1]))
}

// VisFlood reports whether the visibility flood may pass p.
func VisFlood(d *qmap.Data, p *Portal, opts *settings.Options) bool {
	if p.OnNode == nil {
		return false // to the outside leaf
	}
	c0 := ClusterContents(d, p.Nodes[0])
	c1 := ClusterContents(d, p.Nodes[1])
	return d.Game.PortalCanSeeThrough(c0, c1, opts.TransWater, opts.TransSky)
}

// EntityFlood reports whether an entity flood may pass p. Area portal
// contents terminate the area flood elsewhere; solids block here.
func EntityFlood(d *qmap.Data, p *Portal) (bool, error) {
	if !p.Nodes[0].IsLeaf() || !p.Nodes[1].IsLeaf() {
		return false, errors.New("entity flood: portal between non-leafs")
	}
	if d.Game.IsAnySolid(p.Nodes[0].Contents) || d.Game.IsAnySolid(p.Nodes[1].Contents) {
		return false, nil
	}
	return true, nil
}

func addPortalToNodes(p *Portal, front, back *Node) error {
	if p.Nodes[0] != nil || p.Nodes[1] != nil {
		return errors.New("portal already included")
	}
	p.Nodes[0] = front
	p.Next[0] = front.Portals
	front.Portals = p

	p.Nodes[1] = back
	p.Next[1] = back.Portals
	back.Portals = p
	return nil
}

func removePortalFromNode(portal *Portal, l *Node) error {
	pp := &l.Portals
	for {
		t := *pp
		if t == nil {
			return errors.New("portal not in leaf")
		}
		if t == portal {
			break
		}
		switch l {
		case t.Nodes[0]:
			pp = &t.Next[0]
		case t.Nodes[1]:
			pp = &t.Next[1]
		default:
			return errors.New("portal not bounding leaf")
		}
	}

	switch l {
	case portal.Nodes[0]:
		*pp = portal.Next[0]
		portal.Nodes[0] = nil
	case portal.Nodes[1]:
		*pp = portal.Next[1]
		portal.Nodes[1] = nil
	}
	return nil
}

// makeHeadnodePortals creates the six portals of the padded map box.
// They face the solid outside sentinel leaf.
func makeHeadnodePortals(d *qmap.Data, tree *Tree, opts *settings.Options) error {
	bounds := tree.Bounds.Grow(SideSpace)

	tree.Outside = Node{
		PlaneNum: PlanenumLeaf,
		Contents: d.Game.CreateSolidContents(),
	}

	var portals [6]*Portal
	var bplanes [6]geom.Plane

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			n := j*3 + i

			var pl geom.Plane
			if j == 1 {
				pl.Normal.SetIdx(i, -1)
				pl.Dist = -bounds.Maxs.Idx(i)
			} else {
				pl.Normal.SetIdx(i, 1)
				pl.Dist = bounds.Mins.Idx(i)
			}
			bplanes[n] = pl

			p := &Portal{
				PlaneNum: d.Planes.AddOrFind(pl),
				Winding:  geom.BaseWindingForPlane(pl, opts.WorldExtent),
			}
			portals[n] = p
			// the head node is on the front of every box plane
			if err := addPortalToNodes(p, tree.HeadNode, &tree.Outside); err != nil {
				return err
			}
		}
	}

	// clip the base windings against each other
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if j == i {
				continue
			}
			portals[i].Winding, _ = portals[i].Winding.Clip(bplanes[j], opts.Epsilon, true)
			if portals[i].Winding == nil {
				return errors.New("head node portal clipped away")
			}
		}
	}
	return nil
}

// baseWindingForNode builds the node plane winding clipped by all
// ancestor planes, keeping the half the node's subtree lies in.
func baseWindingForNode(d *qmap.Data, node *Node, opts *settings.Options) geom.Winding {
	plane := d.Planes.Get(node.PlaneNum)
	w := geom.BaseWindingForPlane(plane, opts.WorldExtent)

	for n, np := node, node.Parent; np != nil && w != nil; n, np = np, np.Parent {
		plane = d.Planes.Get(np.PlaneNum)
		front, back := w.Clip(plane, BaseWindingEpsilon, false)
		if np.Children[0] == n {
			w = front
		} else {
			w = back
		}
	}
	return w
}

// makeNodePortal cuts the node base winding by all portals already on
// the node and attaches the remainder between the two children.
func makeNodePortal(d *qmap.Data, node *Node, opts *settings.Options, stats *portalStats) error {
	w := baseWindingForNode(d, node, opts)

	side := -1
	for p := node.Portals; p != nil && w != nil; p = p.Next[side] {
		var plane geom.Plane
		switch node {
		case p.Nodes[0]:
			side = 0
			plane = d.Planes.Get(p.PlaneNum)
		case p.Nodes[1]:
			side = 1
			plane = d.Planes.Get(p.PlaneNum ^ 1)
		default:
			return errors.New("make node portal: mislinked portal")
		}
		w, _ = w.Clip(plane, 0.1, false)
	}

	if w == nil {
		return nil
	}
	if w.IsTiny() {
		stats.tinyPortals++
		return nil
	}

	p := &Portal{
		PlaneNum: node.PlaneNum,
		OnNode:   node,
		Winding:  w,
	}
	stats.portals++
	return addPortalToNodes(p, node.Children[0], node.Children[1])
}

// splitNodePortals moves the portals bounding node down onto its
// children, splitting any that straddle the node plane.
func splitNodePortals(d *qmap.Data, node *Node, stats *portalStats) error {
	plane := d.Planes.Get(node.PlaneNum)
	f := node.Children[0]
	b := node.Children[1]

	var next *Portal
	for p := node.Portals; p != nil; p = next {
		var side int
		switch node {
		case p.Nodes[0]:
			side = 0
		case p.Nodes[1]:
			side = 1
		default:
			return errors.New("split node portals: mislinked portal")
		}
		next = p.Next[side]

		otherNode := p.Nodes[1-side]
		if err := removePortalFromNode(p, p.Nodes[0]); err != nil {
			return err
		}
		if err := removePortalFromNode(p, p.Nodes[1]); err != nil {
			return err
		}

		frontW, backW := p.Winding.Clip(plane, SplitWindingEpsilon, true)
		if frontW != nil && frontW.IsTiny() {
			frontW = nil
			stats.tinyPortals++
		}
		if backW != nil && backW.IsTiny() {
			backW = nil
			stats.tinyPortals++
		}
		if frontW == nil && backW == nil {
			// tiny windings on both sides
			continue
		}

		if frontW == nil {
			p.Winding = backW
			var err error
			if side == 0 {
				err = addPortalToNodes(p, b, otherNode)
			} else {
				err = addPortalToNodes(p, otherNode, b)
			}
			if err != nil {
				return err
			}
			continue
		}
		if backW == nil {
			p.Winding = frontW
			var err error
			if side == 0 {
				err = addPortalToNodes(p, f, otherNode)
			} else {
				err = addPortalToNodes(p, otherNode, f)
			}
			if err != nil {
				return err
			}
			continue
		}

		// the winding is split; the portal is duplicated
		newp := &Portal{
			PlaneNum: p.PlaneNum,
			OnNode:   p.OnNode,
			Winding:  backW,
		}
		p.Winding = frontW

		var err error
		if side == 0 {
			err = addPortalToNodes(p, f, otherNode)
			if err == nil {
				err = addPortalToNodes(newp, b, otherNode)
			}
		} else {
			err = addPortalToNodes(p, otherNode, f)
			if err == nil {
				err = addPortalToNodes(newp, otherNode, b)
			}
		}
		if err != nil {
			return err
		}
	}

	node.Portals = nil
	return nil
}

// calcNodeBounds recomputes the node bounds from its portal windings.
func calcNodeBounds(node *Node) {
	bounds := geom.EmptyBounds()
	for p := node.Portals; p != nil; {
		s := 0
		if p.Nodes[1] == node {
			s = 1
		}
		for _, pt := range p.Winding {
			bounds.AddPoint(pt)
		}
		p = p.Next[s]
	}
	node.Bounds = bounds
}

func makeTreePortalsR(d *qmap.Data, node *Node, opts *settings.Options, stats *portalStats) error {
	calcNodeBounds(node)
	if !node.Bounds.Valid() {
		conlog.Warnf("node without a volume near %v", nodeHint(node))
		if node.Parent != nil {
			// diagnostic sentinel, not real geometry
			node.Bounds = geom.Bounds{Mins: node.Parent.Bounds.Mins, Maxs: node.Parent.Bounds.Mins}
		}
	}
	for i := 0; i < 3; i++ {
		if node.Bounds.Mins.Idx(i) < -opts.WorldExtent || node.Bounds.Maxs.Idx(i) > opts.WorldExtent {
			conlog.Warnf("node with unbounded volume near %v", nodeHint(node))
			break
		}
	}
	if node.IsLeaf() {
		return nil
	}

	if err := makeNodePortal(d, node, opts, stats); err != nil {
		return err
	}
	if err := splitNodePortals(d, node, stats); err != nil {
		return err
	}

	if err := makeTreePortalsR(d, node.Children[0], opts, stats); err != nil {
		return err
	}
	return makeTreePortalsR(d, node.Children[1], opts, stats)
}

func nodeHint(node *Node) vec.Vec3 {
	for n := node; n != nil; n = n.Parent {
		if n.Bounds.Valid() {
			return n.Bounds.Mins
		}
	}
	return vec.Vec3{}
}

// MakeTreePortals builds the portal graph of the tree: the head node
// box first, then one portal per interior node, splitting inherited
// portals on the way down.
func MakeTreePortals(d *qmap.Data, tree *Tree, opts *settings.Options) error {
	FreeTreePortals(tree.HeadNode)

	var stats portalStats
	if err := makeHeadnodePortals(d, tree, opts); err != nil {
		return err
	}
	if err := makeTreePortalsR(d, tree.HeadNode, opts, &stats); err != nil {
		return err
	}
	conlog.Statf("%5d portals", stats.portals)
	if stats.tinyPortals > 0 {
		conlog.Statf("%5d tiny portals", stats.tinyPortals)
	}
	return nil
}

// FreeTreePortals detaches and drops every portal below node. A
// portal is reachable from both endpoints; detaching from both before
// dropping releases it exactly once.
func FreeTreePortals(node *Node) {
	if !node.IsLeaf() {
		FreeTreePortals(node.Children[0])
		FreeTreePortals(node.Children[1])
	}
	for p := node.Portals; p != nil; p = node.Portals {
		removePortalFromNode(p, p.Nodes[0])
		if p.Nodes[1] != nil {
			removePortalFromNode(p, p.Nodes[1])
		}
	}
	node.Portals = nil
}

// findPortalSide finds the brush side to texture the portal with: the
// side of a contributing brush that matches the portal plane best.
func findPortalSide(d *qmap.Data, p *Portal) {
	p.sideFound = true

	visContents := d.Game.VisibleContents(p.Nodes[0].Contents, p.Nodes[1].Contents)
	if d.Game.IsEmpty(visContents) {
		return
	}

	planeNum := p.OnNode.PlaneNum
	p1 := d.Planes.Get(planeNum)

	var bestSide *qmap.Side
	var bestDot float32

	for j := 0; j < 2; j++ {
		n := p.Nodes[j]
		// later brushes in map order win ties
		for i := len(n.OriginalBrushes) - 1; i >= 0; i-- {
			brush := n.OriginalBrushes[i]
			if !d.Game.ContentsContains(brush.Contents, visContents) {
				continue
			}
			for _, side := range brush.Sides {
				if side.Bevel {
					continue
				}
				if side.PlaneNum&^1 == planeNum&^1 {
					// exact match
					p.side = side
					return
				}
				p2 := d.Planes.Get(side.PlaneNum)
				dot := vec.Dot(p1.Normal, p2.Normal)
				if dot > bestDot {
					bestDot = dot
					bestSide = side
				}
			}
		}
	}

	if bestSide == nil {
		conlog.Warnf("side not found for portal")
	}
	p.side = bestSide
}

func markVisibleSidesR(d *qmap.Data, node *Node) {
	if !node.IsLeaf() {
		markVisibleSidesR(d, node.Children[0])
		markVisibleSidesR(d, node.Children[1])
		return
	}

	// empty leafs are never boundary leafs
	if d.Game.IsEmpty(node.Contents) {
		return
	}

	for p := node.Portals; p != nil; {
		s := 0
		if p.Nodes[0] == node {
			s = 1
		}
		if p.OnNode != nil {
			if !p.sideFound {
				findPortalSide(d, p)
			}
			if p.side != nil {
				p.side.Visible = true
			}
		}
		p = p.Next[1-s]
	}
}

// MarkVisibleSides sets the visible flag on every brush side that a
// portal between differing visible contents runs along.
func MarkVisibleSides(d *qmap.Data, tree *Tree, ent *qmap.Entity) {
	for _, brush := range ent.Brushes {
		for _, side := range brush.Sides {
			side.Visible = false
		}
	}
	markVisibleSidesR(d, tree.HeadNode)
}
