// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qbsp/conlog"
	"qbsp/qmap"
)

func applyAreaR(node *Node, area int32) {
	node.Area = area
	if !node.IsLeaf() {
		applyAreaR(node.Children[0], area)
		applyAreaR(node.Children[1], area)
	}
}

// areanodeEntityForLeaf locates the area portal entity owning the
// cluster: any brush in the cluster tagged func_areaportal.
func areanodeEntityForLeaf(node *Node) *qmap.Entity {
	if !node.IsLeaf() {
		if e := areanodeEntityForLeaf(node.Children[0]); e != nil {
			return e
		}
		return areanodeEntityForLeaf(node.Children[1])
	}
	for _, brush := range node.OriginalBrushes {
		if brush.FuncAreaportal != nil {
			return brush.FuncAreaportal
		}
	}
	return nil
}

func floodAreasR(d *qmap.Data, node *Node) error {
	if (node.IsLeaf() || node.DetailSeparator) &&
		ClusterContents(d, node)&qmap.ContentsAreaPortal != 0 {
		entity := areanodeEntityForLeaf(node)
		if entity == nil {
			conlog.Warnf("areaportal contents in node, but no entity found %v -> %v",
				node.Bounds.Mins, node.Bounds.Maxs)
			return nil
		}

		// if the current area already touched this portal, we are done
		if entity.PortalAreas[0] == d.CAreas || entity.PortalAreas[1] == d.CAreas {
			return nil
		}

		// note the current area as bounding the portal
		if entity.PortalAreas[1] != 0 {
			conlog.Warnf("areaportal entity %q touches > 2 areas\n  Entity Bounds: %v -> %v",
				entity.ClassName(), entity.Bounds.Mins, entity.Bounds.Maxs)
			return nil
		}
		if entity.PortalAreas[0] != 0 {
			entity.PortalAreas[1] = d.CAreas
		} else {
			entity.PortalAreas[0] = d.CAreas
		}
		return nil
	}

	if node.Area != 0 {
		return nil // already got it
	}

	node.Area = d.CAreas
	if !node.IsLeaf() {
		// a detail cluster propagates its area to all descendants
		applyAreaR(node, d.CAreas)
	}

	for p := node.Portals; p != nil; {
		s := 0
		if p.Nodes[1] == node {
			s = 1
		}
		ok, err := EntityFlood(d, p)
		if err != nil {
			return err
		}
		if ok {
			if err := floodAreasR(d, p.Nodes[1-s]); err != nil {
				return err
			}
		}
		p = p.Next[s]
	}
	return nil
}

// findAreas floods out from every occupied cluster that has no area
// yet. Area portals are only flooded into, never out of.
func findAreas(d *qmap.Data, node *Node) error {
	for _, leaf := range findOccupiedClusters(node) {
		if leaf.Area != 0 {
			continue
		}
		if ClusterContents(d, leaf)&qmap.ContentsAreaPortal != 0 {
			continue
		}
		d.CAreas++
		if err := floodAreasR(d, leaf); err != nil {
			return err
		}
	}
	return nil
}

func findOccupiedClusters(node *Node) []*Node {
	var clusters []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() || n.DetailSeparator {
			if clusterOccupied(n) {
				clusters = append(clusters, n)
			}
			return
		}
		walk(n.Children[0])
		walk(n.Children[1])
	}
	walk(node)
	return clusters
}

func clusterOccupied(node *Node) bool {
	if node.IsLeaf() {
		return node.Occupant != nil
	}
	return clusterOccupied(node.Children[0]) || clusterOccupied(node.Children[1])
}

// setAreaPortalAreasR assigns still unassigned area portal leafs the
// first area of their owning entity.
func setAreaPortalAreasR(d *qmap.Data, node *Node) {
	if !node.IsLeaf() {
		setAreaPortalAreasR(d, node.Children[0])
		setAreaPortalAreasR(d, node.Children[1])
		return
	}

	if node.Contents&qmap.ContentsAreaPortal == 0 {
		return
	}
	if node.Area != 0 {
		return // already set
	}

	entity := areanodeEntityForLeaf(node)
	if entity == nil {
		conlog.Warnf("areaportal missing for node: %v -> %v",
			node.Bounds.Mins, node.Bounds.Maxs)
		return
	}

	node.Area = entity.PortalAreas[0]
	if entity.PortalAreas[1] == 0 {
		conlog.Warnf("areaportal entity %q doesn't touch two areas\n  Entity Bounds: %v -> %v",
			entity.ClassName(), entity.Bounds.Mins, entity.Bounds.Maxs)
	}
}

func floodOccupantR(d *qmap.Data, node *Node, e *qmap.Entity) error {
	if node.Occupant != nil {
		return nil
	}
	if d.Game.IsAnySolid(node.Contents) {
		return nil
	}
	node.Occupant = e

	for p := node.Portals; p != nil; {
		s := 0
		if p.Nodes[1] == node {
			s = 1
		}
		ok, err := EntityFlood(d, p)
		if err != nil {
			return err
		}
		if ok {
			if err := floodOccupantR(d, p.Nodes[1-s], e); err != nil {
				return err
			}
		}
		p = p.Next[s]
	}
	return nil
}

// PlaceOccupants floods out from the leaf of every point entity
// origin, marking every reachable leaf as occupied.
func PlaceOccupants(d *qmap.Data, tree *Tree) error {
	for _, e := range d.Entities[1:] {
		if e.Value("origin") == "" {
			continue
		}
		leaf := tree.LeafForPoint(d, e.Origin)
		if d.Game.IsAnySolid(leaf.Contents) {
			continue
		}
		if err := floodOccupantR(d, leaf, e); err != nil {
			return err
		}
	}
	return nil
}

// FillOutside turns every empty leaf the occupant flood never reached
// into solid. Sealed maps end up with no faces on their outer hull.
func FillOutside(d *qmap.Data, tree *Tree) {
	filled := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.IsLeaf() {
			walk(n.Children[0])
			walk(n.Children[1])
			return
		}
		if n.Occupant != nil || d.Game.IsAnySolid(n.Contents) {
			return
		}
		if n.Contents&qmap.ContentsAreaPortal != 0 {
			return
		}
		n.Contents = d.Game.CreateSolidContents()
		filled++
	}
	walk(tree.HeadNode)
	conlog.Statf("%5d leafs filled", filled)
}

// FloodAreas partitions the non solid leafs into areas bounded by
// area portal contents.
func FloodAreas(d *qmap.Data, tree *Tree) error {
	if err := findAreas(d, tree.HeadNode); err != nil {
		return err
	}
	setAreaPortalAreasR(d, tree.HeadNode)
	conlog.Statf("%5d areas", d.CAreas)
	return nil
}
