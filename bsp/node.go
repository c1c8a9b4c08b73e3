// SPDX-License-Identifier: GPL-2.0-or-later

// Package bsp compiles entity brush lists into annotated spatial
// trees: BSP construction, portals, area flood, face merging and
// T-junction repair.
package bsp

import (
	"qbsp/geom"
	"qbsp/math/vec"
	"qbsp/qmap"
)

// PlanenumLeaf marks a node as a leaf.
const PlanenumLeaf = -1

const (
	// BaseWindingEpsilon is the clip epsilon while walking ancestor
	// planes for a node base winding.
	BaseWindingEpsilon = 0.001
	// SplitWindingEpsilon is the clip epsilon when portals are moved
	// down onto the children of a node.
	SplitWindingEpsilon = 0.001
	// SideSpace pads the head node box so there are never null
	// volume leafs at the map hull.
	SideSpace = 24
	// EqualEpsilon is the vertex equality distance on edges.
	EqualEpsilon = 1e-4
	// ContinuousEpsilon bounds the bend at a merged edge endpoint.
	ContinuousEpsilon = 5e-3
	// DefaultOnEpsilon is the point-on-edge distance for T-junctions.
	DefaultOnEpsilon = 0.5
)

// Node is an interior node or, with PlaneNum == PlanenumLeaf, a leaf.
type Node struct {
	PlaneNum int
	Children [2]*Node
	// Parent is a weak back reference; never owning.
	Parent *Node
	Bounds geom.Bounds

	// leaf data
	Contents        qmap.Contents
	OriginalBrushes []*qmap.Brush
	Occupant        *qmap.Entity
	Area            int32

	// DetailSeparator marks an interior node whose subtree is treated
	// as one cluster.
	DetailSeparator bool

	// Portals is the head of this node's portal chain, linked through
	// Portal.Next on the side the node is on.
	Portals *Portal

	// Faces live on the interior node whose plane generated them.
	Faces []*Face
}

func (n *Node) IsLeaf() bool {
	return n.PlaneNum == PlanenumLeaf
}

// Portal is the opening between its two adjacent nodes. Nodes[0] is
// on the front side of the portal plane, Nodes[1] on the back.
type Portal struct {
	PlaneNum int
	// OnNode is the node that generated the portal; nil for the head
	// node box portals facing the outside leaf.
	OnNode  *Node
	Nodes   [2]*Node
	Next    [2]*Portal
	Winding geom.Winding

	sideFound bool
	side      *qmap.Side
}

// Tree is the compile result for one entity.
type Tree struct {
	HeadNode *Node
	Bounds   geom.Bounds
	// Outside is the solid sentinel leaf beyond the head node box.
	Outside Node
}

// LeafForPoint descends from the head node to the leaf containing p.
func (t *Tree) LeafForPoint(d *qmap.Data, p vec.Vec3) *Node {
	node := t.HeadNode
	for !node.IsLeaf() {
		plane := d.Planes.Get(node.PlaneNum)
		if plane.DistanceTo(p) >= 0 {
			node = node.Children[0]
		} else {
			node = node.Children[1]
		}
	}
	return node
}
