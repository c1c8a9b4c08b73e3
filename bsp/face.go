// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qbsp/conlog"
	"qbsp/geom"
	"qbsp/qmap"
)

// Fragment is one output polygon of a face after T-junction repair,
// expressed as indices into the global vertex table.
type Fragment struct {
	OutputVertices []int
}

// Face is a visible polygon on an interior node plane.
type Face struct {
	PlaneNum  int
	PlaneSide bool
	TexInfo   int
	Contents  qmap.Contents
	LMShift   uint8
	W         geom.Winding

	// OriginalVertices index the global vertex table; filled by
	// EmitVertices, read-only during T-junction repair.
	OriginalVertices []int
	// Fragments is the final output of the face.
	Fragments []Fragment

	portal *Portal
}

const defaultLMShift = 4

// faceFromPortal builds the face of a portal between differing
// visible contents. The face normal points out of the stronger side.
func faceFromPortal(d *qmap.Data, p *Portal) *Face {
	if p.side == nil || !p.side.Visible {
		return nil
	}
	visContents := d.Game.VisibleContents(p.Nodes[0].Contents, p.Nodes[1].Contents)
	if d.Game.IsEmpty(visContents) {
		return nil
	}

	// the stronger contents side carries the face
	solidSide := 1
	if d.Game.ContentsContains(p.Nodes[0].Contents, visContents) {
		solidSide = 0
	}

	f := &Face{
		PlaneNum: p.OnNode.PlaneNum &^ 1,
		TexInfo:  p.side.TexInfo,
		Contents: p.Nodes[solidSide].Contents,
		LMShift:  defaultLMShift,
		portal:   p,
	}
	if solidSide == 0 {
		// face the back side of the node plane
		f.PlaneSide = true
		f.W = p.Winding.Reversed()
	} else {
		f.W = p.Winding.Copy()
	}
	return f
}

func makeFacesR(d *qmap.Data, node *Node, count *int) {
	if !node.IsLeaf() {
		makeFacesR(d, node.Children[0], count)
		makeFacesR(d, node.Children[1], count)
		return
	}

	// faces are emitted once, from the front leaf of each portal
	for p := node.Portals; p != nil; {
		s := 0
		if p.Nodes[1] == node {
			s = 1
		}
		if s == 0 && p.OnNode != nil {
			if f := faceFromPortal(d, p); f != nil {
				p.OnNode.Faces = append(p.OnNode.Faces, f)
				*count++
			}
		}
		p = p.Next[s]
	}
}

// MakeFaces derives the face list of every interior node from the
// portals along visible brush sides.
func MakeFaces(d *qmap.Data, tree *Tree) {
	count := 0
	makeFacesR(d, tree.HeadNode, &count)
	conlog.Statf("%5d makefaces", count)
}

// EmitVertices interns every face winding point into the global
// vertex table. Duplicate neighbours introduced by snapping are
// dropped.
func EmitVertices(d *qmap.Data, tree *Tree) {
	var walk func(node *Node)
	walk = func(node *Node) {
		if node.IsLeaf() {
			return
		}
		for _, f := range node.Faces {
			f.OriginalVertices = f.OriginalVertices[:0]
			for _, pt := range f.W {
				num := d.Verts.Emit(pt)
				n := len(f.OriginalVertices)
				if n > 0 && f.OriginalVertices[n-1] == num {
					continue
				}
				f.OriginalVertices = append(f.OriginalVertices, num)
			}
			// the wrap around edge can degenerate too
			if n := len(f.OriginalVertices); n > 1 && f.OriginalVertices[0] == f.OriginalVertices[n-1] {
				f.OriginalVertices = f.OriginalVertices[:n-1]
			}
		}
		walk(node.Children[0])
		walk(node.Children[1])
	}
	walk(tree.HeadNode)
	conlog.Statf("%5d unique vertices", d.Verts.Len())
}
