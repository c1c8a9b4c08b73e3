// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qbsp/conlog"
	"qbsp/math/vec"
	"qbsp/qmap"
)

// tryMerge merges f1 and f2 if they share an edge and the result is a
// convex polygon. It returns nil when they cannot be merged; the
// inputs are never modified.
func tryMerge(d *qmap.Data, f1, f2 *Face, maxPoints int) *Face {
	if len(f1.W) == 0 || len(f2.W) == 0 ||
		f1.PlaneNum != f2.PlaneNum ||
		f1.PlaneSide != f2.PlaneSide ||
		f1.TexInfo != f2.TexInfo ||
		f1.Contents != f2.Contents ||
		f1.LMShift != f2.LMShift {
		return nil
	}

	n1 := len(f1.W)
	n2 := len(f2.W)

	// find a shared edge, wound in opposite directions
	var p1, p2 vec.Vec3
	i, j := 0, 0
	found := false
	for i = 0; i < n1 && !found; {
		p1 = f1.W[i]
		p2 = f1.W[(i+1)%n1]
		for j = 0; j < n2; j++ {
			p3 := f2.W[j]
			p4 := f2.W[(j+1)%n2]
			if vec.EpsilonEqual(p1, p4, EqualEpsilon) &&
				vec.EpsilonEqual(p2, p3, EqualEpsilon) {
				found = true
				break
			}
		}
		if !found {
			i++
		}
	}
	if !found {
		return nil // no matching edges
	}

	// the merged polygon must stay convex at both former endpoints;
	// an exactly straight bend drops the endpoint as redundant
	plane := d.Planes.Get(f1.PlaneNum)
	planeNormal := plane.Normal
	if f1.PlaneSide {
		planeNormal = planeNormal.Scale(-1)
	}

	back := f1.W[(i+n1-1)%n1]
	delta := vec.Sub(p1, back)
	normal := vec.Cross(planeNormal, delta)
	normal = normal.Normalize()

	back = f2.W[(j+2)%n2]
	delta = vec.Sub(back, p1)
	dot := vec.Dot(delta, normal)
	if dot > ContinuousEpsilon {
		return nil // not a convex polygon
	}
	keep1 := dot < -ContinuousEpsilon

	back = f1.W[(i+2)%n1]
	delta = vec.Sub(back, p2)
	normal = vec.Cross(planeNormal, delta)
	normal = normal.Normalize()

	back = f2.W[(j+n2-1)%n2]
	delta = vec.Sub(back, p2)
	dot = vec.Dot(delta, normal)
	if dot > ContinuousEpsilon {
		return nil // not a convex polygon
	}
	keep2 := dot < -ContinuousEpsilon

	if maxPoints > 0 && n1+n2 > maxPoints {
		conlog.Warnf("merge would exceed %d edges", maxPoints)
		return nil
	}

	newf := &Face{
		PlaneNum:  f1.PlaneNum,
		PlaneSide: f1.PlaneSide,
		TexInfo:   f1.TexInfo,
		Contents:  f1.Contents,
		LMShift:   f1.LMShift,
		portal:    f1.portal,
	}

	// copy first polygon
	k := (i + 2) % n1
	if keep2 {
		k = (i + 1) % n1
	}
	for ; k != i; k = (k + 1) % n1 {
		newf.W = append(newf.W, f1.W[k])
	}

	// copy second polygon
	l := (j + 2) % n2
	if keep1 {
		l = (j + 1) % n2
	}
	for ; l != j; l = (l + 1) % n2 {
		newf.W = append(newf.W, f2.W[l])
	}

	return newf
}

// mergeFaceToList merges face into the list as often as possible. A
// successful merge empties the absorbed face and restarts the scan.
func mergeFaceToList(d *qmap.Data, face *Face, list []*Face, maxPoints int) []*Face {
	i := 0
	for i < len(list) {
		f := list[i]
		newf := tryMerge(d, face, f, maxPoints)
		if newf == nil {
			i++
			continue
		}
		f.W = nil // merged out, dropped later
		face = newf
		i = 0
	}
	return append([]*Face{face}, list...)
}

func dropMergedScraps(list []*Face) []*Face {
	kept := list[:0]
	for _, f := range list {
		if len(f.W) > 0 {
			kept = append(kept, f)
		}
	}
	return kept
}

// MergeNodeFaces coalesces coplanar adjacent faces on one node.
func MergeNodeFaces(d *qmap.Data, node *Node, maxPoints int) {
	var merged []*Face
	for _, f := range node.Faces {
		merged = mergeFaceToList(d, f, merged, maxPoints)
	}
	node.Faces = dropMergedScraps(merged)
}

// MergeAll runs the face merger over every interior node.
func MergeAll(d *qmap.Data, tree *Tree, maxPoints int) {
	mergeFaces := 0
	var walk func(node *Node)
	walk = func(node *Node) {
		if node.IsLeaf() {
			return
		}
		MergeNodeFaces(d, node, maxPoints)
		mergeFaces += len(node.Faces)
		walk(node.Children[0])
		walk(node.Children[1])
	}
	walk(tree.HeadNode)
	conlog.Statf("%5d mergefaces", mergeFaces)
}

// checkColinear reports a face with three points in a line; merge
// output should never contain one.
func checkColinear(f *Face) bool {
	n := len(f.W)
	for i := 0; i < n; i++ {
		v1 := vec.Sub(f.W[i], f.W[(i+n-1)%n])
		v2 := vec.Sub(f.W[(i+1)%n], f.W[i])
		v1 = v1.Normalize()
		v2 = v2.Normalize()
		if vec.EpsilonEqual(v1, v2, EqualEpsilon) {
			return true
		}
	}
	return false
}
