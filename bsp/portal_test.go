// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"testing"

	"qbsp/qmap"
	"qbsp/settings"
)

// visPortal links a portal between two fresh leafs with the given
// contents. onNode nil models a head node box portal.
func visPortal(a, b qmap.Contents, onNode *Node) *Portal {
	front := &Node{PlaneNum: PlanenumLeaf, Contents: a}
	back := &Node{PlaneNum: PlanenumLeaf, Contents: b}
	p := &Portal{OnNode: onNode}
	if err := addPortalToNodes(p, front, back); err != nil {
		panic(err)
	}
	return p
}

func TestVisFlood(t *testing.T) {
	d := qmap.NewData(&qmap.Quake2Game{})
	on := &Node{PlaneNum: 0}
	opts := settings.Default()

	if !VisFlood(d, visPortal(qmap.ContentsEmpty, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood blocked between empty leafs")
	}
	if VisFlood(d, visPortal(qmap.ContentsEmpty, qmap.ContentsEmpty, nil), &opts) {
		t.Error("flood passed a portal to the outside leaf")
	}
	if VisFlood(d, visPortal(qmap.ContentsSolid, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood passed a solid leaf")
	}
	if VisFlood(d, visPortal(qmap.ContentsWater, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood passed water with transwater off")
	}
	if VisFlood(d, visPortal(qmap.ContentsSky, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood passed sky with transsky off")
	}

	opts.TransWater = true
	opts.TransSky = true
	if !VisFlood(d, visPortal(qmap.ContentsWater, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood blocked by water with transwater on")
	}
	if !VisFlood(d, visPortal(qmap.ContentsSky, qmap.ContentsEmpty, on), &opts) {
		t.Error("flood blocked by sky with transsky on")
	}
	if VisFlood(d, visPortal(qmap.ContentsSolid, qmap.ContentsWater, on), &opts) {
		t.Error("transwater let the flood pass a solid leaf")
	}
}
