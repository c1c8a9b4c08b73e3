// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import "testing"

func TestClusterContents(t *testing.T) {
	var g Quake2Game

	// solid only survives if both sides are solid
	if c := g.ClusterContents(ContentsSolid, ContentsSolid); c&ContentsSolid == 0 {
		t.Error("solid|solid lost the solid bit")
	}
	if c := g.ClusterContents(ContentsSolid, ContentsEmpty); c&ContentsSolid != 0 {
		t.Error("solid|empty kept the solid bit")
	}
	if c := g.ClusterContents(ContentsWater, ContentsMist); c != ContentsWater|ContentsMist {
		t.Errorf("water|mist = %#x", c)
	}
}

func TestVisibleContents(t *testing.T) {
	var g Quake2Game

	if c := g.VisibleContents(ContentsSolid, ContentsEmpty); c != ContentsSolid {
		t.Errorf("solid vs empty = %#x, want solid", c)
	}
	// the strongest (lowest) differing bit wins
	if c := g.VisibleContents(ContentsSolid|ContentsWater, ContentsWater); c != ContentsSolid {
		t.Errorf("solid+water vs water = %#x, want solid", c)
	}
	if c := g.VisibleContents(ContentsWater, ContentsWater); c != 0 {
		t.Errorf("water vs water = %#x, want 0", c)
	}
	// detail is not a visible bit
	if c := g.VisibleContents(ContentsDetail, 0); c != 0 {
		t.Errorf("detail vs empty = %#x, want 0", c)
	}
}

func TestPortalCanSeeThrough(t *testing.T) {
	var g Quake2Game

	if g.PortalCanSeeThrough(ContentsSolid, 0, false, false) {
		t.Error("flood passed a solid portal")
	}
	if g.PortalCanSeeThrough(ContentsAreaPortal, 0, false, false) {
		t.Error("flood passed an area portal")
	}
	if !g.PortalCanSeeThrough(0, 0, false, false) {
		t.Error("flood blocked between empty leafs")
	}
	if g.PortalCanSeeThrough(ContentsWater, 0, false, false) {
		t.Error("flood passed water without transwater")
	}
	if !g.PortalCanSeeThrough(ContentsWater, 0, true, false) {
		t.Error("flood blocked by water despite transwater")
	}
	if !g.PortalCanSeeThrough(ContentsSky, 0, false, true) {
		t.Error("flood blocked by sky despite transsky")
	}
	if g.PortalCanSeeThrough(ContentsLava, 0, true, true) {
		t.Error("flood passed lava")
	}
}
