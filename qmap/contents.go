// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

// Contents describes what fills a brush or leaf.
type Contents uint32

const (
	ContentsEmpty Contents = 0

	ContentsSolid  Contents = 1 << 0
	ContentsWindow Contents = 1 << 1
	ContentsAux    Contents = 1 << 2
	ContentsLava   Contents = 1 << 3
	ContentsSlime  Contents = 1 << 4
	ContentsWater  Contents = 1 << 5
	ContentsMist   Contents = 1 << 6
	ContentsSky    Contents = 1 << 7

	ContentsAreaPortal Contents = 1 << 15

	ContentsPlayerClip  Contents = 1 << 16
	ContentsMonsterClip Contents = 1 << 17

	ContentsOrigin Contents = 1 << 24

	ContentsDetail      Contents = 1 << 27
	ContentsTranslucent Contents = 1 << 28
	ContentsLadder      Contents = 1 << 29

	// contents above this bit never show a face
	lastVisibleContents = ContentsSky
)

// Game supplies the game specific contents rules the compiler is
// parameterized on.
type Game interface {
	// ClusterContents merges the contents of two sibling clusters.
	ClusterContents(a, b Contents) Contents
	// VisibleContents returns the strongest contents bit that forms
	// a visible face between a and b, or 0.
	VisibleContents(a, b Contents) Contents
	// PortalCanSeeThrough reports whether a visibility flood may pass
	// a portal with the given contents on its sides.
	PortalCanSeeThrough(a, b Contents, transWater, transSky bool) bool
	// ContentsContains reports whether the brush contents cover vis.
	ContentsContains(brush, vis Contents) bool
	CreateSolidContents() Contents
	IsEmpty(c Contents) bool
	IsAnySolid(c Contents) bool
}

// Quake2Game is the default contents lattice.
type Quake2Game struct{}

func (Quake2Game) ClusterContents(a, b Contents) Contents {
	c := a | b
	// a cluster is only solid if every leaf in it is solid
	if a&ContentsSolid == 0 || b&ContentsSolid == 0 {
		c &^= ContentsSolid
	}
	return c
}

func (Quake2Game) VisibleContents(a, b Contents) Contents {
	diff := a ^ b
	for bit := Contents(1); bit <= lastVisibleContents; bit <<= 1 {
		if diff&bit != 0 {
			return bit
		}
	}
	return 0
}

func (Quake2Game) PortalCanSeeThrough(a, b Contents, transWater, transSky bool) bool {
	c := a | b
	if transWater {
		c &^= ContentsWater
	}
	if transSky {
		c &^= ContentsSky
	}
	if c&(ContentsSolid|ContentsWindow|ContentsLava|ContentsSlime|ContentsAreaPortal) != 0 {
		return false
	}
	if c&(ContentsWater|ContentsSky) != 0 {
		return false
	}
	return true
}

func (Quake2Game) ContentsContains(brush, vis Contents) bool {
	return brush&vis != 0
}

func (Quake2Game) CreateSolidContents() Contents {
	return ContentsSolid
}

func (Quake2Game) IsEmpty(c Contents) bool {
	return c == 0
}

func (Quake2Game) IsAnySolid(c Contents) bool {
	return c&ContentsSolid != 0
}
