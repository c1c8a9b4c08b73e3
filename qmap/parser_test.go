// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"fmt"
	"strings"
	"testing"

	"qbsp/math/vec"
)

// cubeBrushText writes the six sides of an axis aligned cube in map
// syntax, outward facing. extra is appended to every side line.
func cubeBrushText(mins, maxs vec.Vec3, tex, extra string) string {
	x0, y0, z0 := mins.X, mins.Y, mins.Z
	x1, y1, z1 := maxs.X, maxs.Y, maxs.Z

	side := func(p [3][3]float32) string {
		return fmt.Sprintf("( %g %g %g ) ( %g %g %g ) ( %g %g %g ) %s 0 0 0 1 1%s\n",
			p[0][0], p[0][1], p[0][2],
			p[1][0], p[1][1], p[1][2],
			p[2][0], p[2][1], p[2][2], tex, extra)
	}

	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(side([3][3]float32{{x1, y1, z1}, {x1, y1, z0}, {x1, y0, z0}})) // +x
	b.WriteString(side([3][3]float32{{x0, y0, z0}, {x0, y1, z0}, {x0, y1, z1}})) // -x
	b.WriteString(side([3][3]float32{{x0, y1, z0}, {x1, y1, z0}, {x1, y1, z1}})) // +y
	b.WriteString(side([3][3]float32{{x1, y0, z1}, {x1, y0, z0}, {x0, y0, z0}})) // -y
	b.WriteString(side([3][3]float32{{x0, y0, z1}, {x0, y1, z1}, {x1, y1, z1}})) // +z
	b.WriteString(side([3][3]float32{{x1, y1, z0}, {x0, y1, z0}, {x0, y0, z0}})) // -z
	b.WriteString("}\n")
	return b.String()
}

func TestLoadMapCube(t *testing.T) {
	src := "{\n\"classname\" \"worldspawn\"\n" +
		cubeBrushText(vec.Vec3{}, vec.Vec3{X: 64, Y: 64, Z: 64}, "base/wall", "") +
		"}\n" +
		"{\n\"classname\" \"info_player_start\"\n\"origin\" \"32 32 24\"\n}\n"

	d := NewData(&Quake2Game{})
	if err := LoadMap(d, src, 8192); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	if len(d.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(d.Entities))
	}
	world := d.WorldEntity()
	if world.ClassName() != "worldspawn" {
		t.Errorf("world classname = %q", world.ClassName())
	}
	if len(world.Brushes) != 1 {
		t.Fatalf("world brushes = %d, want 1", len(world.Brushes))
	}

	b := world.Brushes[0]
	if b.Contents != ContentsSolid {
		t.Errorf("brush contents = %#x, want solid", b.Contents)
	}
	if len(b.Sides) != 6 {
		t.Fatalf("brush sides = %d, want 6", len(b.Sides))
	}
	for i, s := range b.Sides {
		if len(s.Winding) != 4 {
			t.Errorf("side %d winding has %d points, want 4", i, len(s.Winding))
		}
	}
	want := vec.Vec3{X: 64, Y: 64, Z: 64}
	if b.Bounds.Mins != (vec.Vec3{}) || b.Bounds.Maxs != want {
		t.Errorf("brush bounds = %v %v", b.Bounds.Mins, b.Bounds.Maxs)
	}

	start := d.Entities[1]
	if start.Origin != (vec.Vec3{X: 32, Y: 32, Z: 24}) {
		t.Errorf("start origin = %v", start.Origin)
	}
}

func TestLoadMapAreaPortal(t *testing.T) {
	src := "{\n\"classname\" \"worldspawn\"\n" +
		cubeBrushText(vec.Vec3{}, vec.Vec3{X: 64, Y: 64, Z: 64}, "base/wall", "") +
		"}\n" +
		"{\n\"classname\" \"func_areaportal\"\n" +
		cubeBrushText(vec.Vec3{X: 16, Y: 16, Z: 16}, vec.Vec3{X: 32, Y: 32, Z: 32}, "base/portal", "") +
		"}\n"

	d := NewData(&Quake2Game{})
	if err := LoadMap(d, src, 8192); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	world := d.WorldEntity()
	if len(world.Brushes) != 2 {
		t.Fatalf("world brushes = %d, want 2 (area portal brush moved)", len(world.Brushes))
	}
	ap := world.Brushes[1]
	if ap.Contents != ContentsAreaPortal {
		t.Errorf("area portal brush contents = %#x", ap.Contents)
	}
	if ap.FuncAreaportal != d.Entities[1] {
		t.Error("area portal brush does not name its entity")
	}
	if d.Entities[1].AreaPortalNum != 1 {
		t.Errorf("AreaPortalNum = %d, want 1", d.Entities[1].AreaPortalNum)
	}
	if len(d.Entities[1].Brushes) != 0 {
		t.Errorf("area portal entity kept %d brushes", len(d.Entities[1].Brushes))
	}
	if d.NumAreaPortals != 1 {
		t.Errorf("NumAreaPortals = %d, want 1", d.NumAreaPortals)
	}
}

func TestLoadMapOriginBrushDropped(t *testing.T) {
	contents := fmt.Sprintf(" %d 0 0", uint32(ContentsOrigin))
	src := "{\n\"classname\" \"worldspawn\"\n" +
		cubeBrushText(vec.Vec3{}, vec.Vec3{X: 64, Y: 64, Z: 64}, "base/wall", "") +
		cubeBrushText(vec.Vec3{X: 8, Y: 8, Z: 8}, vec.Vec3{X: 16, Y: 16, Z: 16}, "base/origin", contents) +
		"}\n"

	d := NewData(&Quake2Game{})
	if err := LoadMap(d, src, 8192); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if got := len(d.WorldEntity().Brushes); got != 1 {
		t.Errorf("world brushes = %d, want 1 (origin brush dropped)", got)
	}
}

func TestLoadMapDuplicatePlane(t *testing.T) {
	cube := cubeBrushText(vec.Vec3{}, vec.Vec3{X: 64, Y: 64, Z: 64}, "base/wall", "")
	// repeat the first side line inside the brush
	lines := strings.SplitAfter(cube, "\n")
	dup := lines[0] + lines[1] + lines[1] + strings.Join(lines[2:], "")

	src := "{\n\"classname\" \"worldspawn\"\n" + dup + "}\n"
	d := NewData(&Quake2Game{})
	if err := LoadMap(d, src, 8192); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if got := len(d.WorldEntity().Brushes[0].Sides); got != 6 {
		t.Errorf("sides = %d after duplicate plane, want 6", got)
	}
}
