// SPDX-License-Identifier: GPL-2.0-or-later

// Package qmap holds the in-memory model of a map under compilation:
// entities with their brushes, the shared plane registry, the texinfo
// names and the deduplicated vertex table.
package qmap

// Data is the compile context threaded through every phase. The plane
// registry is written at load time and frozen afterwards; the vertex
// table is written during face emission and read-only from then on.
type Data struct {
	Game     Game
	Planes   Planes
	Entities []*Entity
	Verts    *VertexTable

	texNames []string

	// area flood results
	CAreas         int32
	NumAreaPortals int32
}

func NewData(game Game) *Data {
	return &Data{
		Game:  game,
		Verts: NewVertexTable(),
	}
}

// WorldEntity returns the worldspawn entity.
func (d *Data) WorldEntity() *Entity {
	if len(d.Entities) == 0 {
		return nil
	}
	return d.Entities[0]
}

// FindTexInfo interns a texture name and returns its index.
func (d *Data) FindTexInfo(name string) int {
	for i, n := range d.texNames {
		if n == name {
			return i
		}
	}
	d.texNames = append(d.texNames, name)
	return len(d.texNames) - 1
}

func (d *Data) TexName(i int) string {
	if i < 0 || i >= len(d.texNames) {
		return ""
	}
	return d.texNames[i]
}
