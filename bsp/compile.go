// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/pkg/errors"

	"qbsp/conlog"
	"qbsp/qmap"
	"qbsp/settings"
)

// CompileEntity runs the full pipeline over one brush entity and
// returns its finished tree. Area flooding only applies to the world.
func CompileEntity(d *qmap.Data, ent *qmap.Entity, opts *settings.Options) (*Tree, error) {
	world := ent == d.WorldEntity()

	tree, err := BuildTree(d, ent, opts)
	if err != nil {
		return nil, errors.Wrap(err, "build tree")
	}

	if err := MakeTreePortals(d, tree, opts); err != nil {
		return nil, errors.Wrap(err, "make portals")
	}

	if world {
		if err := PlaceOccupants(d, tree); err != nil {
			return nil, errors.Wrap(err, "place occupants")
		}
		FillOutside(d, tree)
		if err := FloodAreas(d, tree); err != nil {
			return nil, errors.Wrap(err, "flood areas")
		}
	}

	MarkVisibleSides(d, tree, ent)
	MakeFaces(d, tree)
	MergeAll(d, tree, opts.MaxEdges)
	EmitVertices(d, tree)
	TJunc(d, tree, opts)

	return tree, nil
}

// Compile processes the world and every inline brush model of the map.
func Compile(d *qmap.Data, opts *settings.Options) ([]*Tree, error) {
	var trees []*Tree
	for i, ent := range d.Entities {
		if len(ent.Brushes) == 0 {
			continue
		}
		conlog.Printf("--- model %d ---\n", len(trees))
		tree, err := CompileEntity(d, ent, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "entity %d (%s)", i, ent.ClassName())
		}
		trees = append(trees, tree)
	}
	if len(trees) == 0 {
		return nil, errors.New("map has no brush models")
	}
	return trees, nil
}
