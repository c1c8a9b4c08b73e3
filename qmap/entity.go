// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"qbsp/geom"
	"qbsp/math/vec"
)

type EPair struct {
	Key   string
	Value string
}

// Entity is one map entity: a key/value dictionary plus the brushes
// that belong to it.
type Entity struct {
	// key/value pairs in the order they were parsed
	Pairs   []EPair
	Origin  vec.Vec3
	Brushes []*Brush
	Bounds  geom.Bounds

	// area portal bookkeeping, written by the area flood
	AreaPortalNum int32
	PortalAreas   [2]int32
}

func (e *Entity) Value(key string) string {
	for _, p := range e.Pairs {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

func (e *Entity) SetValue(key, value string) {
	for i := range e.Pairs {
		if e.Pairs[i].Key == key {
			e.Pairs[i].Value = value
			return
		}
	}
	e.Pairs = append(e.Pairs, EPair{Key: key, Value: value})
}

func (e *Entity) ClassName() string {
	return e.Value("classname")
}

// CalcBounds unions the bounds of the entity brushes.
func (e *Entity) CalcBounds() {
	b := geom.EmptyBounds()
	for _, brush := range e.Brushes {
		b = geom.Union(b, brush.Bounds)
	}
	e.Bounds = b
}
