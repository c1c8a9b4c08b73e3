// SPDX-License-Identifier: GPL-2.0-or-later

package qmap

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"qbsp/conlog"
	"qbsp/geom"
	"qbsp/math/vec"
)

type token struct {
	text string
	line int
}

type parser struct {
	toks []token
	pos  int
}

func tokenize(src string) []token {
	var toks []token
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case unicode.IsSpace(rune(c)):
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				j++
			}
			toks = append(toks, token{text: src[i+1 : j], line: line})
			i = j + 1
		case c == '{' || c == '}' || c == '(' || c == ')':
			toks = append(toks, token{text: string(c), line: line})
			i++
		default:
			j := i
			for j < len(src) && !unicode.IsSpace(rune(src[j])) &&
				src[j] != '(' && src[j] != ')' && src[j] != '{' && src[j] != '}' {
				j++
			}
			toks = append(toks, token{text: src[i:j], line: line})
			i = j
		}
	}
	return toks
}

func (p *parser) done() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) next() (token, error) {
	if p.done() {
		return token{}, errors.New("unexpected end of map file")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos].text
}

func (p *parser) expect(text string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.text != text {
		return errors.Errorf("line %d: expected %q, got %q", t.line, text, t.text)
	}
	return nil
}

func (p *parser) float() (float32, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(t.text, 32)
	if err != nil {
		return 0, errors.Errorf("line %d: bad number %q", t.line, t.text)
	}
	return float32(f), nil
}

func (p *parser) point() (vec.Vec3, error) {
	var pt vec.Vec3
	if err := p.expect("("); err != nil {
		return pt, err
	}
	for i := 0; i < 3; i++ {
		f, err := p.float()
		if err != nil {
			return pt, err
		}
		pt.SetIdx(i, f)
	}
	return pt, p.expect(")")
}

func (p *parser) parseBrush(d *Data) (*Brush, error) {
	b := &Brush{}
	for p.peek() != "}" {
		var pts [3]vec.Vec3
		for i := range pts {
			pt, err := p.point()
			if err != nil {
				return nil, err
			}
			pts[i] = pt
		}
		texTok, err := p.next()
		if err != nil {
			return nil, err
		}
		// offsets, rotation, scale
		for i := 0; i < 5; i++ {
			if _, err := p.float(); err != nil {
				return nil, err
			}
		}

		contents := ContentsSolid
		// optional contents, surface flags and value
		if t := p.peek(); t != "" && t != "(" && t != "}" {
			cv, err := p.float()
			if err != nil {
				return nil, err
			}
			if _, err := p.float(); err != nil {
				return nil, err
			}
			if _, err := p.float(); err != nil {
				return nil, err
			}
			contents = Contents(uint32(cv))
		}

		plane, ok := geom.PlaneFromPoints(pts[0], pts[1], pts[2])
		if !ok {
			return nil, errors.Errorf("line %d: brush plane with colinear points", texTok.line)
		}
		planeNum := d.Planes.AddOrFind(plane)

		dup := false
		for _, s := range b.Sides {
			if s.PlaneNum == planeNum {
				conlog.Warnf("brush with duplicate plane (line %d)", texTok.line)
				dup = true
			}
		}
		if dup {
			continue
		}

		b.Sides = append(b.Sides, &Side{
			PlaneNum: planeNum,
			TexInfo:  d.FindTexInfo(texTok.text),
			Contents: contents,
		})
		b.Contents |= contents
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	if len(b.Sides) < 4 {
		return nil, errors.Errorf("brush with only %d sides", len(b.Sides))
	}
	return b, nil
}

func (p *parser) parseEntity(d *Data) (*Entity, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	e := &Entity{}
	for {
		if p.peek() == "}" {
			p.pos++
			break
		}
		if p.peek() == "{" {
			p.pos++
			b, err := p.parseBrush(d)
			if err != nil {
				return nil, err
			}
			e.Brushes = append(e.Brushes, b)
			continue
		}
		key, err := p.next()
		if err != nil {
			return nil, err
		}
		val, err := p.next()
		if err != nil {
			return nil, err
		}
		e.Pairs = append(e.Pairs, EPair{Key: key.text, Value: val.text})
	}

	if origin := e.Value("origin"); origin != "" {
		parts := strings.Fields(origin)
		for i := 0; i < len(parts) && i < 3; i++ {
			f, err := strconv.ParseFloat(parts[i], 32)
			if err != nil {
				return nil, errors.Wrapf(err, "bad origin %q", origin)
			}
			e.Origin.SetIdx(i, float32(f))
		}
	}
	return e, nil
}

// LoadMap parses the map text into d. Area portal entities hand their
// brushes to the world model, tagged with area portal contents, so
// the flood fill sees them.
func LoadMap(d *Data, src string, worldExtent float32) error {
	p := &parser{toks: tokenize(src)}
	for !p.done() {
		e, err := p.parseEntity(d)
		if err != nil {
			return errors.Wrap(err, "parsing entity")
		}
		d.Entities = append(d.Entities, e)
	}
	if len(d.Entities) == 0 {
		return errors.New("map file without entities")
	}

	world := d.WorldEntity()
	for _, e := range d.Entities[1:] {
		if e.ClassName() != "func_areaportal" {
			continue
		}
		d.NumAreaPortals++
		e.AreaPortalNum = d.NumAreaPortals
		for _, b := range e.Brushes {
			b.Contents = ContentsAreaPortal
			for _, s := range b.Sides {
				s.Contents = ContentsAreaPortal
			}
			b.FuncAreaportal = e
			world.Brushes = append(world.Brushes, b)
		}
		e.Brushes = nil
	}

	for _, e := range d.Entities {
		kept := e.Brushes[:0]
		for _, b := range e.Brushes {
			if b.Contents&ContentsOrigin != 0 {
				continue
			}
			if err := b.MakeWindings(&d.Planes, worldExtent); err != nil {
				return errors.Wrapf(err, "entity %q", e.ClassName())
			}
			kept = append(kept, b)
		}
		e.Brushes = kept
		e.CalcBounds()
	}
	return nil
}
