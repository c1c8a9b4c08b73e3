// SPDX-License-Identifier: GPL-2.0-or-later

// Package settings holds the compile options. Defaults can be
// overridden by a YAML profile and by command line flags.
package settings

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TJuncLevel selects how much effort goes into T-junction repair.
type TJuncLevel int

const (
	TJuncNone TJuncLevel = iota
	TJuncRotate
	TJuncRetopologize
	TJuncMWT
)

var tjuncNames = map[string]TJuncLevel{
	"none":         TJuncNone,
	"rotate":       TJuncRotate,
	"retopologize": TJuncRetopologize,
	"mwt":          TJuncMWT,
}

func (l TJuncLevel) String() string {
	switch l {
	case TJuncNone:
		return "none"
	case TJuncRotate:
		return "rotate"
	case TJuncRetopologize:
		return "retopologize"
	case TJuncMWT:
		return "mwt"
	}
	return "unknown"
}

func ParseTJuncLevel(s string) (TJuncLevel, error) {
	if l, ok := tjuncNames[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, errors.Errorf("unknown tjunc level %q", s)
}

func (l *TJuncLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTJuncLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l TJuncLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// Options are the knobs of the compile pipeline.
type Options struct {
	// Epsilon is the portal clip epsilon.
	Epsilon float32 `yaml:"epsilon"`
	// WorldExtent bounds all coordinates; base windings reach this far.
	WorldExtent float32 `yaml:"worldextent"`
	// MaxEdges caps the vertex count of output fragments; 0 disables
	// fragmentation.
	MaxEdges int `yaml:"maxedges"`
	// TJunc selects the T-junction repair level.
	TJunc TJuncLevel `yaml:"tjunc"`
	// TransWater treats water contents as transparent for visibility.
	TransWater bool `yaml:"transwater"`
	// TransSky treats sky contents as transparent for visibility.
	TransSky bool `yaml:"transsky"`
	// Threads caps the worker count of parallel passes; 0 means one
	// worker per CPU.
	Threads int `yaml:"threads"`
}

func Default() Options {
	return Options{
		Epsilon:     0.1,
		WorldExtent: 8192,
		MaxEdges:    32,
		TJunc:       TJuncRotate,
		TransWater:  false,
		TransSky:    false,
		Threads:     0,
	}
}

// Validate rejects option values the pipeline cannot run with.
// Fragments need at least a triangle, so MaxEdges below 3 would loop
// the face splitter forever.
func (o *Options) Validate() error {
	if o.MaxEdges != 0 && o.MaxEdges < 3 {
		return errors.Errorf("maxedges %d: need 0 (unlimited) or at least 3", o.MaxEdges)
	}
	if o.Threads < 0 {
		return errors.Errorf("threads %d: must not be negative", o.Threads)
	}
	return nil
}

// Load reads a YAML profile over the defaults.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(err, "reading settings profile")
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrap(err, "parsing settings profile")
	}
	if err := opts.Validate(); err != nil {
		return opts, errors.Wrap(err, "settings profile")
	}
	return opts, nil
}
