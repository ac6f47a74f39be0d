// Package scenario runs object model regression scenarios written in YAML.
//
// A scenario is a named list of steps, each one an object model operation
// with an optional expectation:
//
//	name: inherited keys are enumerated once
//	requires: ">= 0.1.0"
//	steps:
//	  - {op: new, id: proto}
//	  - {op: set, target: proto, key: a, value: 2}
//	  - {op: set, target: proto, key: b, value: 3}
//	  - {op: new, id: o, proto: proto}
//	  - {op: set, target: o, key: a, value: 1}
//	  - op: enumerate
//	    target: o
//	    expect: {keys: [a, b]}
//	crosscheck:
//	  script: |
//	    var o = Object.create({a: 2, b: 3}); o.a = 1;
//	    var k = []; for (var p in o) k.push(p); k.join()
//	  expect: "a,b"
//
// Values are plain YAML scalars; !undefined is the undefined value, !ref x
// refers to the object or function stored under id x, and !num parses
// JavaScript number literals such as -0, NaN and Infinity.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML scenario file.
type Scenario struct {
	Name       string      `yaml:"name"`
	Requires   string      `yaml:"requires,omitempty"`
	Steps      []Step      `yaml:"steps"`
	Crosscheck *Crosscheck `yaml:"crosscheck,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Crosscheck is a JavaScript snippet evaluated by a full engine. Its
// completion value must match Expect.
type Crosscheck struct {
	Script string    `yaml:"script"`
	Expect yaml.Node `yaml:"expect"`
}

type Step struct {
	Op     string      `yaml:"op"`
	ID     string      `yaml:"id,omitempty"`
	Target string      `yaml:"target,omitempty"`
	Proto  string      `yaml:"proto,omitempty"`
	Key    string      `yaml:"key,omitempty"`
	Value  yaml.Node   `yaml:"value,omitempty"`
	Args   []yaml.Node `yaml:"args,omitempty"`
	This   string      `yaml:"this,omitempty"`
	Strict bool        `yaml:"strict,omitempty"`
	All    bool        `yaml:"all,omitempty"`
	Desc   *Descriptor `yaml:"desc,omitempty"`
	Other  string      `yaml:"other,omitempty"`
	Site   string      `yaml:"site,omitempty"`
	Func   *Func       `yaml:"func,omitempty"`
	Expect *Expect     `yaml:"expect,omitempty"`

	line int
}

// Descriptor is a property descriptor. Get and Set name functions created
// by a "function" step; "undefined" sets the accessor half to undefined.
type Descriptor struct {
	Value        yaml.Node `yaml:"value,omitempty"`
	Writable     *bool     `yaml:"writable,omitempty"`
	Enumerable   *bool     `yaml:"enumerable,omitempty"`
	Configurable *bool     `yaml:"configurable,omitempty"`
	Get          string    `yaml:"get,omitempty"`
	Set          string    `yaml:"set,omitempty"`
}

// Func describes a host function:
//
//	return  returns Value
//	this    returns the this value
//	read    returns the content of Cell
//	store   stores the first argument into Cell
//	prefix  returns Prefix followed by the first argument
//	join    returns the arguments joined with ","
//	throw   throws Value
type Func struct {
	Kind   string    `yaml:"kind"`
	Value  yaml.Node `yaml:"value,omitempty"`
	Cell   string    `yaml:"cell,omitempty"`
	Prefix string    `yaml:"prefix,omitempty"`
}

// Expect is what a step must produce. Only the fields that are set are
// checked.
type Expect struct {
	Value     yaml.Node `yaml:"value,omitempty"`
	Ok        *bool     `yaml:"ok,omitempty"`
	Keys      *[]string `yaml:"keys,omitempty"`
	Error     string    `yaml:"error,omitempty"`
	ErrorKind string    `yaml:"errorKind,omitempty"`
	Same      *bool     `yaml:"same,omitempty"`
	State     string    `yaml:"state,omitempty"`
}

var errNoSteps = errors.New("scenario has no steps")

// Parse decodes a scenario from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && err != io.EOF {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, errNoSteps
	}
	recordLines(&doc, &sc)
	return &sc, nil
}

// recordLines remembers the source line of every step for error messages.
func recordLines(doc *yaml.Node, sc *Scenario) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "steps" {
			continue
		}
		for j, n := range root.Content[i+1].Content {
			if j < len(sc.Steps) {
				sc.Steps[j].line = n.Line
			}
		}
	}
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	return sc, nil
}

// LoadDir loads every .yaml and .yml file in dir, in name order.
func LoadDir(dir string) ([]*Scenario, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)
	res := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	return res, nil
}
