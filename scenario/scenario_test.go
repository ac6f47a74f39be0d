package scenario

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dop251/jsobj"
)

func run(t *testing.T, src string, crosscheck bool) (*Result, error) {
	t.Helper()
	sc, err := Parse([]byte(src))
	require.NoError(t, err)
	return NewRunner(zerolog.Nop(), crosscheck).Run(context.Background(), jsobj.New(), sc)
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata")
	require.NoError(t, err)
	var names []string
	for _, sc := range scenarios {
		names = append(names, filepath.Base(sc.Path))
	}
	assert.Equal(t, []string{"cache.yaml", "enumerate.yaml", "fallback.yaml", "future.yaml", "proto.yaml", "readonly.yaml"}, names)
}

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata")
	require.NoError(t, err)
	runner := NewRunner(zerolog.Nop(), true)
	for _, sc := range scenarios {
		t.Run(filepath.Base(sc.Path), func(t *testing.T) {
			res, err := runner.Run(context.Background(), jsobj.New(), sc)
			require.NoError(t, err)
			if res.Skipped {
				assert.Equal(t, "future.yaml", filepath.Base(sc.Path))
				return
			}
			assert.Empty(t, res.Failures)
			assert.Equal(t, len(sc.Steps), res.Steps)
			assert.Equal(t, sc.Crosscheck != nil, res.Crosschecked)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorIs(t, err, errNoSteps)

	_, err = Parse([]byte("steps: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("steps:\n  - {op: new, id: o}\n  - {op: get, target: o, key: x, expct: {value: 1}}\n"))
	assert.ErrorContains(t, err, "field expct not found")

	_, err = Parse([]byte("stpes:\n  - {op: new, id: o}\n"))
	assert.ErrorContains(t, err, "field stpes not found")
}

func TestScalarValues(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - {op: new, id: o}
  - {op: set, target: o, key: n, value: 7}
  - {op: set, target: o, key: s, value: seven}
  - {op: set, target: o, key: z, value: !num -0}
  - {op: set, target: o, key: u}
  - {op: function, id: f, func: {kind: join}}
  - {op: call, target: f, args: [1, two, !undefined ]}
`))
	require.NoError(t, err)
	assert.Equal(t, yaml.ScalarNode, sc.Steps[1].Value.Kind)
	assert.Equal(t, "7", sc.Steps[1].Value.Value)
	assert.Zero(t, sc.Steps[4].Value.Kind)
	require.Len(t, sc.Steps[6].Args, 3)

	res, err := NewRunner(zerolog.Nop(), false).Run(context.Background(), jsobj.New(), sc)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	res, err = run(t, `
steps:
  - {op: new, id: o}
  - {op: set, target: o, key: n, value: 7}
  - {op: get, target: o, key: n, expect: {value: 7}}
  - {op: get, target: o, key: u, expect: {value: !undefined }}
  - op: define
    target: o
    key: d
    desc: {value: "x", writable: false}
    expect: {ok: true}
  - {op: get, target: o, key: d, expect: {value: x}}
  - {op: function, id: f, func: {kind: join}}
  - {op: call, target: f, args: [1, two, !num NaN], expect: {value: "1,two,NaN"}}
  - {op: function, id: g, func: {kind: return, value: 3}}
  - {op: call, target: g, expect: {value: 3}}
`, false)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 10, res.Steps)
}

func TestStepLines(t *testing.T) {
	sc, err := Parse([]byte("name: lines\nsteps:\n  - {op: new, id: a}\n\n  - {op: new, id: b}\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Steps[0].line)
	assert.Equal(t, 5, sc.Steps[1].line)
}

func TestFailuresAreReported(t *testing.T) {
	res, err := run(t, `
name: wrong
steps:
  - {op: new, id: o}
  - {op: set, target: o, key: x, value: 1}
  - op: get
    target: o
    key: x
    expect: {value: 2}
  - op: set
    target: o
    key: x
    value: 3
    expect: {errorKind: TypeError}
  - op: enumerate
    target: o
    expect: {keys: [y]}
`, false)
	require.NoError(t, err)
	require.Len(t, res.Failures, 3)
	assert.Contains(t, res.Failures[0], "got 1, want 2")
	assert.Contains(t, res.Failures[1], "expected an error")
	assert.Contains(t, res.Failures[2], "keys [x], want [y]")
	assert.True(t, res.Failed())
}

func TestUnexpectedError(t *testing.T) {
	res, err := run(t, `
steps:
  - {op: new, id: a}
  - {op: new, id: b, proto: a}
  - {op: setProto, target: a, proto: b}
`, false)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "unexpected error")
	assert.Contains(t, res.Failures[0], "step 3 (setProto, line 5)")
}

func TestMalformedScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown op", "steps:\n  - {op: new, id: o}\n  - {op: frobnicate, target: o}\n"},
		{"undefined target", "steps:\n  - {op: get, target: nope, key: x}\n"},
		{"bad ref", "steps:\n  - {op: new, id: o}\n  - {op: set, target: o, key: x, value: !ref nope}\n"},
		{"bad requires", "requires: \"not a version\"\nsteps:\n  - {op: new, id: o}\n"},
		{"bad regexp", "steps:\n  - {op: new, id: o}\n  - {op: freeze, target: o}\n  - {op: delete, target: o, key: x, strict: true, expect: {error: \"(\"}}\n  - {op: define, target: o, key: x, desc: {value: 1}, expect: {error: \"(\"}}\n"},
		{"unknown error kind", "steps:\n  - {op: new, id: o}\n  - {op: freeze, target: o}\n  - {op: define, target: o, key: x, desc: {value: 1}, expect: {errorKind: SyntaxError}}\n"},
		{"no value produced", "steps:\n  - {op: new, id: o}\n  - {op: freeze, target: o, expect: {value: 1}}\n"},
		{"unknown function kind", "steps:\n  - {op: function, id: f, func: {kind: nope}}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src, false)
			assert.Error(t, err)
		})
	}
}

func TestRequiresSkips(t *testing.T) {
	res, err := run(t, "requires: \"< 0.1.0\"\nsteps:\n  - {op: new, id: o}\n", false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Contains(t, res.SkipReason, jsobj.Version)
	assert.Zero(t, res.Steps)
}

func TestContextCanceled(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - {op: new, id: o}\n"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRunner(zerolog.Nop(), false).Run(ctx, jsobj.New(), sc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccessorsAndCells(t *testing.T) {
	res, err := run(t, `
steps:
  - {op: function, id: get, func: {kind: read, cell: v}}
  - {op: function, id: put, func: {kind: store, cell: v}}
  - {op: function, id: self, func: {kind: this}}
  - {op: new, id: proto}
  - op: define
    target: proto
    key: x
    desc: {get: get, set: put, enumerable: true, configurable: true}
    expect: {ok: true}
  - op: define
    target: proto
    key: me
    desc: {get: self}
  - {op: new, id: o, proto: proto}
  - {op: set, target: o, key: x, value: 7}
  - op: cell
    key: v
    expect: {value: 7}
  - op: get
    target: o
    key: x
    expect: {value: 7}
  - op: hasOwn
    target: o
    key: x
    expect: {ok: false}
  - op: get
    target: o
    key: me
    expect: {value: !ref o}
  - op: define
    target: proto
    key: x
    desc: {set: undefined}
    expect: {ok: true}
  - op: set
    target: o
    key: x
    value: 8
    strict: true
    expect: {errorKind: TypeError, error: "only a getter"}
`, false)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
}

func TestCrosscheckMismatch(t *testing.T) {
	res, err := run(t, `
steps:
  - {op: new, id: o}
crosscheck:
  script: "1 + 1"
  expect: 3
`, true)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "got 2, want 3")

	res, err = run(t, `
steps:
  - {op: new, id: o}
crosscheck:
  script: "throw new Error('nope')"
  expect: 1
`, true)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "nope")
}

func TestCrosscheckDisabled(t *testing.T) {
	res, err := run(t, `
steps:
  - {op: new, id: o}
crosscheck:
  script: "1"
  expect: 3
`, false)
	require.NoError(t, err)
	assert.False(t, res.Crosschecked)
	assert.Empty(t, res.Failures)
}

func TestEvalScript(t *testing.T) {
	tests := []struct {
		script string
		want   jsobj.Value
	}{
		{"undefined", jsobj.Undefined()},
		{"null", jsobj.Null()},
		{"'a' + 1", jsobj.ToValue("a1")},
		{"-0", jsobj.ToValue(math.Copysign(0, -1))},
		{"0.5", jsobj.ToValue(0.5)},
		{"[1, 2]", jsobj.ToValue("1,2")},
		{"typeof require", jsobj.ToValue("function")},
		{"typeof console.log", jsobj.ToValue("function")},
	}
	for _, tt := range tests {
		got, err := evalScript(context.Background(), tt.script)
		require.NoError(t, err, tt.script)
		assert.True(t, tt.want.SameAs(got), "%s: got %s", tt.script, describe(got))
	}
}

func TestDecodeValue(t *testing.T) {
	nan := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!num", Value: "NaN"}
	v, err := decodeValue(nan, nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.Export().(float64)))

	inf := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!num", Value: "-Infinity"}
	v, err = decodeValue(inf, nil)
	require.NoError(t, err)
	assert.Equal(t, math.Inf(-1), v.Export())

	_, err = decodeValue(&yaml.Node{Kind: yaml.SequenceNode}, nil)
	assert.Error(t, err)

	v, err = decodeValue(nil, nil)
	require.NoError(t, err)
	assert.True(t, jsobj.IsUndefined(v))

	v, err = decodeValue(&yaml.Node{}, nil)
	require.NoError(t, err)
	assert.True(t, jsobj.IsUndefined(v))
}
