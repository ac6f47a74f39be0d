package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/dop251/jsobj"
)

// Result is the outcome of running one scenario.
type Result struct {
	Name     string
	Path     string
	Steps    int
	Failures []string
	Duration time.Duration

	Skipped    bool
	SkipReason string

	// Crosschecked is set when the crosscheck script was evaluated.
	Crosschecked bool
}

func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

func (r *Result) failf(format string, args ...interface{}) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Runner executes scenarios.
type Runner struct {
	logger     zerolog.Logger
	crosscheck bool
}

// NewRunner creates a Runner. With crosscheck set, scenarios that carry a
// crosscheck script also evaluate it with a full JavaScript engine.
func NewRunner(logger zerolog.Logger, crosscheck bool) *Runner {
	return &Runner{logger: logger, crosscheck: crosscheck}
}

// Run executes sc against rt. Assertion failures are collected in the
// result; an error is returned only for malformed scenarios or when ctx is
// done.
func (r *Runner) Run(ctx context.Context, rt *jsobj.Runtime, sc *Scenario) (*Result, error) {
	start := time.Now()
	res := &Result{Name: sc.Name, Path: sc.Path}
	defer func() {
		res.Duration = time.Since(start)
	}()

	ok, err := satisfies(sc.Requires)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}
	if !ok {
		res.Skipped = true
		res.SkipReason = fmt.Sprintf("requires %s, have %s", sc.Requires, jsobj.Version)
		r.logger.Debug().Str("scenario", sc.Name).Str("reason", res.SkipReason).Msg("skipped")
		return res, nil
	}

	e := newEnv(rt)
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s := &sc.Steps[i]
		where := fmt.Sprintf("step %d (%s, line %d)", i+1, s.Op, s.line)
		r.logger.Debug().Str("scenario", sc.Name).Int("step", i+1).Str("op", s.Op).Str("key", s.Key).Msg("exec")
		out, err := e.exec(s)
		if err != nil {
			return res, fmt.Errorf("%s: %s: %w", sc.Name, where, err)
		}
		if err := e.check(res, where, s.Expect, out); err != nil {
			return res, fmt.Errorf("%s: %s: %w", sc.Name, where, err)
		}
		res.Steps++
	}

	if r.crosscheck && sc.Crosscheck != nil {
		res.Crosschecked = true
		got, err := evalScript(ctx, sc.Crosscheck.Script)
		if err != nil {
			res.failf("crosscheck: %v", err)
		} else {
			want, err := decodeValue(&sc.Crosscheck.Expect, e.value)
			if err != nil {
				return res, fmt.Errorf("%s: crosscheck: %w", sc.Name, err)
			}
			if !want.SameAs(got) {
				res.failf("crosscheck: got %s, want %s", describe(got), describe(want))
			}
		}
	}

	r.logger.Debug().Str("scenario", sc.Name).Int("steps", res.Steps).Int("failures", len(res.Failures)).Msg("done")
	return res, nil
}

func satisfies(requires string) (bool, error) {
	if requires == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(requires)
	if err != nil {
		return false, fmt.Errorf("requires %q: %w", requires, err)
	}
	v, err := semver.NewVersion(jsobj.Version)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// outcome is what a step produced. Unset fields were not produced by the op.
type outcome struct {
	value jsobj.Value
	ok    *bool
	keys  []string
	same  *bool
	state string
	err   error
}

func boolOutcome(b bool) outcome {
	return outcome{ok: &b}
}

var errorKinds = map[string]error{
	"TypeError":  jsobj.TypeErrorClass,
	"RangeError": jsobj.RangeErrorClass,
	"CycleError": jsobj.CycleError,
}

func (e *env) check(res *Result, where string, exp *Expect, out outcome) error {
	wantErr := exp != nil && (exp.Error != "" || exp.ErrorKind != "")
	if out.err != nil {
		if !wantErr {
			res.failf("%s: unexpected error: %v", where, out.err)
			return nil
		}
		if exp.ErrorKind != "" {
			if exp.ErrorKind == "Exception" {
				var ex *jsobj.Exception
				if !errors.As(out.err, &ex) {
					res.failf("%s: error %v is not an exception", where, out.err)
				}
			} else {
				kind, ok := errorKinds[exp.ErrorKind]
				if !ok {
					return fmt.Errorf("unknown error kind %q", exp.ErrorKind)
				}
				if !errors.Is(out.err, kind) {
					res.failf("%s: error %v is not a %s", where, out.err, exp.ErrorKind)
				}
			}
		}
		if exp.Error != "" {
			re, err := regexp2.Compile(exp.Error, regexp2.ECMAScript)
			if err != nil {
				return err
			}
			if m, err := re.MatchString(out.err.Error()); err != nil {
				return err
			} else if !m {
				res.failf("%s: error %q does not match /%s/", where, out.err.Error(), exp.Error)
			}
		}
		return nil
	}
	if exp == nil {
		return nil
	}
	if wantErr {
		res.failf("%s: expected an error", where)
		return nil
	}
	if exp.Value.Kind != 0 {
		if out.value == nil {
			return errors.New("op does not produce a value")
		}
		want, err := decodeValue(&exp.Value, e.value)
		if err != nil {
			return err
		}
		if !want.SameAs(out.value) {
			res.failf("%s: got %s, want %s", where, describe(out.value), describe(want))
		}
	}
	if exp.Ok != nil {
		if out.ok == nil {
			return errors.New("op does not produce a boolean")
		}
		if *out.ok != *exp.Ok {
			res.failf("%s: got %t, want %t", where, *out.ok, *exp.Ok)
		}
	}
	if exp.Keys != nil {
		if out.keys == nil {
			return errors.New("op does not produce keys")
		}
		if got, want := strings.Join(out.keys, ","), strings.Join(*exp.Keys, ","); got != want || len(out.keys) != len(*exp.Keys) {
			res.failf("%s: keys [%s], want [%s]", where, got, want)
		}
	}
	if exp.Same != nil {
		if out.same == nil {
			return errors.New("op does not compare shapes")
		}
		if *out.same != *exp.Same {
			res.failf("%s: same shape %t, want %t", where, *out.same, *exp.Same)
		}
	}
	if exp.State != "" {
		if out.state == "" {
			return errors.New("op does not use a cache site")
		}
		if out.state != exp.State {
			res.failf("%s: cache state %s, want %s", where, out.state, exp.State)
		}
	}
	return nil
}
