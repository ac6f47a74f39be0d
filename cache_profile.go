package jsobj

import (
	"io"
	"strconv"

	"github.com/google/pprof/profile"
)

// CacheProfile returns the inline cache statistics of every site as a pprof
// profile. Each site is a location named after its operation and key; the
// sample values are the misses and hits of the site.
func (r *Runtime) CacheProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "misses", Unit: "count"},
			{Type: "hits", Unit: "count"},
		},
		PeriodType: &profile.ValueType{Type: "lookups", Unit: "count"},
		Period:     1,
	}
	funcs := make(map[string]*profile.Function)
	for i, s := range r.sites {
		name := s.op.String() + " " + strconv.Quote(s.key.String())
		fn := funcs[name]
		if fn == nil {
			fn = &profile.Function{
				ID:         uint64(len(p.Function) + 1),
				Name:       name,
				SystemName: name,
			}
			funcs[name] = fn
			p.Function = append(p.Function, fn)
		}
		loc := &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(s.misses), int64(s.hits)},
			Label: map[string][]string{
				"state": {s.state.String()},
			},
			NumLabel: map[string][]int64{
				"shapes": {int64(len(s.entries))},
			},
		})
	}
	if err := p.CheckValid(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteCacheProfile writes CacheProfile gzipped to w. The output can be
// inspected with "go tool pprof".
func (r *Runtime) WriteCacheProfile(w io.Writer) error {
	p, err := r.CacheProfile()
	if err != nil {
		return err
	}
	return p.Write(w)
}
