package jsobj

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
)

func TestWriteCacheProfile(t *testing.T) {
	r := New()
	get := r.NewGetSite(Str("x"))
	set := r.NewSetSite(Str("y"))
	o := newObjectWith(r, nil, "x")
	for i := 0; i < 3; i++ {
		get.Get(o)
	}
	set.Set(o, valueInt(1), false)

	var buf bytes.Buffer
	if err := r.WriteCacheProfile(&buf); err != nil {
		t.Fatal(err)
	}
	p, err := profile.Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.SampleType) != 2 || p.SampleType[0].Type != "misses" || p.SampleType[1].Type != "hits" {
		t.Fatalf("sample types: %v", p.SampleType)
	}
	if len(p.Sample) != 2 {
		t.Fatalf("samples: %d", len(p.Sample))
	}
	found := false
	for _, s := range p.Sample {
		name := s.Location[0].Line[0].Function.Name
		if name == `get "x"` {
			found = true
			if s.Value[0] != 1 || s.Value[1] != 2 {
				t.Fatalf("values: %v", s.Value)
			}
			if s.Label["state"][0] != "monomorphic" {
				t.Fatalf("labels: %v", s.Label)
			}
		}
	}
	if !found {
		t.Fatal(`no sample for get "x"`)
	}
}

func TestWriteCacheProfileEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := New().WriteCacheProfile(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := profile.Parse(&buf); err != nil {
		t.Fatal(err)
	}
}
