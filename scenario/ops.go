package scenario

import (
	"fmt"
	"strings"

	"github.com/dop251/jsobj"
)

// env holds the named values of a running scenario.
type env struct {
	rt       *jsobj.Runtime
	vals     map[string]jsobj.Value
	cells    map[string]jsobj.Value
	getSites map[string]*jsobj.GetSite
	setSites map[string]*jsobj.SetSite
}

func newEnv(rt *jsobj.Runtime) *env {
	return &env{
		rt:       rt,
		vals:     make(map[string]jsobj.Value),
		cells:    make(map[string]jsobj.Value),
		getSites: make(map[string]*jsobj.GetSite),
		setSites: make(map[string]*jsobj.SetSite),
	}
}

func (e *env) value(name string) (jsobj.Value, error) {
	v, ok := e.vals[name]
	if !ok {
		return nil, fmt.Errorf("undefined reference %q", name)
	}
	return v, nil
}

func (e *env) object(name string) (*jsobj.Object, error) {
	if name == "" {
		return nil, fmt.Errorf("missing target")
	}
	v, err := e.value(name)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*jsobj.Object)
	if !ok {
		return nil, fmt.Errorf("%q is not an object", name)
	}
	return o, nil
}

// proto resolves a prototype name; "null" is the null prototype.
func (e *env) proto(name string) (*jsobj.Object, error) {
	if name == "null" {
		return nil, nil
	}
	return e.object(name)
}

func (e *env) store(id string, v jsobj.Value) {
	if id != "" && v != nil {
		e.vals[id] = v
	}
}

func (e *env) cell(name string) jsobj.Value {
	if v, ok := e.cells[name]; ok {
		return v
	}
	return jsobj.Undefined()
}

func (e *env) siteName(s *Step) string {
	if s.Site != "" {
		return s.Site
	}
	return s.Key
}

func (e *env) exec(s *Step) (outcome, error) {
	switch s.Op {
	case "new":
		var o *jsobj.Object
		if s.Proto == "" {
			o = e.rt.NewObject()
		} else {
			proto, err := e.proto(s.Proto)
			if err != nil {
				return outcome{}, err
			}
			o = e.rt.NewObjectWithProto(proto)
		}
		if s.ID == "" {
			return outcome{}, fmt.Errorf("new needs an id")
		}
		e.store(s.ID, o)
		return outcome{value: o}, nil
	case "function":
		return e.function(s)
	case "fallback":
		return e.fallback(s)
	case "cell":
		return outcome{value: e.cell(s.Key)}, nil
	case "call":
		return e.call(s)
	}

	o, err := e.object(s.Target)
	if err != nil {
		return outcome{}, err
	}
	key := jsobj.Str(s.Key)

	switch s.Op {
	case "get":
		v, err := o.Get(key)
		e.store(s.ID, v)
		return outcome{value: v, err: err}, nil
	case "getMethod":
		v, err := o.GetMethod(key)
		e.store(s.ID, v)
		return outcome{value: v, err: err}, nil
	case "getCached":
		name := e.siteName(s)
		site := e.getSites[name]
		if site == nil {
			site = e.rt.NewGetSite(key)
			e.getSites[name] = site
		}
		v, err := site.Get(o)
		e.store(s.ID, v)
		return outcome{value: v, err: err, state: site.State().String()}, nil
	case "set", "setCached":
		v, err := decodeValue(&s.Value, e.value)
		if err != nil {
			return outcome{}, err
		}
		if s.Op == "set" {
			return outcome{err: o.Set(key, v, s.Strict)}, nil
		}
		name := e.siteName(s)
		site := e.setSites[name]
		if site == nil {
			site = e.rt.NewSetSite(key)
			e.setSites[name] = site
		}
		err = site.Set(o, v, s.Strict)
		return outcome{err: err, state: site.State().String()}, nil
	case "define":
		desc, err := e.descriptor(s.Desc)
		if err != nil {
			return outcome{}, err
		}
		ok, err := o.DefineOwnProperty(key, desc)
		out := boolOutcome(ok)
		out.err = err
		return out, nil
	case "delete":
		if s.Strict {
			err := o.DeleteStrict(key)
			return outcome{err: err, ok: boolPtr(err == nil)}, nil
		}
		return boolOutcome(o.Delete(key)), nil
	case "enumerate":
		keys := []string{}
		for k := range o.Enumerate() {
			keys = append(keys, k.String())
		}
		return outcome{keys: keys}, nil
	case "ownKeys":
		keys := []string{}
		for _, k := range o.OwnKeys(s.All) {
			keys = append(keys, k.String())
		}
		return outcome{keys: keys}, nil
	case "has":
		ok, err := o.HasProperty(key)
		out := boolOutcome(ok)
		out.err = err
		return out, nil
	case "hasOwn":
		return boolOutcome(o.HasOwnProperty(key)), nil
	case "setProto":
		proto, err := e.proto(s.Proto)
		if err != nil {
			return outcome{}, err
		}
		return outcome{err: o.SetPrototypeOf(proto)}, nil
	case "preventExtensions":
		o.PreventExtensions()
		return outcome{}, nil
	case "seal":
		o.Seal()
		return outcome{}, nil
	case "freeze":
		o.Freeze()
		return outcome{}, nil
	case "isExtensible":
		return boolOutcome(o.IsExtensible()), nil
	case "isSealed":
		return boolOutcome(o.IsSealed()), nil
	case "isFrozen":
		return boolOutcome(o.IsFrozen()), nil
	case "sameShape":
		other, err := e.object(s.Other)
		if err != nil {
			return outcome{}, err
		}
		return outcome{same: boolPtr(o.Shape() == other.Shape())}, nil
	}
	return outcome{}, fmt.Errorf("unknown op %q", s.Op)
}

func boolPtr(b bool) *bool {
	return &b
}

func (e *env) call(s *Step) (outcome, error) {
	f, err := e.object(s.Target)
	if err != nil {
		return outcome{}, err
	}
	this := jsobj.Undefined()
	if s.This != "" {
		if this, err = e.value(s.This); err != nil {
			return outcome{}, err
		}
	}
	args := make([]jsobj.Value, 0, len(s.Args))
	for i := range s.Args {
		v, err := decodeValue(&s.Args[i], e.value)
		if err != nil {
			return outcome{}, err
		}
		args = append(args, v)
	}
	v, err := f.Call(this, args...)
	e.store(s.ID, v)
	return outcome{value: v, err: err}, nil
}

func (e *env) function(s *Step) (outcome, error) {
	if s.ID == "" || s.Func == nil {
		return outcome{}, fmt.Errorf("function needs an id and a func")
	}
	fs := s.Func
	var fn func(jsobj.FunctionCall) (jsobj.Value, error)
	switch fs.Kind {
	case "return", "throw":
		v, err := decodeValue(&fs.Value, e.value)
		if err != nil {
			return outcome{}, err
		}
		if fs.Kind == "return" {
			fn = func(jsobj.FunctionCall) (jsobj.Value, error) {
				return v, nil
			}
		} else {
			fn = func(jsobj.FunctionCall) (jsobj.Value, error) {
				return nil, jsobj.NewException(v)
			}
		}
	case "this":
		fn = func(call jsobj.FunctionCall) (jsobj.Value, error) {
			return call.This, nil
		}
	case "read":
		fn = func(jsobj.FunctionCall) (jsobj.Value, error) {
			return e.cell(fs.Cell), nil
		}
	case "store":
		fn = func(call jsobj.FunctionCall) (jsobj.Value, error) {
			e.cells[fs.Cell] = call.Argument(0)
			return jsobj.Undefined(), nil
		}
	case "prefix":
		fn = func(call jsobj.FunctionCall) (jsobj.Value, error) {
			return jsobj.ToValue(fs.Prefix + call.Argument(0).String()), nil
		}
	case "join":
		fn = func(call jsobj.FunctionCall) (jsobj.Value, error) {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			return jsobj.ToValue(strings.Join(parts, ",")), nil
		}
	default:
		return outcome{}, fmt.Errorf("unknown function kind %q", fs.Kind)
	}
	f := e.rt.NewFunction(s.ID, fn)
	e.store(s.ID, f)
	return outcome{value: f}, nil
}

// fallback attaches a Go fallback handler to the target. Kind "prefix"
// answers Prefix followed by the key, "return" answers Value and "decline"
// leaves the property undefined.
func (e *env) fallback(s *Step) (outcome, error) {
	o, err := e.object(s.Target)
	if err != nil {
		return outcome{}, err
	}
	if s.Func == nil {
		return outcome{}, fmt.Errorf("fallback needs a func")
	}
	var h jsobj.FallbackFunc
	switch s.Func.Kind {
	case "prefix":
		prefix := s.Func.Prefix
		h = func(_ jsobj.Value, key jsobj.PropertyKey) (jsobj.Value, bool, error) {
			return jsobj.ToValue(prefix + key.String()), true, nil
		}
	case "return":
		v, err := decodeValue(&s.Func.Value, e.value)
		if err != nil {
			return outcome{}, err
		}
		h = func(jsobj.Value, jsobj.PropertyKey) (jsobj.Value, bool, error) {
			return v, true, nil
		}
	case "decline":
		h = func(jsobj.Value, jsobj.PropertyKey) (jsobj.Value, bool, error) {
			return nil, false, nil
		}
	default:
		return outcome{}, fmt.Errorf("unknown fallback kind %q", s.Func.Kind)
	}
	o.SetFallbackHandler(h)
	return outcome{}, nil
}

func (e *env) descriptor(d *Descriptor) (jsobj.PropertyDescriptor, error) {
	var desc jsobj.PropertyDescriptor
	if d == nil {
		return desc, fmt.Errorf("define needs a desc")
	}
	if d.Value.Kind != 0 {
		v, err := decodeValue(&d.Value, e.value)
		if err != nil {
			return desc, err
		}
		desc.Value = v
	}
	flag := func(b *bool) jsobj.Flag {
		if b == nil {
			return jsobj.FLAG_NOT_SET
		}
		return jsobj.ToFlag(*b)
	}
	desc.Writable = flag(d.Writable)
	desc.Enumerable = flag(d.Enumerable)
	desc.Configurable = flag(d.Configurable)
	accessor := func(name string) (jsobj.Value, error) {
		switch name {
		case "":
			return nil, nil
		case "undefined":
			return jsobj.Undefined(), nil
		}
		return e.object(name)
	}
	var err error
	if desc.Getter, err = accessor(d.Get); err != nil {
		return desc, err
	}
	if desc.Setter, err = accessor(d.Set); err != nil {
		return desc, err
	}
	return desc, nil
}
