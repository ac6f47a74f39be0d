package jsobj

import "github.com/rs/zerolog"

const (
	DefaultMegamorphicThreshold = 4
	DefaultDictionaryThreshold  = 16
	DefaultMaxPrototypeDepth    = 1 << 12
)

var defaultOptions = options{
	megamorphicThreshold: DefaultMegamorphicThreshold,
	dictionaryThreshold:  DefaultDictionaryThreshold,
	maxPrototypeDepth:    DefaultMaxPrototypeDepth,
}

type Option interface {
	apply(*options)
}

type options struct {
	megamorphicThreshold int
	dictionaryThreshold  int
	maxPrototypeDepth    int
	logger               *zerolog.Logger
	hook                 ObjectHook
}

type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithMegamorphicThreshold sets the number of shapes an inline cache site
// holds before it goes megamorphic. Values below 1 are ignored.
func WithMegamorphicThreshold(n int) Option {
	return newFuncOption(func(o *options) {
		if n >= 1 {
			o.megamorphicThreshold = n
		}
	})
}

// WithDictionaryThreshold sets the number of deletes and reconfigurations an
// object goes through before it is switched to dictionary mode. 0 makes the
// first delete switch.
func WithDictionaryThreshold(n int) Option {
	return newFuncOption(func(o *options) {
		if n >= 0 {
			o.dictionaryThreshold = n
		}
	})
}

// WithMaxPrototypeDepth limits the length of prototype chains. Values below 1
// are ignored.
func WithMaxPrototypeDepth(n int) Option {
	return newFuncOption(func(o *options) {
		if n >= 1 {
			o.maxPrototypeDepth = n
		}
	})
}

// WithLogger sets the logger used for debug events such as dictionary mode
// switches and megamorphic sites. The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = &logger
	})
}

// WithHook installs an ObjectHook.
func WithHook(hook ObjectHook) Option {
	return newFuncOption(func(o *options) {
		o.hook = hook
	})
}
