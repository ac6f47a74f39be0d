package jsobj

// ObjectHook is the interface for object model instrumentation.
// jsobj calls these methods when shapes change and when inline caches or
// fallback hooks come into play.
// Can be used to build tracers, shape visualizers, cache analyzers, etc.
//
// For convenience, embed BaseObjectHook to get no-op implementations
// of all methods, then override only the ones you need.
type ObjectHook interface {
	// OnShapeTransition is called after obj moved from one shape to another.
	// kind names the transition
	// ("add", "delete", "reconfigure", "preventExtensions", "seal",
	// "freeze", "setPrototypeOf" or "dictionary"); key is the zero key for
	// transitions that are not about a single property.
	OnShapeTransition(obj *Object, from, to *Shape, kind string, key PropertyKey)

	// OnDictionaryMode is called when obj leaves shared shapes for good.
	OnDictionaryMode(obj *Object, reason string)

	// OnCacheMiss is called when an inline cache site could not serve obj.
	OnCacheMiss(site *InlineCacheSite, obj *Object)

	// OnMegamorphic is called once, when a site gives up caching.
	OnMegamorphic(site *InlineCacheSite)

	// OnFallback is called when a lookup missed the whole prototype chain and
	// is handed to __noSuchProperty__, __noSuchMethod__ or a FallbackHandler.
	// via names which one.
	OnFallback(receiver Value, key PropertyKey, via string)
}

// BaseObjectHook provides no-op implementations of all ObjectHook methods.
// Embed this struct and override only the methods you need.
//
// Example:
//
//	type MyHook struct {
//	    jsobj.BaseObjectHook
//	}
//
//	func (h *MyHook) OnDictionaryMode(obj *jsobj.Object, reason string) {
//	    // your implementation
//	}
type BaseObjectHook struct{}

func (BaseObjectHook) OnShapeTransition(obj *Object, from, to *Shape, kind string, key PropertyKey) {}

func (BaseObjectHook) OnDictionaryMode(obj *Object, reason string) {}

func (BaseObjectHook) OnCacheMiss(site *InlineCacheSite, obj *Object) {}

func (BaseObjectHook) OnMegamorphic(site *InlineCacheSite) {}

func (BaseObjectHook) OnFallback(receiver Value, key PropertyKey, via string) {}
