package jsobj_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dop251/jsobj"
)

func TestWithMegamorphicThreshold(t *testing.T) {
	r := jsobj.New(jsobj.WithMegamorphicThreshold(2))
	site := r.NewGetSite(jsobj.Str("x"))
	for i := 0; i < 3; i++ {
		o := r.NewObject()
		require.NoError(t, o.Set(jsobj.Str("p"+strconv.Itoa(i)), jsobj.Undefined(), true))
		require.NoError(t, o.Set(jsobj.Str("x"), jsobj.ToValue(i), true))
		v, err := site.Get(o)
		require.NoError(t, err)
		assert.Equal(t, int64(i), v.Export())
	}
	assert.Equal(t, jsobj.CacheStateMegamorphic, site.State())
}

func TestInvalidOptionsIgnored(t *testing.T) {
	r := jsobj.New(jsobj.WithMegamorphicThreshold(0), jsobj.WithMaxPrototypeDepth(-1), jsobj.WithDictionaryThreshold(-5))
	site := r.NewGetSite(jsobj.Str("x"))
	o := r.NewObject()
	_, err := site.Get(o)
	require.NoError(t, err)
	assert.Equal(t, jsobj.CacheStateMonomorphic, site.State())

	for i := 0; i < jsobj.DefaultDictionaryThreshold; i++ {
		key := jsobj.Str("k" + strconv.Itoa(i))
		require.NoError(t, o.Set(key, jsobj.Undefined(), true))
		assert.True(t, o.Delete(key))
	}
	assert.False(t, o.Shape().IsDictionary())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	r := jsobj.New(jsobj.WithLogger(logger), jsobj.WithDictionaryThreshold(0))

	o := r.NewObject()
	require.NoError(t, o.Set(jsobj.Str("a"), jsobj.ToValue(1), true))
	assert.True(t, o.Delete(jsobj.Str("a")))
	assert.Contains(t, buf.String(), "dictionary mode")
	assert.Contains(t, buf.String(), `"reason":"delete churn"`)

	a := r.NewObject()
	b := r.NewObjectWithProto(a)
	require.Error(t, a.SetPrototypeOf(b))
	assert.Contains(t, buf.String(), "cyclic prototype")
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	r := jsobj.New(jsobj.WithDictionaryThreshold(0))
	o := r.NewObject()
	require.NoError(t, o.Set(jsobj.Str("a"), jsobj.ToValue(1), true))
	assert.True(t, o.Delete(jsobj.Str("a")))
	assert.True(t, o.Shape().IsDictionary())
}
