package args

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/lserr"
)

func TestArgUnsetValueIsPreconditionError(t *testing.T) {
	a := NewArg("threshold")
	assert.False(t, a.Set())

	_, err := a.Value()
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindPrecondition))
}

func TestArgSetValueConvertsToDeclaredType(t *testing.T) {
	a := NewArg("count", WithType(cty.Number))

	require.NoError(t, a.SetValue("42"))
	assert.True(t, a.Set())

	v, err := a.Value()
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberIntVal(42)))
}

func TestArgSetValueRejectsUnconvertible(t *testing.T) {
	a := NewArg("count", WithType(cty.Number))

	err := a.SetValue("not-a-number")
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindValidation))
	assert.False(t, a.Set())
}

func TestArgChoices(t *testing.T) {
	a := NewArg("color", WithType(cty.String), WithChoices("red", "green"))

	err := a.SetValue("blue")
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindValidation))
	assert.False(t, a.Set())

	require.NoError(t, a.SetValue("red"))
	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, "red", v.AsString())
}

func TestArgListArity(t *testing.T) {
	t.Run("scalar rejected for list arity", func(t *testing.T) {
		a := NewArg("pair", WithType(cty.String), WithNArgs(Exactly(2)))
		err := a.SetValue("alone")
		require.Error(t, err)
		assert.True(t, lserr.IsKind(err, lserr.KindValidation))
	})

	t.Run("wrong fixed length rejected", func(t *testing.T) {
		a := NewArg("pair", WithType(cty.String), WithNArgs(Exactly(2)))
		err := a.SetValue([]string{"only"})
		require.Error(t, err)
		assert.True(t, lserr.IsKind(err, lserr.KindValidation))
	})

	t.Run("per element validation", func(t *testing.T) {
		a := NewArg("colors", WithType(cty.String), WithNArgs(OneOrMore), WithChoices("red", "green"))
		err := a.SetValue([]string{"red", "blue"})
		require.Error(t, err)
		assert.True(t, lserr.IsKind(err, lserr.KindValidation))

		require.NoError(t, a.SetValue([]string{"green", "red"}))
		v, err := a.Value()
		require.NoError(t, err)
		require.True(t, v.Type().IsTupleType())
		assert.Equal(t, 2, v.LengthInt())
	})
}

func TestArgCustomParser(t *testing.T) {
	double := &Parser{
		Name: "double",
		Func: func(v cty.Value) (cty.Value, error) {
			n, _ := v.AsBigFloat().Int64()
			return cty.NumberIntVal(n * 2), nil
		},
	}
	a := NewArg("n", WithType(cty.Number), WithParser(double))

	require.NoError(t, a.SetValue(3))
	v, err := a.Value()
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberIntVal(6)))
	assert.Equal(t, "double", a.ParserRepr())
}

func TestArgSerializedRoundTrip(t *testing.T) {
	a := NewArg("names", WithType(cty.String), WithNArgs(OneOrMore))
	require.NoError(t, a.SetValue([]string{"a", "b"}))

	saved, err := a.ValueToSave()
	require.NoError(t, err)

	fresh := NewArg("names", WithType(cty.String), WithNArgs(OneOrMore))
	require.NoError(t, fresh.SetSerialized(saved))

	v, err := fresh.Value()
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.TupleVal([]cty.Value{
		cty.StringVal("a"), cty.StringVal("b"),
	})))
}

func TestArgUnsetSavesNull(t *testing.T) {
	a := NewArg("x")
	saved, err := a.ValueToSave()
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), saved)

	// a null fragment never clobbers anything on restore
	require.NoError(t, a.SetSerialized(saved))
	assert.False(t, a.Set())
}

func TestKwargDefaultFallback(t *testing.T) {
	k, err := NewKwarg("fallback", WithType(cty.String))
	require.NoError(t, err)

	assert.True(t, k.Defaulted())
	assert.Equal(t, "fallback", k.Value().AsString())

	require.NoError(t, k.SetValue("explicit"))
	assert.False(t, k.Defaulted())
	assert.Equal(t, "explicit", k.Value().AsString())
}

func TestKwargNilRevertsToDefault(t *testing.T) {
	k := MustKwarg("fallback", WithType(cty.String))

	require.NoError(t, k.SetValue("explicit"))
	require.NoError(t, k.SetValue(nil))
	assert.True(t, k.Defaulted())
	assert.Equal(t, "fallback", k.Value().AsString())

	// reverting while already defaulted is a no-op
	require.NoError(t, k.SetValue(nil))
	assert.True(t, k.Defaulted())
}

func TestKwargDefaultIsValidated(t *testing.T) {
	_, err := NewKwarg("blue", WithType(cty.String), WithChoices("red", "green"))
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindValidation))
}

func TestKwargNilDefault(t *testing.T) {
	k, err := NewKwarg(nil, WithType(cty.String))
	require.NoError(t, err)
	assert.True(t, k.Defaulted())
	assert.Equal(t, cty.NilVal, k.Value())
}

func TestKwargValueToSave(t *testing.T) {
	k := MustKwarg("fallback", WithType(cty.String))

	// defaulted kwargs serialize a null value but keep their default
	saved, err := k.ValueToSave()
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), saved)

	def, err := k.DefaultToSave()
	require.NoError(t, err)
	assert.JSONEq(t, `"fallback"`, string(def))

	require.NoError(t, k.SetValue("explicit"))
	saved, err = k.ValueToSave()
	require.NoError(t, err)
	assert.JSONEq(t, `"explicit"`, string(saved))
}
