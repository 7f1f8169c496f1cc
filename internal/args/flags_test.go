package args

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/lserr"
)

func TestArgListFlagSpecs(t *testing.T) {
	l := NewArgList(
		NewArg("color", WithDescription("Paint color."), WithType(cty.String), WithChoices("red", "green")),
		NewArg("sizes", WithType(cty.Number), WithNArgs(OneOrMore)),
	)

	specs, err := l.FlagSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "color", specs[0].Name)
	assert.Equal(t, "Paint color.", specs[0].Help)
	assert.Equal(t, []string{`"red"`, `"green"`}, specs[0].Choices)
	assert.False(t, specs[0].NArgs.IsList())

	assert.Equal(t, "sizes", specs[1].Name)
	assert.True(t, specs[1].NArgs.IsList())

	l.SetMode(Use)
	_, err = l.FlagSpecs()
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindPrecondition))
}

func TestArgListSetFromFlags(t *testing.T) {
	l := NewArgList(
		NewArg("color", WithType(cty.String)),
		NewArg("sizes", WithType(cty.Number), WithNArgs(OneOrMore)),
	)
	l.SetMode(Use)

	bag := MapBag{"color": "red", "sizes": []string{"1", "2"}}
	require.NoError(t, l.SetFromFlags(bag))

	vals, err := l.Values()
	require.NoError(t, err)
	assert.Equal(t, "red", vals[0].AsString())
	assert.Equal(t, 2, vals[1].LengthInt())
}

func TestArgListSetFromFlagsMissingAttribute(t *testing.T) {
	l := NewArgList(NewArg("color", WithType(cty.String)))
	l.SetMode(Use)

	err := l.SetFromFlags(MapBag{})
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindRuntime))
}

func TestKwargDictFlagSpecsClaimShortNames(t *testing.T) {
	d := NewKwargDict()
	require.NoError(t, d.SetDescriptor("prefix", MustKwarg("pre", WithType(cty.String))))
	require.NoError(t, d.SetDescriptor("pattern", MustKwarg(nil, WithType(cty.String))))

	specs, err := d.FlagSpecs(NewShortNames())
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "p", specs[0].Short)
	assert.Equal(t, "pre", specs[0].Default)
	assert.Equal(t, "pa", specs[1].Short)
	assert.Empty(t, specs[1].Default)
}

func TestKwargDictFlagRoundTrip(t *testing.T) {
	d := NewKwargDict()
	require.NoError(t, d.SetDescriptor("prefix", MustKwarg("pre", WithType(cty.String))))
	require.NoError(t, d.SetDescriptor("labels", MustKwarg(nil, WithType(cty.String), WithNArgs(ZeroOrMore))))
	require.NoError(t, d.SetDescriptor("keep", MustKwarg("kept", WithType(cty.String))))

	fs := pflag.NewFlagSet("layer", pflag.ContinueOnError)
	aliases, err := d.AddFlags(fs, NewShortNames())
	require.NoError(t, err)

	require.NoError(t, fs.Parse([]string{
		"--prefix", "x",
		"--labels", "a", "--labels", "b",
	}))

	d.SetMode(Use)
	require.NoError(t, d.SetFromFlags(NewFlagSetBag(fs, aliases)))

	v, err := d.Value("prefix")
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsString())

	v, err = d.Value("labels")
	require.NoError(t, err)
	assert.Equal(t, 2, v.LengthInt())

	// untouched flags fall back to the descriptor default
	v, err = d.Value("keep")
	require.NoError(t, err)
	assert.Equal(t, "kept", v.AsString())
}

func TestKwargDictFlagShortAlias(t *testing.T) {
	d := NewKwargDict()
	require.NoError(t, d.SetDescriptor("prefix", MustKwarg("pre", WithType(cty.String))))

	fs := pflag.NewFlagSet("layer", pflag.ContinueOnError)
	aliases, err := d.AddFlags(fs, NewShortNames())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prefix": "p"}, aliases)

	require.NoError(t, fs.Parse([]string{"--p", "short"}))

	d.SetMode(Use)
	require.NoError(t, d.SetFromFlags(NewFlagSetBag(fs, aliases)))

	v, err := d.Value("prefix")
	require.NoError(t, err)
	assert.Equal(t, "short", v.AsString())
}
