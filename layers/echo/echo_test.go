package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/layer"
)

func TestApply(t *testing.T) {
	d := &Definition{}
	rc := &layer.RunContext{StackName: "test", RunDir: t.TempDir()}

	pos := []cty.Value{cty.TupleVal([]cty.Value{
		cty.StringVal("one"), cty.StringVal("two"),
	})}

	t.Run("without prefix", func(t *testing.T) {
		got, err := d.Apply(context.Background(), rc, pos, map[string]cty.Value{})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, got)
	})

	t.Run("with prefix", func(t *testing.T) {
		kw := map[string]cty.Value{"prefix": cty.StringVal("> ")}
		got, err := d.Apply(context.Background(), rc, pos, kw)
		require.NoError(t, err)
		assert.Equal(t, []string{"> one", "> two"}, got)
	})
}

func TestContract(t *testing.T) {
	d := &Definition{}

	list, err := d.Args(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"values"}, list.Names())

	a, err := list.Descriptor(0)
	require.NoError(t, err)
	assert.True(t, a.IsList())

	dict, err := d.Kwargs(nil)
	require.NoError(t, err)
	assert.True(t, dict.Has("prefix"))
}
