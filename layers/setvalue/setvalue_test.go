package setvalue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/layerkit/layerstack/internal/layer"
)

func TestModelRoundTrip(t *testing.T) {
	d := &Definition{}
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"existing": 1}`), 0o644))

	model, err := d.LoadModel(ctx, path)
	require.NoError(t, err)
	require.NoError(t, d.CheckModel(model))

	rc := &layer.RunContext{StackName: "test", RunDir: t.TempDir()}
	pos := []cty.Value{cty.StringVal("greeting"), cty.StringVal("hello")}
	updated, err := d.ApplyToModel(ctx, rc, model, pos, nil)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, d.SaveModel(ctx, updated, out))

	reloaded, err := d.LoadModel(ctx, out)
	require.NoError(t, err)
	doc := reloaded.(map[string]any)
	assert.Equal(t, "hello", doc["greeting"])
	assert.Equal(t, float64(1), doc["existing"])
}

func TestCheckModelRejectsNonDocuments(t *testing.T) {
	d := &Definition{}
	assert.Error(t, d.CheckModel("not a document"))
	assert.Error(t, d.CheckModel(nil))
	assert.NoError(t, d.CheckModel(map[string]any{}))
}

func TestApplyToModelKeepsComplexValues(t *testing.T) {
	d := &Definition{}
	rc := &layer.RunContext{StackName: "test", RunDir: t.TempDir()}

	pos := []cty.Value{
		cty.StringVal("items"),
		cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(2)}),
	}
	updated, err := d.ApplyToModel(context.Background(), rc, map[string]any{}, pos, nil)
	require.NoError(t, err)

	doc := updated.(map[string]any)
	assert.Equal(t, []any{"a", float64(2)}, doc["items"])
}
