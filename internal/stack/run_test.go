package stack

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerkit/layerstack/internal/args"
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/internal/lserr"
)

func writeModelFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newDocLayer(t *testing.T, reg *layer.Registry, key, value string) *layer.Layer {
	t.Helper()
	l := loadLayerFixture(t, reg, "doc")
	l.SetArgMode(args.Use)
	require.NoError(t, l.Args().SetValue(0, key))
	require.NoError(t, l.Args().SetValue(1, value))
	return l
}

func TestRunNotRunnable(t *testing.T) {
	s, err := New("unrunnable")
	require.NoError(t, err)

	err = s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindPrecondition))
}

func TestRunThreadsModelThroughLayers(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	s, err := New("model run",
		newDocLayer(t, reg, "first", "1"),
		newDocLayer(t, reg, "second", "2"),
	)
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))
	s.Model = writeModelFile(t, map[string]any{"seed": "0"})

	savePath := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, s.Run(ctx, RunOptions{SavePath: savePath, Archive: true, LogLevel: slog.LevelInfo}))

	// run directory was created with the archive and run log inside
	assert.DirExists(t, s.RunDir())
	assert.FileExists(t, filepath.Join(s.RunDir(), ArchiveName))
	assert.FileExists(t, filepath.Join(s.RunDir(), LogName))

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"seed": "0", "first": "1", "second": "2"}, doc)
}

func TestRunPlainLayerStoresResult(t *testing.T) {
	reg := newTestRegistry()
	l := loadLayerFixture(t, reg, "note")
	l.SetArgMode(args.Use)
	require.NoError(t, l.Args().SetValue(0, []string{"hello", "world"}))

	s, err := New("plain run", l)
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))

	require.NoError(t, s.Run(context.Background(), RunOptions{}))
	assert.Equal(t, "hello world", s.Result)

	// archives are opt-in
	assert.NoFileExists(t, filepath.Join(s.RunDir(), ArchiveName))
}

func TestRunModelNotInitialized(t *testing.T) {
	reg := newTestRegistry()
	s, err := New("no model", newDocLayer(t, reg, "k", "v"))
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))

	err = s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindRuntime))
}

func TestRunModelPathRequiresModelLayerFirst(t *testing.T) {
	reg := newTestRegistry()
	l := loadLayerFixture(t, reg, "note")
	l.SetArgMode(args.Use)
	require.NoError(t, l.Args().SetValue(0, []string{"x"}))

	s, err := New("wrong first layer", l)
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))
	s.Model = writeModelFile(t, map[string]any{})

	err = s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindType))
}

func TestRunSavePathRequiresModelLayerLast(t *testing.T) {
	reg := newTestRegistry()
	plain := loadLayerFixture(t, reg, "note")
	plain.SetArgMode(args.Use)
	require.NoError(t, plain.Args().SetValue(0, []string{"x"}))

	s, err := New("wrong last layer", newDocLayer(t, reg, "k", "v"), plain)
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))
	s.Model = writeModelFile(t, map[string]any{})

	err = s.Run(context.Background(), RunOptions{SavePath: filepath.Join(t.TempDir(), "out.json")})
	require.Error(t, err)
	assert.True(t, lserr.IsKind(err, lserr.KindType))
}

func TestRunFailurePropagatesAndLeavesCwdAlone(t *testing.T) {
	reg := newTestRegistry()
	before, err := os.Getwd()
	require.NoError(t, err)

	s, err := New("failing run", loadLayerFixture(t, reg, "fail"))
	require.NoError(t, err)
	s.SetRunDir(filepath.Join(t.TempDir(), "run"))

	err = s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{400 * time.Millisecond, "0.4 s"},
		{65 * time.Second, "1 m 5.0 s"},
		{3605 * time.Second, "1 h 5 s"},
		{90061 * time.Second, "1 d 1 h 1 m 1 s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanDuration(tt.d), "duration=%v", tt.d)
	}
}
