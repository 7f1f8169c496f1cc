package stack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	slogmulti "github.com/samber/slog-multi"

	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/fsutil"
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/internal/lserr"
)

// LogName is the file-backed run log written into the run directory.
const LogName = "stack.log"

// RunOptions configure a stack execution.
type RunOptions struct {
	// SavePath, when set, is where the final model is saved. The last layer
	// must then be a model layer.
	SavePath string
	// Archive controls whether a checksummed archive document is written to
	// the run directory before execution.
	Archive bool
	// LogLevel is the level of the file-backed run log.
	LogLevel slog.Level
}

// Run executes the layers strictly in sequence inside the run directory. The
// process working directory is never changed: layers receive an explicit
// RunContext instead. A model reference is loaded through the first layer's
// hook before anything executes; model layers thread the model forward while
// plain layers only record their result. Errors propagate after the elapsed
// time is logged and the run log is closed.
func (s *Stack) Run(ctx context.Context, opts RunOptions) (err error) {
	start := time.Now()

	if !s.Runnable() {
		return lserr.New(lserr.KindPrecondition,
			"stack is not runnable: make sure the run directory and all arguments are set")
	}

	modelPath := ""
	if p, ok := s.Model.(string); ok && p != "" {
		abs, absErr := filepath.Abs(p)
		if absErr == nil && fsutil.FileExists(abs) {
			modelPath = abs
		}
	}
	savePath := opts.SavePath
	if savePath != "" {
		abs, absErr := filepath.Abs(savePath)
		if absErr != nil {
			return lserr.Wrap(lserr.KindRuntime, absErr, "cannot resolve save path %q", savePath)
		}
		savePath = abs
	}

	if err := os.MkdirAll(s.runDir, 0o755); err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot create run directory %q", s.runDir)
	}

	logFile, err := os.Create(filepath.Join(s.runDir, LogName))
	if err != nil {
		return lserr.Wrap(lserr.KindRuntime, err, "cannot open run log in %q", s.runDir)
	}
	defer logFile.Close()

	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: opts.LogLevel})
	logger := slog.New(slogmulti.Fanout(ctxlog.FromContext(ctx).Handler(), fileHandler))
	ctx = ctxlog.WithLogger(ctx, logger)

	if opts.Archive {
		if err := s.Archive(""); err != nil {
			return err
		}
	}

	rc := &layer.RunContext{StackName: s.Name, RunDir: s.runDir}

	defer func() {
		elapsed := humanDuration(time.Since(start))
		if err != nil {
			logger.Info("Stack failed.", "elapsed", elapsed)
			return
		}
		logger.Info("Stack ran successfully.", "elapsed", elapsed)
	}()

	if modelPath != "" {
		first := s.layers[0]
		mr, ok := first.ModelRunner()
		if !ok {
			return lserr.New(lserr.KindType,
				"to use model path %q the first layer must be a model layer, but %q is not",
				modelPath, first.Name())
		}
		model, loadErr := mr.LoadModel(ctx, modelPath)
		if loadErr != nil {
			err = lserr.Wrap(lserr.KindRuntime, loadErr, "loading model from %q failed", modelPath)
			return err
		}
		if checkErr := mr.CheckModel(model); checkErr != nil {
			err = lserr.Wrap(lserr.KindType, checkErr, "model from %q rejected by layer %q", modelPath, first.Name())
			return err
		}
		s.Model = model
	}

	for _, l := range s.layers {
		logger.Info("Running layer.", "layer", l.Name())
		if _, isModel := l.ModelRunner(); isModel {
			if s.Model == nil {
				err = lserr.New(lserr.KindRuntime, "model not initialized")
				return err
			}
			s.Model, err = l.RunLayer(ctx, rc, s.Model)
		} else {
			s.Result, err = l.RunLayer(ctx, rc, nil)
		}
		if err != nil {
			return err
		}
	}

	if savePath != "" {
		last := s.layers[len(s.layers)-1]
		mr, ok := last.ModelRunner()
		if !ok {
			err = lserr.New(lserr.KindType,
				"to use save path %q the last layer must be a model layer, but %q is not",
				savePath, last.Name())
			return err
		}
		if saveErr := mr.SaveModel(ctx, s.Model, savePath); saveErr != nil {
			err = lserr.Wrap(lserr.KindRuntime, saveErr, "saving model to %q failed", savePath)
			return err
		}
	}

	return nil
}

// humanDuration renders an elapsed wall-clock time as days/hours/minutes/
// seconds, dropping leading zero units.
func humanDuration(d time.Duration) string {
	seconds := d.Seconds()
	days := int(seconds) / (60 * 60 * 24)
	seconds -= float64(days * 60 * 60 * 24)
	hours := int(seconds) / (60 * 60)
	seconds -= float64(hours * 60 * 60)
	minutes := int(seconds) / 60
	seconds -= float64(minutes * 60)

	out := ""
	if days > 0 {
		out += fmt.Sprintf("%d d ", days)
	}
	if hours > 0 || days > 0 {
		out += fmt.Sprintf("%d h ", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%d m ", minutes)
	}
	if days > 0 || hours > 0 {
		return out + fmt.Sprintf("%.0f s", seconds)
	}
	return out + fmt.Sprintf("%.1f s", seconds)
}
