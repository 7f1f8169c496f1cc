package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layerkit/layerstack/internal/ctxlog"
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/internal/lserr"
	"github.com/layerkit/layerstack/internal/stack"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalOptions hold the flags shared by every subcommand.
type globalOptions struct {
	debug             bool
	warningOnly       bool
	logFormat         string
	layerLibraryDirs  []string
	originalPreferred bool
}

func (g *globalOptions) loadOptions() stack.LoadOptions {
	return stack.LoadOptions{
		LayerLibraryDirs:  g.layerLibraryDirs,
		OriginalPreferred: g.originalPreferred,
	}
}

func (g *globalOptions) logLevel() slog.Level {
	switch {
	case g.debug:
		return slog.LevelDebug
	case g.warningOnly:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(g *globalOptions, outW io.Writer) (*slog.Logger, error) {
	handlerOpts := &slog.HandlerOptions{Level: g.logLevel()}

	switch strings.ToLower(g.logFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(outW, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(outW, handlerOpts)), nil
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
}

// newRootCommand wires the layerstack command tree. Output goes to out; the
// registry supplies the layer definitions serialized stacks resolve against.
func newRootCommand(reg *layer.Registry, out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "layerstack",
		Short:         "Compose, serialize and run workflows as stacks of layers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts, errOut)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.debug, "debug", "d", false, "Display debug messages.")
	pf.BoolVarP(&opts.warningOnly, "warning-only", "w", false, "Only display warning messages and above.")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringArrayVar(&opts.layerLibraryDirs, "layer-library-dir", nil,
		"Additional directory to search for layers referenced by stack files. Repeatable.")
	pf.BoolVar(&opts.originalPreferred, "original-locations-preferred", true,
		"Prefer the originally serialized layer locations over library directories.")

	root.AddCommand(newListCommand(reg, opts))
	root.AddCommand(newLayersCommand(reg, opts))
	root.AddCommand(newRepointCommand(opts))
	root.AddCommand(newRunCommand(reg, opts))
	return root
}

func newLayersCommand(reg *layer.Registry, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List registered handlers and the layer directories in the library paths.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "handlers:")
			for _, name := range reg.Handlers() {
				fmt.Fprintf(out, "    %s\n", name)
			}
			for _, lib := range opts.layerLibraryDirs {
				dirs, err := layer.Discover(lib)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "library %s:\n", lib)
				for _, dir := range dirs {
					fmt.Fprintf(out, "    %s\n", dir)
				}
			}
			return nil
		},
	}
}

func newListCommand(reg *layer.Registry, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list STACK_FILE",
		Short: "Load a serialized stack and print its contents.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stack.Load(cmd.Context(), reg, args[0], opts.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.String())
			return nil
		},
	}
}

func newRepointCommand(opts *globalOptions) *cobra.Command {
	var (
		outfile   string
		runDir    string
		modelPath string
	)
	cmd := &cobra.Command{
		Use:   "repoint STACK_FILE",
		Short: "Rewrite a stack's run directory and model reference for a new environment.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := stack.Repoint(cmd.Context(), args[0], stack.RepointOptions{
				LoadOptions: opts.loadOptions(),
				RunDir:      runDir,
				Model:       modelPath,
				Outfile:     outfile,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outfile, "outfile", "o", "",
		"Where to save the repointed stack. Defaults to the input file name with a leading underscore.")
	cmd.Flags().StringVar(&runDir, "run-dir", "", "New run directory for the stack.")
	cmd.Flags().StringVar(&modelPath, "model-path", "", "New model reference for the stack.")
	return cmd
}

func newRunCommand(reg *layer.Registry, opts *globalOptions) *cobra.Command {
	var (
		savePath  string
		noArchive bool
	)
	cmd := &cobra.Command{
		Use:   "run STACK_FILE",
		Short: "Load a serialized stack and execute its layers in sequence.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stack.Load(cmd.Context(), reg, args[0], opts.loadOptions())
			if err != nil {
				return err
			}
			return s.Run(cmd.Context(), stack.RunOptions{
				SavePath: savePath,
				Archive:  !noArchive,
				LogLevel: opts.logLevel(),
			})
		},
	}
	cmd.Flags().StringVarP(&savePath, "save-path", "s", "",
		"Save the final model here. The last layer must be a model layer.")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false,
		"Skip writing the checksummed archive document to the run directory.")
	return cmd
}

// Run executes the layerstack CLI against args and returns the process error,
// mapping framework failures to an ExitError with code 1 and cobra usage
// failures to code 2.
func Run(ctx context.Context, reg *layer.Registry, args []string, out, errOut io.Writer) error {
	root := newRootCommand(reg, out, errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var fwErr *lserr.Error
	if errors.As(err, &fwErr) {
		return &ExitError{Code: 1, Message: fwErr.Error()}
	}
	// cobra reports unknown flags and bad arity before RunE executes.
	if strings.HasPrefix(err.Error(), "unknown") || strings.HasPrefix(err.Error(), "accepts") {
		fmt.Fprintln(errOut, err)
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

// Main is the entry point used by cmd/layerstack.
func Main() int {
	reg := layer.NewRegistry()
	for _, m := range coreLayers {
		m.Register(reg)
	}

	if err := Run(context.Background(), reg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			return exitErr.Code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
