package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// convertOpts holds the flags of the convert command.
type convertOpts struct {
	output  string
	formats []string
	sets    []string
	noCache bool
	refresh bool
	jobs    int
}

// convertCommand converts scene documents into layouts.
func (c *CLI) convertCommand() *cobra.Command {
	var formatsStr string
	opts := convertOpts{jobs: runtime.GOMAXPROCS(0)}

	cmd := &cobra.Command{
		Use:   "convert [scene.json|scene.yaml]...",
		Short: "Convert design selections into responsive layouts",
		Long: `Convert design selections into responsive layouts.

Each input is a scene document exported from the design tool: a list of
selected nodes plus optional styled text runs. The layout is written next to
the input as <name>.layout.json; other formats (dot, svg) get their own
suffix. Multiple inputs are converted concurrently.

Preferences from the config file can be overridden per run:

  autolayout convert card.json --set layer_names=true --set gap_tolerance=3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output != "" && len(args) > 1 {
				return fmt.Errorf("--output requires a single input")
			}
			return c.runConvert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override a preference (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "number of inputs converted concurrently")

	return cmd
}

// convertOutcome is the per-input result reported after all inputs finish.
type convertOutcome struct {
	input string
	files []string
	res   *pipeline.Result
}

// runConvert converts every input, writes the artifacts and prints a summary.
func (c *CLI) runConvert(ctx context.Context, inputs []string, opts convertOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = overlay(cfg, opts.sets); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Converting %d selection(s)...", len(inputs)))
	spinner.Start()

	outcomes := make([]convertOutcome, len(inputs))
	var finished atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, input := range inputs {
		g.Go(func() error {
			files, res, err := c.convertOne(gctx, runner, input, cfg, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			outcomes[i] = convertOutcome{input: input, files: files, res: res}
			spinner.SetMessage(fmt.Sprintf("Converted %d/%d...", finished.Add(1), len(inputs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, o := range outcomes {
		printSuccess("%s", o.input)
		for _, f := range o.files {
			printFile(f)
		}
		printStats(o.res.Stats.Nodes, o.res.Stats.Stacks, o.res.Stats.Dropped, o.res.CacheInfo.LayoutHit)
	}
	prog.done("Converted selections", "count", len(inputs))

	if len(outcomes) == 1 {
		printNewline()
		printNextStep("Inspect", "autolayout inspect "+outcomes[0].files[0])
	}
	return nil
}

// convertOne runs the pipeline on one input and writes its artifacts.
func (c *CLI) convertOne(ctx context.Context, runner *pipeline.Runner, input string, cfg config.Config, opts convertOpts) ([]string, *pipeline.Result, error) {
	doc, err := scene.ReadFile(input)
	if err != nil {
		return nil, nil, err
	}

	res, err := runner.Execute(ctx, doc, pipeline.Options{
		Config:  cfg,
		Formats: opts.formats,
		Refresh: opts.refresh,
		Logger:  c.Logger.With("input", input),
	})
	if err != nil {
		return nil, nil, err
	}

	base := opts.output
	if base == "" {
		base = outputBase(input)
	}
	var files []string
	for _, format := range opts.formats {
		path := base + formatExt(format)
		if err := os.WriteFile(path, res.Artifacts[format], 0644); err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, res, nil
}
