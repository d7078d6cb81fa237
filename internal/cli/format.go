package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/podscribe/internal/chunk"
	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/format"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/pipeline"
	"github.com/alnah/podscribe/internal/restructure"
	"github.com/alnah/podscribe/internal/summarize"
	"github.com/alnah/podscribe/internal/translate"
)

// formatOptions holds validated options for the format command.
type formatOptions struct {
	inputPath  string
	output     string
	source     lang.Language
	target     lang.Language
	provider   string
	model      string
	sequential bool
	threshold  int
	parallel   int
}

// FormatCmd creates the format command (format an existing raw transcript).
// The env parameter provides injectable dependencies for testing.
func FormatCmd(env *Env) *cobra.Command {
	var (
		output     string
		source     string
		target     string
		provider   string
		model      string
		sequential bool
		threshold  int
		parallel   int
	)

	cmd := &cobra.Command{
		Use:   "format <transcript-file>",
		Short: "Format a raw transcript into a Markdown document",
		Long: `Format a raw transcript file into titled sections with speaker labels,
add a short and a detailed summary, and translate everything when the
target language differs from the transcript's language.

Long transcripts are split into parts at sentence boundaries and the parts
are formatted in parallel (or one at a time with --sequential).`,
		Example: `  podscribe format episode_raw.txt
  podscribe format interview.txt -l ja -T en -o interview.md
  podscribe format talk.txt --provider openai --model gpt-4.1 --sequential`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseFormatOptions(args[0], output, source, target)
			if err != nil {
				return err
			}
			opts.provider, opts.model = provider, model
			opts.sequential, opts.threshold, opts.parallel = sequential, threshold, parallel
			return runFormat(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>_formatted.md)")
	cmd.Flags().StringVarP(&source, "language", "l", "", "Transcript language (ISO 639-1 code, e.g., ja, fr)")
	cmd.Flags().StringVarP(&target, "translate", "T", "", "Translate to language (default: config language)")
	cmd.Flags().StringVar(&provider, "provider", "", "Generation provider: anthropic, openai (default: config or anthropic)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider default)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Format parts one at a time")
	cmd.Flags().IntVar(&threshold, "threshold", chunk.DefaultThreshold, "Part size in characters")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Max concurrent requests (0 = one per part)")

	return cmd
}

// parseFormatOptions validates and parses CLI inputs at the boundary.
func parseFormatOptions(inputPath, output, source, target string) (formatOptions, error) {
	src, err := lang.Parse(source)
	if err != nil {
		return formatOptions{}, err
	}
	tgt, err := lang.Parse(target)
	if err != nil {
		return formatOptions{}, err
	}
	return formatOptions{inputPath: inputPath, output: output, source: src, target: tgt}, nil
}

// runFormat executes the format command with validated options.
func runFormat(ctx context.Context, env *Env, opts formatOptions) error {
	start := env.Now()

	// === VALIDATION (fail-fast) ===

	text, err := readInput(opts.inputPath)
	if err != nil {
		return err
	}

	cfg := loadConfig(env)
	target, err := resolveTarget(opts.target, cfg)
	if err != nil {
		return err
	}

	output := config.ResolveOutputPath(opts.output, cfg.OutputDir, stem(opts.inputPath)+"_formatted.md")
	if err := ensureOutputFree(output); err != nil {
		return err
	}
	warnNonMarkdownExtension(env.Stderr, output)

	gen, provider, err := newGenerator(env, cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	// === FORMAT, SUMMARIZE, TRANSLATE ===

	formatter := restructure.New(gen,
		restructure.WithThreshold(opts.threshold),
		restructure.WithSequential(opts.sequential),
		restructure.WithMaxParallel(opts.parallel),
		restructure.WithProgress(partProgress(env.Stderr)),
		restructure.WithLogger(env.Logger),
	)
	runnerOpts := []pipeline.Option{
		pipeline.WithObserver(stageReporter(env.Stderr)),
		pipeline.WithLogger(env.Logger),
	}
	if !target.IsZero() {
		runnerOpts = append(runnerOpts, pipeline.WithTranslator(translate.New(gen, target,
			translate.WithMaxParallel(opts.parallel),
			translate.WithLogger(env.Logger),
		)))
	}
	runner := pipeline.NewRunner(formatter, summarize.New(gen, summarize.WithLogger(env.Logger)), runnerOpts...)

	_, _ = fmt.Fprintf(env.Stderr, "Formatting %s (provider: %s)...\n", opts.inputPath, provider)

	doc, err := runner.Build(ctx, pipeline.Source{
		Title:    stem(opts.inputPath),
		Origin:   opts.inputPath,
		Language: opts.source,
		Text:     text,
	})
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	if err := document.Write(output, doc); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Done: %s (%s)\n", output, format.Elapsed(env.Now().Sub(start)))
	return nil
}
