package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/format"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/translate"
)

// translateOptions holds validated options for the translate command.
type translateOptions struct {
	inputPath string
	output    string
	source    lang.Language
	target    lang.Language
	provider  string
	model     string
	parallel  int
}

// TranslateCmd creates the translate command (translate a text file).
// The env parameter provides injectable dependencies for testing.
func TranslateCmd(env *Env) *cobra.Command {
	var (
		output   string
		source   string
		target   string
		provider string
		model    string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a transcript or document",
		Long: `Translate a text file line-chunk by line-chunk, keeping its Markdown
structure. Nothing is sent when the file is already in the target language.`,
		Example: `  podscribe translate episode_formatted.md -l ja -T en
  podscribe translate notes.md -T fr -o notes_fr.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := lang.Parse(source)
			if err != nil {
				return err
			}
			tgt, err := lang.Parse(target)
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), env, translateOptions{
				inputPath: args[0],
				output:    output,
				source:    src,
				target:    tgt,
				provider:  provider,
				model:     model,
				parallel:  parallel,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>_<target>.<ext>)")
	cmd.Flags().StringVarP(&source, "language", "l", "", "Source language (default: unknown)")
	cmd.Flags().StringVarP(&target, "translate", "T", "", "Target language (default: config language)")
	cmd.Flags().StringVar(&provider, "provider", "", "Generation provider: anthropic, openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider default)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Max concurrent requests (0 = one per chunk)")

	return cmd
}

// runTranslate executes the translate command with validated options.
func runTranslate(ctx context.Context, env *Env, opts translateOptions) error {
	start := env.Now()

	text, err := readInput(opts.inputPath)
	if err != nil {
		return err
	}

	cfg := loadConfig(env)
	target, err := resolveTarget(opts.target, cfg)
	if err != nil {
		return err
	}
	if target.IsZero() {
		return translate.ErrNoTarget
	}
	if opts.source.SameAs(target) {
		_, _ = fmt.Fprintf(env.Stderr, "%s is already in %s, nothing to do.\n", opts.inputPath, target.DisplayName())
		return nil
	}

	ext := filepath.Ext(opts.inputPath)
	if ext == "" {
		ext = ".md"
	}
	output := config.ResolveOutputPath(opts.output, cfg.OutputDir, stem(opts.inputPath)+"_"+target.String()+ext)
	if err := ensureOutputFree(output); err != nil {
		return err
	}

	gen, _, err := newGenerator(env, cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Translating %s to %s...\n", opts.inputPath, target.DisplayName())

	translator := translate.New(gen, target,
		translate.WithMaxParallel(opts.parallel),
		translate.WithLogger(env.Logger),
	)
	translated, err := translator.Translate(ctx, text, opts.source)
	if err != nil {
		return err
	}

	if err := document.WriteText(output, translated+"\n"); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Done: %s (%s)\n", output, format.Elapsed(env.Now().Sub(start)))
	return nil
}
