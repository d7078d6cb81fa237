package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/format"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/pipeline"
	"github.com/alnah/podscribe/internal/restructure"
	"github.com/alnah/podscribe/internal/summarize"
	"github.com/alnah/podscribe/internal/translate"
)

// processOptions holds validated options for the process command.
type processOptions struct {
	feedURL   string
	outputDir string
	limit     int
	parallel  int
	source    lang.Language // overrides the feed's language when set
	target    lang.Language
	provider  string
	model     string
}

// ProcessCmd creates the process command (feed to Markdown documents).
// The env parameter provides injectable dependencies for testing.
func ProcessCmd(env *Env) *cobra.Command {
	var (
		outputDir string
		limit     int
		parallel  int
		source    string
		target    string
		provider  string
		model     string
	)

	cmd := &cobra.Command{
		Use:   "process <feed-url>",
		Short: "Transcribe, format, summarize and translate a feed's latest episodes",
		Long: `Process the latest episodes of a podcast feed. Each episode is
transcribed (OpenAI, requires OPENAI_API_KEY), formatted, summarized and,
when its language differs from the target, translated. One Markdown file
is written per episode.

A failing episode is reported and does not stop the others.`,
		Example: `  podscribe process https://example.com/podcast.rss
  podscribe process https://example.com/podcast.rss -n 5 --parallel 2 -T en
  podscribe process https://example.com/podcast.rss --output-dir ~/podcasts`,
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
			return runProcess(cmd.Context(), env, processOptions{
				feedURL:   args[0],
				outputDir: outputDir,
				limit:     limit,
				parallel:  parallel,
				source:    src,
				target:    tgt,
				provider:  provider,
				model:     model,
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for documents (default: config output-dir or cwd)")
	cmd.Flags().IntVarP(&limit, "limit", "n", pipeline.DefaultMaxEpisodes, "Number of latest episodes (0 = all)")
	cmd.Flags().IntVar(&parallel, "parallel", pipeline.DefaultMaxEpisodes, "Episodes processed at once")
	cmd.Flags().StringVarP(&source, "language", "l", "", "Episode language (default: from the feed)")
	cmd.Flags().StringVarP(&target, "translate", "T", "", "Translate to language (default: config language)")
	cmd.Flags().StringVar(&provider, "provider", "", "Generation provider: anthropic, openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider default)")

	return cmd
}

// runProcess executes the process command with validated options.
func runProcess(ctx context.Context, env *Env, opts processOptions) error {
	start := env.Now()

	// === VALIDATION (fail-fast) ===

	cfg := loadConfig(env)
	target, err := resolveTarget(opts.target, cfg)
	if err != nil {
		return err
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir != "" {
		outputDir = config.ExpandPath(outputDir)
		if err := config.EnsureOutputDir(outputDir); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	}

	openAIKey := env.Getenv(EnvOpenAIAPIKey)
	if openAIKey == "" {
		return fmt.Errorf("%s: %w", EnvOpenAIAPIKey, ErrAPIKeyMissing)
	}
	gen, provider, err := newGenerator(env, cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	// === FETCH FEED ===

	episodes, err := env.FeedReader.Episodes(ctx, opts.feedURL, opts.limit)
	if err != nil {
		return err
	}
	if !opts.source.IsZero() {
		for i := range episodes {
			episodes[i].Language = opts.source
		}
	}

	// === SKIP WRITTEN EPISODES ===

	pending, paths, skipped := planEpisodes(env, episodes, outputDir)

	// === PROCESS EPISODES ===

	runnerOpts := []pipeline.Option{
		pipeline.WithTranscriber(env.TranscriberFactory.NewTranscriber(openAIKey, env.Logger)),
		pipeline.WithMaxEpisodes(opts.parallel),
		pipeline.WithObserver(stageReporter(env.Stderr)),
		pipeline.WithLogger(env.Logger),
	}
	if !target.IsZero() {
		runnerOpts = append(runnerOpts, pipeline.WithTranslator(translate.New(gen, target,
			translate.WithLogger(env.Logger),
		)))
	}
	runner := pipeline.NewRunner(
		restructure.New(gen, restructure.WithLogger(env.Logger)),
		summarize.New(gen, summarize.WithLogger(env.Logger)),
		runnerOpts...,
	)

	var results []pipeline.Result
	if len(pending) > 0 {
		_, _ = fmt.Fprintf(env.Stderr, "Processing %d episode(s) (provider: %s)...\n", len(pending), provider)
		results = runner.ProcessAll(ctx, pending)
	}

	// === WRITE OUTPUT ===

	failed := 0
	for i, res := range results {
		err := res.Err
		if err == nil {
			if err = document.Write(paths[i], res.Document); err == nil {
				_, _ = fmt.Fprintf(env.Stderr, "Done: %s\n", paths[i])
				continue
			}
		}
		failed++
		_, _ = fmt.Fprintf(env.Stderr, "Failed: %s: %v\n", res.Episode.Title, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	summary := fmt.Sprintf("Processed %d of %d episode(s)", len(results)-failed, len(results))
	if skipped > 0 {
		summary += fmt.Sprintf(", skipped %d", skipped)
	}
	_, _ = fmt.Fprintf(env.Stderr, "%s in %s\n", summary, format.Elapsed(env.Now().Sub(start)))
	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(results), ErrEpisodesFailed)
	}
	return nil
}

// planEpisodes resolves each episode's document path and drops episodes whose
// document already exists or whose path an earlier episode already claims.
// The returned paths are index-aligned with the returned episodes.
func planEpisodes(env *Env, episodes []feed.Episode, outputDir string) ([]feed.Episode, []string, int) {
	var (
		pending []feed.Episode
		paths   []string
		skipped int
	)
	claimed := make(map[string]string, len(episodes))

	for _, ep := range episodes {
		path := config.ResolveOutputPath("", outputDir, episodeFileName(ep))
		if other, ok := claimed[path]; ok {
			skipped++
			_, _ = fmt.Fprintf(env.Stderr, "Skipped: %s: same file name as %q (%s)\n", ep.Title, other, path)
			continue
		}
		claimed[path] = ep.Title

		if err := ensureOutputFree(path); err != nil {
			skipped++
			_, _ = fmt.Fprintf(env.Stderr, "Skipped: %s: %v\n", ep.Title, err)
			continue
		}
		pending = append(pending, ep)
		paths = append(paths, path)
	}
	return pending, paths, skipped
}
