// Package translate re-expresses formatted transcripts and summaries in a
// target language. Text is split on line boundaries, chunks are translated
// concurrently, and the results are joined in their original order.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/podscribe/internal/chunk"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/lang"
)

// chunkSeparator joins translated chunks.
const chunkSeparator = "\n\n"

const translatePrompt = `You are a professional translator for podcast transcripts.
Translate the user's text from %s into %s.

Rules:
- Keep every Markdown marker exactly where it is: headings (#), dividers (---), bold (**), lists.
- Translate speaker labels into their usual %s equivalents (for example "Host", "Guest A"). Keep real names unchanged.
- Do not alter the meaning. Do not add, drop, or summarize anything.
- Reply with the translation only.`

// Content is the translatable part of a processed episode.
type Content struct {
	Summary400  string
	Summary2000 string
	FullText    string
}

// Translator translates text into a fixed target language.
type Translator struct {
	gen         generate.Generator
	target      lang.Language
	lineTarget  int
	maxParallel int
	maxTokens   int
	logger      *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithLineTarget sets the chunk size in runes.
func WithLineTarget(runes int) Option {
	return func(t *Translator) {
		if runes > 0 {
			t.lineTarget = runes
		}
	}
}

// WithMaxParallel caps concurrent chunk requests. 0 means one per chunk.
func WithMaxParallel(n int) Option {
	return func(t *Translator) {
		if n >= 0 {
			t.maxParallel = n
		}
	}
}

// WithMaxTokens sets the output token cap of each translation call.
func WithMaxTokens(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxTokens = n
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Translator into target.
func New(gen generate.Generator, target lang.Language, opts ...Option) *Translator {
	t := &Translator{
		gen:        gen,
		target:     target,
		lineTarget: chunk.DefaultLineTarget,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Target returns the target language.
func (t *Translator) Target() lang.Language {
	return t.target
}

// Needed reports whether text in source must be translated.
func (t *Translator) Needed(source lang.Language) bool {
	return !source.SameAs(t.target)
}

// Translate returns text expressed in the target language.
// When source already matches the target, text is returned unchanged and no
// request is made. Any chunk failure fails the whole translation.
func (t *Translator) Translate(ctx context.Context, text string, source lang.Language) (string, error) {
	if t.target.IsZero() {
		return "", ErrNoTarget
	}
	if !t.Needed(source) || strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := chunk.SplitLines(text, t.lineTarget)
	log := t.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("source", source.String()),
		zap.String("target", t.target.String()),
		zap.Int("chunks", len(chunks)),
	)
	log.Info("translating")

	system := buildPrompt(source, t.target)
	reqs := make([]generate.Request, len(chunks))
	for i, c := range chunks {
		reqs[i] = generate.Request{System: system, User: c.Content, MaxTokens: t.maxTokens}
	}

	outputs, err := generate.GenerateAll(ctx, t.gen, reqs, t.maxParallel)
	if err != nil {
		log.Error("translation failed", zap.Error(err))
		return "", fmt.Errorf("translate to %s: %w", t.target, err)
	}

	for i := range outputs {
		outputs[i] = strings.TrimSpace(outputs[i])
	}
	return strings.Join(outputs, chunkSeparator), nil
}

// TranslateContent translates every field of c concurrently.
// It returns nil without any request when source matches the target.
func (t *Translator) TranslateContent(ctx context.Context, c Content, source lang.Language) (*Content, error) {
	if t.target.IsZero() {
		return nil, ErrNoTarget
	}
	if !t.Needed(source) {
		return nil, nil
	}

	var out Content
	g, ctx := errgroup.WithContext(ctx)
	fields := []struct {
		name string
		src  string
		dst  *string
	}{
		{"summary400", c.Summary400, &out.Summary400},
		{"summary2000", c.Summary2000, &out.Summary2000},
		{"full text", c.FullText, &out.FullText},
	}
	for _, f := range fields {
		g.Go(func() error {
			text, err := t.Translate(ctx, f.src, source)
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			*f.dst = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func buildPrompt(source, target lang.Language) string {
	from := "its original language"
	if !source.IsZero() {
		from = source.DisplayName()
	}
	name := target.DisplayName()
	return fmt.Sprintf(translatePrompt, from, name, name)
}
