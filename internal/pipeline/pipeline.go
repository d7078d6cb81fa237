// Package pipeline runs the per-episode workflow: transcribe, format,
// summarize, and translate when the source language differs from the
// target, producing one document per episode.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/restructure"
	"github.com/alnah/podscribe/internal/summarize"
	"github.com/alnah/podscribe/internal/transcribe"
	"github.com/alnah/podscribe/internal/transcript"
	"github.com/alnah/podscribe/internal/translate"
)

// DefaultMaxEpisodes caps concurrently processed episodes.
const DefaultMaxEpisodes = 3

// Stage names a step of the workflow, reported to observers.
type Stage string

// Workflow stages in execution order.
const (
	StageTranscribe Stage = "transcribing"
	StageFormat     Stage = "formatting"
	StageSummarize  Stage = "summarizing"
	StageTranslate  Stage = "translating"
	StageDone       Stage = "done"
)

// Formatter formats a raw transcript into sections.
type Formatter interface {
	Format(ctx context.Context, raw string, language lang.Language) (transcript.Formatted, error)
}

// Summarizer writes the short and long summaries.
type Summarizer interface {
	Summarize(ctx context.Context, text string, language lang.Language) (summarize.Summary, error)
}

// Translator translates document content into its target language.
type Translator interface {
	TranslateContent(ctx context.Context, c translate.Content, source lang.Language) (*translate.Content, error)
	Target() lang.Language
}

// Compile-time interface compliance checks.
var (
	_ Formatter  = (*restructure.Formatter)(nil)
	_ Summarizer = (*summarize.Summarizer)(nil)
	_ Translator = (*translate.Translator)(nil)
)

// Source is a raw transcript with its episode metadata.
type Source struct {
	Title     string
	Origin    string // audio URL or input file
	Published time.Time
	Language  lang.Language
	Text      string
}

// Result is the outcome of one episode.
type Result struct {
	Episode  feed.Episode
	Document document.Document
	Err      error
}

// Runner wires the workflow collaborators.
type Runner struct {
	transcriber transcribe.Transcriber
	formatter   Formatter
	summarizer  Summarizer
	translator  Translator
	maxEpisodes int
	observer    func(title string, stage Stage)
	logger      *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTranscriber sets the audio transcriber. Required by Process.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(r *Runner) {
		r.transcriber = t
	}
}

// WithTranslator enables translation. Without one, documents carry no translation.
func WithTranslator(t Translator) Option {
	return func(r *Runner) {
		r.translator = t
	}
}

// WithMaxEpisodes caps concurrently processed episodes in ProcessAll.
func WithMaxEpisodes(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxEpisodes = n
		}
	}
}

// WithObserver sets a callback invoked when an episode enters a stage.
// It may be called from several goroutines at once.
func WithObserver(fn func(title string, stage Stage)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner around the required formatter and summarizer.
func NewRunner(f Formatter, s Summarizer, opts ...Option) *Runner {
	r := &Runner{
		formatter:   f,
		summarizer:  s,
		maxEpisodes: DefaultMaxEpisodes,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build formats, summarizes and translates an existing transcript.
func (r *Runner) Build(ctx context.Context, src Source) (document.Document, error) {
	r.notify(src.Title, StageFormat)
	formatted, err := r.formatter.Format(ctx, src.Text, src.Language)
	if err != nil {
		return document.Document{}, fmt.Errorf("format: %w", err)
	}

	r.notify(src.Title, StageSummarize)
	summary, err := r.summarizer.Summarize(ctx, formatted.FullText, src.Language)
	if err != nil {
		return document.Document{}, fmt.Errorf("summarize: %w", err)
	}

	doc := document.Document{
		ID:        uuid.NewString(),
		Title:     src.Title,
		Source:    src.Origin,
		Published: src.Published,
		Language:  src.Language,
		Summary:   summary,
		Formatted: formatted,
	}

	if r.translator != nil && !src.Language.SameAs(r.translator.Target()) {
		r.notify(src.Title, StageTranslate)
		translated, err := r.translator.TranslateContent(ctx, translate.Content{
			Summary400:  summary.Short,
			Summary2000: summary.Long,
			FullText:    formatted.FullText,
		}, src.Language)
		if err != nil {
			return document.Document{}, fmt.Errorf("translate: %w", err)
		}
		doc.Translation = translated
		doc.TranslationLanguage = r.translator.Target()
	}

	r.notify(src.Title, StageDone)
	return doc, nil
}

// Process transcribes an episode's audio, then builds its document.
func (r *Runner) Process(ctx context.Context, ep feed.Episode) (document.Document, error) {
	if r.transcriber == nil {
		return document.Document{}, ErrNoTranscriber
	}

	r.notify(ep.Title, StageTranscribe)
	raw, err := r.transcriber.Transcribe(ctx, ep.AudioURL, transcribe.Options{
		Language: ep.Language,
		Prompt:   ep.Title,
	})
	if err != nil {
		return document.Document{}, fmt.Errorf("transcribe: %w", err)
	}

	return r.Build(ctx, Source{
		Title:     ep.Title,
		Origin:    ep.AudioURL,
		Published: ep.Published,
		Language:  ep.Language,
		Text:      raw,
	})
}

// ProcessAll processes episodes concurrently, at most maxEpisodes at a time.
// It returns one Result per episode in input order. A failed episode never
// stops the others; once ctx is done, episodes not yet started fail with
// the context error.
func (r *Runner) ProcessAll(ctx context.Context, episodes []feed.Episode) []Result {
	results := make([]Result, len(episodes))
	sem := semaphore.NewWeighted(int64(r.maxEpisodes))
	var wg sync.WaitGroup

	for i, ep := range episodes {
		results[i].Episode = ep
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			start := time.Now()
			doc, err := r.Process(ctx, ep)
			results[i].Document = doc
			results[i].Err = err

			log := r.logger.With(zap.String("episode", ep.Title), zap.Duration("elapsed", time.Since(start)))
			if err != nil {
				log.Error("episode failed", zap.Error(err))
				return
			}
			log.Info("episode processed", zap.String("document_id", doc.ID))
		}()
	}

	wg.Wait()
	return results
}

func (r *Runner) notify(title string, stage Stage) {
	if r.observer != nil {
		r.observer(title, stage)
	}
}
