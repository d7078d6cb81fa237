// Package restructure turns a raw transcript into titled, speaker-labeled
// sections. Long transcripts are split into chunks, each chunk is formatted
// by a text-generation call, and the parsed sections are concatenated in
// chunk order.
package restructure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/chunk"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/transcript"
)

// Formatter formats raw transcripts through a generate.Generator.
type Formatter struct {
	gen         generate.Generator
	threshold   int
	sequential  bool
	maxParallel int
	maxTokens   int
	onProgress  func(done, total int)
	logger      *zap.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithThreshold sets the chunk size in runes.
func WithThreshold(runes int) Option {
	return func(f *Formatter) {
		if runes > 0 {
			f.threshold = runes
		}
	}
}

// WithSequential formats chunks one at a time instead of in parallel.
func WithSequential(sequential bool) Option {
	return func(f *Formatter) {
		f.sequential = sequential
	}
}

// WithMaxParallel caps concurrent chunk requests. 0 means one per chunk.
func WithMaxParallel(n int) Option {
	return func(f *Formatter) {
		if n >= 0 {
			f.maxParallel = n
		}
	}
}

// WithMaxTokens sets the output token cap of each formatting call.
func WithMaxTokens(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.maxTokens = n
		}
	}
}

// WithProgress sets a callback invoked after each chunk completes.
// Calls are serialized even when chunks run in parallel.
func WithProgress(fn func(done, total int)) Option {
	return func(f *Formatter) {
		f.onProgress = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Formatter backed by gen.
func New(gen generate.Generator, opts ...Option) *Formatter {
	f := &Formatter{
		gen:       gen,
		threshold: chunk.DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format splits raw into chunks, formats each one, and reassembles the
// sections in chunk order. Titles and speaker labels are written in
// language; a zero language keeps the transcript's own.
//
// Output the model returns in an unparseable shape is kept verbatim as a
// transcript.FallbackTitle section. Any chunk that fails after retries fails
// the whole transcript; no partial result is returned.
func (f *Formatter) Format(ctx context.Context, raw string, language lang.Language) (transcript.Formatted, error) {
	if strings.TrimSpace(raw) == "" {
		return transcript.Formatted{}, ErrEmptyTranscript
	}

	chunks := chunk.Split(raw, f.threshold)
	log := f.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int("chunks", len(chunks)),
		zap.String("language", language.String()),
	)
	log.Info("formatting transcript")

	outputs, err := f.mapChunks(ctx, chunks, language)
	if err != nil {
		log.Error("formatting failed", zap.Error(err))
		return transcript.Formatted{}, err
	}

	sections := reduceSections(outputs, log)
	log.Info("formatted transcript", zap.Int("sections", len(sections)))
	return transcript.NewFormatted(sections), nil
}

// progress returns a serialized completion counter, or nil without a callback.
func (f *Formatter) progress(total int) func() {
	if f.onProgress == nil {
		return nil
	}
	var mu sync.Mutex
	done := 0
	return func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		f.onProgress(done, total)
	}
}

func partError(c chunk.Chunk, err error) error {
	return fmt.Errorf("format part %d of %d: %w", c.Part(), c.Total, err)
}
