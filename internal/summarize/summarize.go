// Package summarize produces the short and long summaries of a formatted
// transcript.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/lang"
)

// Target lengths in characters.
const (
	ShortLength = 400
	LongLength  = 2000
)

// ErrEmptyText indicates there is nothing to summarize.
var ErrEmptyText = errors.New("text to summarize is empty")

const summaryPrompt = `You summarize podcast episodes from their formatted transcript.
Write a summary of about %d characters in %s.

Rules:
- Cover the main topics in the order they are discussed.
- Attribute key points to the speakers as they are labeled in the transcript.
- Plain prose only: no headings, no lists, no preamble.`

// Summary holds both summary lengths.
type Summary struct {
	Short string // about ShortLength characters
	Long  string // about LongLength characters
}

// Summarizer writes summaries through a generate.Generator.
type Summarizer struct {
	gen    generate.Generator
	logger *zap.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Summarizer.
func New(gen generate.Generator, opts ...Option) *Summarizer {
	s := &Summarizer{gen: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize writes the short and long summaries of text concurrently.
// Summaries are written in language; a zero language keeps the text's own.
func (s *Summarizer) Summarize(ctx context.Context, text string, language lang.Language) (Summary, error) {
	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrEmptyText
	}

	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		short, err := s.one(ctx, text, ShortLength, language)
		if err != nil {
			return fmt.Errorf("short summary: %w", err)
		}
		out.Short = short
		return nil
	})
	g.Go(func() error {
		long, err := s.one(ctx, text, LongLength, language)
		if err != nil {
			return fmt.Errorf("long summary: %w", err)
		}
		out.Long = long
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s.logger.Debug("summarized",
		zap.Int("short_chars", len([]rune(out.Short))),
		zap.Int("long_chars", len([]rune(out.Long))))
	return out, nil
}

func (s *Summarizer) one(ctx context.Context, text string, length int, language lang.Language) (string, error) {
	name := "the language of the transcript"
	if !language.IsZero() {
		name = language.DisplayName()
	}
	out, err := s.gen.Generate(ctx, generate.Request{
		System: fmt.Sprintf(summaryPrompt, length, name),
		User:   text,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
