package restructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/chunk"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/transcript"
)

// buildRequests creates one formatting request per chunk.
func (f *Formatter) buildRequests(chunks []chunk.Chunk, language lang.Language) []generate.Request {
	reqs := make([]generate.Request, len(chunks))
	for i, c := range chunks {
		reqs[i] = generate.Request{
			System:    buildSystemPrompt(c, language),
			User:      c.Content,
			MaxTokens: f.maxTokens,
			Schema:    transcript.Schema(),
		}
	}
	return reqs
}

// mapChunks formats every chunk and returns raw outputs in chunk order.
func (f *Formatter) mapChunks(ctx context.Context, chunks []chunk.Chunk, language lang.Language) ([]string, error) {
	reqs := f.buildRequests(chunks, language)
	tick := f.progress(len(chunks))

	if f.sequential || len(chunks) == 1 {
		outputs := make([]string, len(chunks))
		for i, c := range chunks {
			out, err := f.gen.Generate(ctx, reqs[i])
			if err != nil {
				return nil, partError(c, err)
			}
			outputs[i] = out
			if tick != nil {
				tick()
			}
		}
		return outputs, nil
	}

	gen := f.gen
	if tick != nil {
		gen = progressGenerator{Generator: gen, tick: tick}
	}
	outputs, err := generate.GenerateAll(ctx, gen, reqs, f.maxParallel)
	if err != nil {
		return nil, fmt.Errorf("format transcript: %w", err)
	}
	return outputs, nil
}

// progressGenerator reports each successful call.
type progressGenerator struct {
	generate.Generator
	tick func()
}

func (p progressGenerator) Generate(ctx context.Context, req generate.Request) (string, error) {
	out, err := p.Generator.Generate(ctx, req)
	if err == nil {
		p.tick()
	}
	return out, err
}

// reduceSections parses each output and concatenates sections in order.
func reduceSections(outputs []string, log *zap.Logger) []transcript.Section {
	var sections []transcript.Section
	for i, out := range outputs {
		parsed, ok := transcript.ParseSections(out)
		if !ok {
			log.Warn("model output is not valid sections JSON, keeping it verbatim",
				zap.Int("part", i+1),
				zap.Int("bytes", len(out)))
		}
		sections = append(sections, parsed...)
	}
	return sections
}
