package restructure

import (
	"fmt"

	"github.com/alnah/podscribe/internal/chunk"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/transcript"
)

// Section targets. A whole transcript gets more room than one part of it.
const (
	wholeMinSections = 5
	wholeMaxSections = 10
	partMinSections  = 3
	partMaxSections  = 6
)

const formatPrompt = `You format raw podcast transcripts into readable, sectioned prose.

Rules:
- Identify the speakers. Use a real name only when the conversation makes it unambiguous; otherwise label them "Host", "Guest A", "Guest B" and so on.
- Split the text into %d to %d sections by topic, in the order they occur.
- Give every section a short, descriptive title.
- Render each section's content as Markdown prose with speaker labels, one turn per paragraph, and proper sentence-ending punctuation.
- Keep every statement. Do not summarize, shorten, or invent anything.
- Write titles and speaker labels in %s.

Reply with a single JSON object matching this schema and nothing else:
%s`

// partPromptPrefix tells the model it sees one slice of a longer transcript.
const partPromptPrefix = `IMPORTANT: This transcript has been split into multiple parts due to length.
You are formatting part %d of %d. Sections from all parts are concatenated in order.
Keep speaker labels consistent with what the text shows; do not add an introduction or conclusion that is not in this part.

`

// buildSystemPrompt returns the formatting prompt for c.
// A single-chunk transcript uses the whole-transcript section target.
func buildSystemPrompt(c chunk.Chunk, language lang.Language) string {
	lo, hi := wholeMinSections, wholeMaxSections
	if c.Total > 1 {
		lo, hi = partMinSections, partMaxSections
	}

	prompt := fmt.Sprintf(formatPrompt, lo, hi, languageName(language), transcript.SchemaJSON())
	if c.Total > 1 {
		prompt = fmt.Sprintf(partPromptPrefix, c.Part(), c.Total) + prompt
	}
	return prompt
}

// languageName is how prompts refer to the output language.
func languageName(l lang.Language) string {
	if l.IsZero() {
		return "the language of the transcript"
	}
	return l.DisplayName()
}
