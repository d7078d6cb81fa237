// Package transcript holds the formatted-transcript data model: ordered
// sections with titles, their deterministic Markdown rendering, and the
// tolerant parser that turns model output into sections.
package transcript

import (
	"fmt"
	"strings"
)

// Divider separates rendered sections in FullText.
const Divider = "\n\n---\n\n"

// Section is one topical segment of a formatted transcript.
type Section struct {
	Title   string `json:"title" jsonschema:"description=Short descriptive title of the segment"`
	Content string `json:"content" jsonschema:"description=Formatted speaker-labeled Markdown prose"`
}

// Formatted is a transcript reformatted into sections.
// FullText is always Render(Sections); build values with NewFormatted.
type Formatted struct {
	Sections []Section
	FullText string
}

// NewFormatted builds a Formatted from sections, rendering FullText.
func NewFormatted(sections []Section) Formatted {
	return Formatted{
		Sections: sections,
		FullText: Render(sections),
	}
}

// Render joins sections as "## {title}\n\n{content}" separated by Divider.
func Render(sections []Section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = fmt.Sprintf("## %s\n\n%s", s.Title, s.Content)
	}
	return strings.Join(parts, Divider)
}
