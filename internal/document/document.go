// Package document assembles a processed episode into a Markdown file.
package document

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/summarize"
	"github.com/alnah/podscribe/internal/transcript"
	"github.com/alnah/podscribe/internal/translate"
)

// ErrOutputExists indicates the output file already exists.
var ErrOutputExists = errors.New("output file already exists")

// Document is everything produced for one episode.
type Document struct {
	ID        string
	Title     string
	Source    string    // audio URL or input file
	Published time.Time // zero when unknown
	Language  lang.Language
	Summary   summarize.Summary
	Formatted transcript.Formatted

	// Translation is nil when the source already is in the target language.
	Translation         *translate.Content
	TranslationLanguage lang.Language
}

// Render returns the document as Markdown: title and metadata, the two
// summaries, the formatted transcript, then the translation when present.
func Render(doc Document) string {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = "Untitled episode"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var meta []string
	if doc.Source != "" {
		meta = append(meta, "- Source: "+doc.Source)
	}
	if !doc.Published.IsZero() {
		meta = append(meta, "- Published: "+doc.Published.Format("2006-01-02"))
	}
	if !doc.Language.IsZero() {
		meta = append(meta, "- Language: "+doc.Language.DisplayName())
	}
	if doc.ID != "" {
		meta = append(meta, "- ID: "+doc.ID)
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, "\n"))
		b.WriteString("\n\n")
	}

	writeSummaries(&b, doc.Summary.Short, doc.Summary.Long)
	b.WriteString("---\n\n")
	b.WriteString(doc.Formatted.FullText)
	b.WriteString("\n")

	if doc.Translation != nil {
		fmt.Fprintf(&b, "\n---\n\n# %s (%s)\n\n", title, doc.TranslationLanguage.DisplayName())
		writeSummaries(&b, doc.Translation.Summary400, doc.Translation.Summary2000)
		b.WriteString("---\n\n")
		b.WriteString(doc.Translation.FullText)
		b.WriteString("\n")
	}
	return b.String()
}

func writeSummaries(b *strings.Builder, short, long string) {
	if short != "" {
		fmt.Fprintf(b, "## Summary\n\n%s\n\n", short)
	}
	if long != "" {
		fmt.Fprintf(b, "## Detailed Summary\n\n%s\n\n", long)
	}
}

// Write renders doc to path. See WriteText.
func Write(path string, doc Document) error {
	return WriteText(path, Render(doc))
}

// WriteText writes content to path.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func WriteText(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug derives a file-name stem from an episode title.
// Letters of any script are kept; everything else collapses to "-".
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if r := []rune(s); len(r) > 80 {
		s = strings.TrimRight(string(r[:80]), "-")
	}
	if s == "" {
		return "episode"
	}
	return s
}
