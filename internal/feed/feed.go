// Package feed reads podcast RSS and Atom feeds into episode descriptors.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/alnah/podscribe/internal/lang"
)

// ErrNoEpisodes indicates the feed has no item with an audio enclosure.
var ErrNoEpisodes = errors.New("feed contains no audio episodes")

// defaultTimeout bounds a feed download.
const defaultTimeout = 30 * time.Second

// audioExtensions are accepted when an enclosure has no MIME type.
var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true, ".ogg": true,
	".opus": true, ".wav": true, ".flac": true, ".mp4": true,
}

// Episode is one feed item with audio.
type Episode struct {
	GUID        string
	Title       string
	AudioURL    string
	Published   time.Time // zero when the feed omits it
	Description string    // show notes as plain text
	Language    lang.Language
}

// Reader fetches and parses feeds.
type Reader struct {
	parser *gofeed.Parser
}

// Option configures a Reader.
type Option func(*Reader)

// WithHTTPClient sets the client used to download feeds.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) {
		if c != nil {
			r.parser.Client = c
		}
	}
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: defaultTimeout}
	r := &Reader{parser: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Episodes returns the feed's audio episodes, newest first.
// limit <= 0 returns all of them. The feed's declared language is attached
// to every episode; an unknown code leaves it unspecified.
func (r *Reader) Episodes(ctx context.Context, feedURL string, limit int) ([]Episode, error) {
	f, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}
	return episodes(f, limit)
}

// Parse reads episodes from an already downloaded feed document.
func (r *Reader) Parse(doc string, limit int) ([]Episode, error) {
	f, err := r.parser.ParseString(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return episodes(f, limit)
}

func episodes(f *gofeed.Feed, limit int) ([]Episode, error) {
	// An invalid or missing feed language leaves episodes unspecified.
	feedLang, _ := lang.Parse(f.Language)

	out := make([]Episode, 0, len(f.Items))
	for _, item := range f.Items {
		audio := audioURL(item)
		if audio == "" {
			continue
		}

		ep := Episode{
			GUID:        item.GUID,
			Title:       strings.TrimSpace(item.Title),
			AudioURL:    audio,
			Description: htmlToText(firstNonEmpty(item.Description, item.Content)),
			Language:    feedLang,
		}
		if ep.GUID == "" {
			ep.GUID = audio
		}
		if item.PublishedParsed != nil {
			ep.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			ep.Published = *item.UpdatedParsed
		}
		out = append(out, ep)
	}

	if len(out) == 0 {
		return nil, ErrNoEpisodes
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// audioURL returns the first enclosure that looks like audio.
func audioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
		if enc.Type == "" || enc.Type == "application/octet-stream" {
			if audioExtensions[strings.ToLower(path.Ext(stripQuery(enc.URL)))] {
				return enc.URL
			}
		}
	}
	return ""
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// htmlToText flattens show-notes HTML to plain text, one block per line.
// Input that does not parse is returned trimmed.
func htmlToText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, blockquote").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
