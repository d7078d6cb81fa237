package transcript

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

// FallbackTitle marks a section whose structure could not be extracted.
// Its content is the raw model output, kept verbatim.
const FallbackTitle = "Formatting Error"

// payload is the JSON shape the formatting prompt asks for.
type payload struct {
	Sections []Section `json:"sections" jsonschema:"description=Sections in transcript order"`
}

// ParseSections extracts {"sections": [...]} from model output that may be
// wrapped in commentary or code fences.
//
// It reports ok=false and returns a single FallbackTitle section holding raw
// unchanged when no JSON object is found, the object does not parse, or it
// has no sections. Transcript content is never dropped.
func ParseSections(raw string) (sections []Section, ok bool) {
	span, found := firstObject(raw)
	if !found {
		return fallback(raw), false
	}

	var p struct {
		Sections *[]Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(span), &p); err != nil {
		return fallback(raw), false
	}
	if p.Sections == nil || len(*p.Sections) == 0 {
		return fallback(raw), false
	}
	return *p.Sections, true
}

func fallback(raw string) []Section {
	return []Section{{Title: FallbackTitle, Content: raw}}
}

// firstObject returns the first balanced {...} span in s.
// Braces inside JSON string literals are ignored.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// Schema returns the JSON schema of the sections payload. It is embedded in
// the formatting prompt and sent as a structured-output constraint where the
// provider supports one.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		r := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		schema = r.Reflect(&payload{})
		schema.Version = ""
		schema.ID = ""
	})
	return schema
}

// SchemaJSON returns Schema as indented JSON for prompt embedding.
func SchemaJSON() string {
	b, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		// Reflected schemas always marshal.
		panic(err)
	}
	return string(b)
}
