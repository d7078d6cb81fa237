package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/pipeline"
)

// warnNonMarkdownExtension writes a warning to w if path has an extension
// that is not .md.
func warnNonMarkdownExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".md" {
		_, _ = fmt.Fprintf(w, "Warning: output is Markdown regardless of %s extension\n", ext)
	}
}

// partProgress reports formatting progress per part.
func partProgress(w io.Writer) func(done, total int) {
	return func(done, total int) {
		_, _ = fmt.Fprintf(w, "  Formatted part %d/%d\n", done, total)
	}
}

// stageReporter prints one line per stage entered. Safe for concurrent use.
func stageReporter(w io.Writer) func(title string, stage pipeline.Stage) {
	var mu sync.Mutex
	return func(title string, stage pipeline.Stage) {
		if stage == pipeline.StageDone {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "[%s] %s...\n", title, stage)
	}
}

// loadConfig loads the configuration, warning instead of failing.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigLoader.Load(env.Getenv)
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// newGenerator resolves provider and model (flag, then config) and builds
// the generation client.
func newGenerator(env *Env, cfg config.Config, providerFlag, modelFlag string) (generate.Generator, Provider, error) {
	name := providerFlag
	if name == "" {
		name = cfg.Provider
	}
	provider, err := ParseProvider(name)
	if err != nil {
		return nil, Provider{}, err
	}
	provider = provider.OrDefault()

	apiKey := env.Getenv(provider.APIKeyEnv())
	if apiKey == "" {
		return nil, provider, fmt.Errorf("%s: %w", provider.APIKeyEnv(), ErrAPIKeyMissing)
	}

	opts := []generate.Option{generate.WithLogger(env.Logger)}
	model := modelFlag
	if model == "" {
		model = cfg.Model
	}
	if model != "" {
		opts = append(opts, generate.WithModel(model))
	}

	gen, err := env.GeneratorFactory.NewGenerator(provider, apiKey, opts...)
	if err != nil {
		return nil, provider, err
	}
	return gen, provider, nil
}

// resolveTarget returns the translation target: the flag when set,
// otherwise the configured language. Zero means no translation.
func resolveTarget(flag lang.Language, cfg config.Config) (lang.Language, error) {
	if !flag.IsZero() {
		return flag, nil
	}
	return lang.Parse(cfg.Language)
}

// readInput reads a transcript file, rejecting missing and blank files.
func readInput(path string) (string, error) {
	// #nosec G304 -- path is user-provided
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	return string(content), nil
}

// ensureOutputFree fails before any API call when output already exists.
func ensureOutputFree(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, document.ErrOutputExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot access output: %w", err)
	}
	return nil
}

// stem returns the input's base name without extension or a _raw suffix.
// Example: "dir/ep1_raw.txt" -> "ep1"
func stem(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, "_raw")
}

// episodeFileName names an episode's document, prefixed with its date when known.
func episodeFileName(ep feed.Episode) string {
	name := ep.Title
	if !ep.Published.IsZero() {
		name = ep.Published.Format("2006-01-02") + " " + name
	}
	return document.Slug(name) + ".md"
}
