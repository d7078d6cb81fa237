package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/transcribe"
)

func TestRunProcess_WritesOneDocumentPerEpisode(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	env, m := testEnv(defaultTestEnv)
	m.feed.episodes = sampleEpisodes()

	err := RunProcess(context.Background(), env, ProcessOptions{
		feedURL:   "https://example.com/feed.rss",
		outputDir: outDir,
		limit:     3,
		parallel:  2,
		target:    lang.MustParse("en"),
	})
	if err != nil {
		t.Fatalf("RunProcess() error = %v", err)
	}

	for _, name := range []string{
		"2025-09-03-episode-3-generics.md",
		"2025-09-02-episode-2-channels.md",
		"episode-1-hello.md",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// Japanese episodes are translated, the unknown-language one too.
	doc := readFile(t, filepath.Join(outDir, "2025-09-03-episode-3-generics.md"))
	if !strings.Contains(doc, "# Episode 3: Generics (English)") {
		t.Errorf("document not translated:\n%s", doc)
	}

	if m.transcriber.CallCount() != 3 {
		t.Errorf("transcriber calls = %d, want 3", m.transcriber.CallCount())
	}
	if m.transcribers.apiKey != "test-openai-key" {
		t.Errorf("transcriber key = %q", m.transcribers.apiKey)
	}
	if m.feed.limit != 3 {
		t.Errorf("feed limit = %d, want 3", m.feed.limit)
	}
	if !strings.Contains(m.stderr.String(), "Processed 3 of 3 episode(s)") {
		t.Errorf("stderr =\n%s", m.stderr.String())
	}
}

func TestRunProcess_FailedEpisodeDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	env, m := testEnv(defaultTestEnv)
	env.ConfigLoader = configWith(config.Config{OutputDir: outDir})
	m.feed.episodes = sampleEpisodes()
	m.transcriber.TranscribeFunc = func(_ context.Context, source string, _ transcribe.Options) (string, error) {
		if strings.HasSuffix(source, "ep2.mp3") {
			return "", transcribe.ErrDownload
		}
		return "Some words.", nil
	}

	err := RunProcess(context.Background(), env, ProcessOptions{feedURL: "u", parallel: 3})
	if !errors.Is(err, ErrEpisodesFailed) {
		t.Fatalf("RunProcess() error = %v, want ErrEpisodesFailed", err)
	}
	if !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("error = %q, want failure count", err)
	}

	entries, _ := os.ReadDir(outDir)
	if len(entries) != 2 {
		t.Errorf("documents written = %d, want 2", len(entries))
	}
	if !strings.Contains(m.stderr.String(), "Failed: Episode 2: Channels") {
		t.Errorf("stderr =\n%s", m.stderr.String())
	}
}

func TestRunProcess_SkipsWrittenEpisodes(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	opts := ProcessOptions{feedURL: "u", outputDir: outDir, parallel: 2}

	first, fm := testEnv(defaultTestEnv)
	fm.feed.episodes = sampleEpisodes()
	if err := RunProcess(context.Background(), first, opts); err != nil {
		t.Fatalf("first RunProcess() error = %v", err)
	}

	env, m := testEnv(defaultTestEnv)
	m.feed.episodes = sampleEpisodes()
	if err := RunProcess(context.Background(), env, opts); err != nil {
		t.Fatalf("second RunProcess() error = %v", err)
	}

	if n := m.transcriber.CallCount(); n != 0 {
		t.Errorf("transcriber calls = %d, want 0", n)
	}
	if n := m.generator.CallCount(); n != 0 {
		t.Errorf("generator calls = %d, want 0", n)
	}
	stderr := m.stderr.String()
	if strings.Count(stderr, "Skipped: ") != 3 {
		t.Errorf("stderr should report 3 skipped episodes:\n%s", stderr)
	}
	if strings.Contains(stderr, "Failed:") {
		t.Errorf("skipped episodes reported as failed:\n%s", stderr)
	}
	if !strings.Contains(stderr, "Processed 0 of 0 episode(s), skipped 3") {
		t.Errorf("stderr =\n%s", stderr)
	}
}

func TestRunProcess_SameFileNameProcessedOnce(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	env, m := testEnv(defaultTestEnv)
	eps := sampleEpisodes()
	dup := eps[0]
	dup.GUID = "ep3-repost"
	dup.AudioURL = "https://cdn.example.com/ep3-repost.mp3"
	m.feed.episodes = append(eps, dup)

	err := RunProcess(context.Background(), env, ProcessOptions{feedURL: "u", outputDir: outDir, parallel: 2})
	if err != nil {
		t.Fatalf("RunProcess() error = %v", err)
	}

	if n := m.transcriber.CallCount(); n != 3 {
		t.Errorf("transcriber calls = %d, want 3", n)
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 3 {
		t.Errorf("documents written = %d, want 3", len(entries))
	}
	if !strings.Contains(m.stderr.String(), `same file name as "Episode 3: Generics"`) {
		t.Errorf("stderr =\n%s", m.stderr.String())
	}
}

func TestRunProcess_LanguageOverride(t *testing.T) {
	t.Parallel()

	env, m := testEnv(defaultTestEnv)
	m.feed.episodes = sampleEpisodes()

	var mu sync.Mutex
	var seen []string
	m.transcriber.TranscribeFunc = func(_ context.Context, _ string, opts transcribe.Options) (string, error) {
		mu.Lock()
		seen = append(seen, opts.Language.String())
		mu.Unlock()
		return "Bonjour.", nil
	}

	err := RunProcess(context.Background(), env, ProcessOptions{
		feedURL:   "u",
		outputDir: t.TempDir(),
		parallel:  1,
		source:    lang.MustParse("fr"),
	})
	if err != nil {
		t.Fatalf("RunProcess() error = %v", err)
	}
	for _, l := range seen {
		if l != "fr" {
			t.Errorf("transcription language = %q, want fr", l)
		}
	}
}

func TestRunProcess_SetupErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing OpenAI key", func(t *testing.T) {
		t.Parallel()
		env, m := testEnv(staticEnv(map[string]string{EnvAnthropicAPIKey: "k"}))
		err := RunProcess(context.Background(), env, ProcessOptions{feedURL: "u", outputDir: t.TempDir()})
		if !errors.Is(err, ErrAPIKeyMissing) || !strings.Contains(err.Error(), EnvOpenAIAPIKey) {
			t.Errorf("error = %v, want missing %s", err, EnvOpenAIAPIKey)
		}
		if m.feed.url != "" {
			t.Error("feed should not be fetched")
		}
	})

	t.Run("output dir is a file", func(t *testing.T) {
		t.Parallel()
		file := writeInput(t, "file", "x")
		env, _ := testEnv(defaultTestEnv)
		err := RunProcess(context.Background(), env, ProcessOptions{feedURL: "u", outputDir: file})
		if err == nil || !strings.Contains(err.Error(), "invalid output-dir") {
			t.Errorf("error = %v, want invalid output-dir", err)
		}
	})
}

func TestRunProcess_Canceled(t *testing.T) {
	t.Parallel()

	env, m := testEnv(defaultTestEnv)
	m.feed.episodes = sampleEpisodes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunProcess(ctx, env, ProcessOptions{feedURL: "u", outputDir: t.TempDir(), parallel: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunProcess() error = %v, want context.Canceled", err)
	}
}
