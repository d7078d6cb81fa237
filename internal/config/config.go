package config

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyProvider  = "provider"
	KeyLanguage  = "language"
	KeyModel     = "model"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "PODSCRIBE_OUTPUT_DIR"
	EnvProvider  = "PODSCRIBE_PROVIDER"
	EnvLanguage  = "PODSCRIBE_LANGUAGE"
	EnvModel     = "PODSCRIBE_MODEL"
)

// Keys lists the supported keys in display order.
var Keys = []string{KeyOutputDir, KeyProvider, KeyLanguage, KeyModel}

// EnvFor returns the environment variable backing key, or "" for unknown keys.
func EnvFor(key string) string {
	switch key {
	case KeyOutputDir:
		return EnvOutputDir
	case KeyProvider:
		return EnvProvider
	case KeyLanguage:
		return EnvLanguage
	case KeyModel:
		return EnvModel
	}
	return ""
}

// IsKey reports whether key is a supported configuration key.
func IsKey(key string) bool {
	return slices.Contains(Keys, key)
}

// Config holds user configuration loaded from ~/.config/podscribe/config.
type Config struct {
	OutputDir string
	Provider  string
	Language  string // target language for translations
	Model     string
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/podscribe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "podscribe"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "podscribe"), nil
}

func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file, then fills unset keys from getenv.
// A missing file yields an empty Config, not an error.
func Load(getenv func(string) string) (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	value := func(key string) string {
		if v := data[key]; v != "" {
			return v
		}
		if getenv == nil {
			return ""
		}
		return getenv(EnvFor(key))
	}

	cfg.OutputDir = value(KeyOutputDir)
	cfg.Provider = value(KeyProvider)
	cfg.Language = value(KeyLanguage)
	cfg.Model = value(KeyModel)
	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file.
// Existing pairs are preserved; comments are discarded.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, key := range slices.Sorted(maps.Keys(data)) {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all config file values.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// ResolveOutputPath resolves the final output path:
//  1. an absolute output is used as-is
//  2. a relative output is joined to outputDir when set
//  3. an empty output becomes defaultName in outputDir (or cwd)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}
	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is a writable directory, creating it if needed.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	testFile := filepath.Join(d, ".podscribe-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
