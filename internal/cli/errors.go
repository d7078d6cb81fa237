package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates the provider's API key environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrEmptyInput indicates the input file has no text.
	ErrEmptyInput = errors.New("input file is empty")

	// ErrUnknownConfigKey indicates a config key that is not supported.
	ErrUnknownConfigKey = errors.New("unknown config key")

	// ErrEpisodesFailed indicates at least one episode of a batch failed.
	ErrEpisodesFailed = errors.New("episodes failed")
)
