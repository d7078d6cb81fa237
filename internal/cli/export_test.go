package cli

// Export internal functions for testing.

// FormatOptions exports formatOptions for testing.
type FormatOptions = formatOptions

// TranslateOptions exports translateOptions for testing.
type TranslateOptions = translateOptions

// ProcessOptions exports processOptions for testing.
type ProcessOptions = processOptions

var (
	RunFormat          = runFormat
	ParseFormatOptions = parseFormatOptions
	RunTranslate       = runTranslate
	RunFeed            = runFeed
	RunProcess         = runProcess
	RunConfigSet       = runConfigSet
	RunConfigGet       = runConfigGet
	RunConfigList      = runConfigList
	Stem               = stem
	EpisodeFileName    = episodeFileName
)
