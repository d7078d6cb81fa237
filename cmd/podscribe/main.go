package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/podscribe/internal/apierr"
	"github.com/alnah/podscribe/internal/cli"
	"github.com/alnah/podscribe/internal/document"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/interrupt"
	"github.com/alnah/podscribe/internal/lang"
	"github.com/alnah/podscribe/internal/restructure"
	"github.com/alnah/podscribe/internal/transcribe"
	"github.com/alnah/podscribe/internal/translate"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitGeneration = 5
	ExitPipeline   = 6
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	env := cli.DefaultEnv()

	handler, ctx := interrupt.NewHandler(context.Background(), env.Stderr)
	defer handler.Stop()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "podscribe",
		Short: "Turn podcast episodes into formatted, summarized, translated Markdown",
		Long: `podscribe transcribes podcast episodes, formats the raw transcript into
titled sections with speaker labels, summarizes it and translates it when
the episode is not in your language.

API keys are read from ANTHROPIC_API_KEY and OPENAI_API_KEY (a .env file
in the working directory is loaded when present).`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cli.NewLogger(verbose)
			if err != nil {
				return fmt.Errorf("cannot create logger: %w", err)
			}
			env.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = env.Logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests, retries and timings to stderr")

	rootCmd.AddCommand(cli.FormatCmd(env))
	rootCmd.AddCommand(cli.TranslateCmd(env))
	rootCmd.AddCommand(cli.FeedCmd(env))
	rootCmd.AddCommand(cli.ProcessCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrInvalidProvider) ||
		errors.Is(err, generate.ErrEmptyAPIKey) {
		return ExitSetup
	}

	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrEmptyInput) ||
		errors.Is(err, cli.ErrUnknownConfigKey) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, document.ErrOutputExists) || errors.Is(err, translate.ErrNoTarget) ||
		errors.Is(err, restructure.ErrEmptyTranscript) || errors.Is(err, feed.ErrNoEpisodes) ||
		errors.Is(err, transcribe.ErrFileTooLarge) {
		return ExitValidation
	}

	if errors.Is(err, cli.ErrEpisodesFailed) || errors.Is(err, transcribe.ErrDownload) {
		return ExitPipeline
	}

	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrServer) ||
		errors.Is(err, apierr.ErrTransport) || errors.Is(err, generate.ErrEmptyResponse) {
		return ExitGeneration
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"flag needs an argument",
	"invalid argument",
	"unknown command",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
