package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// defaultFeedLimit is how many episodes "feed" lists by default.
const defaultFeedLimit = 10

// FeedCmd creates the feed command (list a podcast's episodes).
// The env parameter provides injectable dependencies for testing.
func FeedCmd(env *Env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed <feed-url>",
		Short: "List a podcast feed's episodes",
		Long: `List the audio episodes of an RSS or Atom feed, newest first.

Each line shows the publication date, the language and the title,
followed by the audio URL.`,
		Example: `  podscribe feed https://example.com/podcast.rss
  podscribe feed https://example.com/podcast.rss --limit 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd.Context(), env, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultFeedLimit, "Number of episodes to list (0 = all)")

	return cmd
}

// runFeed prints the feed's episodes to stdout.
func runFeed(ctx context.Context, env *Env, feedURL string, limit int) error {
	episodes, err := env.FeedReader.Episodes(ctx, feedURL, limit)
	if err != nil {
		return err
	}

	for _, ep := range episodes {
		date := "----------"
		if !ep.Published.IsZero() {
			date = ep.Published.Format("2006-01-02")
		}
		code := ep.Language.String()
		if code == "" {
			code = "?"
		}
		_, _ = fmt.Fprintf(env.Stdout, "%s  %-5s  %s\n            %s\n", date, code, ep.Title, ep.AudioURL)
	}
	return nil
}
