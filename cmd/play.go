package cmd

import (
	"fmt"
	"os"

	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/tui"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playCmd)
	for _, q := range source.Qualities {
		playCmd.Flags().String(string(q), "", fmt.Sprintf("Source URL for %s", q))
	}
	playCmd.Flags().StringP("quality", "q", "", "Starting quality: 360, 480 or 720")
	playCmd.Flags().BoolP("json", "j", false, "Run headless: snapshots as JSON lines on stdout, commands on stdin")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("quality", completionQualities))
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play source URLs directly, without the catalog",
	Args:  cobra.NoArgs,
	Example: "  dramaplay play --720 https://cdn.example.com/ep1/master.m3u8\n" +
		"  dramaplay play --360 https://cdn.example.com/ep1-360.mp4 --720 https://cdn.example.com/ep1-720.mp4 -q 360",
	Run: func(cmd *cobra.Command, args []string) {
		episode := &source.Episode{EpsNumber: 1, URL: make(map[source.Quality]string)}
		for _, q := range source.Qualities {
			episode.URL[q] = lo.Must(cmd.Flags().GetString(string(q)))
		}

		if !episode.HasSource() {
			handleErr(fmt.Errorf("at least one of --360, --480 or --720 is required"))
		}

		quality, err := qualityFromFlags(lo.Must(cmd.Flags().GetString("quality")))
		handleErr(err)

		checkDependencies()
		asJSON := lo.Must(cmd.Flags().GetBool("json"))

		handleErr(withPlatform(newPlatform(), func(newSession func() *session.Session) error {
			if asJSON {
				s := newSession()
				s.Initialize(*episode, quality)
				return runHeadless(s, os.Stdin, os.Stdout)
			}

			return tui.Run(&tui.Options{
				Title:      "dramaplay",
				Episodes:   []*source.Episode{episode},
				Episode:    mo.Some(episode.EpsNumber),
				Quality:    quality,
				NewSession: newSession,
				HideAfter:  hideAfter(),
			})
		}))
	},
}
