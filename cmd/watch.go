package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dramaplay/dramaplay/catalog"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/tui"
	"github.com/dramaplay/dramaplay/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("quality", "q", "", "Starting quality: 360, 480 or 720")
	watchCmd.Flags().BoolP("json", "j", false, "Run headless: snapshots as JSON lines on stdout, commands on stdin")
	lo.Must0(watchCmd.RegisterFlagCompletionFunc("quality", completionQualities))
}

func completionQualities(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(source.Qualities, func(q source.Quality, _ int) string { return string(q) }), cobra.ShellCompDirectiveNoFileComp
}

var watchCmd = &cobra.Command{
	Use:   "watch <slug> [episode]",
	Short: "Watch a drama from the catalog",
	Args:  cobra.RangeArgs(1, 2),
	Example: "  dramaplay watch crash-landing-on-you\n" +
		"  dramaplay watch crash-landing-on-you 3 -q 480",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			slug     = args[0]
			asJSON   = lo.Must(cmd.Flags().GetBool("json"))
			client   = catalog.FromConfig()
			ctx      = cmd.Context()
			episode  = mo.None[int]()
			quality  source.Quality
			err      error
			episodes []*source.Episode
		)

		if ctx == nil {
			ctx = context.Background()
		}

		quality, err = qualityFromFlags(lo.Must(cmd.Flags().GetString("quality")))
		handleErr(err)

		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				handleErr(fmt.Errorf("invalid episode number %q", args[1]))
			}
			episode = mo.Some(n)
		}

		title := slug
		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			var err error
			episodes, err = client.Episodes(groupCtx, slug)
			return err
		})
		group.Go(func() error {
			// the title is cosmetic, a missing detail record is not fatal
			drama, err := client.Drama(groupCtx, slug)
			if err != nil {
				log.Warnf("drama detail for %s: %v", slug, err)
				return nil
			}
			title = drama.Title
			return nil
		})

		erase := util.PrintErasable("Fetching episodes...")
		err = group.Wait()
		erase()
		handleErr(err)

		if len(episodes) == 0 {
			handleErr(fmt.Errorf("%s has no episodes", slug))
		}

		var ep *source.Episode
		if asJSON {
			number, ok := episode.Get()
			if !ok {
				number, err = pickEpisode(episodes)
				handleErr(err)
			}

			var found bool
			ep, found = lo.Find(episodes, func(e *source.Episode) bool { return e.EpsNumber == number })
			if !found {
				handleErr(fmt.Errorf("episode %d of %s: %w", number, slug, catalog.ErrNotFound))
			}
		}

		checkDependencies()

		handleErr(withPlatform(newPlatform(), func(newSession func() *session.Session) error {
			if !asJSON {
				return tui.Run(&tui.Options{
					Title:      title,
					Episodes:   episodes,
					Episode:    episode,
					Quality:    quality,
					NewSession: newSession,
					HideAfter:  hideAfter(),
				})
			}

			s := newSession()
			s.Initialize(*ep, quality)
			return runHeadless(s, os.Stdin, os.Stdout)
		}))
	},
}

// pickEpisode asks for an episode on stderr, leaving stdout to the JSON stream.
func pickEpisode(episodes []*source.Episode) (int, error) {
	options := lo.Map(episodes, func(e *source.Episode, _ int) string {
		return fmt.Sprintf("Episode %d", e.EpsNumber)
	})

	var index int
	err := survey.AskOne(&survey.Select{
		Message: "Which episode?",
		Options: options,
	}, &index, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
	if err != nil {
		return 0, err
	}

	return episodes[index].EpsNumber, nil
}
