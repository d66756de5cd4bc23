package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dramaplay/dramaplay/catalog"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/style"
	"github.com/dramaplay/dramaplay/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(episodesCmd)
	episodesCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	episodesCmd.SetOut(os.Stdout)
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <slug>",
	Short: "List the episodes of a drama and their qualities",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		episodes, err := catalog.FromConfig().Episodes(ctx, args[0])
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(episodes))
			return
		}

		cmd.Println(style.Faint(util.Quantify(len(episodes), "episode", "episodes")))
		for _, ep := range episodes {
			cmd.Printf("%s  %s\n", style.Bold(episodeLabel(ep.EpsNumber)), describeEpisode(ep))
		}
	},
}

func episodeLabel(n int) string {
	return fmt.Sprintf("Episode %3d", n)
}

func describeEpisode(ep *source.Episode) string {
	available := ep.Available()
	if len(available) == 0 {
		return style.Fg(style.Red)("no sources")
	}

	return strings.Join(lo.Map(available, func(q source.Quality, _ int) string {
		return q.String() + " " + style.Faint(ep.Resolve(q).Strategy.String())
	}), ", ")
}
