package cmd

import (
	"encoding/json"
	"os"

	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Show how a source URL would be played",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res := source.Resolve(args[0])
		backend := player.KindFor(res)

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
				"url":      res.URL,
				"strategy": res.Strategy.String(),
				"format":   res.Format.String(),
				"backend":  backend.String(),
			}))
			return
		}

		label := style.Fg(style.HiPurple)
		cmd.Printf("%s %s\n", label("Strategy"), res.Strategy)
		if res.Strategy == source.Direct {
			cmd.Printf("%s   %s\n", label("Format"), res.Format)
		}
		cmd.Printf("%s  %s\n", label("Backend"), backend)
	},
}
