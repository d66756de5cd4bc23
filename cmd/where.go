package cmd

import (
	"encoding/json"
	"os"

	"github.com/dramaplay/dramaplay/style"
	"github.com/dramaplay/dramaplay/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// whereTarget is a directory the app uses and the flag that prints it.
type whereTarget struct {
	name     string
	where    func() string
	argLong  string
	argShort mo.Option[string]
	hidden   bool
}

var wherePaths = []*whereTarget{
	{"Config", where.Config, "config", mo.Some("c"), false},
	{"Logs", where.Logs, "logs", mo.Some("l"), false},
	{"Catalog cache", where.Catalog, "catalog", mo.None[string](), false},
	{"Cache", where.Cache, "cache", mo.None[string](), true},
	{"Temp", where.Temp, "temp", mo.None[string](), true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, n := range wherePaths {
		short := n.argShort.OrEmpty()
		whereCmd.Flags().BoolP(n.argLong, short, false, "Only print the "+n.name+" path")

		if n.hidden {
			lo.Must0(whereCmd.Flags().MarkHidden(n.argLong))
		}
	}

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(wherePaths, func(t *whereTarget, _ int) string {
		return t.argLong
	})...)
	whereCmd.Flags().BoolP("json", "j", false, "Print every path as a JSON object")

	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where dramaplay keeps its files",
	Run: func(cmd *cobra.Command, args []string) {
		for _, n := range wherePaths {
			if lo.Must(cmd.Flags().GetBool(n.argLong)) {
				cmd.Println(n.where())
				return
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			paths := lo.SliceToMap(wherePaths, func(t *whereTarget) (string, string) {
				return t.argLong, t.where()
			})
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(paths))
			return
		}

		headerStyle := style.New().Bold(true).Foreground(style.HiPurple).Render
		visible := lo.Filter(wherePaths, func(t *whereTarget, _ int) bool {
			return !t.hidden
		})

		for i, n := range visible {
			cmd.Printf("%s %s\n", headerStyle(n.name+"?"), style.Fg(style.Yellow)("--"+n.argLong))
			cmd.Println(n.where())

			if i < len(visible)-1 {
				cmd.Println()
			}
		}
	},
}
