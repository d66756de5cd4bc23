package cmd

import (
	"encoding/json"
	"os"

	"github.com/dramaplay/dramaplay/config"
	"github.com/dramaplay/dramaplay/style"
	"github.com/dramaplay/dramaplay/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only show variables that are unset")
	envCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

type envVar struct {
	Name  string `json:"name"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// envVars lists every variable read, sorted by name.
func envVars() []envVar {
	vars := lo.Map(config.EnvExposed, func(k string, _ int) envVar {
		field := config.Default[k]
		name := field.Env()
		return envVar{Name: name, Key: k, Value: os.Getenv(name)}
	})
	vars = append(vars, envVar{Name: where.EnvConfigPath, Value: os.Getenv(where.EnvConfigPath)})

	slices.SortFunc(vars, func(a, b envVar) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return vars
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables dramaplay reads",
	Long:  `List the environment variables dramaplay reads and their current values.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
		)

		vars := lo.Filter(envVars(), func(v envVar, _ int) bool {
			present := v.Value != ""
			return !(setOnly && !present) && !(unsetOnly && present)
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(vars))
			return
		}

		for _, v := range vars {
			cmd.Print(style.New().Bold(true).Foreground(style.Purple).Render(v.Name))
			cmd.Print("=")

			if v.Value != "" {
				cmd.Println(style.Fg(style.Green)(v.Value))
			} else {
				cmd.Println(style.Fg(style.Red)("unset"))
			}
		}
	},
}
