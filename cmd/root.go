// Package cmd implements the dramaplay command-line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/icon"
	"github.com/dramaplay/dramaplay/key"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/style"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant: emoji, nerd or plain")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	// platform overrides for a single run; "config set" makes them stick
	bindings := []struct {
		flag, key, usage string
	}{
		{"mpv", key.PlayerMPVPath, "mpv executable to play with"},
		{"browser", key.PlayerBrowser, "Application that opens embedded players"},
	}
	for _, b := range bindings {
		rootCmd.PersistentFlags().String(b.flag, "", b.usage)
		lo.Must0(viper.BindPFlag(b.key, rootCmd.PersistentFlags().Lookup(b.flag)))
	}

	rootCmd.PersistentFlags().Bool("no-hls-engine", false, "Never use the built-in HLS engine")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("no-hls-engine")) {
			viper.Set(key.HLSSoftwareEngine, false)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   constant.Dramaplay,
	Short: "Watch dramas from the terminal",
	Long: style.Title(constant.Dramaplay) + "\n\n" +
		style.New().Italic(true).Foreground(style.Subtext).Render("Stream drama episodes with mpv, an embedded browser player or the built-in HLS engine"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
