package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/dramaplay/dramaplay/icon"
	"github.com/dramaplay/dramaplay/key"
	"github.com/dramaplay/dramaplay/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// checkDependencies exits when the configured mpv executable cannot be found.
func checkDependencies() {
	mpv := viper.GetString(key.PlayerMPVPath)
	if _, err := exec.LookPath(mpv); err != nil {
		printMissingDependencyError(mpv)
		os.Exit(1)
	}
}

func installHint() string {
	switch runtime.GOOS {
	case "darwin":
		return "brew install mpv"
	case "linux":
		return "sudo apt install mpv"
	case "windows":
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("'%s' was not found in your PATH.", dep))

	suggestion := fmt.Sprintf("\n\nSet another executable with\n  %s",
		style.New().Foreground(style.Accent).Bold(true).Render("dramaplay config set "+key.PlayerMPVPath+" <path>"))
	if hint := installHint(); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s%s",
			style.New().Foreground(style.Accent).Bold(true).Render(hint), suggestion)
	}

	_, _ = fmt.Fprintln(os.Stderr, box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
