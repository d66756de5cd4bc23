// Package open launches URLs with the system handler or a named application.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Start opens input with app asynchronously. An empty app means the system default handler.
func Start(input, app string) error {
	cmd, err := Command(input, app)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the platform command that opens input, without starting it.
func Command(input, app string) (*exec.Cmd, error) {
	var (
		cmd *exec.Cmd
		ok  bool
	)
	if app == "" {
		cmd, ok = command(input)
	} else {
		cmd, ok = commandWith(input, app)
	}
	if !ok {
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd, nil
}

func command(input string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case "windows":
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), true
	case "darwin":
		return exec.Command("open", input), true
	case "linux":
		return exec.Command("xdg-open", input), true
	case "android":
		return exec.Command("termux-open", input), true
	default:
		return nil, false
	}
}

func commandWith(input, app string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case "windows":
		// cmd's start needs '&' escaped for multi-parameter URLs.
		escaped := strings.ReplaceAll(input, "&", "^&")
		return exec.Command("cmd", "/C", "start", "", app, escaped), true
	case "darwin":
		return exec.Command("open", "-a", app, input), true
	case "linux":
		return exec.Command(app, input), true
	case "android":
		return exec.Command("termux-open", "--choose", input), true
	default:
		return nil, false
	}
}
