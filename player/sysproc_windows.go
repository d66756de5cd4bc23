//go:build windows

package player

import (
	"os"
	"os/exec"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	// no process groups here; mpv runs in its own window anyway
	return nil
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// ipcEndpoint is a named pipe; mpv on Windows does not serve unix sockets.
func ipcEndpoint(name string) string {
	return `\\.\pipe\` + name
}

// dialIPC opens the pipe as a file. Pipe handles opened this way do not
// support deadlines, which sendCommand tolerates.
func dialIPC(endpoint string) (ipcConn, error) {
	return os.OpenFile(endpoint, os.O_RDWR, 0)
}

// removeIPC is a no-op: the pipe disappears with the process.
func removeIPC(string) {}
