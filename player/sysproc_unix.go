//go:build !windows

package player

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/dramaplay/dramaplay/where"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	// the whole group, in case mpv forked helpers
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}

// ipcEndpoint is a unix socket in the temp directory.
func ipcEndpoint(name string) string {
	return filepath.Join(where.Temp(), name+".sock")
}

func dialIPC(endpoint string) (ipcConn, error) {
	return net.Dial("unix", endpoint)
}

func removeIPC(endpoint string) {
	_ = os.Remove(endpoint)
}
