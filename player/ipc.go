package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ipcConn is a connection to the mpv IPC server.
type ipcConn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

type ipcCommand struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
	Event string `json:"event"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 2 * time.Second
)

// sendCommand runs one JSON-IPC command, retrying transient connection errors.
func (m *MPV) sendCommand(command ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := doSendCommand(m.socketPath, command)
		if err == nil {
			return result, nil
		}

		// mpv answered; retrying would not change its mind
		if _, ok := err.(*mpvError); ok {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

type mpvError struct {
	command any
	reason  string
}

func (e *mpvError) Error() string {
	return fmt.Sprintf("mpv %v: %s", e.command, e.reason)
}

func doSendCommand(socketPath string, command []any) (any, error) {
	conn, err := dialIPC(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// mpv broadcasts events to every client, so skip them until the reply shows up
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}

		if resp.Event != "" {
			continue
		}

		if resp.Error != "" && resp.Error != "success" {
			var name any
			if len(command) > 0 {
				name = command[0]
			}
			return nil, &mpvError{command: name, reason: resp.Error}
		}

		return resp.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed")
}
