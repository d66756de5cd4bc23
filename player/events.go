package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dramaplay/dramaplay/log"
)

// EventCallback receives property changes as (property, value) and other
// events as (event name, full event object).
type EventCallback func(name string, data any)

// observed lists the properties the element follows. Property ids are positional.
var observed = []string{"duration", "time-pos"}

// EventListener keeps a persistent IPC connection that observes mpv properties
// and forwards events. Observations are per connection in mpv, so they are
// registered on the same connection that is read.
type EventListener struct {
	socketPath string
	callback   EventCallback

	mu        sync.Mutex
	conn      ipcConn
	listening bool
	done      chan struct{}
}

func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := dialIPC(el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if err != nil {
			conn.Close()
			return err
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	el.done = make(chan struct{})

	go el.readLoop(conn, el.done)

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop, so no callback runs after it returns.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}

	el.listening = false
	_ = el.conn.Close()
	done := el.done
	el.mu.Unlock()

	<-done
}

func (el *EventListener) readLoop(conn ipcConn, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		el.processEvent(scanner.Bytes())
	}

	el.mu.Lock()
	stopped := !el.listening
	el.listening = false
	el.mu.Unlock()

	if err := scanner.Err(); err != nil && !stopped {
		log.Warnf("event listener read error: %v", err)
	}
}

func (el *EventListener) processEvent(line []byte) {
	var event map[string]any
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok || el.callback == nil {
		// command replies
		return
	}

	if eventType == "property-change" {
		name, _ := event["name"].(string)
		if name != "" {
			el.callback(name, event["data"])
		}
		return
	}

	el.callback(eventType, event)
}
