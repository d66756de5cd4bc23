package player

import (
	"sync"

	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/open"
)

// Surface hosts a third-party player page. Nothing inside it is observable.
type Surface interface {
	Open(url string) error
	Close() error
}

// Browser is a Surface that hands the embed page to a web browser.
type Browser struct {
	// App is the browser to use. Empty means the system default.
	App string

	mu      sync.Mutex
	current string
}

func (b *Browser) Open(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	log.Infof("opening embedded player %s", url)
	if err := open.Start(url, b.App); err != nil {
		return err
	}

	b.current = url
	return nil
}

// Close forgets the page. The browser tab is not ours to close.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = ""
	return nil
}
