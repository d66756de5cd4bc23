package hls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/network"
)

// Listener receives engine signals. Calls never happen after Destroy returns.
type Listener struct {
	ManifestParsed func(duration float64)
	Error          func(fatal bool, details string)
}

type Options struct {
	// Client fetches manifests and segments. Defaults to network.Client.
	Client *http.Client
	// BufferSegments is how many segments are fetched ahead of the reader.
	BufferSegments int
	// SegmentRetries is how many consecutive segment failures are tolerated.
	SegmentRetries int
	// RetryDelay is the pause between segment attempts.
	RetryDelay time.Duration
}

const streamPath = "/stream.ts"

// Engine streams one manifest. It is single use: Load once, Destroy once.
type Engine struct {
	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	destroyed bool
	plan      *Plan
	ready     chan struct{}
	server    *http.Server
	addr      string

	// emitMu serializes listener calls against Destroy
	emitMu   sync.Mutex
	listener Listener
}

func New(opts Options) *Engine {
	if opts.Client == nil {
		opts.Client = network.Client
	}
	if opts.BufferSegments < 1 {
		opts.BufferSegments = 1
	}
	if opts.SegmentRetries < 1 {
		opts.SegmentRetries = 1
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
	}
}

// Load starts serving and fetches the manifest in the background.
func (e *Engine) Load(manifestURL string, listener Listener) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("hls listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(streamPath, e.serveStream)

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		ln.Close()
		return errors.New("hls engine destroyed")
	}
	e.addr = ln.Addr().String()
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	server := e.server
	e.mu.Unlock()

	e.emitMu.Lock()
	e.listener = listener
	e.emitMu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnf("hls server: %v", err)
		}
	}()

	go e.load(manifestURL)
	return nil
}

func (e *Engine) load(manifestURL string) {
	plan, err := LoadPlan(e.ctx, e.opts.Client, manifestURL)
	if err != nil {
		if e.ctx.Err() != nil {
			return
		}

		var hlsErr *Error
		if errors.As(err, &hlsErr) {
			log.Warnf("hls: %v", hlsErr)
			e.emitError(true, hlsErr.Details)
			return
		}
		e.emitError(true, ManifestLoadError)
		return
	}

	e.mu.Lock()
	e.plan = plan
	close(e.ready)
	e.mu.Unlock()

	log.Infof("hls: %d segments, %.1fs", len(plan.Segments), plan.Duration)
	e.emit(func(l Listener) {
		if l.ManifestParsed != nil {
			l.ManifestParsed(plan.Duration)
		}
	})
}

// URL is the loopback stream address.
func (e *Engine) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return "http://" + e.addr + streamPath
}

// SeekURL returns a stream address starting at the segment containing seconds,
// and the start time of that segment.
func (e *Engine) SeekURL(seconds float64) (string, float64) {
	e.mu.Lock()
	plan := e.plan
	e.mu.Unlock()

	if plan == nil {
		return e.URL(), 0
	}

	i := plan.SegmentAt(seconds)
	return e.URL() + "?from=" + strconv.Itoa(i), plan.Segments[i].Start
}

// Destroy stops fetching and serving. It does not wait for in-flight
// requests to drain, but silences the listener before returning.
func (e *Engine) Destroy() {
	e.emitMu.Lock()
	e.listener = Listener{}
	e.emitMu.Unlock()

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	server := e.server
	e.mu.Unlock()

	e.cancel()

	if server != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
	}
}

func (e *Engine) emit(call func(Listener)) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	call(e.listener)
}

func (e *Engine) emitError(fatal bool, details string) {
	e.emit(func(l Listener) {
		if l.Error != nil {
			l.Error(fatal, details)
		}
	})
}

type fragment struct {
	data []byte
	err  error
}

func (e *Engine) serveStream(w http.ResponseWriter, r *http.Request) {
	select {
	case <-e.ready:
	case <-e.ctx.Done():
		http.Error(w, "engine stopped", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	e.mu.Lock()
	plan := e.plan
	e.mu.Unlock()

	from, _ := strconv.Atoi(r.URL.Query().Get("from"))
	if from < 0 || from >= len(plan.Segments) {
		from = 0
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()

	fragments := make(chan fragment, e.opts.BufferSegments)
	go e.prefetch(ctx, plan, from, fragments)

	w.Header().Set("Content-Type", constant.MimeTS)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for frag := range fragments {
		if frag.err != nil {
			return
		}

		if _, err := w.Write(frag.data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// prefetch fills fragments in order, at most BufferSegments ahead of the writer.
func (e *Engine) prefetch(ctx context.Context, plan *Plan, from int, fragments chan<- fragment) {
	defer close(fragments)

	for i := from; i < len(plan.Segments); i++ {
		data, err := e.fetchSegment(ctx, plan.Segments[i])
		if err != nil {
			select {
			case fragments <- fragment{err: err}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case fragments <- fragment{data: data}:
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) fetchSegment(ctx context.Context, seg Segment) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= e.opts.SegmentRetries; attempt++ {
		body, err := get(ctx, e.opts.Client, seg.URI)
		if err == nil {
			var data []byte
			data, err = io.ReadAll(body)
			body.Close()
			if err == nil {
				return data, nil
			}
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		log.Warnf("hls: segment %s attempt %d: %v", seg.URI, attempt, err)
		e.emitError(attempt == e.opts.SegmentRetries, FragLoadError)

		if attempt < e.opts.SegmentRetries {
			select {
			case <-time.After(e.opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, &Error{Details: FragLoadError, Fatal: true, Err: lastErr}
}
