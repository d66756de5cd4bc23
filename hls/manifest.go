// Package hls is a software engine for HLS streams on players without native support.
//
// It loads a manifest, picks the highest-bandwidth variant and serves its
// segments as one continuous MPEG-TS stream on a loopback address.
package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dramaplay/dramaplay/log"
	"github.com/grafov/m3u8"
	"github.com/samber/lo"
)

// Error details, named the way HLS players report them.
const (
	ManifestLoadError    = "manifestLoadError"
	ManifestParsingError = "manifestParsingError"
	LevelLoadError       = "levelLoadError"
	LevelEmptyError      = "levelEmptyError"
	FragLoadError        = "fragLoadError"
)

// Error is an engine failure. Fatal errors end the stream.
type Error struct {
	Details string
	Fatal   bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Details
	}
	return fmt.Sprintf("%s: %v", e.Details, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Segment is one media segment with its absolute start time.
type Segment struct {
	URI      string
	Start    float64
	Duration float64
}

// Plan is the resolved media playlist to stream.
type Plan struct {
	Segments  []Segment
	Duration  float64
	Bandwidth uint32
}

// SegmentAt returns the index of the segment that contains the given time.
func (p *Plan) SegmentAt(seconds float64) int {
	for i, s := range p.Segments {
		if seconds < s.Start+s.Duration {
			return i
		}
	}
	return max(len(p.Segments)-1, 0)
}

// LoadPlan fetches the manifest at manifestURL. A master playlist is followed
// to its highest-bandwidth variant.
func LoadPlan(ctx context.Context, client *http.Client, manifestURL string) (*Plan, error) {
	playlist, listType, err := fetchPlaylist(ctx, client, manifestURL, ManifestLoadError)
	if err != nil {
		return nil, err
	}

	base := manifestURL
	if listType == m3u8.MASTER {
		master := playlist.(*m3u8.MasterPlaylist)
		variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
			return v != nil && v.URI != ""
		})
		if len(variants) == 0 {
			return nil, &Error{Details: LevelEmptyError, Fatal: true}
		}

		best := lo.MaxBy(variants, func(a, b *m3u8.Variant) bool {
			return a.Bandwidth > b.Bandwidth
		})

		base, err = resolveURI(manifestURL, best.URI)
		if err != nil {
			return nil, &Error{Details: ManifestParsingError, Fatal: true, Err: err}
		}

		log.Debugf("hls: picked variant %s at %d bps", base, best.Bandwidth)

		playlist, listType, err = fetchPlaylist(ctx, client, base, LevelLoadError)
		if err != nil {
			return nil, err
		}
		if listType != m3u8.MEDIA {
			return nil, &Error{Details: ManifestParsingError, Fatal: true, Err: fmt.Errorf("variant is not a media playlist")}
		}

		plan, err := planFrom(playlist.(*m3u8.MediaPlaylist), base)
		if err != nil {
			return nil, err
		}
		plan.Bandwidth = best.Bandwidth
		return plan, nil
	}

	return planFrom(playlist.(*m3u8.MediaPlaylist), base)
}

func planFrom(media *m3u8.MediaPlaylist, base string) (*Plan, error) {
	plan := &Plan{}

	for _, seg := range media.Segments {
		// the segment slice is a ring buffer with nil padding
		if seg == nil || seg.URI == "" {
			continue
		}

		uri, err := resolveURI(base, seg.URI)
		if err != nil {
			return nil, &Error{Details: ManifestParsingError, Fatal: true, Err: err}
		}

		plan.Segments = append(plan.Segments, Segment{
			URI:      uri,
			Start:    plan.Duration,
			Duration: seg.Duration,
		})
		plan.Duration += seg.Duration
	}

	if len(plan.Segments) == 0 {
		return nil, &Error{Details: LevelEmptyError, Fatal: true}
	}

	return plan, nil
}

func fetchPlaylist(ctx context.Context, client *http.Client, target, loadError string) (m3u8.Playlist, m3u8.ListType, error) {
	body, err := get(ctx, client, target)
	if err != nil {
		return nil, 0, &Error{Details: loadError, Fatal: true, Err: err}
	}
	defer body.Close()

	playlist, listType, err := m3u8.DecodeFrom(body, false)
	if err != nil {
		return nil, 0, &Error{Details: ManifestParsingError, Fatal: true, Err: err}
	}

	return playlist, listType, nil
}

func get(ctx context.Context, client *http.Client, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return resp.Body, nil
}

func resolveURI(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	return b.ResolveReference(r).String(), nil
}
