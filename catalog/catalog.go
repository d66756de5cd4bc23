// Package catalog fetches dramas and their episodes from the remote catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dramaplay/dramaplay/key"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/network"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/util"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("not found")

// Drama is the catalog detail record for one title.
type Drama struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Image         string   `json:"image"`
	OriginalTitle string   `json:"original_title"`
	NativeTitle   string   `json:"native_title"`
	Director      []string `json:"director"`
	Writer        []string `json:"writer"`
	Network       []string `json:"network"`
	Genres        []string `json:"genres"`
	Episodes      int      `json:"episodes"`
	Aired         string   `json:"aired"`
	Duration      *string  `json:"duration"`
	Language      string   `json:"language"`
	Country       string   `json:"country"`
	Synopsis      string   `json:"synopsis"`
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Client talks to one catalog API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	cache   *cache
	// concurrent requests for the same URL share one fetch
	group singleflight.Group
}

// New returns a client for baseURL. Responses are cached for lifetime; zero disables caching.
func New(baseURL string, client *http.Client, lifetime time.Duration) *Client {
	if client == nil {
		client = network.Client
	}

	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    client,
	}
	if lifetime > 0 {
		c.cache = newCache(lifetime)
	}
	return c
}

// FromConfig builds a client from the catalog.* settings.
func FromConfig() *Client {
	return New(
		viper.GetString(key.CatalogBaseURL),
		network.NewClient(time.Duration(viper.GetInt(key.CatalogTimeout))*time.Second),
		time.Duration(viper.GetInt(key.CatalogCacheLifetime))*time.Second,
	)
}

// Episodes lists a drama's episodes in ascending order.
func (c *Client) Episodes(ctx context.Context, slug string) ([]*source.Episode, error) {
	var episodes []*source.Episode
	if err := c.get(ctx, "/drama/"+url.PathEscape(slug)+"/episodes", &episodes); err != nil {
		return nil, fmt.Errorf("fetch drama episodes: %w", err)
	}

	episodes = lo.Compact(episodes)
	slices.SortFunc(episodes, func(a, b *source.Episode) int {
		return a.EpsNumber - b.EpsNumber
	})
	return episodes, nil
}

// Episode finds one episode by its number.
func (c *Client) Episode(ctx context.Context, slug string, number int) (*source.Episode, error) {
	episodes, err := c.Episodes(ctx, slug)
	if err != nil {
		return nil, err
	}

	ep, ok := lo.Find(episodes, func(e *source.Episode) bool { return e.EpsNumber == number })
	if !ok {
		return nil, fmt.Errorf("episode %d of %s: %w", number, slug, ErrNotFound)
	}
	return ep, nil
}

func (c *Client) Drama(ctx context.Context, slug string) (*Drama, error) {
	var drama *Drama
	if err := c.get(ctx, "/drama/"+url.PathEscape(slug), &drama); err != nil {
		return nil, fmt.Errorf("fetch drama detail: %w", err)
	}

	if drama == nil {
		return nil, fmt.Errorf("drama %s: %w", slug, ErrNotFound)
	}
	return drama, nil
}

// get fetches path and decodes the envelope's data into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	target := c.BaseURL + path

	body, ok := c.cache.lookup(target)
	if !ok {
		result, err, _ := c.group.Do(target, func() (any, error) {
			fetched, err := c.fetch(ctx, target)
			if err != nil {
				return nil, err
			}
			c.cache.store(target, fetched)
			return fetched, nil
		})
		if err != nil {
			return err
		}
		body = result.([]byte)
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	return json.Unmarshal(env.Data, out)
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Debugf("GET %s", target)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(resp.Body.Close)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return raw, nil
}
