// Package catalog downloads the exercise catalog from an ExerciseDB-style
// HTTP API.
//
// The upstream returns one JSON array of objects:
//
//	[{"name": "...", "target": "...", "secondaryMuscles": ["..."],
//	  "gifUrl": "...", "instructions": ["...", "..."], ...}, ...]
//
// Only the five fields above are read; everything else is ignored. Parsing
// goes through gjson so unexpected extra fields or types never fail the
// whole document.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/xjohnsondev/primal-backend/internal/model"
)

const (
	// DefaultURL is the RapidAPI ExerciseDB endpoint.
	DefaultURL = "https://exercisedb.p.rapidapi.com/exercises"
	// DefaultLimit asks for the whole catalog in one page.
	DefaultLimit = 2000

	// maxBody caps how much of a response is read.
	maxBody = 32 << 20
)

// Config describes how to reach the upstream.
//
// APIKey and APIHost are sent as RapidAPI headers. BearerToken, if set, is
// sent as "Authorization: Bearer" through an oauth2 static token source. Both
// may be set.
type Config struct {
	URL         string
	APIKey      string
	APIHost     string
	BearerToken string
	Limit       int
	Timeout     time.Duration
}

// Client fetches the catalog. It implements service.CatalogSource.
type Client struct {
	cfg  Config
	http *http.Client
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog: invalid URL %q", cfg.URL)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.BearerToken != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}, nil
}

// Fetch downloads and parses the catalog.
func (c *Client) Fetch(ctx context.Context) ([]model.Exercise, error) {
	u, _ := url.Parse(c.cfg.URL)
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	}
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: requesting %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("catalog: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("catalog: upstream returned %d: %s", resp.StatusCode, msg)
	}

	return Parse(body)
}

// Parse converts an upstream response body into exercises, in document order.
func Parse(body []byte) ([]model.Exercise, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("catalog: response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, errors.New("catalog: response is not a JSON array")
	}

	var out []model.Exercise
	doc.ForEach(func(_, item gjson.Result) bool {
		out = append(out, model.Exercise{
			Name:         item.Get("name").String(),
			Target:       item.Get("target").String(),
			Secondary:    stringList(item.Get("secondaryMuscles")),
			GIF:          item.Get("gifUrl").String(),
			Instructions: stringList(item.Get("instructions")),
		})
		return true
	})
	return out, nil
}

func stringList(r gjson.Result) model.StringList {
	list := model.StringList{}
	for _, v := range r.Array() {
		list = append(list, v.String())
	}
	return list
}
