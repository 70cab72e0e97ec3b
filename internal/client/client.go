// Package client talks to the notegraf notes REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mithrel/notegraf-cli/pkg/api"
)

const apiPrefix = "/api/v1/"

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
	HTTP    *http.Client
}

// Client issues requests against one notes API origin.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	log     zerolog.Logger
	http    *http.Client
}

// New validates the base URL and returns a client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", opts.BaseURL)
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: u, token: opts.Token, timeout: opts.Timeout, log: opts.Logger, http: hc}, nil
}

// BaseURL is the origin requests are sent to.
func (c *Client) BaseURL() string { return c.base.String() }

// GetNote fetches the current revision of a note.
func (c *Client) GetNote(ctx context.Context, id string) (api.Note, error) {
	var n api.Note
	err := c.do(ctx, http.MethodGet, "note/"+url.PathEscape(id), nil, nil, &n)
	return n, err
}

// GetRevision fetches one historical revision of a note.
func (c *Client) GetRevision(ctx context.Context, id, rev string) (api.Note, error) {
	var n api.Note
	err := c.do(ctx, http.MethodGet, "note/"+url.PathEscape(id)+"/revision/"+url.PathEscape(rev), nil, nil, &n)
	return n, err
}

// ListRevisions returns every revision of a note in the order the API serves them.
func (c *Client) ListRevisions(ctx context.Context, id string) ([]api.Note, error) {
	var ns []api.Note
	err := c.do(ctx, http.MethodGet, "note/"+url.PathEscape(id)+"/revision", nil, nil, &ns)
	return ns, err
}

// Search runs a query; an empty query lists recent notes.
// An empty result is ErrNoMatch.
func (c *Client) Search(ctx context.Context, query string) ([]api.Note, error) {
	var ns []api.Note
	if err := c.do(ctx, http.MethodGet, "note", url.Values{"query": {query}}, nil, &ns); err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return nil, ErrNoMatch
	}
	return ns, nil
}

// Tags lists every tag known to the API.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.do(ctx, http.MethodGet, "tags", nil, nil, &tags)
	return tags, err
}

// Delete removes a note.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "note/"+url.PathEscape(id), nil, nil, nil)
}

// Submit posts a form submission to endpoint (e.g. "note" or "note/<id>/revision").
func (c *Client) Submit(ctx context.Context, endpoint string, sub api.Submission) (api.Locator, error) {
	var loc api.Locator
	err := c.do(ctx, http.MethodPost, strings.TrimPrefix(endpoint, "/"), nil, sub, &loc)
	return loc, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	fullPath := apiPrefix + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", fullPath, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &FetchError{Method: method, Path: fullPath, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", fullPath).Str("request_id", reqID).
			Dur("took", time.Since(start)).Err(err).Msg("api request failed")
		return &FetchError{Method: method, Path: fullPath, Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug().Str("method", method).Str("path", fullPath).Int("status", resp.StatusCode).
		Str("request_id", reqID).Dur("took", time.Since(start)).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &FetchError{
			Method:     method,
			Path:       fullPath,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(raw),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, fullPath, err)
	}
	return nil
}
