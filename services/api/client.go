package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
)

type (
	Options struct {
		BaseURL    string
		Timeout    time.Duration
		HTTPClient *http.Client
		Hooks      []Hook
		Metrics    *Metrics
		Logger     core.Logger
	}

	// Call describes one logical request. Retries replay it identically.
	Call struct {
		Method  string
		Path    string // relative to the base URL, e.g. "/auth/login"
		Query   url.Values
		Header  http.Header
		Body    []byte
		Retries int // retries performed so far
	}

	// Hook is one stage of the client middleware pipeline.
	// OnRequest runs before every attempt, in order. OnResponseError runs, in order, when
	// the backend answers with a non-2xx status: returning retry=true replays the call,
	// returning an error rejects it with that error.
	Hook struct {
		Name            string
		OnRequest       func(call *Call, req *http.Request) error
		OnResponseError func(ctx context.Context, call *Call, apiErr *Error) (retry bool, err error)
	}

	// Client is the single point of outbound communication with the backend.
	Client struct {
		baseURL *url.URL
		http    *http.Client
		hooks   []Hook
		metrics *Metrics
		logger  core.Logger
	}

	response struct {
		status int
		header http.Header
		body   []byte
	}
)

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: base,
		http:    hc,
		hooks:   opts.Hooks,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}, nil
}

// Use appends hooks to the pipeline. It must not be called once requests are flowing.
func (c *Client) Use(hooks ...Hook) {
	c.hooks = append(c.hooks, hooks...)
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do runs call through the pipeline and decodes a JSON answer into out (if not nil).
func (c *Client) Do(ctx context.Context, call *Call, out interface{}) error {
	resp, err := c.do(ctx, call)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(resp.body, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", call.Method, call.Path)
	}
	return nil
}

// Download fetches a binary document such as a PDF.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (Document, error) {
	call := &Call{Method: http.MethodGet, Path: path, Query: query, Header: http.Header{"Accept": {"application/pdf"}}}
	resp, err := c.do(ctx, call)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ContentType: resp.header.Get("Content-Type"),
		Filename:    filenameFrom(resp.header.Get("Content-Disposition"), path),
		Data:        resp.body,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, &Call{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	call := &Call{Method: method, Path: path, Query: query}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s", method, path)
		}
		call.Body = body
	}
	return c.Do(ctx, call, out)
}

func (c *Client) do(ctx context.Context, call *Call) (*response, error) {
	for {
		resp, err := c.attempt(ctx, call)
		if err != nil {
			return nil, err
		}
		if resp.status < http.StatusBadRequest {
			return resp, nil
		}

		apiErr := newError(call, resp.status, resp.body)
		if apiErr.Auth() {
			c.metrics.authFailure()
		}
		retry, err := c.handleError(ctx, call, apiErr)
		if err != nil {
			return nil, err
		}
		if !retry {
			return nil, apiErr
		}
		c.metrics.retry()
		if c.logger != nil {
			c.logger.Debug("retrying request", map[string]interface{}{
				"method": call.Method, "path": call.Path, "status": apiErr.Status, "retry": call.Retries,
			})
		}
	}
}

func (c *Client) attempt(ctx context.Context, call *Call) (*response, error) {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, err
	}
	for _, h := range c.hooks {
		if h.OnRequest == nil {
			continue
		}
		if err = h.OnRequest(call, req); err != nil {
			return nil, errors.Wrapf(err, "%s hook", h.Name)
		}
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(call.Method, 0, time.Since(start))
		return nil, errors.Wrapf(err, "%s %s", call.Method, call.Path)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	c.metrics.observe(call.Method, res.StatusCode, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s %s", call.Method, call.Path)
	}
	return &response{status: res.StatusCode, header: res.Header, body: body}, nil
}

func (c *Client) handleError(ctx context.Context, call *Call, apiErr *Error) (bool, error) {
	for _, h := range c.hooks {
		if h.OnResponseError == nil {
			continue
		}
		retry, err := h.OnResponseError(ctx, call, apiErr)
		if err != nil {
			return false, err
		}
		if retry {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) newRequest(ctx context.Context, call *Call) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", call.Method, call.Path)
	}
	for k, vals := range call.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if call.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
