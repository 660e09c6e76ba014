// Package httpstore reaches records through a json-server style REST API:
//
//	GET    /users/23
//	GET    /users?companyId=2
//	GET    /companies/2/users
//	POST   /users
//	PATCH  /users/23
//	DELETE /users/23
//
// Handler serves the same API from any store.Store.
package httpstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/hanpama/usergraph/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a store.Store backed by a REST server.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ store.Store = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse store url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("store url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 10 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(store.ErrNotFound, "%s %s", method, target)
	case resp.StatusCode == http.StatusConflict:
		return errors.Wrapf(store.ErrExists, "%s %s", method, target)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s: %s: %s", method, target, resp.Status, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s %s", method, target)
}

func (c *Client) Find(ctx context.Context, collection, id string) (store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, collection, id), nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List sends filter values as query parameters and re-checks them locally,
// since the server compares them as strings.
func (c *Client) List(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	q := url.Values{}
	for k, v := range filter {
		s, err := json.MarshalToString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encode filter %s", k)
		}
		q.Set(k, strings.Trim(s, `"`))
	}
	var recs []store.Record
	if err := c.do(ctx, http.MethodGet, c.endpoint(q, collection), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]store.Record, 0, len(recs))
	for _, r := range recs {
		if store.Matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	r, err := store.Prepare(rec)
	if err != nil {
		return nil, err
	}
	var out store.Record
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, collection), r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, patch store.Record) (store.Record, error) {
	var out store.Record
	if err := c.do(ctx, http.MethodPatch, c.endpoint(nil, collection, id), patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) (string, error) {
	if err := c.do(ctx, http.MethodDelete, c.endpoint(nil, collection, id), nil, nil); err != nil {
		return "", err
	}
	return id, nil
}
