// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package client is a small SDK for the catchd HTTP API, speaking the JSON
// codec. The zero value is not usable, construct clients with New.
package client

import (
	"fmt"
	"github.com/imroc/req"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"net/http"
	"strings"
)

const (
	codecHeader  = `X-Catch-Codec`
	secretHeader = `X-Catch-Secret`
)

// Client talks to a single catchd instance. Secret is only needed for the
// admin calls and may be left empty otherwise.
type Client struct {
	BaseURL string
	Secret  string
	Debug   bool
	client  *req.Req
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		client:  req.New(),
	}
}

func NewWithSecret(baseURL, secret string) *Client {
	c := New(baseURL)
	c.Secret = secret
	return c
}

// Outcome is a finished evaluation: Case is completed, handled or propagated
// and Value holds the result (or the escaped error) as raw JSON.
type Outcome struct {
	Case  string
	Value gjson.Result
}

func (o Outcome) Completed() bool  { return o.Case == "completed" }
func (o Outcome) Handled() bool    { return o.Case == "handled" }
func (o Outcome) Propagated() bool { return o.Case == "propagated" }

// RemoteError is a failure the daemon reported, as opposed to a transport
// error.
type RemoteError struct {
	Status  int
	Kind    string // error union case, e.g. "requestError"
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("catchd: [%d] %s: %s", e.Status, e.Kind, e.Message)
}

// Eval submits a program and returns its outcome. Parse and compile
// rejections come back as *RemoteError.
func (c *Client) Eval(source string) (*Outcome, error) {
	r, e := c.client.Post(c.BaseURL+"/eval", source, c.headers())
	if e != nil {
		return nil, errors.Wrap(e, "eval request failed")
	}
	c.debug("eval", r)
	if e := remoteError(r); e != nil {
		return nil, e
	}
	body := gjson.ParseBytes(r.Bytes())
	arr := body.Array()
	if !body.IsArray() || len(arr) != 2 {
		return nil, errors.Errorf("malformed outcome: %s", body.Raw)
	}
	return &Outcome{Case: arr[0].String(), Value: arr[1]}, nil
}

// RegisterType registers name under parent, or as a new root when parent is
// empty.
func (c *Client) RegisterType(name, parent string) error {
	body := map[string]interface{}{"name": name}
	if parent != "" {
		body["parent"] = parent
	}
	r, e := c.client.Post(c.BaseURL+"/types", req.BodyJSON(&body), c.headers())
	if e != nil {
		return errors.Wrapf(e, "failed registering type %s", name)
	}
	c.debug("types", r)
	return remoteError(r)
}

// RegisterTypes merges a whole snapshot, mapping type names to parents. Empty
// parents mean roots.
func (c *Client) RegisterTypes(snapshot map[string]string) error {
	body := make(map[string]interface{}, len(snapshot))
	for name, parent := range snapshot {
		if parent == "" {
			body[name] = nil
			continue
		}
		body[name] = parent
	}
	r, e := c.client.Post(c.BaseURL+"/types", req.BodyJSON(&body), c.headers())
	if e != nil {
		return errors.Wrap(e, "failed registering types")
	}
	c.debug("types", r)
	return remoteError(r)
}

// Types fetches the full forest snapshot. Roots map to the empty string.
func (c *Client) Types() (map[string]string, error) {
	r, e := c.client.Get(c.BaseURL+"/types", c.headers())
	if e != nil {
		return nil, errors.Wrap(e, "types request failed")
	}
	c.debug("types", r)
	if e := remoteError(r); e != nil {
		return nil, e
	}
	snapshot := map[string]string{}
	gjson.ParseBytes(r.Bytes()).ForEach(func(key, value gjson.Result) bool {
		snapshot[key.String()] = value.String()
		return true
	})
	return snapshot, nil
}

type TypeInfo struct {
	Name      string
	Parent    string // empty for roots
	Ancestors []string
}

func (c *Client) TypeInfo(name string) (*TypeInfo, error) {
	r, e := c.client.Get(c.BaseURL+"/types/"+name, c.headers())
	if e != nil {
		return nil, errors.Wrapf(e, "type info request for %s failed", name)
	}
	c.debug("types", r)
	if e := remoteError(r); e != nil {
		return nil, e
	}
	body := gjson.ParseBytes(r.Bytes())
	info := &TypeInfo{
		Name:   body.Get("name").String(),
		Parent: body.Get("parent").String(),
	}
	for _, ancestor := range body.Get("ancestors").Array() {
		info.Ancestors = append(info.Ancestors, ancestor.String())
	}
	return info, nil
}

// Health reports the daemon's hello string, e.g. "catchd 0.9.2".
func (c *Client) Health() (string, error) {
	r, e := c.client.Get(c.BaseURL + "/")
	if e != nil {
		return "", errors.Wrap(e, "health request failed")
	}
	if r.Response().StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status: %s", r.Response().Status)
	}
	return r.String(), nil
}

// Reset drops all registered types and restores the builtin forest.
func (c *Client) Reset() error {
	r, e := c.client.Post(c.BaseURL+"/admin/reset", c.headers())
	if e != nil {
		return errors.Wrap(e, "reset request failed")
	}
	c.debug("admin/reset", r)
	return remoteError(r)
}

// RotateInstanceSecret makes the daemon mint a new secret and adopts it for
// subsequent calls on this client.
func (c *Client) RotateInstanceSecret() (string, error) {
	r, e := c.client.Post(c.BaseURL+"/admin/rotate_instance_secret", c.headers())
	if e != nil {
		return "", errors.Wrap(e, "rotation request failed")
	}
	c.debug("admin/rotate_instance_secret", r)
	if e := remoteError(r); e != nil {
		return "", e
	}
	newSecret := gjson.ParseBytes(r.Bytes()).String()
	c.Secret = newSecret
	return newSecret, nil
}

// Export downloads the instance as a zip archive.
func (c *Client) Export() ([]byte, error) {
	r, e := c.client.Get(c.BaseURL+"/admin/export", c.headers())
	if e != nil {
		return nil, errors.Wrap(e, "export request failed")
	}
	if e := remoteError(r); e != nil {
		return nil, e
	}
	return r.Bytes(), nil
}

// Import replaces the instance with a previously exported archive.
func (c *Client) Import(archive []byte) error {
	r, e := c.client.Post(c.BaseURL+"/admin/import", archive, c.headers())
	if e != nil {
		return errors.Wrap(e, "import request failed")
	}
	c.debug("admin/import", r)
	return remoteError(r)
}

func (c *Client) headers() req.Header {
	h := req.Header{
		"Accept":    "application/json",
		codecHeader: "json",
	}
	if c.Secret != "" {
		h[secretHeader] = c.Secret
	}
	return h
}

func (c *Client) debug(endpoint string, r *req.Resp) {
	if !c.Debug {
		return
	}
	log.Debug().Str("endpoint", endpoint).Int("status", r.Response().StatusCode).Msg("catchd request")
}

func remoteError(r *req.Resp) error {
	resp := r.Response()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	kind, message := "", strings.TrimSpace(r.String())
	if body := gjson.ParseBytes(r.Bytes()); body.IsArray() {
		kind = body.Get("0").String()
		message = body.Get("1").Raw
		if kind == "humanReadableError" {
			message = body.Get("1.human").String()
		}
	}
	return &RemoteError{Status: resp.StatusCode, Kind: kind, Message: message}
}
