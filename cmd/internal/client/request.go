package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const maxResponseBytes = 8 << 20

// Request describes one backend call. Body is kept as bytes so the call can be replayed.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// attempt threads per-call interception state through the send path.
// retried: this call already went through one refresh.
// bypass: this call is the refresh itself and must never be intercepted.
type attempt struct {
	req     Request
	retried bool
	bypass  bool
}

// Response is a 2xx backend response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into v. An empty body leaves v untouched.
func (r *Response) JSON(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// JSONRequest builds a request with a JSON body.
func JSONRequest(method, p string, body any) (Request, error) {
	req := Request{Method: method, Path: p}
	if body == nil {
		return req, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("encode request: %w", err)
	}
	req.Body = b
	req.ContentType = "application/json"
	return req, nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
