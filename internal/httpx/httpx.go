package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
)

// NetworkError carries status/body for non-2xx responses.
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

// ConnectivityError wraps a transport-level failure: DNS resolution,
// connection refused, timeout, broken read.
type ConnectivityError struct {
	Method string
	URL    string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// Get performs a single GET against rawURL with params merged into the query
// string, and returns the full response body. There are no retries: the first
// failure is the run's failure.
//
// Responses are requested with Accept-Encoding: br and decoded transparently
// when the server answers with a brotli body.
func Get(ctx context.Context, client *http.Client, rawURL string, params url.Values) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Method: http.MethodGet, URL: u.String(), Err: err}
	}

	body, err := readAndClose(resp)
	if err != nil {
		return nil, &ConnectivityError{Method: http.MethodGet, URL: u.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{
			Method:     http.MethodGet,
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		}
	}
	return body, nil
}

// readAndClose always drains the body so the underlying TCP connection can be
// reused by http.Transport.
func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		r = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(r)
}

// IsTransportErr reports whether err looks like a transport-level failure
// rather than an application-level one.
func IsTransportErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}
