package corral

import (
	"bytes"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"
)

// TransportRequest is the wire-level shape the HTTPClient contract consumes
// (spec §6): a concrete, already-evaluated request with no remaining
// template expressions.
type TransportRequest struct {
	Method  Method
	URL     string
	Headers []KV
	Cookies []KV
	Body    []byte
}

// KV is a plain ordered name/value pair, used where the wire format doesn't
// need the richer KeyValue AST node (already-evaluated headers, query
// params, cookies).
type KV struct {
	Name  string
	Value string
}

// TransportResponse is the wire-level shape the HTTPClient contract
// produces.
type TransportResponse struct {
	Version Version
	Status  int
	Headers []KV
	Body    []byte
}

// TransportError is returned by HTTPClient.Execute on any failure to
// complete the exchange (DNS, connect, TLS, timeout, ...).
type TransportError struct {
	URL     string
	Message string
}

func (e *TransportError) Error() string {
	return "request to " + e.URL + " failed: " + e.Message
}

// HTTPClient is the single external collaborator the core depends on for
// network I/O (spec §6). The core never constructs a transport itself; it
// is always given one.
type HTTPClient interface {
	Execute(req TransportRequest) (TransportResponse, error)
}

// defaultHTTPClient is the net/http-backed implementation of HTTPClient used
// by the CLI and by tests that don't supply a fake. It never follows
// redirects (the language treats redirects as observable, spec §6) and
// never adds User-Agent/Host/Cookie headers that are already present.
type defaultHTTPClient struct {
	client *http.Client
}

// NewDefaultHTTPClient builds the stdlib-backed HTTPClient. insecure
// disables TLS certificate verification (SPEC_FULL §3, mirroring the
// teacher's NewRESTClient constructing a tls.Config), and timeout bounds
// the whole round trip (0 means no timeout).
func NewDefaultHTTPClient(insecure bool, timeout time.Duration) HTTPClient {
	transport := &http.Transport{}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &defaultHTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (d *defaultHTTPClient) Execute(req TransportRequest) (TransportResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(string(req.Method), req.URL, body)
	if err != nil {
		return TransportResponse{}, &TransportError{URL: req.URL, Message: err.Error()}
	}

	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	for _, ck := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return TransportResponse{}, &TransportError{URL: req.URL, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportResponse{}, &TransportError{URL: req.URL, Message: err.Error()}
	}

	var headers []KV
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, KV{Name: name, Value: v})
		}
	}

	return TransportResponse{
		Version: protoToVersion(resp.Proto),
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    respBody,
	}, nil
}

func protoToVersion(proto string) Version {
	switch {
	case strings.HasPrefix(proto, "HTTP/2"):
		return Version2
	case strings.HasPrefix(proto, "HTTP/1.0"):
		return Version10
	default:
		return Version11
	}
}

// headerLookup returns the first header value matching name
// case-insensitively, and whether one was found.
func headerLookup(headers []KV, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// headerLookupAll returns every header value matching name
// case-insensitively, in order.
func headerLookupAll(headers []KV, name string) []string {
	var vals []string
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			vals = append(vals, h.Value)
		}
	}
	return vals
}
