package corral

import (
	"testing"
	"time"

	"github.com/dekarrin/corral/internal/corraltest"
	"github.com/stretchr/testify/assert"
)

// fakeHTTPClient replays a fixed, ordered list of responses (or errors),
// one per call to Execute, regardless of what request is given.
type fakeHTTPClient struct {
	responses []TransportResponse
	errs      []error
	calls     []TransportRequest
}

func (f *fakeHTTPClient) Execute(req TransportRequest) (TransportResponse, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, req)

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return TransportResponse{}, err
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return TransportResponse{Status: 200}, nil
}

func mustParseFile(t *testing.T, src string) File {
	t.Helper()
	f, err := ParseFile(src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return f
}

func Test_Runner_Run_fail_fast_stops_at_first_failure(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com/one\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"\n" +
		"[Asserts]\n" +
		"status equals 404\n" +
		"\n" +
		"GET https://example.com/two\n"

	f := mustParseFile(t, src)
	client := &fakeHTTPClient{responses: []TransportResponse{{Status: 200}, {Status: 200}}}
	r := NewRunner(client, "", nil, nil)

	result := r.Run(f, RunOptions{})

	if !assert.Len(result.Entries, 1) {
		return
	}
	corraltest.AssertEntryFailedWithAssert(assert, result.Entries, 0)
	assert.Len(client.calls, 1)
}

func Test_Runner_Run_fail_at_end_runs_every_entry(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com/one\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"\n" +
		"[Asserts]\n" +
		"status equals 404\n" +
		"\n" +
		"GET https://example.com/two\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"\n" +
		"[Asserts]\n" +
		"status equals 200\n"

	f := mustParseFile(t, src)
	client := &fakeHTTPClient{responses: []TransportResponse{
		{Version: Version11, Status: 200},
		{Version: Version11, Status: 200},
	}}
	r := NewRunner(client, "", nil, nil)

	result := r.Run(f, RunOptions{FailAtEnd: true})

	if !assert.Len(result.Entries, 2) {
		return
	}
	corraltest.AssertEntryFailedWithAssert(assert, result.Entries, 0)
	corraltest.AssertEntrySucceeded(assert, result.Entries, 1)
	assert.Len(client.calls, 2)
}

func Test_Runner_Run_evicts_expired_cookies_before_next_entry(t *testing.T) {
	assert := assert.New(t)

	f := mustParseFile(t, "GET https://example.com/widgets\n")
	client := &fakeHTTPClient{responses: []TransportResponse{
		{Status: 200, Headers: []KV{{Name: "Set-Cookie", Value: "session=abc; Max-Age=100; Path=/"}}},
	}}
	r := NewRunner(client, "", nil, nil)

	r.Run(f, RunOptions{})
	if !assert.Len(r.Jar.All(), 1) {
		return
	}

	// Back-date the cookie past its Max-Age; the next entry's runEntry call
	// evicts it via CookieJar.EvictExpired before the request is built.
	for i := range r.Jar.cookies {
		r.Jar.cookies[i].SetAt = time.Now().Add(-200 * time.Second)
	}

	client.responses = append(client.responses, TransportResponse{Status: 200})
	r.Run(f, RunOptions{})

	assert.Len(r.Jar.All(), 0)
	if assert.Len(client.calls, 2) {
		assert.Empty(client.calls[1].Cookies)
	}
}

func Test_Runner_Run_capture_feeds_later_entry(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com/widgets\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"\n" +
		"[Captures]\n" +
		"widget_id: jsonpath \"$.id\"\n" +
		"\n" +
		"GET https://example.com/widgets/{{widget_id}}\n"

	f := mustParseFile(t, src)
	client := &fakeHTTPClient{responses: []TransportResponse{
		{Version: Version11, Status: 200, Body: []byte(`{"id": "42"}`)},
		{Version: Version11, Status: 200},
	}}
	r := NewRunner(client, "", nil, nil)

	result := r.Run(f, RunOptions{FailAtEnd: true})

	if !assert.Len(client.calls, 2) {
		return
	}
	// A jsonpath capture is a list, bound in its List(...) rendering.
	assert.Equal("https://example.com/widgets/List(42)", client.calls[1].URL)
	corraltest.AssertRunSucceeded(assert, result)
}

func Test_Runner_Run_transport_error_is_connection_failure(t *testing.T) {
	assert := assert.New(t)

	f := mustParseFile(t, "GET https://example.com/widgets\n")
	client := &fakeHTTPClient{errs: []error{&TransportError{URL: "https://example.com/widgets", Message: "connection refused"}}}
	r := NewRunner(client, "", nil, nil)

	result := r.Run(f, RunOptions{})

	if !assert.Len(result.Entries, 1) {
		return
	}
	assert.Error(result.Entries[0].Err)
	assert.False(IsAssertFailure(result.Entries[0].Err))
}
