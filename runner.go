package corral

import (
	"net/url"
	"time"
)

// EntryResult is the outcome of running one Entry: either a hard failure
// (request could not be built, or the transport failed) in Err, or a
// response plus its assert/capture outcomes.
type EntryResult struct {
	Request  TransportRequest
	Response *TransportResponse
	Asserts  []AssertOutcome
	Err      error
}

// Failed reports whether this entry recorded any error at all, request
// build failure, transport failure, or any individual assert/capture
// failure (spec §4.10: "the first entry whose errors list is non-empty").
func (er EntryResult) Failed() bool {
	if er.Err != nil {
		return true
	}
	for _, a := range er.Asserts {
		if a.Err != nil {
			return true
		}
	}
	return false
}

// RunResult is the outcome of running a whole File.
type RunResult struct {
	Entries []EntryResult
}

// RunOptions configures a single run (spec §4.10's fail-fast, with
// --fail-at-end (spec §9) inverting it).
type RunOptions struct {
	FailAtEnd bool
}

// Runner executes one File against injected HTTP and file-system
// collaborators, threading variables and cookies forward between entries
// (spec §4.10/§5).
type Runner struct {
	Client     HTTPClient
	Jar        *CookieJar
	ContextDir string
	ReadFile   FileReader
	Vars       map[string]string
}

// NewRunner builds a Runner seeded with initial variables (e.g. from
// --variable CLI flags, SPEC_FULL §3) and a fresh cookie jar.
func NewRunner(client HTTPClient, contextDir string, readFile FileReader, initialVars map[string]string) *Runner {
	vars := make(map[string]string, len(initialVars))
	for k, v := range initialVars {
		vars[k] = v
	}
	return &Runner{
		Client:     client,
		Jar:        NewCookieJar(),
		ContextDir: contextDir,
		ReadFile:   readFile,
		Vars:       vars,
	}
}

// Run executes file's entries in order, applying opts (spec §4.10 plus the
// SPEC_FULL §3 --fail-at-end addition).
func (r *Runner) Run(file File, opts RunOptions) RunResult {
	var result RunResult
	for i := range file.Entries {
		er := r.runEntry(file.Entries[i])
		result.Entries = append(result.Entries, er)
		if !opts.FailAtEnd && er.Failed() {
			break
		}
	}
	return result
}

// runEntry runs a single request/response exchange.
func (r *Runner) runEntry(entry Entry) EntryResult {
	r.Jar.EvictExpired(time.Now())

	ctx := &EvalContext{Vars: r.Vars, Jar: r.Jar, ContextDir: r.ContextDir, ReadFile: r.ReadFile}
	txReq, err := EvalRequest(entry.Request, ctx)
	if err != nil {
		return EntryResult{Err: err}
	}

	txResp, err := r.Client.Execute(txReq)
	if err != nil {
		urlStr, msg := txReq.URL, err.Error()
		if te, ok := err.(*TransportError); ok {
			urlStr, msg = te.URL, te.Message
		}
		return EntryResult{
			Request: txReq,
			Err:     NewHttpConnectionError(urlStr, msg, entry.Request.URL.SourceInfo),
		}
	}

	host, path := hostAndPath(txReq.URL)
	r.Jar.SetFromResponse(txResp.Headers, host, path)

	result := EntryResult{Request: txReq, Response: &txResp}

	if entry.Response != nil {
		rr := EvalResponse(*entry.Response, txResp, r.Vars)
		result.Asserts = rr.Asserts
		for name, val := range rr.Captures {
			r.Vars[name] = val
		}
	}

	return result
}

func hostAndPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return u.Hostname(), path
}
