package corral

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// FileReader reads the bytes of a file body inclusion, given a path already
// joined with the evaluation context directory (spec §6's file-system
// contract).
type FileReader func(path string) ([]byte, error)

// EvalContext is everything request/response evaluation needs beyond the
// AST itself: the current variable environment, the cookie jar carried
// across entries, the directory file-body paths are resolved against, and
// the injected file-read callback.
type EvalContext struct {
	Vars       map[string]string
	Jar        *CookieJar
	ContextDir string
	ReadFile   FileReader
}

// EvalRequest turns a parsed Request into a wire-ready TransportRequest,
// per spec §4.8.
func EvalRequest(req Request, ctx *EvalContext) (TransportRequest, error) {
	rawURL, err := req.URL.Eval(ctx.Vars)
	if err != nil {
		return TransportRequest{}, err
	}

	parsed, perr := url.Parse(rawURL)
	if perr != nil || !parsed.IsAbs() {
		return TransportRequest{}, NewInvalidURLError(rawURL, req.URL.SourceInfo)
	}

	queryPairs := parseQueryPairs(parsed.RawQuery)

	var formPairs []KV
	var contentTypeFromForm bool
	var explicitBody *Body

	for _, sec := range SectionsOfKind(req.Sections, SectionQueryParams) {
		pairs, err := evalKeyValues(sec.KeyValues, ctx.Vars)
		if err != nil {
			return TransportRequest{}, err
		}
		queryPairs = append(queryPairs, pairs...)
	}
	for _, sec := range SectionsOfKind(req.Sections, SectionFormParams) {
		pairs, err := evalKeyValues(sec.KeyValues, ctx.Vars)
		if err != nil {
			return TransportRequest{}, err
		}
		formPairs = append(formPairs, pairs...)
		contentTypeFromForm = true
	}
	if req.Body != nil {
		explicitBody = req.Body
	}

	if len(queryPairs) > 0 {
		parsed.RawQuery = encodeQueryPairs(queryPairs)
	} else {
		parsed.RawQuery = ""
	}

	headers, err := evalKeyValues(req.Headers, ctx.Vars)
	if err != nil {
		return TransportRequest{}, err
	}

	if contentTypeFromForm && explicitBody == nil {
		if _, ok := headerLookup(headers, "Content-Type"); !ok {
			headers = append(headers, KV{Name: "Content-Type", Value: "application/x-www-form-urlencoded"})
		}
	}
	if _, ok := headerLookup(headers, "User-Agent"); !ok {
		headers = append(headers, KV{Name: "User-Agent", Value: "corral/" + ToolVersion})
	}
	if _, ok := headerLookup(headers, "Host"); !ok {
		headers = append(headers, KV{Name: "Host", Value: parsed.Host})
	}

	cookies, err := evalCookies(req, ctx, parsed.Hostname(), parsed.Path)
	if err != nil {
		return TransportRequest{}, err
	}

	var body []byte
	switch {
	case explicitBody != nil:
		body, err = evalBody(*explicitBody, ctx)
		if err != nil {
			return TransportRequest{}, err
		}
	case len(formPairs) > 0:
		body = []byte(encodeFormBody(formPairs))
	}

	return TransportRequest{
		Method:  req.Method,
		URL:     parsed.String(),
		Headers: headers,
		Cookies: cookies,
		Body:    body,
	}, nil
}

func evalKeyValues(kvs []KeyValue, vars map[string]string) ([]KV, error) {
	out := make([]KV, 0, len(kvs))
	for _, kv := range kvs {
		val, err := kv.Value.Eval(vars)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Name: kv.Key, Value: val})
	}
	return out, nil
}

func evalCookies(req Request, ctx *EvalContext, host, path string) ([]KV, error) {
	var explicit []KV
	for _, sec := range SectionsOfKind(req.Sections, SectionCookies) {
		pairs, err := evalKeyValues(sec.KeyValues, ctx.Vars)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, pairs...)
	}

	seen := make(map[string]bool, len(explicit))
	for _, kv := range explicit {
		seen[strings.ToLower(kv.Name)] = true
	}

	out := append([]KV{}, explicit...)
	if ctx.Jar != nil {
		for _, c := range ctx.Jar.CookiesFor(host, path) {
			if seen[strings.ToLower(c.Name)] {
				continue
			}
			out = append(out, KV{Name: c.Name, Value: c.Value})
		}
	}
	return out, nil
}

func evalBody(b Body, ctx *EvalContext) ([]byte, error) {
	switch b.Kind {
	case BodyJSON, BodyXML, BodyMultiline:
		text, err := b.Raw.Eval(ctx.Vars)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil

	case BodyBase64:
		return b.Base64, nil

	case BodyFile:
		name, err := b.Filename.Eval(ctx.Vars)
		if err != nil {
			return nil, err
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(ctx.ContextDir, name)
		}
		data, rerr := ctx.ReadFile(path)
		if rerr != nil {
			return nil, NewFileReadAccessError(name, b.Filename.SourceInfo)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unknown body kind %d", b.Kind)
	}
}

func encodeFormBody(pairs []KV) string {
	parts := make([]string, len(pairs))
	for i, kv := range pairs {
		parts[i] = url.QueryEscape(kv.Name) + "=" + url.QueryEscape(kv.Value)
	}
	return strings.Join(parts, "&")
}

// parseQueryPairs splits an already-percent-encoded raw query string into
// ordered (name, value) pairs, preserving source order the way
// net/url.Values (a map) cannot.
func parseQueryPairs(raw string) []KV {
	if raw == "" {
		return nil
	}
	var out []KV
	for _, piece := range strings.Split(raw, "&") {
		if piece == "" {
			continue
		}
		nv := strings.SplitN(piece, "=", 2)
		name, _ := url.QueryUnescape(nv[0])
		val := ""
		if len(nv) == 2 {
			val, _ = url.QueryUnescape(nv[1])
		}
		out = append(out, KV{Name: name, Value: val})
	}
	return out
}

// encodeQueryPairs re-assembles a raw query string using spec §4.8's fixed
// reserved-character set rather than net/url's form-urlencoding rules (no
// '+' for space, no blanket alnum passthrough).
func encodeQueryPairs(pairs []KV) string {
	parts := make([]string, len(pairs))
	for i, kv := range pairs {
		parts[i] = encodeQueryValue(kv.Name) + "=" + encodeQueryValue(kv.Value)
	}
	return strings.Join(parts, "&")
}

// encodeQueryValue percent-encodes exactly the characters spec §4.8 names
// as reserved (space, '"', ':', '/', '<', '>', '+', '=', '`'), plus '%' and
// '&' themselves so the result can be safely re-split by encodeQueryPairs's
// own delimiter and so a literal '%' in a value isn't mistaken for an
// escape later.
func encodeQueryValue(s string) string {
	var sb strings.Builder
	for _, b := range []byte(s) {
		if needsQueryEscape(b) {
			fmt.Fprintf(&sb, "%%%02X", b)
		} else {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

func needsQueryEscape(b byte) bool {
	switch b {
	case ' ', '"', ':', '/', '<', '>', '+', '=', '`', '%', '&':
		return true
	}
	return b < 0x20 || b >= 0x7F
}
