package corral

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PaesslerAG/jsonpath"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// QueryKind discriminates the Query sum type (spec §3/§4.5).
type QueryKind int

const (
	QueryStatus QueryKind = iota
	QueryHeader
	QueryCookie
	QueryBody
	QueryXpath
	QueryJsonpath
	QueryRegex
)

// Query is "Status | Header{name} | Cookie{name} | Body | Xpath{expr} |
// Jsonpath{expr} | Regex{expr}" (spec §3).
type Query struct {
	Kind       QueryKind
	Name       Template // Header, Cookie
	Expr       Template // Xpath, Jsonpath, Regex
	SourceInfo SourceInfo
}

// queryEvalResponse is the shape query evaluation needs out of a received
// response: raw headers/status/body. Cookie queries read straight off
// Headers (the response's own Set-Cookie lines), so no request host/path is
// needed here.
type queryEvalResponse struct {
	Version Version
	Status  int
	Headers []KV
	Body    []byte
}

// Eval evaluates q against resp, producing a Value per spec §4.6.
func (q Query) Eval(resp queryEvalResponse) (Value, error) {
	switch q.Kind {
	case QueryStatus:
		return IntValue(int64(resp.Status)), nil

	case QueryHeader:
		name, err := q.Name.Eval(nil)
		if err != nil {
			return Value{}, err
		}
		if v, ok := headerLookup(resp.Headers, name); ok {
			return StringValue(v), nil
		}
		return NoneValue(), nil

	case QueryCookie:
		name, err := q.Name.Eval(nil)
		if err != nil {
			return Value{}, err
		}
		for _, raw := range headerLookupAll(resp.Headers, "Set-Cookie") {
			if v, ok := cookieValueFromSetCookie(raw, name); ok {
				return StringValue(v), nil
			}
		}
		return Value{}, NewQueryCookieNotFoundError(q.SourceInfo)

	case QueryBody:
		return evalBodyQuery(resp, q.SourceInfo)

	case QueryXpath:
		return evalXpathQuery(q, resp)

	case QueryJsonpath:
		return evalJsonpathQuery(q, resp)

	case QueryRegex:
		return evalRegexQuery(q, resp)

	default:
		return Value{}, fmt.Errorf("unknown query kind %d", q.Kind)
	}
}

func cookieValueFromSetCookie(raw, name string) (string, bool) {
	parts := strings.SplitN(raw, ";", 2)
	if len(parts) == 0 {
		return "", false
	}
	nv := strings.SplitN(strings.TrimSpace(parts[0]), "=", 2)
	if len(nv) != 2 {
		return "", false
	}
	if strings.EqualFold(strings.TrimSpace(nv[0]), name) {
		return nv[1], true
	}
	return "", false
}

func bodyContentType(resp queryEvalResponse) string {
	ct, _ := headerLookup(resp.Headers, "Content-Type")
	return ct
}

func evalBodyQuery(resp queryEvalResponse, si SourceInfo) (Value, error) {
	ct := strings.ToLower(bodyContentType(resp))
	if strings.Contains(ct, "charset=utf-8") {
		if !isValidUTF8(resp.Body) {
			return Value{}, NewQueryInvalidUtf8Error(si)
		}
		return StringValue(string(resp.Body)), nil
	}
	return BytesValue(resp.Body), nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

func isHTMLContentType(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "html")
}

func evalXpathQuery(q Query, resp queryEvalResponse) (Value, error) {
	exprStr, err := q.Expr.Eval(nil)
	if err != nil {
		return Value{}, err
	}

	expr, cerr := xpath.Compile(exprStr)
	if cerr != nil {
		return Value{}, NewQueryInvalidXpathEvalError(q.SourceInfo)
	}

	ct := bodyContentType(resp)
	var nav xpath.NodeNavigator
	if isHTMLContentType(ct) {
		doc, perr := htmlquery.Parse(bytes.NewReader(resp.Body))
		if perr != nil {
			return Value{}, NewQueryInvalidXmlError(q.SourceInfo)
		}
		nav = htmlquery.CreateXPathNavigator(doc)
	} else {
		doc, perr := xmlquery.Parse(bytes.NewReader(resp.Body))
		if perr != nil {
			return Value{}, NewQueryInvalidXmlError(q.SourceInfo)
		}
		nav = xmlquery.CreateXPathNavigator(doc)
	}

	result := expr.Evaluate(nav)
	return xpathResultToValue(result), nil
}

func xpathResultToValue(result interface{}) Value {
	switch v := result.(type) {
	case bool:
		return BoolValue(v)
	case float64:
		return FloatValue(FloatFromFloat64(v))
	case string:
		return StringValue(v)
	case *xpath.NodeIterator:
		count := 0
		for v.MoveNext() {
			count++
		}
		return NodesetValue(count)
	default:
		return NoneValue()
	}
}

func evalJsonpathQuery(q Query, resp queryEvalResponse) (Value, error) {
	exprStr, err := q.Expr.Eval(nil)
	if err != nil {
		return Value{}, err
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Value{}, NewQueryInvalidJsonError(q.SourceInfo)
	}

	result, err := jsonpath.Get(exprStr, doc)
	if err != nil {
		if isJsonpathSyntaxError(err) {
			return Value{}, NewQueryInvalidJsonpathExpressionError(q.SourceInfo)
		}
		// A path that simply matches nothing evaluates to an empty list,
		// which spec §4.6 maps to None rather than an error.
		return NoneValue(), nil
	}

	list := jsonValuesToValueList(result)
	if len(list) == 0 {
		return NoneValue(), nil
	}
	return ListValue(list), nil
}

// isJsonpathSyntaxError distinguishes a malformed expression (non-recoverable
// at parse time in spec terms, QueryInvalidJsonpathExpression) from a
// well-formed expression that simply found nothing. PaesslerAG/jsonpath
// returns a plain error for both; we treat errors raised before any
// traversal (i.e. ones whose message describes the expression itself) as
// syntax errors by checking the message for the markers "unexpected",
// "unmatched", "invalid", or "parse".
func isJsonpathSyntaxError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unexpected") || strings.Contains(msg, "unmatched") ||
		strings.Contains(msg, "invalid") || strings.Contains(msg, "parse")
}

func jsonValuesToValueList(result interface{}) []Value {
	switch v := result.(type) {
	case []interface{}:
		var out []Value
		for _, item := range v {
			out = append(out, jsonScalarToValue(item)...)
		}
		return out
	default:
		return jsonScalarToValue(v)
	}
}

// jsonScalarToValue converts one JSON-decoded value per spec §4.6: null is
// skipped entirely, booleans/numbers/strings convert directly, arrays and
// objects recurse (an array becomes a single List value and an object a
// single Object value; only the query's own result array is flattened, by
// jsonValuesToValueList).
func jsonScalarToValue(v interface{}) []Value {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return []Value{BoolValue(val)}
	case json.Number:
		return []Value{numberToValue(val)}
	case string:
		return []Value{StringValue(val)}
	case []interface{}:
		var elems []Value
		for _, item := range val {
			elems = append(elems, jsonScalarToValue(item)...)
		}
		return []Value{ListValue(elems)}
	case map[string]interface{}:
		return []Value{ObjectValue(jsonObjectToEntries(val))}
	default:
		return nil
	}
}

// jsonObjectToEntries converts a decoded JSON object into ordered entries.
// encoding/json's map[string]interface{} does not preserve source key
// order, so keys are sorted for determinism; jsonpath predicates in this
// language only ever inspect count/first-element/scalar equality, never
// object key order, so this does not affect any spec-required semantics.
func jsonObjectToEntries(m map[string]interface{}) []ObjectEntry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]ObjectEntry, 0, len(keys))
	for _, k := range keys {
		vals := jsonScalarToValue(m[k])
		if len(vals) == 0 {
			entries = append(entries, ObjectEntry{Key: k, Value: NoneValue()})
			continue
		}
		entries = append(entries, ObjectEntry{Key: k, Value: vals[0]})
	}
	return entries
}

func numberToValue(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return IntValue(i)
	}
	f, _ := n.Float64()
	return FloatValue(FloatFromFloat64(f))
}

func evalRegexQuery(q Query, resp queryEvalResponse) (Value, error) {
	bodyVal, err := evalBodyQuery(resp, q.SourceInfo)
	if err != nil {
		return Value{}, err
	}
	if bodyVal.Kind != KindString {
		return NoneValue(), nil
	}

	exprStr, err := q.Expr.Eval(nil)
	if err != nil {
		return Value{}, err
	}
	re, rerr := compileRegex(exprStr)
	if rerr != nil {
		return Value{}, NewInvalidRegexError(exprStr, q.SourceInfo)
	}

	m := re.FindStringSubmatch(bodyVal.Str)
	if m == nil {
		return NoneValue(), nil
	}
	if len(m) > 1 {
		return StringValue(m[1]), nil
	}
	return StringValue(m[0]), nil
}
