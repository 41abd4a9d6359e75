package corral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func literalTemplate(s string) Template {
	return Template{Elements: []TemplateElement{NewLiteralElement(s, s, SourceInfo{})}}
}

func Test_Query_Eval_status(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryStatus}
	v, err := q.Eval(queryEvalResponse{Status: 201})
	if !assert.NoError(err) {
		return
	}
	assert.Equal(IntValue(201), v)
}

func Test_Query_Eval_header(t *testing.T) {
	tests := []struct {
		name    string
		headers []KV
		query   string
		expect  Value
	}{
		{"found", []KV{{Name: "X-Test", Value: "hello"}}, "X-Test", StringValue("hello")},
		{"case insensitive", []KV{{Name: "x-test", Value: "hello"}}, "X-Test", StringValue("hello")},
		{"missing", nil, "X-Test", NoneValue()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			q := Query{Kind: QueryHeader, Name: literalTemplate(tt.query)}
			v, err := q.Eval(queryEvalResponse{Headers: tt.headers})
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tt.expect, v)
		})
	}
}

func Test_Query_Eval_body_utf8(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryBody}
	resp := queryEvalResponse{
		Headers: []KV{{Name: "Content-Type", Value: "text/plain; charset=utf-8"}},
		Body:    []byte("hello body"),
	}
	v, err := q.Eval(resp)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(StringValue("hello body"), v)
}

func Test_Query_Eval_body_non_utf8_content_type_is_bytes(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryBody}
	resp := queryEvalResponse{
		Headers: []KV{{Name: "Content-Type", Value: "application/octet-stream"}},
		Body:    []byte{0xff, 0xfe},
	}
	v, err := q.Eval(resp)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(BytesValue([]byte{0xff, 0xfe}), v)
}

func Test_Query_Eval_jsonpath(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryJsonpath, Expr: literalTemplate("$.name")}
	resp := queryEvalResponse{Body: []byte(`{"name": "widget"}`)}

	v, err := q.Eval(resp)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(KindList, v.Kind)
	if assert.Len(v.List, 1) {
		assert.Equal(StringValue("widget"), v.List[0])
	}
}

func Test_Query_Eval_jsonpath_no_match_is_none(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryJsonpath, Expr: literalTemplate("$.missing")}
	resp := queryEvalResponse{Body: []byte(`{"name": "widget"}`)}

	v, err := q.Eval(resp)
	if !assert.NoError(err) {
		return
	}
	assert.True(v.IsNone())
}

func Test_Query_Eval_cookie(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryCookie, Name: literalTemplate("session")}
	resp := queryEvalResponse{
		Headers: []KV{{Name: "Set-Cookie", Value: "session=abc123; Path=/"}},
	}

	v, err := q.Eval(resp)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(StringValue("abc123"), v)
}

func Test_Query_Eval_cookie_not_found(t *testing.T) {
	assert := assert.New(t)

	q := Query{Kind: QueryCookie, Name: literalTemplate("missing")}
	_, err := q.Eval(queryEvalResponse{})
	assert.Error(err)
}
