package corral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseFile_single_get(t *testing.T) {
	assert := assert.New(t)

	f, err := ParseFile("GET https://example.com/widgets\n")
	if !assert.NoError(err) {
		return
	}
	if !assert.Len(f.Entries, 1) {
		return
	}

	req := f.Entries[0].Request
	assert.Equal(MethodGet, req.Method)
	url, uerr := req.URL.Eval(nil)
	if assert.NoError(uerr) {
		assert.Equal("https://example.com/widgets", url)
	}
	assert.Nil(f.Entries[0].Response)
}

func Test_ParseFile_request_with_headers_and_response(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com/widgets\n" +
		"Accept: application/json\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"Content-Type: application/json\n" +
		"\n" +
		"[Captures]\n" +
		"widget_id: jsonpath \"$.id\"\n" +
		"\n" +
		"[Asserts]\n" +
		"status equals 200\n"

	f, err := ParseFile(src)
	if !assert.NoError(err) {
		return
	}
	if !assert.Len(f.Entries, 1) {
		return
	}

	entry := f.Entries[0]
	if !assert.Len(entry.Request.Headers, 1) {
		return
	}
	assert.Equal("Accept", entry.Request.Headers[0].Key)

	if !assert.NotNil(entry.Response) {
		return
	}
	assert.Equal(Version11, entry.Response.Version)
	assert.Equal(200, entry.Response.Status)

	captureSections := SectionsOfKind(entry.Response.Sections, SectionCaptures)
	if assert.Len(captureSections, 1) && assert.Len(captureSections[0].Captures, 1) {
		assert.Equal("widget_id", captureSections[0].Captures[0].Name)
	}

	assertSections := SectionsOfKind(entry.Response.Sections, SectionAsserts)
	if assert.Len(assertSections, 1) && assert.Len(assertSections[0].Asserts, 1) {
		assert.Equal(QueryStatus, assertSections[0].Asserts[0].Query.Kind)
		assert.Equal(PredEqualInt, assertSections[0].Asserts[0].Predicate.Func)
	}
}

func Test_ParseFile_multiple_entries(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com/one\n" +
		"\n" +
		"GET https://example.com/two\n"

	f, err := ParseFile(src)
	if !assert.NoError(err) {
		return
	}
	assert.Len(f.Entries, 2)
}

func Test_ParseFile_invalid_method(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseFile("FROB https://example.com\n")
	assert.Error(err)
}

func Test_ParseFile_jsonpath_assert_is_rewritten_to_first_family(t *testing.T) {
	assert := assert.New(t)

	src := "GET https://example.com\n" +
		"\n" +
		"HTTP/1.1 200\n" +
		"\n" +
		"[Asserts]\n" +
		"jsonpath \"$.id\" equals 5\n"

	f, err := ParseFile(src)
	if !assert.NoError(err) {
		return
	}

	asserts := SectionsOfKind(f.Entries[0].Response.Sections, SectionAsserts)
	if assert.Len(asserts, 1) && assert.Len(asserts[0].Asserts, 1) {
		assert.Equal(PredFirstEqualInt, asserts[0].Asserts[0].Predicate.Func)
	}
}
