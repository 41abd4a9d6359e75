package corral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Template_Eval(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		vars   map[string]string
		expect string
		errs   bool
	}{
		{"literal only", `hello world`, nil, "hello world", false},
		{"single variable", `hello {{name}}`, map[string]string{"name": "there"}, "hello there", false},
		{"adjacent variables", `{{a}}{{b}}`, map[string]string{"a": "1", "b": "2"}, "12", false},
		{"undefined variable", `{{missing}}`, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			c := NewCursor(tt.src)
			tmpl, perr := ParseUnquotedTemplate(c)
			if !assert.Nil(perr) {
				return
			}

			got, err := tmpl.Eval(tt.vars)
			if tt.errs {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tt.expect, got)
		})
	}
}

func Test_ParseURLTemplate_rejects_empty(t *testing.T) {
	assert := assert.New(t)

	c := NewCursor("")
	_, perr := ParseURLTemplate(c)
	assert.NotNil(perr)
}

func Test_ParseJSONQuotedTemplate(t *testing.T) {
	assert := assert.New(t)

	// caller is expected to have already consumed the opening quote.
	c := NewCursor(`line1\nline2"`)
	tmpl, perr := ParseJSONQuotedTemplate(c)
	if !assert.Nil(perr) {
		return
	}

	got, err := tmpl.Eval(nil)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("line1\nline2", got)
}
