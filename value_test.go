package corral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewFloatFromDigits(t *testing.T) {
	tests := []struct {
		name      string
		negative  bool
		intPart   string
		fracDigit string
		expect    Float
	}{
		{"integer only", false, "1", "", Float{Int: 1, Frac: 0, Digits: 0}},
		{"one fractional digit", false, "1", "1", Float{Int: 1, Frac: 100000000000000000, Digits: 1}},
		{"trailing zero is kept", false, "1", "10", Float{Int: 1, Frac: 100000000000000000, Digits: 2}},
		{"negative", true, "3", "5", Float{Int: -3, Frac: 500000000000000000, Digits: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			f, err := NewFloatFromDigits(tt.negative, tt.intPart, tt.fracDigit)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tt.expect, f)
		})
	}
}

func Test_Float_Equal_vs_EqualNumeric(t *testing.T) {
	assert := assert.New(t)

	oneTen, err := NewFloatFromDigits(false, "1", "10")
	if !assert.NoError(err) {
		return
	}
	oneOne, err := NewFloatFromDigits(false, "1", "1")
	if !assert.NoError(err) {
		return
	}

	// "1.1" and "1.10" carry different digit counts, so Equal sees them as
	// distinct (spec §3) even though they are numerically identical.
	assert.False(oneTen.Equal(oneOne))
	assert.True(oneTen.EqualNumeric(oneOne))
}

func Test_Float_String(t *testing.T) {
	tests := []struct {
		name   string
		f      Float
		expect string
	}{
		{"one fractional digit", Float{Int: 1, Frac: 100000000000000000, Digits: 1}, "1.1"},
		{"two fractional digits with trailing zero", Float{Int: 1, Frac: 100000000000000000, Digits: 2}, "1.10"},
		{"zero digits renders as one", Float{Int: 4, Frac: 0, Digits: 0}, "4.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.f.String())
		})
	}
}

func Test_Value_String(t *testing.T) {
	tests := []struct {
		name   string
		v      Value
		expect string
	}{
		{"none", NoneValue(), ""},
		{"bool", BoolValue(true), "true"},
		{"integer", IntValue(42), "42"},
		{"string", StringValue("hello"), "hello"},
		{"nodeset", NodesetValue(3), "Nodeset3"},
		{"list", ListValue([]Value{IntValue(1), IntValue(2)}), "List(1,2)"},
		{
			"object",
			ObjectValue([]ObjectEntry{{Key: "a", Value: IntValue(1)}}),
			"Object(a:1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.v.String())
		})
	}
}
