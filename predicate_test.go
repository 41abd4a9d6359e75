package corral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Predicate_Eval(t *testing.T) {
	tests := []struct {
		name    string
		pred    Predicate
		value   Value
		wantErr bool
	}{
		{"equal int matches", Predicate{Func: PredEqualInt, IntValue: 5}, IntValue(5), false},
		{"equal int mismatches", Predicate{Func: PredEqualInt, IntValue: 5}, IntValue(6), true},
		{"equal int wrong type", Predicate{Func: PredEqualInt, IntValue: 5}, StringValue("5"), true},
		{"not inverts value mismatch", Predicate{Not: true, Func: PredEqualInt, IntValue: 5}, IntValue(6), false},
		{"not does not invert type mismatch", Predicate{Not: true, Func: PredEqualInt, IntValue: 5}, StringValue("5"), true},
		{"count equal", Predicate{Func: PredCountEqual, CountValue: 2}, ListValue([]Value{IntValue(1), IntValue(2)}), false},
		{"exist on none fails", Predicate{Func: PredExist}, NoneValue(), true},
		{"exist on value succeeds", Predicate{Func: PredExist}, StringValue("x"), false},
		{"start with matches", Predicate{Func: PredStartWith, StrValue: literalTemplate("hel")}, StringValue("hello"), false},
		{"contain matches", Predicate{Func: PredContain, StrValue: literalTemplate("ell")}, StringValue("hello"), false},
		{"match regex", Predicate{Func: PredMatch, StrValue: literalTemplate("^h.*o$")}, StringValue("hello"), false},
		{"match regex fails", Predicate{Func: PredMatch, StrValue: literalTemplate("^z")}, StringValue("hello"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			err := tt.pred.Eval(nil, tt.value)
			if tt.wantErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_rewriteForJsonpath(t *testing.T) {
	assert := assert.New(t)

	p := Predicate{Func: PredEqualInt, IntValue: 3}
	rewritten := rewriteForJsonpath(p)
	assert.Equal(PredFirstEqualInt, rewritten.Func)

	err := rewritten.Eval(nil, ListValue([]Value{IntValue(3), IntValue(99)}))
	assert.NoError(err)
}

func Test_Predicate_Eval_first_family_requires_list(t *testing.T) {
	assert := assert.New(t)

	p := Predicate{Func: PredFirstEqualInt, IntValue: 3}
	err := p.Eval(nil, IntValue(3))
	assert.Error(err)
}
