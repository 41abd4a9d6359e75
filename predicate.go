package corral

import (
	"regexp"
	"strings"
)

// PredicateFuncKind enumerates every predicate function, including the
// First* family the parser produces by rewriting a JSONPath-scoped
// assertion (spec §4.5).
type PredicateFuncKind int

const (
	PredEqualBool PredicateFuncKind = iota
	PredEqualInt
	PredEqualFloat
	PredEqualString
	PredCountEqual
	PredStartWith
	PredContain
	PredMatch
	PredExist
	PredFirstEqualBool
	PredFirstEqualInt
	PredFirstEqualString
	PredFirstCountEqual
)

// Predicate is "(not?, func)" (spec §3).
type Predicate struct {
	Not  bool
	Func PredicateFuncKind

	BoolValue   bool
	IntValue    int64
	FloatValue  Float
	StrValue    Template
	CountValue  int64

	SourceInfo SourceInfo
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// Eval evaluates the predicate against v, per spec §4.7. The not flag
// inverts only a PredicateValue failure; a PredicateType failure (kind
// mismatch) is never inverted.
func (p Predicate) Eval(vars map[string]string, v Value) error {
	err := p.evalRaw(vars, v)
	if err == nil {
		if p.Not {
			return NewPredicateValueError(v.String(), p.SourceInfo)
		}
		return nil
	}

	re, ok := err.(*RuntimeError)
	if !ok {
		return err
	}
	if re.Kind == RTPredicateType {
		// never inverted
		return err
	}
	if p.Not {
		return nil
	}
	return err
}

func (p Predicate) evalRaw(vars map[string]string, v Value) error {
	switch p.Func {
	case PredEqualBool:
		if v.Kind == KindBool && v.Bool == p.BoolValue {
			return nil
		}
		if v.Kind != KindBool {
			return NewPredicateTypeError(p.SourceInfo)
		}
		return NewPredicateValueError(v.String(), p.SourceInfo)

	case PredEqualInt:
		switch v.Kind {
		case KindInteger:
			if v.Int == p.IntValue {
				return nil
			}
			return NewPredicateValueError(v.String(), p.SourceInfo)
		case KindFloat:
			if v.Flt.Int == p.IntValue && v.Flt.Frac == 0 {
				return nil
			}
			return NewPredicateValueError(v.String(), p.SourceInfo)
		default:
			return NewPredicateTypeError(p.SourceInfo)
		}

	case PredEqualFloat:
		switch v.Kind {
		case KindFloat:
			if v.Flt.EqualNumeric(p.FloatValue) {
				return nil
			}
			return NewPredicateValueError(v.String(), p.SourceInfo)
		case KindInteger:
			if p.FloatValue.Int == v.Int && p.FloatValue.Frac == 0 {
				return nil
			}
			return NewPredicateValueError(v.String(), p.SourceInfo)
		default:
			return NewPredicateTypeError(p.SourceInfo)
		}

	case PredEqualString:
		if v.Kind != KindString {
			return NewPredicateTypeError(p.SourceInfo)
		}
		want, err := p.StrValue.Eval(vars)
		if err != nil {
			return err
		}
		if v.Str == want {
			return nil
		}
		return NewPredicateValueError(v.Str, p.SourceInfo)

	case PredCountEqual:
		n, ok := countOf(v)
		if !ok {
			return NewPredicateTypeError(p.SourceInfo)
		}
		if int64(n) == p.CountValue {
			return nil
		}
		return NewPredicateValueError(v.String(), p.SourceInfo)

	case PredStartWith:
		if v.Kind != KindString {
			return NewPredicateTypeError(p.SourceInfo)
		}
		want, err := p.StrValue.Eval(vars)
		if err != nil {
			return err
		}
		if strings.HasPrefix(v.Str, want) {
			return nil
		}
		return NewPredicateValueError(v.Str, p.SourceInfo)

	case PredContain:
		if v.Kind != KindString {
			return NewPredicateTypeError(p.SourceInfo)
		}
		want, err := p.StrValue.Eval(vars)
		if err != nil {
			return err
		}
		if strings.Contains(v.Str, want) {
			return nil
		}
		return NewPredicateValueError(v.Str, p.SourceInfo)

	case PredMatch:
		if v.Kind != KindString {
			return NewPredicateTypeError(p.SourceInfo)
		}
		pattern, err := p.StrValue.Eval(vars)
		if err != nil {
			return err
		}
		re, rerr := compileRegex(pattern)
		if rerr != nil {
			return NewInvalidRegexError(pattern, p.SourceInfo)
		}
		if re.MatchString(v.Str) {
			return nil
		}
		return NewPredicateValueError(v.Str, p.SourceInfo)

	case PredExist:
		if v.IsNone() || (v.Kind == KindNodeset && v.Nodeset == 0) {
			return NewPredicateValueError("none", p.SourceInfo)
		}
		return nil

	case PredFirstEqualBool, PredFirstEqualInt, PredFirstEqualString, PredFirstCountEqual:
		return p.evalFirst(vars, v)

	default:
		return NewPredicateTypeError(p.SourceInfo)
	}
}

// evalFirst dispatches the First* family onto the first element of a List
// value (spec §4.5's JSONPath rewrite).
func (p Predicate) evalFirst(vars map[string]string, v Value) error {
	if v.Kind != KindList || len(v.List) == 0 {
		return NewPredicateTypeError(p.SourceInfo)
	}
	first := v.List[0]

	switch p.Func {
	case PredFirstEqualBool:
		if first.Kind != KindBool {
			return NewPredicateTypeError(p.SourceInfo)
		}
		if first.Bool == p.BoolValue {
			return nil
		}
		return NewPredicateValueError(first.String(), p.SourceInfo)

	case PredFirstEqualInt:
		switch first.Kind {
		case KindInteger:
			if first.Int == p.IntValue {
				return nil
			}
			return NewPredicateValueError(first.String(), p.SourceInfo)
		case KindFloat:
			if first.Flt.Int == p.IntValue && first.Flt.Frac == 0 {
				return nil
			}
			return NewPredicateValueError(first.String(), p.SourceInfo)
		default:
			return NewPredicateTypeError(p.SourceInfo)
		}

	case PredFirstEqualString:
		if first.Kind != KindString {
			return NewPredicateTypeError(p.SourceInfo)
		}
		want, err := p.StrValue.Eval(vars)
		if err != nil {
			return err
		}
		if first.Str == want {
			return nil
		}
		return NewPredicateValueError(first.Str, p.SourceInfo)

	case PredFirstCountEqual:
		n, ok := countOf(first)
		if !ok {
			return NewPredicateTypeError(p.SourceInfo)
		}
		if int64(n) == p.CountValue {
			return nil
		}
		return NewPredicateValueError(first.String(), p.SourceInfo)

	default:
		return NewPredicateTypeError(p.SourceInfo)
	}
}

func countOf(v Value) (int, bool) {
	switch v.Kind {
	case KindList:
		return len(v.List), true
	case KindNodeset:
		return v.Nodeset, true
	default:
		return 0, false
	}
}

// rewriteForJsonpath applies spec §4.5's JSONPath-scoped predicate rewrite:
// EqualInt->FirstEqualInt, EqualBool->FirstEqualBool,
// EqualString->FirstEqualString, CountEqual->FirstCountEqual. Other
// variants are untouched.
func rewriteForJsonpath(p Predicate) Predicate {
	switch p.Func {
	case PredEqualInt:
		p.Func = PredFirstEqualInt
	case PredEqualBool:
		p.Func = PredFirstEqualBool
	case PredEqualString:
		p.Func = PredFirstEqualString
	case PredCountEqual:
		p.Func = PredFirstCountEqual
	}
	return p
}
