package corral

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the Value sum type (spec §3).
type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindList
	KindObject
	KindNodeset
	KindBytes
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindNodeset:
		return "nodeset"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Float is an exact decimal representation: int is the integer part, frac is
// the fractional digits left-justified into an 18-digit field (so the first
// listed digit occupies the 10^17 place), and digits records how many
// fractional digits were actually written, so "1.1" and "1.10" compare
// unequal (spec §3/§9).
type Float struct {
	Int    int64
	Frac   uint64
	Digits int
}

const fracFieldWidth = 18

// NewFloatFromDigits builds a Float from the textual integer and fractional
// parts produced by the float token parser.
func NewFloatFromDigits(negative bool, intPart, fracDigits string) (Float, error) {
	i, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Float{}, fmt.Errorf("parse integer part %q: %w", intPart, err)
	}
	if negative {
		i = -i
	}

	digits := len(fracDigits)
	if digits > fracFieldWidth {
		fracDigits = fracDigits[:fracFieldWidth]
		digits = fracFieldWidth
	}
	padded := fracDigits + strings.Repeat("0", fracFieldWidth-len(fracDigits))
	frac, err := strconv.ParseUint(padded, 10, 64)
	if err != nil {
		return Float{}, fmt.Errorf("parse fractional part %q: %w", fracDigits, err)
	}

	return Float{Int: i, Frac: frac, Digits: digits}, nil
}

// FloatFromFloat64 converts an f64-ish value into the exact representation. This
// conversion is inherently lossy and is used only when reading numbers out
// of a JSON document (spec §9).
func FloatFromFloat64(f float64) Float {
	neg := f < 0
	if neg {
		f = -f
	}
	intPart := int64(f)
	frac := f - float64(intPart)

	// Render with enough precision to round-trip a float64, then trim.
	s := strconv.FormatFloat(frac, 'f', fracFieldWidth, 64)
	// s looks like "0.123000000000000000"; take digits after the dot.
	dot := strings.IndexByte(s, '.')
	fracDigits := ""
	if dot >= 0 {
		fracDigits = s[dot+1:]
	}
	fracDigits = strings.TrimRight(fracDigits, "0")
	if fracDigits == "" {
		fracDigits = "0"
	}

	fv, _ := NewFloatFromDigits(neg, strconv.FormatInt(intPart, 10), fracDigits)
	if fracDigits == "0" {
		fv.Digits = 1
	}
	return fv
}

// String renders the float preserving the original trailing-zero count,
// e.g. Float{1,10^16,3}.String() == "1.010".
func (f Float) String() string {
	padded := fmt.Sprintf("%018d", f.Frac)
	digits := f.Digits
	if digits <= 0 {
		digits = 1
	}
	if digits > fracFieldWidth {
		digits = fracFieldWidth
	}
	fracStr := padded[:digits]

	sign := ""
	if f.Int == 0 && f.Frac != 0 && isNegativeZeroIntended(f) {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%s", sign, f.Int, fracStr)
}

// isNegativeZeroIntended is a placeholder hook: Float as specified stores
// sign in Int, so a zero integer part with nonzero fraction and the original
// literal negative never loses its sign because Int is never produced as
// "negative zero" by NewFloatFromDigits (it returns 0, which cannot carry
// sign). Negative fractional-only floats ("-0.5") are therefore represented
// by a caller-tracked sign bit if ever needed; none of spec's operations
// require signed zero integer parts, so this always returns false.
func isNegativeZeroIntended(Float) bool {
	return false
}

// Equal compares two floats by the exact (int, frac, digits) triple, per
// spec §3: digit-count is part of equality.
func (f Float) Equal(other Float) bool {
	return f.Int == other.Int && f.Frac == other.Frac && f.Digits == other.Digits
}

// EqualNumeric compares by (int, frac) only, ignoring digit count; the
// EqualFloat predicate uses it to compare two floats.
func (f Float) EqualNumeric(other Float) bool {
	return f.Int == other.Int && f.Frac == other.Frac
}

// Node is an opaque handle into an XML/HTML document, used only to build a
// Nodeset's count; the core never inspects node contents.
type Node struct{}

// Value is the sum type every query and template expression evaluates to
// (spec §3).
type Value struct {
	Kind    ValueKind
	Bool    bool
	Int     int64
	Flt     Float
	Str     string
	List    []Value
	Object  []ObjectEntry
	Nodeset int
	Bytes   []byte
}

// ObjectEntry is one (key, Value) pair of an ordered Object value.
type ObjectEntry struct {
	Key   string
	Value Value
}

func NoneValue() Value                { return Value{Kind: KindNone} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value          { return Value{Kind: KindInteger, Int: i} }
func FloatValue(f Float) Value        { return Value{Kind: KindFloat, Flt: f} }
func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func ListValue(vs []Value) Value      { return Value{Kind: KindList, List: vs} }
func ObjectValue(e []ObjectEntry) Value { return Value{Kind: KindObject, Object: e} }
func NodesetValue(n int) Value        { return Value{Kind: KindNodeset, Nodeset: n} }
func BytesValue(b []byte) Value       { return Value{Kind: KindBytes, Bytes: b} }

// IsNone reports whether v represents the absence of a value (e.g. a header
// lookup that found nothing).
func (v Value) IsNone() bool { return v.Kind == KindNone }

// String renders v for capture storage (spec §4.9): scalars render as their
// natural decimal/string form; lists and nodesets render as "List(...)" /
// "NodesetN".
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return v.Flt.String()
	case KindString:
		return v.Str
	case KindBytes:
		return string(v.Bytes)
	case KindNodeset:
		return fmt.Sprintf("Nodeset%d", v.Nodeset)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "List(" + strings.Join(parts, ",") + ")"
	case KindObject:
		parts := make([]string, len(v.Object))
		for i, e := range v.Object {
			parts[i] = e.Key + ":" + e.Value.String()
		}
		return "Object(" + strings.Join(parts, ",") + ")"
	default:
		return ""
	}
}
