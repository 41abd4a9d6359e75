package corral

import "fmt"

// ParseErrorKind identifies what a parser was expecting when it failed. See
// spec §7 for the full enumerated table; this is the "Parse" half of it.
type ParseErrorKind int

const (
	ErrExpecting ParseErrorKind = iota
	ErrMethod
	ErrVersion
	ErrStatus
	ErrFilename
	ErrSpace
	ErrSectionName
	ErrXPathExpr
	ErrJsonpathExpr
	ErrTemplateVariable
	ErrJSON
	ErrXML
	ErrPredicate
	ErrPredicateValue
	ErrURL
	ErrUnexpected
	ErrEOF
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrExpecting:
		return "Expecting"
	case ErrMethod:
		return "Method"
	case ErrVersion:
		return "Version"
	case ErrStatus:
		return "Status"
	case ErrFilename:
		return "Filename"
	case ErrSpace:
		return "Space"
	case ErrSectionName:
		return "SectionName"
	case ErrXPathExpr:
		return "XPathExpr"
	case ErrJsonpathExpr:
		return "JsonpathExpr"
	case ErrTemplateVariable:
		return "TemplateVariable"
	case ErrJSON:
		return "Json"
	case ErrXML:
		return "Xml"
	case ErrPredicate:
		return "Predicate"
	case ErrPredicateValue:
		return "PredicateValue"
	case ErrURL:
		return "Url"
	case ErrUnexpected:
		return "Unexpected"
	case ErrEOF:
		return "Eof"
	default:
		return "Unknown"
	}
}

// ParseError is what every parser primitive returns on failure. Recoverable
// marks whether a caller may try an alternative without the cursor having
// advanced past a commit point (spec §4.1's load-bearing design decision).
type ParseError struct {
	Pos         Position
	Recoverable bool
	Kind        ParseErrorKind

	// Detail carries kind-specific context, e.g. the literal expected for
	// ErrExpecting, the bad section name for ErrSectionName, the offending
	// rune for ErrUnexpected.
	Detail string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrExpecting:
		return fmt.Sprintf("%s: expecting %q", e.Pos, e.Detail)
	case ErrSectionName:
		return fmt.Sprintf("%s: unknown section name %q", e.Pos, e.Detail)
	case ErrUnexpected:
		return fmt.Sprintf("%s: unexpected character %q", e.Pos, e.Detail)
	case ErrEOF:
		return fmt.Sprintf("%s: unexpected end of file", e.Pos)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Pos, e.Kind, e.Detail)
		}
		return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
	}
}

// newParseError builds a recoverable ParseError at pos.
func newParseError(pos Position, kind ParseErrorKind, detail string) *ParseError {
	return &ParseError{Pos: pos, Recoverable: true, Kind: kind, Detail: detail}
}

// commit converts a recoverable error into a non-recoverable one, the
// operation every "commit point" in the grammar performs once it has
// consumed a distinguishing prefix.
func commit(err *ParseError) *ParseError {
	if err == nil {
		return nil
	}
	return &ParseError{Pos: err.Pos, Recoverable: false, Kind: err.Kind, Detail: err.Detail}
}

// parseFunc is the shape every parser primitive and combinator has: given a
// cursor, either advance it and return a result, or fail (leaving recovery
// to the caller per the returned error's Recoverable bit).
type parseFunc[T any] func(c *Cursor) (T, *ParseError)

// tryLiteral matches s exactly at the cursor. On mismatch it restores the
// cursor and returns a recoverable error; on match it consumes s.
func tryLiteral(c *Cursor, s string) (string, *ParseError) {
	snap := c.snapshot()
	runes := []rune(s)
	for _, want := range runes {
		got, ok := c.NextChar()
		if !ok || got != want {
			c.restore(snap)
			return "", newParseError(snap.pos, ErrExpecting, s)
		}
	}
	return s, nil
}

// literal is like tryLiteral but does not restore the cursor on failure and
// returns a non-recoverable error; it is used once a caller has already
// committed to this alternative (e.g. after matching "{{").
func literal(c *Cursor, s string) (string, *ParseError) {
	start := c.Pos()
	runes := []rune(s)
	for _, want := range runes {
		got, ok := c.NextChar()
		if !ok || got != want {
			return "", commit(newParseError(start, ErrExpecting, s))
		}
	}
	return s, nil
}

// optional runs p; on success it returns (value, true, nil). On a
// recoverable failure it restores the cursor and returns (zero, false, nil).
// A non-recoverable failure propagates as-is.
func optional[T any](c *Cursor, p parseFunc[T]) (T, bool, *ParseError) {
	snap := c.snapshot()
	v, err := p(c)
	if err == nil {
		return v, true, nil
	}
	if err.Recoverable {
		c.restore(snap)
		var zero T
		return zero, false, nil
	}
	var zero T
	return zero, false, err
}

// zeroOrMore accumulates results of p until a recoverable failure (which is
// swallowed, with the cursor restored to just before the failed attempt); a
// non-recoverable failure propagates.
func zeroOrMore[T any](c *Cursor, p parseFunc[T]) ([]T, *ParseError) {
	var results []T
	for {
		snap := c.snapshot()
		v, err := p(c)
		if err == nil {
			results = append(results, v)
			continue
		}
		if err.Recoverable {
			c.restore(snap)
			return results, nil
		}
		return results, err
	}
}

// oneOrMore is zeroOrMore but fails (recoverably, at the cursor's starting
// position) if nothing was parsed.
func oneOrMore[T any](c *Cursor, p parseFunc[T]) ([]T, *ParseError) {
	start := c.Pos()
	results, err := zeroOrMore(c, p)
	if err != nil {
		return results, err
	}
	if len(results) == 0 {
		return nil, newParseError(start, ErrExpecting, "at least one")
	}
	return results, nil
}

// choice tries each alternative in order, restoring the cursor between
// recoverable failures. The first non-recoverable failure short-circuits.
// If every alternative fails recoverably, the last error is returned.
func choice[T any](c *Cursor, ps ...parseFunc[T]) (T, *ParseError) {
	var lastErr *ParseError
	for _, p := range ps {
		snap := c.snapshot()
		v, err := p(c)
		if err == nil {
			return v, nil
		}
		if !err.Recoverable {
			return v, err
		}
		c.restore(snap)
		lastErr = err
	}
	var zero T
	if lastErr == nil {
		lastErr = newParseError(c.Pos(), ErrExpecting, "one of the alternatives")
	}
	return zero, lastErr
}

// recover runs p and, on any failure, converts it to recoverable without
// restoring the cursor (the cursor is left wherever p left it).
func recover[T any](c *Cursor, p parseFunc[T]) (T, *ParseError) {
	v, err := p(c)
	if err == nil {
		return v, nil
	}
	return v, &ParseError{Pos: err.Pos, Recoverable: true, Kind: err.Kind, Detail: err.Detail}
}
