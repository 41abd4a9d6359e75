package corral

import (
	"strconv"
	"strings"
)

// ParseFile parses an entire hurl-language source file into an AST (spec
// §3/§4). Parse errors abort the whole file; there is no partial result.
func ParseFile(src string) (File, error) {
	c := NewCursor(src)
	start := c.Pos()

	var entries []Entry
	for {
		// Skip blank lines and comment-only lines between entries.
		for {
			snap := c.snapshot()
			txt, err := lineTerminator(c)
			if err != nil || txt == "" {
				c.restore(snap)
				break
			}
		}

		if c.Eof() {
			break
		}

		entry, err := parseEntry(c)
		if err != nil {
			return File{}, err
		}
		entries = append(entries, entry)
	}

	end := c.Pos()
	return File{Entries: entries, SourceInfo: NewSourceInfo(start, end)}, nil
}

// parseEntry parses one Request followed by an optional Response.
func parseEntry(c *Cursor) (Entry, *ParseError) {
	start := c.Pos()

	req, err := parseRequest(c)
	if err != nil {
		return Entry{}, err
	}

	var resp *Response
	if r, ok, err := optional(c, parseResponse); err != nil {
		return Entry{}, err
	} else if ok {
		resp = &r
	}

	end := c.Pos()
	return Entry{Request: req, Response: resp, SourceInfo: NewSourceInfo(start, end)}, nil
}

// parseRequest parses "METHOD url\n" followed by headers and sections and
// an optional body.
func parseRequest(c *Cursor) (Request, *ParseError) {
	start := c.Pos()

	method, err := parseMethod(c)
	if err != nil {
		return Request{}, err
	}

	if _, err := oneOrMoreSpaces(c); err != nil {
		return Request{}, commit(err)
	}

	url, err := ParseURLTemplate(c)
	if err != nil {
		return Request{}, err
	}

	if _, err := lineTerminator(c); err != nil {
		return Request{}, commit(err)
	}

	headers, sections, err := parseHeadersAndSections(c, false)
	if err != nil {
		return Request{}, err
	}

	body, err := parseOptionalBody(c)
	if err != nil {
		return Request{}, err
	}

	end := c.Pos()
	return Request{
		Method: method, URL: url, Headers: headers, Sections: sections,
		Body: body, SourceInfo: NewSourceInfo(start, end),
	}, nil
}

// parseResponse parses "VERSION STATUS\n" followed by headers, sections,
// and an optional body.
func parseResponse(c *Cursor) (Response, *ParseError) {
	start := c.Pos()

	version, err := parseVersion(c)
	if err != nil {
		return Response{}, err
	}

	if _, err := oneOrMoreSpaces(c); err != nil {
		return Response{}, commit(err)
	}

	statusStart := c.Pos()
	statusStr, err := natural(c)
	if err != nil {
		return Response{}, commit(&ParseError{Pos: statusStart, Recoverable: false, Kind: ErrStatus})
	}
	status, _ := strconv.Atoi(statusStr)

	if _, err := lineTerminator(c); err != nil {
		return Response{}, commit(err)
	}

	headers, sections, err := parseHeadersAndSections(c, true)
	if err != nil {
		return Response{}, err
	}

	body, err := parseOptionalBody(c)
	if err != nil {
		return Response{}, err
	}

	end := c.Pos()
	return Response{
		Version: version, Status: status, Headers: headers, Sections: sections,
		Body: body, SourceInfo: NewSourceInfo(start, end),
	}, nil
}

func parseMethod(c *Cursor) (Method, *ParseError) {
	start := c.Pos()
	snap := c.snapshot()
	word := c.NextCharsWhile(func(r rune) bool {
		return (r >= 'A' && r <= 'Z')
	})
	if m, ok := validMethods[word]; ok {
		return m, nil
	}
	c.restore(snap)
	return "", newParseError(start, ErrMethod, word)
}

func parseVersion(c *Cursor) (Version, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "HTTP/"); err != nil {
		return "", err
	}
	word := c.NextCharsUntil(func(r rune) bool { return r == ' ' || r == '\t' || r == '\r' || r == '\n' })
	if v, ok := validVersions[word]; ok {
		return v, nil
	}
	return "", commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrVersion, Detail: word})
}

// parseHeadersAndSections parses the ordered run of "name: value" header
// lines and bracketed sections that follows a request/response start line.
// isResponse gates whether Captures/Asserts are legal (spec §3: "Captures
// and Asserts are only legal inside Response").
func parseHeadersAndSections(c *Cursor, isResponse bool) ([]KeyValue, []Section, *ParseError) {
	var headers []KeyValue
	var sections []Section

	for {
		// Blank and comment-only lines may separate headers, sections, and
		// the response line that follows.
		for {
			snap := c.snapshot()
			txt, err := lineTerminator(c)
			if err != nil || txt == "" {
				c.restore(snap)
				break
			}
		}

		if sec, ok, err := optional(c, func(c *Cursor) (Section, *ParseError) {
			return parseSection(c, isResponse)
		}); err != nil {
			return nil, nil, err
		} else if ok {
			sections = append(sections, sec)
			continue
		}

		if kv, ok, err := optional(c, parseHeaderLine); err != nil {
			return nil, nil, err
		} else if ok {
			headers = append(headers, kv)
			continue
		}

		break
	}

	return headers, sections, nil
}

// parseHeaderLine parses "name: template" line_terminator.
func parseHeaderLine(c *Cursor) (KeyValue, *ParseError) {
	start := c.Pos()

	keyStart := c.Pos()
	key := c.NextCharsWhile(func(r rune) bool {
		return r != ':' && r != '\r' && r != '\n' && r != '[' && r != ' ' && r != '\t'
	})
	if key == "" {
		return KeyValue{}, newParseError(start, ErrExpecting, "header name")
	}
	keyEnd := c.Pos()

	if _, err := tryLiteral(c, ":"); err != nil {
		return KeyValue{}, err
	}

	zeroOrMoreSpaces(c)

	val, err := ParseUnquotedTemplate(c)
	if err != nil {
		return KeyValue{}, commit(err)
	}

	if _, err := lineTerminator(c); err != nil {
		return KeyValue{}, commit(err)
	}

	end := c.Pos()
	return KeyValue{
		Key: strings.TrimSpace(key), KeySource: NewSourceInfo(keyStart, keyEnd),
		Value: val, SourceInfo: NewSourceInfo(start, end),
	}, nil
}

// parseSection parses "[Name]\n" followed by that section kind's items
// until a line that isn't one of its items (i.e. the next header, section,
// or body).
func parseSection(c *Cursor, isResponse bool) (Section, *ParseError) {
	start := c.Pos()

	if _, err := tryLiteral(c, "["); err != nil {
		return Section{}, err
	}

	nameStart := c.Pos()
	name := c.NextCharsUntil(func(r rune) bool { return r == ']' || r == '\n' || r == '\r' })

	kind, ok := sectionNamesToKind[name]
	if !ok {
		return Section{}, commit(&ParseError{
			Pos: nameStart, Recoverable: false, Kind: ErrSectionName, Detail: name,
		})
	}

	if _, err := literal(c, "]"); err != nil {
		return Section{}, err
	}
	if _, err := lineTerminator(c); err != nil {
		return Section{}, commit(err)
	}

	sec := Section{Kind: kind}

	switch kind {
	case SectionCaptures, SectionAsserts:
		if !isResponse {
			return Section{}, commit(&ParseError{Pos: nameStart, Recoverable: false, Kind: ErrSectionName, Detail: name})
		}
	}

	switch kind {
	case SectionQueryParams, SectionFormParams, SectionCookies:
		kvs, err := zeroOrMore(c, parseHeaderLine)
		if err != nil {
			return Section{}, err
		}
		sec.KeyValues = kvs

	case SectionCaptures:
		caps, err := zeroOrMore(c, parseCapture)
		if err != nil {
			return Section{}, err
		}
		sec.Captures = caps

	case SectionAsserts:
		asserts, err := zeroOrMore(c, parseAssert)
		if err != nil {
			return Section{}, err
		}
		sec.Asserts = asserts
	}

	end := c.Pos()
	sec.SourceInfo = NewSourceInfo(start, end)
	return sec, nil
}

func parseCapture(c *Cursor) (Capture, *ParseError) {
	start := c.Pos()

	nameStart := c.Pos()
	name := c.NextCharsWhile(func(r rune) bool { return r != ':' && r != '\r' && r != '\n' })
	if name == "" {
		return Capture{}, newParseError(start, ErrExpecting, "capture name")
	}
	nameEnd := c.Pos()

	if _, err := tryLiteral(c, ":"); err != nil {
		return Capture{}, err
	}
	zeroOrMoreSpaces(c)

	q, err := parseQuery(c)
	if err != nil {
		return Capture{}, commit(err)
	}

	if _, err := lineTerminator(c); err != nil {
		return Capture{}, commit(err)
	}

	end := c.Pos()
	return Capture{
		Name: strings.TrimSpace(name), NameSource: NewSourceInfo(nameStart, nameEnd),
		Query: q, SourceInfo: NewSourceInfo(start, end),
	}, nil
}

func parseAssert(c *Cursor) (Assert, *ParseError) {
	start := c.Pos()

	q, err := parseQuery(c)
	if err != nil {
		return Assert{}, err
	}

	if _, err := oneOrMoreSpaces(c); err != nil {
		return Assert{}, commit(err)
	}

	pred, err := parsePredicate(c)
	if err != nil {
		return Assert{}, commit(err)
	}
	pred.SourceInfo = NewSourceInfo(start, c.Pos())

	if q.Kind == QueryJsonpath {
		pred = rewriteForJsonpath(pred)
	}

	if _, err := lineTerminator(c); err != nil {
		return Assert{}, commit(err)
	}

	end := c.Pos()
	return Assert{Query: q, Predicate: pred, SourceInfo: NewSourceInfo(start, end)}, nil
}

// ---- query parsing ----

func parseQuery(c *Cursor) (Query, *ParseError) {
	return choice(c,
		parseStatusQuery, parseHeaderQuery, parseCookieQuery, parseBodyQueryP,
		parseXpathQuery, parseJsonpathQuery, parseRegexQuery,
	)
}

func parseStatusQuery(c *Cursor) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "status"); err != nil {
		return Query{}, err
	}
	return Query{Kind: QueryStatus, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

func parseBodyQueryP(c *Cursor) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "body"); err != nil {
		return Query{}, err
	}
	return Query{Kind: QueryBody, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

func parseNamedQuery(c *Cursor, keyword string, kind QueryKind) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, keyword); err != nil {
		return Query{}, err
	}
	if _, err := oneOrMoreSpaces(c); err != nil {
		return Query{}, commit(err)
	}
	name, err := parseQuotedString(c)
	if err != nil {
		return Query{}, commit(err)
	}
	return Query{Kind: kind, Name: name, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

func parseHeaderQuery(c *Cursor) (Query, *ParseError) {
	return parseNamedQuery(c, "header", QueryHeader)
}

func parseCookieQuery(c *Cursor) (Query, *ParseError) {
	return parseNamedQuery(c, "cookie", QueryCookie)
}

func parseXpathQuery(c *Cursor) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "xpath"); err != nil {
		return Query{}, err
	}
	if _, err := oneOrMoreSpaces(c); err != nil {
		return Query{}, commit(err)
	}
	expr, err := parseQuotedString(c)
	if err != nil {
		return Query{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrXPathExpr})
	}
	return Query{Kind: QueryXpath, Expr: expr, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

func parseJsonpathQuery(c *Cursor) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "jsonpath"); err != nil {
		return Query{}, err
	}
	if _, err := oneOrMoreSpaces(c); err != nil {
		return Query{}, commit(err)
	}
	expr, err := parseQuotedString(c)
	if err != nil {
		return Query{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrJsonpathExpr})
	}
	return Query{Kind: QueryJsonpath, Expr: expr, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

func parseRegexQuery(c *Cursor) (Query, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "regex"); err != nil {
		return Query{}, err
	}
	if _, err := oneOrMoreSpaces(c); err != nil {
		return Query{}, commit(err)
	}
	expr, err := parseQuotedString(c)
	if err != nil {
		return Query{}, commit(err)
	}
	return Query{Kind: QueryRegex, Expr: expr, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

// parseQuotedString parses a JSON-quoted template (used for query
// names/expressions, which are always double-quoted in source).
func parseQuotedString(c *Cursor) (Template, *ParseError) {
	if _, err := tryLiteral(c, `"`); err != nil {
		return Template{}, err
	}
	return ParseJSONQuotedTemplate(c)
}

// ---- predicate parsing ----

func parsePredicate(c *Cursor) (Predicate, *ParseError) {
	not := false
	if _, err := tryLiteral(c, "not"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		not = true
	}

	pred, err := parsePredicateFunc(c)
	if err != nil {
		return Predicate{}, err
	}
	pred.Not = not
	return pred, nil
}

func parsePredicateFunc(c *Cursor) (Predicate, *ParseError) {
	start := c.Pos()

	if _, err := tryLiteral(c, "exists"); err == nil {
		return Predicate{Func: PredExist, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if _, err := tryLiteral(c, "equals"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		return parseEqualsValue(c, start)
	}

	if _, err := tryLiteral(c, "countEquals"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		nStart := c.Pos()
		nStr, err := integer(c)
		if err != nil {
			return Predicate{}, commit(&ParseError{Pos: nStart, Recoverable: false, Kind: ErrPredicate})
		}
		n, _ := strconv.ParseInt(nStr, 10, 64)
		return Predicate{Func: PredCountEqual, CountValue: n, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if _, err := tryLiteral(c, "startsWith"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		tmpl, err := parseQuotedString(c)
		if err != nil {
			return Predicate{}, commit(err)
		}
		return Predicate{Func: PredStartWith, StrValue: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if _, err := tryLiteral(c, "contains"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		tmpl, err := parseQuotedString(c)
		if err != nil {
			return Predicate{}, commit(err)
		}
		return Predicate{Func: PredContain, StrValue: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if _, err := tryLiteral(c, "matches"); err == nil {
		if _, err := oneOrMoreSpaces(c); err != nil {
			return Predicate{}, commit(err)
		}
		tmpl, err := parseQuotedString(c)
		if err != nil {
			return Predicate{}, commit(err)
		}
		return Predicate{Func: PredMatch, StrValue: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	return Predicate{}, newParseError(start, ErrPredicate, "")
}

// parseEqualsValue implements spec §4.5's equals-value dispatch: try, in
// order, boolean, float, integer, JSON-quoted template. The first
// successful parse chooses the predicate variant.
func parseEqualsValue(c *Cursor, start Position) (Predicate, *ParseError) {
	if b, ok, err := optional(c, boolean); err != nil {
		return Predicate{}, err
	} else if ok {
		return Predicate{Func: PredEqualBool, BoolValue: b, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if ft, ok, err := optional(c, float); err != nil {
		return Predicate{}, err
	} else if ok {
		fv, cerr := NewFloatFromDigits(ft.Negative, ft.IntPart, ft.FracPart)
		if cerr != nil {
			return Predicate{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrPredicateValue})
		}
		return Predicate{Func: PredEqualFloat, FloatValue: fv, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if iStr, ok, err := optional(c, integer); err != nil {
		return Predicate{}, err
	} else if ok {
		n, _ := strconv.ParseInt(iStr, 10, 64)
		return Predicate{Func: PredEqualInt, IntValue: n, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	if tmpl, ok, err := optional(c, parseQuotedString); err != nil {
		return Predicate{}, err
	} else if ok {
		return Predicate{Func: PredEqualString, StrValue: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
	}

	return Predicate{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrPredicateValue})
}
