package corral

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
)

// parseOptionalBody tries each body variant in turn (spec §4.4). None of
// the five share a common lead token, so ordinary choice-by-first-match is
// enough: base64/file have unambiguous keyword prefixes, multiline has its
// fence, XML starts with '<', and JSON is whatever is left over.
func parseOptionalBody(c *Cursor) (*Body, *ParseError) {
	body, ok, err := optional(c, func(c *Cursor) (Body, *ParseError) {
		return choice(c, parseBase64Body, parseFileBody, parseMultilineBody, parseXMLBody, parseJSONBody)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &body, nil
}

// advanceCursor moves c forward by the runes of consumed, re-running the
// normal position bookkeeping (newlines, combining marks) that a raw index
// bump would skip.
func advanceCursor(c *Cursor, consumed string) {
	for _, r := range []rune(consumed) {
		got, ok := c.NextChar()
		if !ok || got != r {
			break
		}
	}
}

// reparseAsTemplate re-scans raw (already known to be syntactically valid
// JSON/XML/fenced text) for {{variable}} expressions, since the outer
// decoder only cares about structural validity and ignores template
// syntax. Positions inside the returned template are relative to raw, not
// the original source; good enough for capture/assert evaluation, which
// never needs to report errors at a sub-position of a body literal.
func reparseAsTemplate(raw string, si SourceInfo) (Template, *ParseError) {
	sub := NewCursor(raw)
	tmpl, err := parseTemplateUntil(sub, func(c *Cursor) bool { return c.Eof() }, false)
	if err != nil {
		return Template{}, err
	}
	tmpl.SourceInfo = si
	return tmpl, nil
}

// parseBase64Body parses "base64, <literal>;" (spec §4.4). The literal
// itself cannot fail to scan; a missing "base64," prefix is a recoverable
// failure so XML/JSON get a chance, while a missing ';' after the prefix has
// matched is non-recoverable.
func parseBase64Body(c *Cursor) (Body, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "base64,"); err != nil {
		return Body{}, err
	}
	zeroOrMoreSpaces(c)

	tok := base64Literal(c)

	zeroOrMoreSpaces(c)
	if _, err := literal(c, ";"); err != nil {
		return Body{}, err
	}
	if _, err := lineTerminator(c); err != nil {
		return Body{}, commit(err)
	}

	end := c.Pos()
	return Body{Kind: BodyBase64, Base64: tok.Decoded, SourceInfo: NewSourceInfo(start, end)}, nil
}

// parseFileBody parses "file, <filename template>;" (spec §4.4). The
// filename may itself contain {{variable}} expressions; a relative filename
// is resolved against the evaluation context directory at request-build
// time.
func parseFileBody(c *Cursor) (Body, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "file,"); err != nil {
		return Body{}, err
	}
	zeroOrMoreSpaces(c)

	nameStart := c.Pos()
	tmpl, err := parseTemplateUntil(c, func(c *Cursor) bool {
		r, ok := c.Peek()
		return !ok || r == ';'
	}, false)
	if err != nil {
		return Body{}, commit(err)
	}
	if len(tmpl.Elements) == 0 {
		return Body{}, commit(newParseError(nameStart, ErrFilename, ""))
	}

	if _, err := literal(c, ";"); err != nil {
		return Body{}, err
	}
	if _, err := lineTerminator(c); err != nil {
		return Body{}, commit(err)
	}

	end := c.Pos()
	return Body{Kind: BodyFile, Filename: tmpl, SourceInfo: NewSourceInfo(start, end)}, nil
}

// parseMultilineBody parses a triple-backtick fenced string body: an
// optional language tag, a newline, the raw content, and a closing fence on
// its own line (spec §4.4). The leading newline after the opening fence is
// consumed as part of the fence delimiter rather than the content, per
// spec §3's whitespace-node discipline.
func parseMultilineBody(c *Cursor) (Body, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "```"); err != nil {
		return Body{}, err
	}

	c.NextCharsWhile(func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || isDigit(r)
	})
	if _, err := newline(c); err != nil {
		return Body{}, commit(err)
	}

	remaining := c.Remaining()
	closeAt := strings.Index(remaining, "\n```")

	var raw string
	switch {
	case closeAt >= 0:
		raw = remaining[:closeAt]
		advanceCursor(c, raw)
		c.NextChar() // the newline before the fence
		for i := 0; i < 3; i++ {
			c.NextChar()
		}
	case strings.HasPrefix(remaining, "```"):
		raw = ""
		for i := 0; i < 3; i++ {
			c.NextChar()
		}
	default:
		return Body{}, commit(&ParseError{Pos: c.Pos(), Recoverable: false, Kind: ErrEOF})
	}

	end := c.Pos()
	tmpl, terr := reparseAsTemplate(raw, NewSourceInfo(start, end))
	if terr != nil {
		return Body{}, terr
	}

	if _, err := lineTerminator(c); err != nil {
		return Body{}, commit(err)
	}

	return Body{Kind: BodyMultiline, Raw: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

// parseXMLBody recognizes an XML document by handing the remaining source
// to encoding/xml's own decoder and seeing how far it gets: a non-'<'
// lead is a recoverable miss (so JSON/other bodies get a turn); once
// committed, any document the decoder can't close out is a non-recoverable
// error (spec §4.4's "EOF or malformed markup is fatal, not a miss").
func parseXMLBody(c *Cursor) (Body, *ParseError) {
	start := c.Pos()
	r, ok := c.Peek()
	if !ok || r != '<' {
		return Body{}, newParseError(start, ErrExpecting, "xml body")
	}

	remaining := c.Remaining()
	dec := xml.NewDecoder(strings.NewReader(remaining))
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return Body{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrXML})
	}

	raw := remaining[:dec.InputOffset()]
	advanceCursor(c, raw)
	end := c.Pos()

	tmpl, terr := reparseAsTemplate(raw, NewSourceInfo(start, end))
	if terr != nil {
		return Body{}, terr
	}

	if _, err := lineTerminator(c); err != nil {
		return Body{}, commit(err)
	}

	return Body{Kind: BodyXML, Raw: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}

// parseJSONBody recognizes a JSON value the same way parseXMLBody
// recognizes XML: hand the remainder to encoding/json's decoder and accept
// however much it consumes as exactly one value (spec §4.4). Both failures
// are non-recoverable ErrJSON errors: input that ends mid-value is reported
// at the end of the input, where the decoder stopped; any other malformed
// value is reported at the value's start.
func parseJSONBody(c *Cursor) (Body, *ParseError) {
	start := c.Pos()
	r, ok := c.Peek()
	if !ok {
		return Body{}, newParseError(start, ErrExpecting, "json body")
	}
	switch {
	case r == '{' || r == '[' || r == '"' || r == '-' || isDigit(r):
	case r == 't' || r == 'f' || r == 'n':
	default:
		return Body{}, newParseError(start, ErrExpecting, "json body")
	}

	remaining := c.Remaining()
	dec := json.NewDecoder(strings.NewReader(remaining))
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			advanceCursor(c, remaining)
			return Body{}, commit(&ParseError{Pos: c.Pos(), Recoverable: false, Kind: ErrJSON})
		}
		return Body{}, commit(&ParseError{Pos: start, Recoverable: false, Kind: ErrJSON})
	}

	raw := remaining[:dec.InputOffset()]
	advanceCursor(c, raw)
	end := c.Pos()

	tmpl, terr := reparseAsTemplate(raw, NewSourceInfo(start, end))
	if terr != nil {
		return Body{}, terr
	}

	if _, err := lineTerminator(c); err != nil {
		return Body{}, commit(err)
	}

	return Body{Kind: BodyJSON, Raw: tmpl, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
}
