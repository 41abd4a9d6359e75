package corral

import (
	"fmt"
	"strings"
)

// Variable is a bare {{name}} reference, position-tagged.
type Variable struct {
	Name       string
	SourceInfo SourceInfo
}

// TemplateElementKind discriminates the two element kinds a Template is made
// of (spec §3).
type TemplateElementKind int

const (
	ElementLiteral TemplateElementKind = iota
	ElementExpression
)

// TemplateElement is one literal run or one {{variable}} expression inside a
// Template.
type TemplateElement struct {
	Kind TemplateElementKind

	// Literal fields.
	Value   string // decoded text
	Encoded *string // original surface, when it differs from Value (nil if identical)

	// Expression fields.
	Variable Variable

	SourceInfo SourceInfo
}

// NewLiteralElement builds a literal element. If encoded differs from
// value, it is retained so a formatter can reproduce the user's input
// exactly (spec §3/§9).
func NewLiteralElement(value string, encoded string, si SourceInfo) TemplateElement {
	el := TemplateElement{Kind: ElementLiteral, Value: value, SourceInfo: si}
	if encoded != value {
		e := encoded
		el.Encoded = &e
	}
	return el
}

// Template is an ordered sequence of literal and expression elements plus a
// delimiter (empty for bare templates, `"` for JSON-quoted ones).
type Template struct {
	Elements   []TemplateElement
	Delimiter  string // "" or `"`
	SourceInfo SourceInfo
}

// Eval evaluates the template against a variable environment, substituting
// each expression's value. It fails with a TemplateVariableNotDefined error
// at the variable's own source position if any referenced name is absent
// (spec §3 invariant).
func (t Template) Eval(vars map[string]string) (string, error) {
	var sb strings.Builder
	for _, el := range t.Elements {
		switch el.Kind {
		case ElementLiteral:
			sb.WriteString(el.Value)
		case ElementExpression:
			val, ok := vars[el.Variable.Name]
			if !ok {
				return "", &RuntimeError{
					Kind:       RTTemplateVariableNotDefined,
					SourceInfo: el.Variable.SourceInfo,
					Name:       el.Variable.Name,
					Assert:     false,
				}
			}
			sb.WriteString(val)
		}
	}
	return sb.String(), nil
}

// ---- parsing ----

func isExpressionVarChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isDigit(r) || r == '_'
}

// parseExpression parses "{{" ws* variable ws* "}}". An empty variable name
// is a non-recoverable error. The caller has not yet committed when calling
// this (tryLiteral on "{{" is recoverable), but every failure past that
// point is non-recoverable.
func parseExpression(c *Cursor) (TemplateElement, *ParseError) {
	start := c.Pos()
	if _, err := tryLiteral(c, "{{"); err != nil {
		return TemplateElement{}, err
	}

	zeroOrMoreSpaces(c)

	nameStart := c.Pos()
	name := c.NextCharsWhile(isExpressionVarChar)
	if name == "" {
		return TemplateElement{}, commit(newParseError(nameStart, ErrTemplateVariable, ""))
	}
	nameEnd := c.Pos()

	zeroOrMoreSpaces(c)

	if _, err := literal(c, "}}"); err != nil {
		return TemplateElement{}, err
	}

	end := c.Pos()
	return TemplateElement{
		Kind:       ElementExpression,
		Variable:   Variable{Name: name, SourceInfo: NewSourceInfo(nameStart, nameEnd)},
		SourceInfo: NewSourceInfo(start, end),
	}, nil
}

// isExpressionStart reports whether the cursor sits at "{{" right now,
// without consuming anything.
func isExpressionStart(c *Cursor) bool {
	a, ok1 := c.PeekAt(0)
	b, ok2 := c.PeekAt(1)
	return ok1 && ok2 && a == '{' && b == '{'
}

// ParseUnquotedTemplate reads an unquoted template (used for headers, param
// values, and non-URL scalar values): it reads characters verbatim until a
// line_terminator would succeed, splitting out {{...}} expressions along the
// way. Literal runs are coalesced.
func ParseUnquotedTemplate(c *Cursor) (Template, *ParseError) {
	return parseTemplateUntil(c, func(c *Cursor) bool {
		snap := c.snapshot()
		_, err := lineTerminator(c)
		c.restore(snap)
		return err == nil
	}, false)
}

// ParseURLTemplate is like ParseUnquotedTemplate but restricts literal
// characters to the whitelist A-Za-z0-9:/.-?=&_%; scanning stops at the
// first character outside that set (and outside "{{"). An empty url is a
// non-recoverable error.
func ParseURLTemplate(c *Cursor) (Template, *ParseError) {
	start := c.Pos()
	tmpl, err := parseTemplateUntil(c, func(c *Cursor) bool {
		r, ok := c.Peek()
		if !ok {
			return true
		}
		if isExpressionStart(c) {
			return false
		}
		return !isURLLiteralChar(r)
	}, false)
	if err != nil {
		return tmpl, err
	}
	if len(tmpl.Elements) == 0 {
		return tmpl, commit(newParseError(start, ErrURL, "url"))
	}
	return tmpl, nil
}

func isURLLiteralChar(r rune) bool {
	switch r {
	case ':', '/', '.', '-', '?', '=', '&', '_', '%':
		return true
	}
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isDigit(r)
}

// parseTemplateUntil is the shared engine for unquoted/URL templates: at
// each position, check stop(c); if true, finish. Otherwise, if "{{" starts
// here, parse an expression; else consume one literal character.
func parseTemplateUntil(c *Cursor, stop func(*Cursor) bool, jsonQuoted bool) (Template, *ParseError) {
	start := c.Pos()
	var elements []TemplateElement
	var litBuf strings.Builder
	litStart := start

	flushLiteral := func(end Position) {
		if litBuf.Len() > 0 {
			elements = append(elements, NewLiteralElement(litBuf.String(), litBuf.String(), NewSourceInfo(litStart, end)))
			litBuf.Reset()
		}
	}

	for {
		if c.Eof() || stop(c) {
			flushLiteral(c.Pos())
			break
		}
		if isExpressionStart(c) {
			flushLiteral(c.Pos())
			el, err := parseExpression(c)
			if err != nil {
				return Template{}, err
			}
			elements = append(elements, el)
			litStart = c.Pos()
			continue
		}
		r, _ := c.NextChar()
		litBuf.WriteRune(r)
	}

	end := c.Pos()
	delim := ""
	if jsonQuoted {
		delim = `"`
	}
	return Template{Elements: elements, Delimiter: delim, SourceInfo: NewSourceInfo(start, end)}, nil
}

// ParseJSONQuotedTemplate parses a JSON-quoted template: between `"` and
// `"`, each character is a JSON string escape (\n \" \/ \b \f \r \t \uXXXX)
// or a {{ ... }} expression. It assumes the opening quote has already been
// consumed by the caller's commit point and returns once the closing quote
// is found (which it also consumes).
func ParseJSONQuotedTemplate(c *Cursor) (Template, *ParseError) {
	start := c.Pos()
	var elements []TemplateElement
	var litValueBuf strings.Builder
	var litEncodedBuf strings.Builder
	litStart := start
	sawEscape := false

	flushLiteral := func(end Position) {
		if litValueBuf.Len() > 0 || litEncodedBuf.Len() > 0 {
			value := litValueBuf.String()
			encoded := litEncodedBuf.String()
			if !sawEscape {
				encoded = value
			}
			elements = append(elements, NewLiteralElement(value, encoded, NewSourceInfo(litStart, end)))
			litValueBuf.Reset()
			litEncodedBuf.Reset()
			sawEscape = false
		}
	}

	for {
		if c.Eof() {
			return Template{}, commit(newParseError(c.Pos(), ErrExpecting, `"`))
		}
		r, _ := c.Peek()

		if r == '"' {
			flushLiteral(c.Pos())
			c.NextChar()
			end := c.Pos()
			return Template{Elements: elements, Delimiter: `"`, SourceInfo: NewSourceInfo(start, end)}, nil
		}

		if isExpressionStart(c) {
			flushLiteral(c.Pos())
			el, err := parseExpression(c)
			if err != nil {
				return Template{}, err
			}
			elements = append(elements, el)
			litStart = c.Pos()
			continue
		}

		if r == '\\' {
			escStart := c.Pos()
			c.NextChar()
			esc, ok := c.Peek()
			if !ok {
				return Template{}, commit(newParseError(c.Pos(), ErrEOF, ""))
			}
			decoded, raw, err := decodeJSONEscape(c)
			if err != nil {
				return Template{}, err
			}
			litValueBuf.WriteString(decoded)
			litEncodedBuf.WriteString("\\" + raw)
			sawEscape = true
			_ = esc
			_ = escStart
			continue
		}

		if r < 0x20 {
			// Control character ends the scan; caller expects a closing
			// quote and will raise its own error if one isn't found.
			flushLiteral(c.Pos())
			return Template{Elements: elements, Delimiter: `"`, SourceInfo: NewSourceInfo(start, c.Pos())}, nil
		}

		c.NextChar()
		litValueBuf.WriteRune(r)
		litEncodedBuf.WriteRune(r)
	}
}

// decodeJSONEscape consumes one escape sequence's payload (the cursor is
// positioned just after the backslash) and returns its decoded rune(s) and
// the raw text consumed (without the leading backslash).
func decodeJSONEscape(c *Cursor) (string, string, *ParseError) {
	start := c.Pos()
	r, ok := c.NextChar()
	if !ok {
		return "", "", commit(newParseError(start, ErrEOF, ""))
	}

	switch r {
	case 'n':
		return "\n", "n", nil
	case 't':
		return "\t", "t", nil
	case 'r':
		return "\r", "r", nil
	case 'b':
		return "\b", "b", nil
	case 'f':
		return "\f", "f", nil
	case '"':
		return "\"", "\"", nil
	case '\\':
		return "\\", "\\", nil
	case '/':
		return "/", "/", nil
	case 'u':
		hex := make([]rune, 0, 4)
		for i := 0; i < 4; i++ {
			h, ok := c.NextChar()
			if !ok {
				return "", "", commit(newParseError(c.Pos(), ErrEOF, ""))
			}
			hex = append(hex, h)
		}
		var codepoint rune
		if _, err := fmt.Sscanf(string(hex), "%04x", &codepoint); err != nil {
			return "", "", commit(newParseError(start, ErrExpecting, "hex digits"))
		}
		return string(codepoint), "u" + string(hex), nil
	default:
		return "", "", commit(newParseError(start, ErrUnexpected, string(r)))
	}
}
