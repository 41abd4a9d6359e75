package corral

import (
	"encoding/base64"
	"strings"
)

// space matches a single ' ' or '\t'.
func space(c *Cursor) (string, *ParseError) {
	start := c.Pos()
	r, ok := c.Peek()
	if !ok || (r != ' ' && r != '\t') {
		return "", newParseError(start, ErrSpace, "space")
	}
	c.NextChar()
	return string(r), nil
}

// zeroOrMoreSpaces consumes zero or more space/tab characters.
func zeroOrMoreSpaces(c *Cursor) string {
	return c.NextCharsWhile(func(r rune) bool { return r == ' ' || r == '\t' })
}

// oneOrMoreSpaces consumes one or more space/tab characters, failing
// (recoverably) if none are present.
func oneOrMoreSpaces(c *Cursor) (string, *ParseError) {
	start := c.Pos()
	s := zeroOrMoreSpaces(c)
	if s == "" {
		return "", newParseError(start, ErrSpace, "space")
	}
	return s, nil
}

// newline matches "\r\n" or "\n".
func newline(c *Cursor) (string, *ParseError) {
	if s, err := tryLiteral(c, "\r\n"); err == nil {
		return s, nil
	}
	return tryLiteral(c, "\n")
}

// comment matches '#' followed by everything up to (not including) the next
// newline or EOF.
func comment(c *Cursor) (string, *ParseError) {
	if _, err := tryLiteral(c, "#"); err != nil {
		return "", err
	}
	text := c.NextCharsUntil(func(r rune) bool { return r == '\n' || r == '\r' })
	return "#" + text, nil
}

// lineTerminator is zero-or-more spaces, an optional comment, then a newline
// or end-of-file.
func lineTerminator(c *Cursor) (string, *ParseError) {
	var sb strings.Builder
	sb.WriteString(zeroOrMoreSpaces(c))

	if txt, ok, err := optional(c, comment); err != nil {
		return "", err
	} else if ok {
		sb.WriteString(txt)
	}

	if c.Eof() {
		return sb.String(), nil
	}

	nl, err := newline(c)
	if err != nil {
		return "", err
	}
	sb.WriteString(nl)
	return sb.String(), nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// natural matches one or more decimal digits. A leading zero may not be
// followed by further digits ("01" is a non-recoverable error); a first
// character that isn't a digit is a recoverable failure.
func natural(c *Cursor) (string, *ParseError) {
	start := c.Pos()
	first, ok := c.Peek()
	if !ok || !isDigit(first) {
		return "", newParseError(start, ErrExpecting, "digit")
	}
	c.NextChar()

	if first == '0' {
		if next, ok := c.Peek(); ok && isDigit(next) {
			return "", commit(newParseError(start, ErrExpecting, "natural number"))
		}
		return "0", nil
	}

	rest := c.NextCharsWhile(isDigit)
	return string(first) + rest, nil
}

// integer matches an optional leading '-' followed by natural.
func integer(c *Cursor) (string, *ParseError) {
	start := c.Pos()
	neg, _, err := optional(c, func(c *Cursor) (string, *ParseError) { return tryLiteral(c, "-") })
	if err != nil {
		return "", err
	}

	n, err := natural(c)
	if err != nil {
		if neg != "" {
			return "", commit(err)
		}
		return "", err
	}
	_ = start
	return neg + n, nil
}

// floatToken is the raw (sign, intPart, fracDigits) textual components of a
// parsed float literal, before conversion into the (int,frac,digits) Value
// representation.
type floatToken struct {
	Negative bool
	IntPart  string
	FracPart string
}

// float matches integer "." digits. Absence of digits after the "." is
// non-recoverable.
func float(c *Cursor) (floatToken, *ParseError) {
	start := c.Pos()

	neg, _, err := optional(c, func(c *Cursor) (string, *ParseError) { return tryLiteral(c, "-") })
	if err != nil {
		return floatToken{}, err
	}

	intPart, err := natural(c)
	if err != nil {
		if neg != "" {
			return floatToken{}, commit(err)
		}
		return floatToken{}, err
	}

	if _, err := tryLiteral(c, "."); err != nil {
		if neg != "" {
			return floatToken{}, commit(err)
		}
		return floatToken{}, err
	}

	fracStart := c.Pos()
	frac := c.NextCharsWhile(isDigit)
	if frac == "" {
		return floatToken{}, commit(newParseError(fracStart, ErrExpecting, "digit"))
	}

	_ = start
	return floatToken{Negative: neg != "", IntPart: intPart, FracPart: frac}, nil
}

// boolean matches the literal "true" or "false".
func boolean(c *Cursor) (bool, *ParseError) {
	if _, err := tryLiteral(c, "true"); err == nil {
		return true, nil
	}
	if _, err := tryLiteral(c, "false"); err == nil {
		return false, nil
	}
	return false, newParseError(c.Pos(), ErrExpecting, "true or false")
}

func isFilenameChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isDigit(r) ||
		r == '.' || r == '/' || r == '_'
}

// filename matches a run of [A-Za-z0-9./_]+; empty is a non-recoverable
// error (the caller has already committed by the time filename is invoked,
// e.g. after "file,").
func filename(c *Cursor) (string, *ParseError) {
	start := c.Pos()
	s := c.NextCharsWhile(isFilenameChar)
	if s == "" {
		return "", commit(newParseError(start, ErrFilename, ""))
	}
	return s, nil
}

func isBase64Char(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isDigit(r) ||
		r == '+' || r == '/'
}

// base64Token is the raw encoded surface of a base64 literal (including any
// interior whitespace) and its decoded bytes.
type base64Token struct {
	Encoded string
	Decoded []byte
}

// base64Literal consumes A-Za-z0-9+/ and whitespace (whitespace is skipped
// in the byte stream but preserved in the encoded form), then any number of
// '=' padding characters. It cannot fail: it returns whatever was consumed,
// and the caller is responsible for validating the delimiter that follows.
func base64Literal(c *Cursor) base64Token {
	var encoded strings.Builder
	var dataRunes []rune

	for {
		r, ok := c.Peek()
		if !ok {
			break
		}
		if isBase64Char(r) {
			c.NextChar()
			encoded.WriteRune(r)
			dataRunes = append(dataRunes, r)
			continue
		}
		if IsUnicodeWhitespace(r) {
			c.NextChar()
			encoded.WriteRune(r)
			continue
		}
		break
	}

	padStart := len(dataRunes)
	for {
		r, ok := c.Peek()
		if !ok || r != '=' {
			break
		}
		c.NextChar()
		encoded.WriteRune(r)
		dataRunes = append(dataRunes, r)
	}
	padCount := len(dataRunes) - padStart

	data := string(dataRunes[:padStart])
	// Re-pad to a multiple of 4 from the data's own length, decoding per RFC
	// 4648; a trailing partial group of 2 or 3 characters is valid with the
	// right amount of '='.
	decoded := decodeLenientBase64(data, padCount)

	return base64Token{Encoded: encoded.String(), Decoded: decoded}
}

// decodeLenientBase64 decodes data (with no padding characters). The
// padCount the user wrote is not used: padding is normalized to what the
// data's own length requires, since the scanner has already separated data
// from padding positionally.
func decodeLenientBase64(data string, padCount int) []byte {
	if data == "" {
		return []byte{}
	}

	rem := len(data) % 4
	var padded string
	switch rem {
	case 0:
		padded = data
	case 2:
		padded = data + "=="
	case 3:
		padded = data + "="
	default:
		// A group of 1 leftover character cannot be valid base64; drop it,
		// matching the "cannot fail" contract by decoding the largest
		// valid prefix.
		padded = data[:len(data)-rem]
	}

	decoded, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		// Fall back to the raw (unpadded) decoder for streams the strict
		// decoder rejects; as a last resort return what was decodable.
		decoded, _ = base64.RawStdEncoding.DecodeString(strings.TrimRight(padded, "="))
	}
	_ = padCount
	return decoded
}
