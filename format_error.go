package corral

import (
	"fmt"
	"strings"
)

// FormatError renders any error the parser or runner can produce as a
// source excerpt with a caret under the offending column, the shape spec
// §7/§9 require of both ParseError and RuntimeError. Errors of any other
// type fall back to their plain Error() text.
func FormatError(src string, err error) string {
	switch e := err.(type) {
	case *ParseError:
		return formatParseError(src, e)
	case *RuntimeError:
		return formatRuntimeError(src, e)
	default:
		return err.Error()
	}
}

func formatParseError(src string, err *ParseError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse error at %s: %s\n", err.Pos, err.Error())
	writeExcerpt(&sb, src, err.Pos)
	return sb.String()
}

func formatRuntimeError(src string, err *RuntimeError) string {
	label := "error"
	if err.Assert {
		label = "assertion failed"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %s: %s\n", label, err.SourceInfo.Start, err.Error())
	writeExcerpt(&sb, src, err.SourceInfo.Start)
	return sb.String()
}

// writeExcerpt appends the source line pos sits on, followed by a caret
// line pointing at pos's column. A position past the end of the file (an
// EOF error, or the empty-line case from scenario 6 in spec §7) still
// produces a line (possibly empty) and a caret at pos's column.
func writeExcerpt(sb *strings.Builder, src string, pos Position) {
	line := sourceLine(src, pos.Line)
	fmt.Fprintf(sb, "  %s\n", line)
	fmt.Fprintf(sb, "  %s\n", caretAt(pos.Col))
}

func sourceLine(src string, lineNum int) string {
	lines := strings.Split(src, "\n")
	idx := lineNum - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[idx], "\r")
}

func caretAt(col int) string {
	if col < 1 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + "^"
}
