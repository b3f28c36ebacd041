package store

import "bytes"

// layout is the block style of a YAML document that is kept across edits.
type layout struct {
	indent    int  // spaces per nesting level
	indentSeq bool // sequences under a key are indented one level
}

var defaultLayout = layout{indent: 2, indentSeq: true}

// detectLayout returns the base indent, and whether sequences that are values
// of mapping keys are indented one level (true) or "indentless" (false).
func detectLayout(b []byte) layout {
	indent := detectIndent(b)
	lines := bytes.Split(b, []byte("\n"))
	votes := 0 // >0 prefer indented seq, <0 prefer indentless

	for i, ln := range lines {
		if isBlankOrComment(ln) || !endsWithMappingKey(ln) {
			continue
		}
		keyIndent := leadingSpaces(ln)
		for _, nxt := range lines[i+1:] {
			if isBlankOrComment(nxt) {
				continue
			}
			lsp := leadingSpaces(nxt)
			trimmed := bytes.TrimLeft(nxt, " ")
			if trimmed[0] == '-' {
				switch lsp {
				case keyIndent + indent:
					votes++
				case keyIndent:
					votes--
				}
			}
			break
		}
	}
	// no evidence either way: indented sequences
	return layout{indent: indent, indentSeq: votes >= 0}
}

func isBlankOrComment(ln []byte) bool {
	t := bytes.TrimSpace(ln)
	return len(t) == 0 || t[0] == '#'
}

// endsWithMappingKey reports whether the line is a block mapping key of the
// form "key:", optionally followed by a comment.
func endsWithMappingKey(ln []byte) bool {
	idx := bytes.IndexByte(ln, ':')
	if idx < 0 {
		return false
	}
	rest := bytes.TrimSpace(ln[idx+1:])
	return len(rest) == 0 || rest[0] == '#'
}

// detectIndent is the GCD of every non-zero indent, clamped to 1..8.
func detectIndent(b []byte) int {
	result := 0
	for _, ln := range bytes.Split(b, []byte("\n")) {
		if isBlankOrComment(ln) {
			continue
		}
		if n := leadingSpaces(ln); n > 0 {
			result = gcd(result, n)
		}
	}
	if result > 0 && result <= 8 {
		return result
	}
	return defaultLayout.indent
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func leadingSpaces(line []byte) int {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}
