package nodeedit

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Segment is one step of a Path: either an array index or an object key.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a segment addressing an object member.
func Key(k string) Segment { return Segment{key: k} }

// Index returns a segment addressing an array element. i must be non-negative.
func Index(i int) Segment {
	if i < 0 {
		panic("nodeedit: negative path index")
	}
	return Segment{index: i, isIndex: true}
}

func (s Segment) IsIndex() bool { return s.isIndex }
func (s Segment) Index() int    { return s.index }
func (s Segment) Key() string   { return s.key }

// String renders the segment as it appears between brackets in a locator.
func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return string(encodeString(s.key))
}

func (s Segment) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return encodeString(s.key), nil
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var k string
		if err := json.Unmarshal(data, &k); err != nil {
			return err
		}
		*s = Key(k)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || n < 0 {
		return fmt.Errorf("nodeedit: path segment %s is neither a key nor a non-negative index", data)
	}
	*s = Index(n)
	return nil
}

// Path locates a node inside a document. The empty path is the root.
type Path []Segment

func (p Path) String() string { return Render(p) }

// Render formats a path as a locator: "$" for the root, otherwise "$"
// followed by one bracketed segment per step, e.g. $["a"][0].
func Render(path Path) string {
	if len(path) == 0 {
		return "$"
	}
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range path {
		b.WriteByte('[')
		b.WriteString(seg.String())
		b.WriteByte(']')
	}
	return b.String()
}

// Pointer returns the RFC 6901 JSON Pointer for the path.
func (p Path) Pointer() string {
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		if seg.isIndex {
			b.WriteString(strconv.Itoa(seg.index))
			continue
		}
		b.WriteString(pointerEscaper.Replace(seg.key))
	}
	return b.String()
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// ParsePath reads a path either in locator form ($, $["a"][0]) or as a
// JSON array of keys and indexes (["a", 0]).
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "$":
		return Path{}, nil
	case s[0] == '[':
		var p Path
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("nodeedit: invalid path %q: %w", s, err)
		}
		if p == nil {
			p = Path{}
		}
		return p, nil
	case s[0] == '$':
		return parseLocator(s)
	}
	return nil, fmt.Errorf("nodeedit: invalid path %q: expected $ locator or JSON array", s)
}

func parseLocator(s string) (Path, error) {
	p := Path{}
	rest := s[1:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return nil, fmt.Errorf("nodeedit: invalid path %q: expected '[' at %q", s, rest)
		}
		rest = rest[1:]
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return nil, fmt.Errorf("nodeedit: invalid path %q: unterminated key", s)
			}
			var k string
			if err := json.Unmarshal([]byte(rest[:end+1]), &k); err != nil {
				return nil, fmt.Errorf("nodeedit: invalid path %q: %w", s, err)
			}
			p = append(p, Key(k))
			rest = rest[end+1:]
		} else {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("nodeedit: invalid path %q: missing ']'", s)
			}
			n, err := strconv.Atoi(rest[:end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("nodeedit: invalid path %q: bad index %q", s, rest[:end])
			}
			p = append(p, Index(n))
			rest = rest[end:]
		}
		if !strings.HasPrefix(rest, "]") {
			return nil, fmt.Errorf("nodeedit: invalid path %q: missing ']'", s)
		}
		rest = rest[1:]
	}
	return p, nil
}

// closingQuote returns the offset of the quote ending the JSON string that
// starts at s[0], or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
