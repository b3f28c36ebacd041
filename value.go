package nodeedit

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// member is one object entry, kept in document order.
type member struct {
	key string
	raw json.RawMessage
}

// kindOf classifies raw JSON by its first significant byte. The input is
// assumed to be valid.
func kindOf(raw json.RawMessage) Type {
	b := bytes.TrimLeft(raw, " \t\r\n")
	if len(b) == 0 {
		return TypeNull
	}
	switch b[0] {
	case '{':
		return TypeObject
	case '[':
		return TypeArray
	case '"':
		return TypeString
	case 't', 'f':
		return TypeBoolean
	case 'n':
		return TypeNull
	}
	return TypeNumber
}

// parseValue checks that text holds exactly one JSON value and returns it
// re-encoded in compact form.
func parseValue(text []byte) (json.RawMessage, error) {
	if !utf8.Valid(text) {
		return nil, errors.New("invalid UTF-8")
	}
	// goccy's decoder accepts numbers such as 01 and +1 and stray closing
	// brackets, so the grammar is checked by encoding/json first.
	if !stdjson.Valid(text) {
		var v any
		if err := stdjson.Unmarshal(text, &v); err != nil {
			return nil, err
		}
		return nil, errors.New("invalid JSON")
	}
	return reencode(text)
}

// reencode rebuilds raw from its token stream: compact, member order and
// duplicate keys kept, numbers verbatim and strings without HTML escaping.
func reencode(raw []byte) (json.RawMessage, error) {
	type frame struct {
		object bool
		n      int
	}
	var (
		buf   bytes.Buffer
		stack []frame
	)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected %v", d)
			}
			stack = stack[:len(stack)-1]
			buf.WriteByte(byte(d))
			continue
		}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.object && top.n%2 == 1:
				buf.WriteByte(':')
			case top.n > 0:
				buf.WriteByte(',')
			}
			top.n++
		}
		switch t := tok.(type) {
		case json.Delim:
			buf.WriteByte(byte(t))
			stack = append(stack, frame{object: t == '{'})
		case string:
			buf.Write(encodeString(t))
		case json.Number:
			buf.WriteString(string(t))
		case bool:
			buf.WriteString(strconv.FormatBool(t))
		case nil:
			buf.WriteString("null")
		default:
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
	}
	if len(stack) > 0 {
		return nil, errors.New("unexpected end of JSON input")
	}
	return buf.Bytes(), nil
}

func objectMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, member{key: key, raw: v})
	}
	return out, nil
}

func arrayElements(raw json.RawMessage) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupMember returns the value of key; the last duplicate wins.
func lookupMember(members []member, key string) (json.RawMessage, bool) {
	var (
		found json.RawMessage
		ok    bool
	)
	for _, m := range members {
		if m.key == key {
			found, ok = m.raw, true
		}
	}
	return found, ok
}

// setMember stores raw under key. An existing key keeps its first position
// and later duplicates are dropped; a new key is appended.
func setMember(members []member, key string, raw json.RawMessage) []member {
	out := members[:0:0]
	found := false
	for _, m := range members {
		if m.key != key {
			out = append(out, m)
			continue
		}
		if !found {
			out = append(out, member{key: key, raw: raw})
			found = true
		}
	}
	if !found {
		out = append(out, member{key: key, raw: raw})
	}
	return out
}

func encodeObject(members []member) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodeString(m.key))
		buf.WriteByte(':')
		buf.Write(m.raw)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func encodeArray(elems []json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// decodeScalar decodes a scalar keeping numbers as json.Number.
func decodeScalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// encodeValue marshals v without HTML escaping and without the encoder's
// trailing newline.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func encodeString(s string) []byte {
	b, _ := encodeValue(s)
	return b
}

func indent(raw []byte, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", prefix); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compact(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
