package nodeedit

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Type tags the JSON kind of a row.
type Type uint8

const (
	TypeString Type = iota + 1
	TypeNumber
	TypeBoolean
	TypeNull
	TypeObject
	TypeArray
)

var typeNames = [...]string{
	TypeString:  "string",
	TypeNumber:  "number",
	TypeBoolean: "boolean",
	TypeNull:    "null",
	TypeObject:  "object",
	TypeArray:   "array",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// IsContainer reports whether rows of this type stand for a child node.
func (t Type) IsContainer() bool { return t == TypeObject || t == TypeArray }

func (t Type) MarshalText() ([]byte, error) {
	if int(t) >= len(typeNames) || typeNames[t] == "" {
		return nil, fmt.Errorf("nodeedit: unknown row type %d", uint8(t))
	}
	return []byte(typeNames[t]), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	for i, name := range typeNames {
		if name != "" && name == string(b) {
			*t = Type(i)
			return nil
		}
	}
	return fmt.Errorf("nodeedit: unknown row type %q", b)
}

// Row is one decomposed field of a node. Scalar rows carry their decoded
// value; container rows mark a child that is rendered as its own node and
// carry the child's JSON text.
//
// An empty Key means the row has no key.
type Row struct {
	Key   string
	typ   Type
	value any
}

func StringRow(key, s string) Row             { return Row{Key: key, typ: TypeString, value: s} }
func NumberRow(key string, n json.Number) Row { return Row{Key: key, typ: TypeNumber, value: n} }
func BoolRow(key string, b bool) Row          { return Row{Key: key, typ: TypeBoolean, value: b} }
func NullRow(key string) Row                  { return Row{Key: key, typ: TypeNull} }
func ObjectRow(key string, v json.RawMessage) Row { return containerRow(key, TypeObject, v) }
func ArrayRow(key string, v json.RawMessage) Row  { return containerRow(key, TypeArray, v) }

func containerRow(key string, typ Type, v json.RawMessage) Row {
	if c, err := compact(v); err == nil {
		v = c
	}
	return Row{Key: key, typ: typ, value: json.RawMessage(v)}
}

// ScalarRow builds a row from a decoded JSON scalar.
func ScalarRow(key string, v any) (Row, error) {
	switch vv := v.(type) {
	case nil:
		return NullRow(key), nil
	case string:
		return StringRow(key, vv), nil
	case bool:
		return BoolRow(key, vv), nil
	case json.Number:
		return NumberRow(key, vv), nil
	case float64:
		return NumberRow(key, json.Number(fmt.Sprint(vv))), nil
	case int:
		return NumberRow(key, json.Number(fmt.Sprint(vv))), nil
	case int64:
		return NumberRow(key, json.Number(fmt.Sprint(vv))), nil
	}
	return Row{}, fmt.Errorf("nodeedit: %T is not a JSON scalar", v)
}

func (r Row) Type() Type { return r.typ }

// Value returns the scalar value, or the child's compact json.RawMessage for
// container rows.
func (r Row) Value() any { return r.value }

func (r Row) HasKey() bool { return r.Key != "" }

type rowWire struct {
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value"`
	Type  Type            `json:"type"`
}

func (r Row) MarshalJSON() ([]byte, error) {
	v, ok := r.value.(json.RawMessage)
	if !ok {
		var err error
		if v, err = encodeValue(r.value); err != nil {
			return nil, err
		}
	}
	return json.Marshal(rowWire{Key: r.Key, Value: v, Type: r.typ})
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var w rowWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == 0 {
		return fmt.Errorf("nodeedit: row %q has no type", w.Key)
	}
	if len(w.Value) == 0 {
		w.Value = json.RawMessage("null")
	}
	if got := kindOf(w.Value); got != w.Type {
		return fmt.Errorf("nodeedit: row %q is tagged %s but holds a %s", w.Key, w.Type, got)
	}
	if w.Type.IsContainer() {
		*r = containerRow(w.Key, w.Type, w.Value)
		return nil
	}
	v, err := decodeScalar(w.Value)
	if err != nil {
		return err
	}
	row, err := ScalarRow(w.Key, v)
	if err != nil {
		return err
	}
	*r = row
	return nil
}

// Format renders a node's rows as JSON text for viewing and editing.
//
// No rows give "{}". A single row without a key renders as the bare JSON
// literal of its value; for a container row that is the compact child. Otherwise the keyed scalar rows are collected into an
// object, in row order, and pretty printed with two-space indentation;
// container rows and unkeyed rows are left out.
func Format(rows []Row) string {
	if len(rows) == 0 {
		return "{}"
	}
	if len(rows) == 1 && !rows[0].HasKey() {
		return string(literal(rows[0]))
	}

	var (
		keys []string
		vals = map[string][]byte{}
	)
	for _, row := range rows {
		if row.typ.IsContainer() || !row.HasKey() {
			continue
		}
		if _, seen := vals[row.Key]; !seen {
			keys = append(keys, row.Key)
		}
		vals[row.Key] = literal(row)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodeString(k))
		buf.WriteByte(':')
		buf.Write(vals[k])
	}
	buf.WriteByte('}')

	out, err := indent(buf.Bytes(), "  ")
	if err != nil {
		return buf.String()
	}
	return string(out)
}

// literal returns the JSON text of a row's value.
func literal(r Row) []byte {
	switch v := r.value.(type) {
	case nil:
		return []byte("null")
	case json.RawMessage:
		return v
	}
	b, err := encodeValue(r.value)
	if err != nil {
		return []byte("null")
	}
	return b
}
