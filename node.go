package nodeedit

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Node is a selectable element of a document: where it is and the rows
// that make up its own content.
type Node struct {
	Path Path  `json:"path"`
	Rows []Row `json:"rows"`
}

// NodeAt decomposes the value at path into rows. Object members become keyed
// rows in document order, array elements become unkeyed rows, and a scalar
// becomes a single unkeyed row. Nested containers appear as marker rows.
func NodeAt(document []byte, path Path) (Node, error) {
	root, err := parseValue(document)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	raw, err := resolve(root, path, len(path))
	if err != nil {
		return Node{}, err
	}
	rows, err := decompose(raw)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Node{Path: append(Path{}, path...), Rows: rows}, nil
}

func decompose(raw json.RawMessage) ([]Row, error) {
	switch kindOf(raw) {
	case TypeObject:
		members, err := objectMembers(raw)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(members))
		for _, m := range members {
			row, err := rowFor(m.key, m.raw)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	case TypeArray:
		elems, err := arrayElements(raw)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(elems))
		for _, e := range elems {
			row, err := rowFor("", e)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
	row, err := rowFor("", raw)
	if err != nil {
		return nil, err
	}
	return []Row{row}, nil
}

func rowFor(key string, raw json.RawMessage) (Row, error) {
	switch kindOf(raw) {
	case TypeObject:
		return ObjectRow(key, raw), nil
	case TypeArray:
		return ArrayRow(key, raw), nil
	}
	v, err := decodeScalar(raw)
	if err != nil {
		return Row{}, err
	}
	return ScalarRow(key, v)
}

// resolve walks the first n segments of path from root. Every value passed
// through must be a container holding the addressed key or index.
func resolve(root json.RawMessage, path Path, n int) (json.RawMessage, error) {
	cur := root
	for depth := range path[:n] {
		next, err := step(cur, path, depth)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// step returns the child of cur addressed by path[depth].
func step(cur json.RawMessage, path Path, depth int) (json.RawMessage, error) {
	seg := path[depth]
	switch kind := kindOf(cur); kind {
	case TypeObject:
		if seg.IsIndex() {
			return nil, unresolved(path, depth, "index %d used on an object", seg.Index())
		}
		members, err := objectMembers(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		next, ok := lookupMember(members, seg.Key())
		if !ok {
			return nil, unresolved(path, depth, "no key %s", seg)
		}
		return next, nil
	case TypeArray:
		if !seg.IsIndex() {
			return nil, unresolved(path, depth, "key %s used on an array", seg)
		}
		elems, err := arrayElements(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if seg.Index() >= len(elems) {
			return nil, unresolved(path, depth, "index %d out of range (length %d)", seg.Index(), len(elems))
		}
		return elems[seg.Index()], nil
	default:
		return nil, unresolved(path, depth, "cannot descend into %s", kind)
	}
}

// setChild returns container with the member or element at seg set to
// value. The segment must already exist or, for objects, is appended.
func setChild(container json.RawMessage, seg Segment, value json.RawMessage) (json.RawMessage, error) {
	if seg.IsIndex() {
		elems, err := arrayElements(container)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		elems[seg.Index()] = value
		return encodeArray(elems), nil
	}
	members, err := objectMembers(container)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return encodeObject(setMember(members, seg.Key(), value)), nil
}

func appendElement(container, value json.RawMessage) (json.RawMessage, error) {
	elems, err := arrayElements(container)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return encodeArray(append(elems, value)), nil
}
