package nodeedit

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	json "github.com/goccy/go-json"
)

// patchOp is a single RFC 6902 operation.
type patchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// Apply parses editedText and commits it at path, returning the full updated
// document with two-space indentation. document itself is never modified.
//
// The empty path replaces the whole document. Otherwise every segment but
// the last must walk through an existing object or array. When the value
// already at path and the edited value are both objects they are merged one
// level deep: existing keys are kept, shared keys take the edited value and
// new keys are appended. Any other combination replaces the value.
//
// Invalid edited text fails with *ParseError regardless of path; a path that
// does not resolve fails with *PathResolutionError.
func Apply(document []byte, path Path, editedText string) ([]byte, error) {
	newValue, err := parseValue([]byte(editedText))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(path) == 0 {
		return indent(newValue, "  ")
	}

	root, err := parseValue(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := resolve(root, path, len(path)-1); err != nil {
		return nil, err
	}
	op, err := topLevelOp(root, path, newValue)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal([]patchOp{op})
	if err != nil {
		return nil, fmt.Errorf("nodeedit: encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(encoded)
	if err != nil {
		return nil, fmt.Errorf("nodeedit: decode patch: %w", err)
	}
	opts := jsonpatch.NewApplyOptions()
	opts.EscapeHTML = false
	out, err := patch.ApplyWithOptions(root, opts)
	if err != nil {
		return nil, fmt.Errorf("nodeedit: apply edit at %s: %w", path, err)
	}
	// json-patch still escapes HTML in values it re-marshals itself.
	if out, err = reencode(out); err != nil {
		return nil, fmt.Errorf("nodeedit: apply edit at %s: %w", path, err)
	}
	return indent(out, "  ")
}

// topLevelOp returns the single operation that commits newValue at path.
// Everything below the first segment is rebuilt here, so the op's pointer
// never has more than one segment.
func topLevelOp(root json.RawMessage, path Path, newValue json.RawMessage) (patchOp, error) {
	target := path[:1].Pointer()
	if len(path) > 1 {
		child, err := step(root, path, 0)
		if err != nil {
			return patchOp{}, err
		}
		updated, err := rebuild(child, path, 1, newValue)
		if err != nil {
			return patchOp{}, err
		}
		if path[0].IsIndex() {
			return patchOp{Op: "replace", Path: target, Value: updated}, nil
		}
		return patchOp{Op: "add", Path: target, Value: updated}, nil
	}

	value, appended, err := committed(root, path, newValue)
	if err != nil {
		return patchOp{}, err
	}
	switch {
	case appended:
		return patchOp{Op: "add", Path: "/-", Value: value}, nil
	case path[0].IsIndex():
		return patchOp{Op: "replace", Path: target, Value: value}, nil
	}
	// add creates the key or overwrites it in place.
	return patchOp{Op: "add", Path: target, Value: value}, nil
}

// rebuild returns container with the edit committed at path[depth:]. Only
// the containers along the path are re-encoded.
func rebuild(container json.RawMessage, path Path, depth int, newValue json.RawMessage) (json.RawMessage, error) {
	if depth == len(path)-1 {
		value, appended, err := committed(container, path, newValue)
		if err != nil {
			return nil, err
		}
		if appended {
			return appendElement(container, value)
		}
		return setChild(container, path[depth], value)
	}
	child, err := step(container, path, depth)
	if err != nil {
		return nil, err
	}
	updated, err := rebuild(child, path, depth+1, newValue)
	if err != nil {
		return nil, err
	}
	return setChild(container, path[depth], updated)
}

// committed decides between merge and replace for the last path segment
// inside container. It returns the value to store there, and whether it is
// appended to an array rather than stored at an existing index.
func committed(container json.RawMessage, path Path, newValue json.RawMessage) (json.RawMessage, bool, error) {
	depth := len(path) - 1
	last := path[depth]

	switch kind := kindOf(container); kind {
	case TypeObject:
		if last.IsIndex() {
			return nil, false, unresolved(path, depth, "index %d used on an object", last.Index())
		}
		members, err := objectMembers(container)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		existing, ok := lookupMember(members, last.Key())
		if ok && mergeable(existing, newValue) {
			merged, err := mergeObjects(existing, newValue)
			return merged, false, err
		}
		return newValue, false, nil

	case TypeArray:
		if !last.IsIndex() {
			return nil, false, unresolved(path, depth, "key %s used on an array", last)
		}
		elems, err := arrayElements(container)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		switch i := last.Index(); {
		case i < len(elems):
			if mergeable(elems[i], newValue) {
				merged, err := mergeObjects(elems[i], newValue)
				return merged, false, err
			}
			return newValue, false, nil
		case i == len(elems):
			return newValue, true, nil
		default:
			return nil, false, unresolved(path, depth, "index %d out of range (length %d)", i, len(elems))
		}

	default:
		return nil, false, unresolved(path, depth, "cannot set a member of %s", kind)
	}
}

func mergeable(existing, newValue json.RawMessage) bool {
	return kindOf(existing) == TypeObject && kindOf(newValue) == TypeObject
}

// mergeObjects sets every member of newValue on existing, one level deep.
func mergeObjects(existing, newValue json.RawMessage) (json.RawMessage, error) {
	members, err := objectMembers(existing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	updates, err := objectMembers(newValue)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	for _, u := range updates {
		members = setMember(members, u.key, u.raw)
	}
	return encodeObject(members), nil
}
