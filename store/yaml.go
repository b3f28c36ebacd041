package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	gyaml "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"
)

// YAML exposes a YAML document held by another store as JSON text. The
// layout and comments seen on the last read are reused when the edited JSON
// is written back as YAML.
type YAML struct {
	inner Store

	mu       sync.Mutex
	layout   layout
	comments gyaml.CommentMap
}

func NewYAML(inner Store) *YAML {
	return &YAML{inner: inner, layout: defaultLayout}
}

// DocumentText returns the document as JSON. An empty YAML document reads as
// an empty mapping.
func (y *YAML) DocumentText() (string, error) {
	raw, err := y.inner.DocumentText()
	if err != nil {
		return "", err
	}
	data := []byte(raw)
	if len(bytes.TrimSpace(data)) == 0 {
		y.remember(defaultLayout, nil)
		return "{}", nil
	}
	if err := checkSingleDocument(data); err != nil {
		return "", err
	}

	var v any
	comments := gyaml.CommentMap{}
	if err := gyaml.UnmarshalWithOptions(data, &v, gyaml.UseOrderedMap(), gyaml.CommentToMap(comments)); err != nil {
		return "", fmt.Errorf("store: failed to parse YAML: %w", err)
	}
	out, err := gyaml.MarshalWithOptions(v, gyaml.JSON())
	if err != nil {
		return "", fmt.Errorf("store: convert YAML to JSON: %w", err)
	}
	y.remember(detectLayout(data), comments)
	return string(out), nil
}

// SetDocumentText converts JSON text to YAML and writes it to the inner store.
func (y *YAML) SetDocumentText(text string) error {
	var v any
	if err := gyaml.UnmarshalWithOptions([]byte(text), &v, gyaml.UseOrderedMap()); err != nil {
		return fmt.Errorf("store: document is not JSON: %w", err)
	}

	y.mu.Lock()
	lay, comments := y.layout, y.comments
	y.mu.Unlock()

	out, err := encodeYAML(v, lay, comments)
	if err != nil && comments != nil {
		// Comments anchored to paths the edit removed cannot be placed.
		out, err = encodeYAML(v, lay, nil)
	}
	if err != nil {
		return fmt.Errorf("store: encode YAML: %w", err)
	}
	return y.inner.SetDocumentText(string(out))
}

func (y *YAML) remember(lay layout, comments gyaml.CommentMap) {
	y.mu.Lock()
	y.layout, y.comments = lay, comments
	y.mu.Unlock()
}

func encodeYAML(v any, lay layout, comments gyaml.CommentMap) ([]byte, error) {
	opts := []gyaml.EncodeOption{gyaml.Indent(lay.indent), gyaml.IndentSequence(lay.indentSeq)}
	if len(comments) > 0 {
		opts = append(opts, gyaml.WithComment(comments))
	}
	var buf bytes.Buffer
	enc := gyaml.NewEncoder(&buf, opts...)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkSingleDocument rejects streams holding more than one YAML document.
func checkSingleDocument(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var first yaml.Node
	if err := dec.Decode(&first); err != nil {
		return fmt.Errorf("store: failed to parse YAML: %w", err)
	}
	var next yaml.Node
	if err := dec.Decode(&next); !errors.Is(err, io.EOF) {
		if err != nil {
			return fmt.Errorf("store: failed to parse YAML: %w", err)
		}
		return errors.New("store: YAML holds more than one document")
	}
	return nil
}
