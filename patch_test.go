package nodeedit

import (
	"bytes"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompact(t *testing.T, b []byte) string {
	t.Helper()
	out, err := compact(b)
	require.NoError(t, err, "compact %s", b)
	return string(out)
}

func decodeAny(t *testing.T, b []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestApplyMergesObjectsOneLevel(t *testing.T) {
	doc := []byte(`{"a": {"x": 1, "y": 2}}`)

	out, err := Apply(doc, Path{Key("a")}, `{"y": 9, "z": 3}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":1,"y":9,"z":3}}`, mustCompact(t, out))
}

func TestApplyReplacesArrays(t *testing.T) {
	doc := []byte(`{"a": [1, 2, 3]}`)

	out, err := Apply(doc, Path{Key("a")}, `[9, 9]`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[9,9]}`, mustCompact(t, out))
}

func TestApplyRootReplacement(t *testing.T) {
	doc := []byte(`{"keep": "nothing", "list": [1, 2]}`)

	out, err := Apply(doc, Path{}, `{"only": true}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"only\": true\n}", string(out))
}

func TestApplyRootReplacementWithScalar(t *testing.T) {
	out, err := Apply([]byte(`{"a": 1}`), nil, ` 42 `)
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))
}

func TestApplyDescendingIntoScalarFails(t *testing.T) {
	doc := []byte(`{"a": 1}`)
	before := bytes.Clone(doc)

	_, err := Apply(doc, Path{Key("a"), Key("b")}, `5`)
	var perr *PathResolutionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Depth)
	assert.Equal(t, before, doc, "document must not change")
}

func TestApplyParseErrorRegardlessOfPath(t *testing.T) {
	doc := []byte(`{"a": {"b": 1}}`)
	before := bytes.Clone(doc)

	for _, path := range []Path{
		{},
		{Key("a")},
		{Key("a"), Key("b")},
		{Key("missing"), Key("deeper"), Index(4)},
	} {
		_, err := Apply(doc, path, `{bad json`)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "path %s", path)
	}
	assert.Equal(t, before, doc)
}

func TestApplyRejectsTrailingData(t *testing.T) {
	doc := []byte(`{"k": {"x": 1}, "list": [1]}`)
	before := bytes.Clone(doc)

	for _, text := range []string{``, `1 2`, `{"a":1}}`, `[1]]`, `tru`, `nul`, `01`, `+1`, `{"a":1,}`, "\"\xff\""} {
		for _, path := range []Path{{Key("k")}, {Key("list"), Index(0)}, {}} {
			_, err := Apply(doc, path, text)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr, "text %q at %s", text, path)
		}
	}
	assert.Equal(t, before, doc)
}

func TestApplyEmptyKeys(t *testing.T) {
	doc := []byte(`{"": {"a": 1}}`)

	out, err := Apply(doc, Path{Key("")}, `{"b": 2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"":{"a":1,"b":2}}`, mustCompact(t, out))

	out, err = Apply(doc, Path{Key(""), Key("a")}, `5`)
	require.NoError(t, err)
	assert.Equal(t, `{"":{"a":5}}`, mustCompact(t, out))

	out, err = Apply([]byte(`{"x": {"": {"": [1, {"": 0}]}}}`), Path{Key("x"), Key(""), Key(""), Index(1)}, `{"": 9, "y": true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"x":{"":{"":[1,{"":9,"y":true}]}}}`, mustCompact(t, out))

	out, err = Apply([]byte(`{"x": {"": []}}`), Path{Key("x"), Key(""), Index(0)}, `"new"`)
	require.NoError(t, err)
	assert.Equal(t, `{"x":{"":["new"]}}`, mustCompact(t, out))
}

func TestApplyMissingIntermediateFails(t *testing.T) {
	doc := []byte(`{"a": {"b": {}}}`)

	_, err := Apply(doc, Path{Key("a"), Key("nope"), Key("c")}, `1`)
	var perr *PathResolutionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Depth)
	assert.Contains(t, err.Error(), `$["a"]["nope"]`)
}

func TestApplyThroughNullIntermediateFails(t *testing.T) {
	_, err := Apply([]byte(`{"a": null}`), Path{Key("a"), Key("b"), Key("c")}, `1`)
	var perr *PathResolutionError
	require.ErrorAs(t, err, &perr)
}

func TestApplySegmentKindMismatchFails(t *testing.T) {
	var perr *PathResolutionError

	_, err := Apply([]byte(`{"a": [1]}`), Path{Key("a"), Key("0")}, `2`)
	assert.ErrorAs(t, err, &perr)

	_, err = Apply([]byte(`{"a": {"0": 1}}`), Path{Key("a"), Index(0)}, `2`)
	assert.ErrorAs(t, err, &perr)
}

func TestApplyAddsNewKeyToExistingObject(t *testing.T) {
	out, err := Apply([]byte(`{"a": {"x": 1}}`), Path{Key("a"), Key("fresh")}, `"v"`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":1,"fresh":"v"}}`, mustCompact(t, out))
}

func TestApplyKeepsKeyOrderAndSiblings(t *testing.T) {
	doc := []byte(`{"a": 1, "b": {"k": [1, {"deep": true}]}, "c": 3}`)

	out, err := Apply(doc, Path{Key("a")}, `"changed"`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"changed","b":{"k":[1,{"deep":true}]},"c":3}`, mustCompact(t, out))
}

func TestApplyDoesNotMergeRecursively(t *testing.T) {
	doc := []byte(`{"a": {"n": {"p": 1, "q": 2}, "k": 1}}`)

	out, err := Apply(doc, Path{Key("a")}, `{"n": {"p": 5}}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"n":{"p":5},"k":1}}`, mustCompact(t, out))
}

func TestApplyReplacesWhenEitherSideIsNotAnObject(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		edit string
		want string
	}{
		{"scalar to object", `{"a": 1}`, `{"x": 1}`, `{"a":{"x":1}}`},
		{"null to object", `{"a": null}`, `{"x": 1}`, `{"a":{"x":1}}`},
		{"object to array", `{"a": {"x": 1}}`, `[1]`, `{"a":[1]}`},
		{"object to null", `{"a": {"x": 1}}`, `null`, `{"a":null}`},
		{"array to object", `{"a": [1]}`, `{"x": 1}`, `{"a":{"x":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply([]byte(tt.doc), Path{Key("a")}, tt.edit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustCompact(t, out))
		})
	}
}

func TestApplyArrayElements(t *testing.T) {
	doc := []byte(`{"list": [{"id": 1, "v": "a"}, 2]}`)

	out, err := Apply(doc, Path{Key("list"), Index(0)}, `{"v": "b"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[{"id":1,"v":"b"},2]}`, mustCompact(t, out))

	out, err = Apply(doc, Path{Key("list"), Index(1)}, `3`)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[{"id":1,"v":"a"},3]}`, mustCompact(t, out))

	out, err = Apply(doc, Path{Key("list"), Index(2)}, `"tail"`)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[{"id":1,"v":"a"},2,"tail"]}`, mustCompact(t, out))

	_, err = Apply(doc, Path{Key("list"), Index(5)}, `1`)
	var perr *PathResolutionError
	assert.ErrorAs(t, err, &perr)
}

func TestApplyOnArrayRoot(t *testing.T) {
	out, err := Apply([]byte(`  [{"a": 1}, 2]`), Path{Index(0)}, `{"b": 2}`)
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1,"b":2},2]`, mustCompact(t, out))
}

func TestApplyOnScalarRootFails(t *testing.T) {
	_, err := Apply([]byte(`"just a string"`), Path{Key("a")}, `1`)
	var perr *PathResolutionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Depth)
}

func TestApplyEscapedKeys(t *testing.T) {
	doc := []byte(`{"a/b": {"m~n": 1}}`)

	out, err := Apply(doc, Path{Key("a/b")}, `{"x/y": 2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a/b":{"m~n":1,"x/y":2}}`, mustCompact(t, out))
}

func TestApplyDoesNotEscapeHTML(t *testing.T) {
	out, err := Apply([]byte(`{"a": {"x": "<i>"}}`), Path{Key("a"), Key("y")}, `"<b>&"`)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"<i>"`)
	assert.Contains(t, string(out), `"<b>&"`)

	out, err = Apply([]byte(`{"a": "<>&"}`), Path{Key("b")}, `"<"`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"<>&\",\n  \"b\": \"<\"\n}", string(out))

	out, err = Apply([]byte(`["<"]`), Path{Index(1)}, `{"t": "</script>"}`)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `\u003c`)

	out, err = Apply(nil, nil, `{"s": "<&>"}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"s\": \"<&>\"\n}", string(out))
}

func TestApplyKeepsEscapedTextEscaped(t *testing.T) {
	out, err := Apply([]byte(`{"a": "\\u003c", "b": "tab\there"}`), Path{Key("c")}, `"\u00e9"`)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, map[string]string{"a": `\u003c`, "b": "tab\there", "c": "é"}, got)
}

func TestApplyInvalidDocument(t *testing.T) {
	_, err := Apply([]byte(`{"a":`), Path{Key("a")}, `1`)
	assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)
}

func TestApplyOutputIsIndented(t *testing.T) {
	out, err := Apply([]byte(`{"a":{"x":1}}`), Path{Key("a"), Key("x")}, `2`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {\n    \"x\": 2\n  }\n}", string(out))
}

func TestApplyUnchangedContentRoundTrips(t *testing.T) {
	doc := []byte(`{
  "fruit": {
    "name": "Apple",
    "price": 1.50,
    "organic": false,
    "origin": null,
    "details": {"type": "pome", "season": "fall"},
    "tags": ["red", "sweet"]
  },
  "count": 3
}`)

	for _, path := range []Path{
		{Key("fruit")},
		{Key("fruit"), Key("details")},
		{Key("fruit"), Key("name")},
		{Key("fruit"), Key("tags"), Index(1)},
		{Key("count")},
	} {
		node, err := NodeAt(doc, path)
		require.NoError(t, err, "NodeAt %s", path)

		out, err := Apply(doc, path, Format(node.Rows))
		require.NoError(t, err, "Apply %s", path)
		if diff := cmp.Diff(decodeAny(t, doc), decodeAny(t, out)); diff != "" {
			t.Fatalf("round trip at %s changed the document (-want +got):\n%s", path, diff)
		}
		assert.Equal(t, mustCompact(t, doc), mustCompact(t, out), "path %s", path)
	}
}
