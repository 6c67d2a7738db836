package xmltree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCompact(t *testing.T) {
	root := New("wfs:Delete").SetAttr("typeName", "geoimage:zones")
	root.Append(New("ogc:Filter").Append(New("ogc:FeatureId").SetAttr("fid", "zones.1")))

	assert.Equal(t,
		`<wfs:Delete typeName="geoimage:zones"><ogc:Filter><ogc:FeatureId fid="zones.1"/></ogc:Filter></wfs:Delete>`,
		root.String())
}

func TestWriteEscapesTextAndAttributes(t *testing.T) {
	el := Text("geoimage:name", `Zone <A> & "B"`).SetAttr("note", `a"b<c`)

	out := el.String()
	assert.Equal(t, `<geoimage:name note="a&#34;b&lt;c">Zone &lt;A&gt; &amp; &#34;B&#34;</geoimage:name>`, out)

	parsed, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, `Zone <A> & "B"`, parsed.Text)
	v, ok := parsed.Attr("note")
	assert.True(t, ok)
	assert.Equal(t, `a"b<c`, v)
}

func TestWriteIndent(t *testing.T) {
	root := New("a").Append(Text("b", "x"), New("c").Append(New("d")))

	var buf bytes.Buffer
	require.NoError(t, root.WriteIndent(&buf, "", "  "))
	assert.Equal(t, "<a>\n  <b>x</b>\n  <c>\n    <d/>\n  </c>\n</a>\n", buf.String())
}

func TestWriteToCountsBytes(t *testing.T) {
	root := New("a").Append(Text("b", "x"))
	var buf bytes.Buffer
	n, err := root.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
}

func TestWriteRejectsUnnamedElement(t *testing.T) {
	root := New("a").Append(&Element{})
	var buf bytes.Buffer
	_, err := root.WriteTo(&buf)
	assert.Error(t, err)
}

func TestSetAttrReplaces(t *testing.T) {
	el := New("x").SetAttr("k", "1").SetAttr("k", "2")
	require.Len(t, el.Attrs, 1)
	assert.Equal(t, "2", el.Attrs[0].Value)
}

func TestParseKeepsPrefixes(t *testing.T) {
	doc := `<?xml version="1.0"?>
<wfs:TransactionResponse xmlns:wfs="http://www.opengis.net/wfs" version="1.1.0">
  <wfs:TransactionSummary>
    <wfs:totalInserted>2</wfs:totalInserted>
  </wfs:TransactionSummary>
  <!-- comment -->
</wfs:TransactionResponse>`

	root, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "wfs:TransactionResponse", root.Name)
	assert.Equal(t, "TransactionResponse", root.Local())
	ns, ok := root.Attr("xmlns:wfs")
	assert.True(t, ok)
	assert.Equal(t, "http://www.opengis.net/wfs", ns)

	summary := root.Child("TransactionSummary")
	require.NotNil(t, summary)
	assert.Equal(t, "2", summary.Child("totalInserted").Text)
	assert.Len(t, root.Find("totalInserted"), 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "mismatched", doc: "<a></b>"},
		{name: "unclosed", doc: "<a><b></b>"},
		{name: "two roots", doc: "<a/><b/>"},
		{name: "garbage", doc: "not xml <"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestChildrenNamed(t *testing.T) {
	root := New("gml:MultiSurface").Append(
		New("gml:surfaceMember"),
		New("gml:surfaceMember"),
		New("gml:other"),
	)
	assert.Len(t, root.ChildrenNamed("surfaceMember"), 2)
	assert.Nil(t, root.Child("missing"))
}
