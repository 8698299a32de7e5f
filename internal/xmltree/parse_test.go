package xmltree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<gml:Point xmlns:gml="http://www.opengis.net/gml/3.2" xmlns:xlink="http://www.w3.org/1999/xlink"
    gml:id="p1" srsName="EPSG:4326" xlink:href="#x">
  <gml:pos>52.0 7.5</gml:pos>
  <gml:name>first</gml:name>
  <gml:name>second</gml:name>
</gml:Point>`

func TestParse_NamesAndAttributes(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)

	assert.True(t, root.IsRoot())
	assert.Equal(t, Name{Space: "http://www.opengis.net/gml/3.2", Local: "Point"}, root.Name)
	assert.Equal(t, "{http://www.opengis.net/gml/3.2}Point", root.Name.String())

	srs, ok := root.AttrLocal("srsName")
	require.True(t, ok)
	assert.Equal(t, "EPSG:4326", srs)

	id, ok := root.Attr("http://www.opengis.net/gml/3.2", "id")
	require.True(t, ok)
	assert.Equal(t, "p1", id)

	href, ok := root.Href()
	require.True(t, ok)
	assert.Equal(t, "#x", href)

	for _, a := range root.Attrs {
		assert.NotEqual(t, "xmlns", a.Name.Space, "namespace declarations are dropped")
	}
}

func TestParse_ChildrenAndText(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)

	require.Len(t, root.Children, 3)
	pos := root.Child("http://www.opengis.net/gml/3.2", "pos")
	require.NotNil(t, pos)
	assert.Equal(t, "52.0 7.5", pos.Text())
	assert.False(t, pos.IsRoot())
	assert.Same(t, root, pos.Parent)

	names := root.ChildrenNamed("http://www.opengis.net/gml/3.2", "name")
	require.Len(t, names, 2)
	assert.Equal(t, "second", names[1].Text())

	assert.Same(t, pos, root.ChildLocal("pos"))
	assert.Same(t, pos, root.FirstElement())
	assert.Nil(t, pos.FirstElement())
}

func TestParse_RawSubtree(t *testing.T) {
	root, err := ParseString(sample)
	require.NoError(t, err)

	pos := root.ChildLocal("pos")
	assert.Equal(t, "<gml:pos>52.0 7.5</gml:pos>", pos.Raw())
	assert.Contains(t, root.Raw(), "<gml:Point")
	assert.Contains(t, root.Raw(), "</gml:Point>")
}

func TestParse_SelfClosingRaw(t *testing.T) {
	root, err := ParseString(`<a><b x="1"/></a>`)
	require.NoError(t, err)
	assert.Equal(t, `<b x="1"/>`, root.FirstElement().Raw())
}

func TestParse_MaxNodes(t *testing.T) {
	_, err := ParseString(`<a><b/><c/><d/></a>`, WithMaxNodes(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyNodes))

	_, err = ParseString(`<a><b/><c/></a>`, WithMaxNodes(3))
	require.NoError(t, err)
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		``,
		`<a>`,
		`<a></b>`,
		`just text`,
	}
	for _, in := range cases {
		_, err := ParseString(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestWalk(t *testing.T) {
	root, err := ParseString(`<a><b><c/></b><d/></a>`)
	require.NoError(t, err)

	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Name.Local)
		return n.Name.Local != "b"
	})
	assert.Equal(t, []string{"a", "b", "d"}, seen)
}
