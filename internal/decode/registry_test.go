package decode

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

const testNS = "urn:test"

// stubDecoder returns its tag for every node it accepts.
type stubDecoder struct {
	keys []Key
	tag  string
	fn   func(n *xmltree.Node) (any, error)
}

func (s *stubDecoder) Keys() []Key                  { return s.keys }
func (s *stubDecoder) ContentTypes() []string       { return []string{"text/xml"} }
func (s *stubDecoder) ConformanceClasses() []string { return []string{"urn:conf:" + s.tag} }
func (s *stubDecoder) Decode(n *xmltree.Node) (any, error) {
	if s.fn != nil {
		return s.fn(n)
	}
	return s.tag, nil
}

func stub(tag string, keys ...Key) Factory {
	return func(Dispatcher) Decoder { return &stubDecoder{keys: keys, tag: tag} }
}

func mustParse(t *testing.T, s string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.ParseString(s)
	require.NoError(t, err)
	return n
}

func TestShapeOf(t *testing.T) {
	root := mustParse(t, `<t:Doc xmlns:t="urn:test"><t:member><t:Point/></t:member></t:Doc>`)
	assert.Equal(t, ShapeDocument, ShapeOf(root))
	member := root.FirstElement()
	assert.Equal(t, ShapeProperty, ShapeOf(member))
	assert.Equal(t, ShapeElement, ShapeOf(member.FirstElement()))
}

func TestResolve_ExactBeatsWildcard(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("wild", Key{Namespace: testNS, Shape: ShapeElement}))
	b.Register(stub("exact", Key{Namespace: testNS, Shape: ShapeElement, Local: "Point"}))
	reg := b.Build().Registry()

	d, ok := reg.Resolve(Key{Namespace: testNS, Shape: ShapeElement, Local: "Point"})
	require.True(t, ok)
	assert.Equal(t, "exact", d.(*stubDecoder).tag)

	d, ok = reg.Resolve(Key{Namespace: testNS, Shape: ShapeElement, Local: "Line"})
	require.True(t, ok)
	assert.Equal(t, "wild", d.(*stubDecoder).tag)
}

func TestResolve_FirstRegisteredWinsOnTies(t *testing.T) {
	k := Key{Namespace: testNS, Shape: ShapeElement, Local: "Point"}
	b := NewBuilder()
	b.Register(stub("first", k))
	b.Register(stub("second", k))

	d, ok := b.Build().Registry().Resolve(k)
	require.True(t, ok)
	assert.Equal(t, "first", d.(*stubDecoder).tag)
}

func TestResolve_DocumentFallsBackToElement(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("el", ElementKeys(testNS, "Point")...))
	reg := b.Build().Registry()

	_, ok := reg.Resolve(Key{Namespace: testNS, Shape: ShapeDocument, Local: "Point"})
	assert.True(t, ok)

	_, ok = reg.Resolve(Key{Namespace: testNS, Shape: ShapeProperty, Local: "Point"})
	assert.False(t, ok)
}

func TestResolve_UnknownNamespace(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("el", ElementKeys(testNS, "Point")...))
	f := b.Build()

	_, ok := f.Registry().Resolve(Key{Namespace: "urn:other", Shape: ShapeDocument, Local: "Point"})
	assert.False(t, ok)

	_, err := f.Decode(mustParse(t, `<Point xmlns="urn:other"/>`))
	require.Error(t, err)
	assert.True(t, IsUnsupportedInput(err))

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "{urn:other}Point", de.Name)
}

func TestBuilder_RegisterAfterBuildPanics(t *testing.T) {
	b := NewBuilder()
	b.Build()
	assert.Panics(t, func() { b.Register(stub("late", ElementKeys(testNS, "X")...)) })
}

func TestRegistry_Introspection(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("b", ElementKeys(testNS, "B", "A")...))
	b.Register(stub("a", DocumentKeys(testNS, "Doc")...))
	reg := b.Build().Registry()

	keys := reg.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, "A", keys[0].Local)
	assert.Equal(t, "B", keys[1].Local)
	assert.Equal(t, ShapeDocument, keys[2].Shape)

	assert.Len(t, reg.Decoders(), 2)
	ct, cc := reg.Capabilities()
	assert.Equal(t, []string{"text/xml"}, ct)
	assert.Equal(t, []string{"urn:conf:a", "urn:conf:b"}, cc)
}

func TestFacade_RecursesThroughDispatcher(t *testing.T) {
	b := NewBuilder()
	b.Register(func(d Dispatcher) Decoder {
		return &stubDecoder{
			keys: DocumentKeys(testNS, "Outer"),
			fn: func(n *xmltree.Node) (any, error) {
				inner, err := d.Decode(n.FirstElement())
				if err != nil {
					return nil, err
				}
				return "outer(" + inner.(string) + ")", nil
			},
		}
	})
	b.Register(stub("inner", ElementKeys(testNS, "Inner")...))
	f := b.Build()

	out, err := f.Decode(mustParse(t, `<Outer xmlns="urn:test"><Inner/></Outer>`))
	require.NoError(t, err)
	assert.Equal(t, "outer(inner)", out)
}

func TestFacade_PanicBecomesNoApplicableCode(t *testing.T) {
	b := NewBuilder()
	b.Register(func(Dispatcher) Decoder {
		return &stubDecoder{
			keys: ElementKeys(testNS, "Boom"),
			fn:   func(*xmltree.Node) (any, error) { panic("boom") },
		}
	})
	f := b.Build()

	_, err := f.Decode(mustParse(t, `<Boom xmlns="urn:test"/>`))
	require.Error(t, err)
	assert.True(t, IsNoApplicableCode(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestFacade_NilNode(t *testing.T) {
	_, err := NewBuilder().Build().Decode(nil)
	assert.True(t, IsMissingParameter(err))
}

type arrayStub struct{ stubDecoder }

func (a *arrayStub) DecodeArray(nodes []*xmltree.Node) ([]any, error) {
	return []any{len(nodes)}, nil
}

func TestFacade_DecodeAll(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("item", ElementKeys(testNS, "Item", "Other")...))
	b.Register(func(Dispatcher) Decoder {
		return &arrayStub{stubDecoder{keys: []Key{{Namespace: testNS, Shape: ShapeElementArray, Local: "Batch"}}}}
	})
	f := b.Build()

	root := mustParse(t, `<r xmlns="urn:test"><Item/><Other/></r>`)
	out, err := f.DecodeAll(root.Children)
	require.NoError(t, err)
	assert.Equal(t, []any{"item", "item"}, out)

	root = mustParse(t, `<r xmlns="urn:test"><Batch/><Batch/><Batch/></r>`)
	out, err = f.DecodeAll(root.Children)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out)

	root = mustParse(t, `<r xmlns="urn:test"><Item/><Unknown/></r>`)
	_, err = f.DecodeAll(root.Children)
	assert.True(t, IsUnsupportedInput(err))
}

type recordingObserver struct {
	mu   sync.Mutex
	keys []Key
	errs []error
}

func (r *recordingObserver) ObserveDecode(k Key, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, k)
	r.errs = append(r.errs, err)
}

func TestFacade_Observer(t *testing.T) {
	obs := &recordingObserver{}
	b := NewBuilder()
	b.Register(stub("item", ElementKeys(testNS, "Item")...))
	f := b.Build(WithObserver(obs))

	_, err := f.Decode(mustParse(t, `<Item xmlns="urn:test"/>`))
	require.NoError(t, err)
	_, err = f.Decode(mustParse(t, `<Nope xmlns="urn:test"/>`))
	require.Error(t, err)

	require.Len(t, obs.keys, 2)
	assert.Equal(t, ShapeDocument, obs.keys[0].Shape)
	assert.NoError(t, obs.errs[0])
	assert.True(t, IsUnsupportedInput(obs.errs[1]))
}

func TestAs(t *testing.T) {
	b := NewBuilder()
	b.Register(stub("item", ElementKeys(testNS, "Item")...))
	f := b.Build()
	n := mustParse(t, `<Item xmlns="urn:test"/>`)

	s, err := As[string](f, n, "item")
	require.NoError(t, err)
	assert.Equal(t, "item", s)

	_, err = As[int](f, n, "item")
	require.Error(t, err)
	assert.True(t, IsInvalidParameterValue(err))
	assert.Contains(t, err.Error(), "expected int")
}

func TestPropertyDecoder(t *testing.T) {
	b := NewBuilder()
	b.Register(PropertyFactory(testNS))
	b.Register(stub("point", ElementKeys(testNS, "Point")...))
	f := b.Build()

	root := mustParse(t, `<Doc xmlns="urn:test" xmlns:xlink="http://www.w3.org/1999/xlink">
	  <member><Point/></member>
	  <member xlink:href="http://example.org/p1" xlink:title="P1"/>
	  <member/>
	  <member><Point/><Point/></member>
	</Doc>`)

	out, err := f.Decode(root.Children[0])
	require.NoError(t, err)
	assert.Equal(t, "point", out)

	out, err = f.Decode(root.Children[1])
	require.NoError(t, err)
	assert.Equal(t, ir.Reference{Href: "http://example.org/p1", Title: "P1"}, out)

	_, err = f.Decode(root.Children[2])
	assert.True(t, IsMissingParameter(err))

	_, err = f.Decode(root.Children[3])
	assert.True(t, IsInvalidParameterValue(err))
}

func TestDefault_IsBuiltOnce(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
	assert.Panics(t, func() { Register(stub("late", ElementKeys(testNS, "Late")...)) })
}
