package decode

import (
	"fmt"
	"sort"
	"sync"

	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Dispatcher is the decode capability handed to every decoder. Decoders
// call back into it for nested elements of unknown shape instead of calling
// each other directly.
type Dispatcher interface {
	Decode(n *xmltree.Node) (any, error)
	DecodeAll(nodes []*xmltree.Node) ([]any, error)
}

// Decoder turns one node into a typed value.
type Decoder interface {
	// Keys lists the registry keys the decoder accepts.
	Keys() []Key

	// ContentTypes lists the media types of the documents it reads.
	ContentTypes() []string

	// ConformanceClasses lists the conformance class URIs it implements.
	ConformanceClasses() []string

	Decode(n *xmltree.Node) (any, error)
}

// ArrayDecoder is implemented by decoders registered for ShapeElementArray
// keys that decode a run of sibling elements in one call.
type ArrayDecoder interface {
	Decoder
	DecodeArray(nodes []*xmltree.Node) ([]any, error)
}

// Factory creates a decoder bound to the dispatcher of the registry being
// built.
type Factory func(d Dispatcher) Decoder

// Builder collects factories before the registry is built. It is the only
// mutable stage; Build freezes it.
type Builder struct {
	mu        sync.Mutex
	factories []Factory
	frozen    bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Register adds a factory. Panics once the builder has been built.
func (b *Builder) Register(f Factory) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		panic("decode: Register called after the registry was built")
	}
	if f == nil {
		panic("decode: nil factory")
	}
	b.factories = append(b.factories, f)
}

// Build freezes the builder and returns a dispatcher over a new immutable
// registry. Each call instantiates fresh decoders bound to the returned
// dispatcher, so differently configured dispatchers can share one builder.
func (b *Builder) Build(opts ...Option) *Facade {
	b.mu.Lock()
	b.frozen = true
	factories := make([]Factory, len(b.factories))
	copy(factories, b.factories)
	b.mu.Unlock()

	f := newFacade(opts...)
	reg := &Registry{entries: make(map[Key][]Decoder)}
	for _, factory := range factories {
		dec := factory(f)
		reg.decoders = append(reg.decoders, dec)
		for _, k := range dec.Keys() {
			reg.entries[k] = append(reg.entries[k], dec)
		}
	}
	f.reg = reg
	return f
}

// Registry is the read-only lookup table from keys to decoders. It is never
// mutated after Build returns and is safe for concurrent use.
type Registry struct {
	entries  map[Key][]Decoder
	decoders []Decoder
}

// Resolve finds the decoder for a key: the exact key first, then the
// namespace wildcard. Document-shaped keys fall back to element-shaped keys.
// When several decoders share a key the first registered is returned; which
// one that is depends on init order and is not guaranteed.
func (r *Registry) Resolve(k Key) (Decoder, bool) {
	for _, c := range candidates(k) {
		if decs := r.entries[c]; len(decs) > 0 {
			return decs[0], true
		}
	}
	return nil, false
}

func candidates(k Key) []Key {
	out := []Key{k, k.Wildcard()}
	if k.Shape == ShapeDocument {
		el := Key{Namespace: k.Namespace, Shape: ShapeElement, Local: k.Local}
		out = append(out, el, el.Wildcard())
	}
	return out
}

// Keys returns every registered key, sorted.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

// Decoders returns the decoders in registration order.
func (r *Registry) Decoders() []Decoder {
	out := make([]Decoder, len(r.decoders))
	copy(out, r.decoders)
	return out
}

// Capabilities aggregates the advertised content types and conformance
// classes of all decoders, deduplicated and sorted.
func (r *Registry) Capabilities() (contentTypes, conformance []string) {
	ct := map[string]bool{}
	cc := map[string]bool{}
	for _, d := range r.decoders {
		for _, c := range d.ContentTypes() {
			ct[c] = true
		}
		for _, c := range d.ConformanceClasses() {
			cc[c] = true
		}
	}
	return sortedSet(ct), sortedSet(cc)
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// --- Default registry ---

var (
	defaultBuilder = NewBuilder()
	defaultOnce    sync.Once
	defaultFacade  *Facade
)

// Register adds a factory to the default builder. Format packages call it
// from init.
func Register(f Factory) {
	defaultBuilder.Register(f)
}

// DefaultBuilder returns the builder format packages register with. Build
// it with options to obtain an instrumented dispatcher.
func DefaultBuilder() *Builder {
	return defaultBuilder
}

// Default returns the dispatcher over the default registry, building it on
// first use.
func Default() *Facade {
	defaultOnce.Do(func() {
		defaultFacade = defaultBuilder.Build()
	})
	return defaultFacade
}

// String is used in diagnostics.
func (r *Registry) String() string {
	return fmt.Sprintf("registry(%d decoders, %d keys)", len(r.decoders), len(r.entries))
}
