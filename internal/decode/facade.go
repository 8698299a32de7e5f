package decode

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Observer receives one call per resolved or failed Decode.
type Observer interface {
	ObserveDecode(k Key, elapsed time.Duration, err error)
}

// Option configures a Facade at build time.
type Option func(*Facade)

// WithLogger sets the logger used for resolution misses and failures.
func WithLogger(l *zap.Logger) Option {
	return func(f *Facade) {
		if l != nil {
			f.log = l
		}
	}
}

// WithObserver installs a decode observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(f *Facade) { f.obs = o }
}

// Facade is the single decode entry point. It resolves a decoder for each
// node and invokes it; decoders recurse through the same Facade.
type Facade struct {
	reg *Registry
	log *zap.Logger
	obs Observer
}

func newFacade(opts ...Option) *Facade {
	f := &Facade{log: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the registry the facade resolves against.
func (f *Facade) Registry() *Registry { return f.reg }

// Decode resolves and invokes the decoder for n.
func (f *Facade) Decode(n *xmltree.Node) (any, error) {
	if n == nil {
		return nil, MissingParameter("node")
	}
	key := KeyOf(n)
	dec, ok := f.reg.Resolve(key)
	if !ok {
		err := UnsupportedInput(n.Name, "no decoder registered for "+ShapeOf(n).String())
		f.log.Debug("decoder not found", zap.Stringer("key", key))
		f.observe(key, 0, err)
		return nil, err
	}
	start := time.Now()
	out, err := f.invoke(n.Name, func() (any, error) { return dec.Decode(n) })
	f.observe(key, time.Since(start), err)
	if err != nil {
		f.log.Debug("decode failed",
			zap.Stringer("key", key),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}

// DecodeAll decodes a run of sibling elements. When every node has the same
// name and an ArrayDecoder is registered for that name it receives the whole
// run; otherwise each node is decoded individually and the first error stops
// the run.
func (f *Facade) DecodeAll(nodes []*xmltree.Node) ([]any, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if name, ok := homogeneous(nodes); ok {
		key := Key{Namespace: name.Space, Shape: ShapeElementArray, Local: name.Local}
		if dec, ok := f.reg.Resolve(key); ok {
			if ad, ok := dec.(ArrayDecoder); ok {
				start := time.Now()
				var out []any
				_, err := f.invoke(name, func() (any, error) {
					var derr error
					out, derr = ad.DecodeArray(nodes)
					return nil, derr
				})
				f.observe(key, time.Since(start), err)
				if err != nil {
					return nil, err
				}
				return out, nil
			}
		}
	}

	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		v, err := f.Decode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// invoke runs fn and turns a panic into NoApplicableCode so that a faulty
// decoder cannot take the caller down.
func (f *Facade) invoke(name xmltree.Name, fn func() (any, error)) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("decoder panicked", zap.Stringer("name", name), zap.Any("panic", r))
			out = nil
			err = NoApplicableCode(fmt.Sprintf("decoder for %s panicked: %v", name, r), nil)
		}
	}()
	return fn()
}

func (f *Facade) observe(k Key, elapsed time.Duration, err error) {
	if f.obs != nil {
		f.obs.ObserveDecode(k, elapsed, err)
	}
}

func homogeneous(nodes []*xmltree.Node) (xmltree.Name, bool) {
	name := nodes[0].Name
	for _, n := range nodes[1:] {
		if n.Name != name {
			return xmltree.Name{}, false
		}
	}
	return name, true
}

// As decodes n through d and asserts the result to T. A result of another
// type is InvalidParameterValue for parameter.
func As[T any](d Dispatcher, n *xmltree.Node, parameter string) (T, error) {
	var zero T
	v, err := d.Decode(n)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, InvalidParameterValuef(parameter, "expected %s, got %T",
			reflect.TypeOf((*T)(nil)).Elem(), v)
	}
	return t, nil
}
