package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrTooManyNodes is returned by Parse when the document exceeds the
// configured element ceiling.
var ErrTooManyNodes = errors.New("xml document exceeds element limit")

// Option configures Parse.
type Option func(*parseOptions)

type parseOptions struct {
	maxNodes int
}

// WithMaxNodes bounds the number of elements Parse will build. Zero means
// unbounded.
func WithMaxNodes(n int) Option {
	return func(o *parseOptions) { o.maxNodes = n }
}

// Parse builds a node tree from a complete XML document and returns its
// document element.
func Parse(data []byte, opts ...Option) (*Node, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root   *Node
		stack  []*Node
		starts []int64
		count  int
	)

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			count++
			if o.maxNodes > 0 && count > o.maxNodes {
				return nil, fmt.Errorf("%w (%d)", ErrTooManyNodes, o.maxNodes)
			}
			n := &Node{
				Name:  Name{Space: t.Name.Space, Local: t.Name.Local},
				Attrs: convertAttrs(t.Attr),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse xml: multiple document elements")
				}
				n.root = true
				root = n
			} else {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			starts = append(starts, offset)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected end element %s", t.Name.Local)
			}
			n := stack[len(stack)-1]
			start := starts[len(starts)-1]
			stack = stack[:len(stack)-1]
			starts = starts[:len(starts)-1]
			n.raw = string(data[start:dec.InputOffset()])

		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parse xml: no document element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("parse xml: unclosed element %s", stack[len(stack)-1].Name.Local)
	}
	return root, nil
}

// ParseString is Parse for string input.
func ParseString(s string, opts ...Option) (*Node, error) {
	return Parse([]byte(s), opts...)
}

// convertAttrs drops namespace declarations and converts the rest.
func convertAttrs(in []xml.Attr) []Attr {
	out := make([]Attr, 0, len(in))
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, Attr{Name: Name{Space: a.Name.Space, Local: a.Name.Local}, Value: a.Value})
	}
	return out
}
