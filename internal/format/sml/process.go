package sml

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Process is a decoded SensorML process description.
type Process struct {
	Kind        string      `json:"kind"`
	ID          string      `json:"id,omitempty"`
	Identifier  string      `json:"identifier"`
	Names       []string    `json:"names,omitempty"`
	Description string      `json:"description,omitempty"`
	Identifiers []Term      `json:"identifiers,omitempty"`
	Inputs      []IO        `json:"inputs,omitempty"`
	Outputs     []IO        `json:"outputs,omitempty"`
	Position    any         `json:"position,omitempty"`
	Components  []Component `json:"components,omitempty"`
	XML         string      `json:"-"`
}

// Term is an identifier or classifier entry.
type Term struct {
	Definition string `json:"definition,omitempty"`
	Label      string `json:"label,omitempty"`
	Value      string `json:"value"`
}

// IO is a named input or output. Value is the decoded content: a SWE
// Common component or an ObservableProperty.
type IO struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ObservableProperty is a bare input naming a phenomenon.
type ObservableProperty struct {
	Definition string `json:"definition"`
	Label      string `json:"label,omitempty"`
}

// Component is a member of a PhysicalSystem, given inline or by reference.
type Component struct {
	Name    string   `json:"name"`
	Href    string   `json:"href,omitempty"`
	Process *Process `json:"process,omitempty"`
}

func (dec *Decoder) process(n *xmltree.Node) (*Process, error) {
	p := &Process{
		Kind:        n.Name.Local,
		Identifier:  decode.OptionalText(n, gmlNamespace, "identifier"),
		Names:       decode.Texts(n, gmlNamespace, "name"),
		Description: decode.OptionalText(n, gmlNamespace, "description"),
		XML:         n.Raw(),
	}
	p.ID, _ = n.Attr(gmlNamespace, "id")
	if p.Identifier == "" {
		return nil, decode.MissingParameter("identifier")
	}

	var err error
	if p.Identifiers, err = terms(n); err != nil {
		return nil, err
	}
	if p.Inputs, err = dec.ioList(n, "inputs", "InputList", "input"); err != nil {
		return nil, err
	}
	if p.Outputs, err = dec.ioList(n, "outputs", "OutputList", "output"); err != nil {
		return nil, err
	}
	if pos := n.Child(Namespace, "position"); pos != nil {
		if p.Kind == KindSimpleProcess {
			return nil, decode.InvalidParameterValue("position", "a simple process has no position")
		}
		if p.Position, err = dec.d.Decode(pos); err != nil {
			return nil, err
		}
	}
	if p.Kind == KindPhysicalSystem {
		if p.Components, err = dec.components(n); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// terms reads identification/IdentifierList/identifier/Term entries.
func terms(n *xmltree.Node) ([]Term, error) {
	var out []Term
	for _, ident := range n.ChildrenNamed(Namespace, "identification") {
		list := ident.Child(Namespace, "IdentifierList")
		if list == nil {
			continue
		}
		for _, id := range list.ChildrenNamed(Namespace, "identifier") {
			term, err := decode.RequireChild(id, Namespace, "Term")
			if err != nil {
				return nil, err
			}
			value, err := decode.RequireText(term, Namespace, "value")
			if err != nil {
				return nil, err
			}
			def, _ := term.AttrLocal("definition")
			out = append(out, Term{
				Definition: def,
				Label:      decode.OptionalText(term, Namespace, "label"),
				Value:      value,
			})
		}
	}
	return out, nil
}

// ioList reads a named list of inputs or outputs. Each entry is a property
// whose content is decoded through the dispatcher; names are unique.
func (dec *Decoder) ioList(n *xmltree.Node, wrapper, list, entry string) ([]IO, error) {
	w := n.Child(Namespace, wrapper)
	if w == nil {
		return nil, nil
	}
	l, err := decode.RequireChild(w, Namespace, list)
	if err != nil {
		return nil, err
	}
	var out []IO
	seen := map[string]bool{}
	for _, e := range l.ChildrenNamed(Namespace, entry) {
		name, _ := e.AttrLocal("name")
		if name == "" {
			return nil, decode.MissingParameter("name")
		}
		if seen[name] {
			return nil, decode.InvalidParameterValuef(entry, "duplicate %s name %q", entry, name)
		}
		seen[name] = true
		v, err := dec.d.Decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, IO{Name: name, Value: v})
	}
	return out, nil
}

func (dec *Decoder) components(n *xmltree.Node) ([]Component, error) {
	w := n.Child(Namespace, "components")
	if w == nil {
		return nil, nil
	}
	l, err := decode.RequireChild(w, Namespace, "ComponentList")
	if err != nil {
		return nil, err
	}
	var out []Component
	for _, c := range l.ChildrenNamed(Namespace, "component") {
		name, _ := c.AttrLocal("name")
		if name == "" {
			return nil, decode.MissingParameter("name")
		}
		if href, ok := c.Href(); ok && len(c.Children) == 0 {
			out = append(out, Component{Name: name, Href: href})
			continue
		}
		p, err := decode.As[*Process](dec.d, c, "component")
		if err != nil {
			return nil, err
		}
		out = append(out, Component{Name: name, Process: p})
	}
	return out, nil
}
