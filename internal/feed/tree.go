package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

const textKey = "#text"

// object is an XML element converted to a keyed value. Child elements and
// attributes become keys in document order; repeated children collapse into
// a []any under one key. attrs marks the keys that came from attributes.
type object struct {
	keys   []string
	values map[string]any
	attrs  map[string]bool
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) addAttr(key, v string) {
	if o.attrs == nil {
		o.attrs = make(map[string]bool)
	}
	if _, exists := o.values[key]; !exists {
		o.attrs[key] = true
	}
	o.add(key, v)
}

// children returns the keys that came from child elements or text.
func (o *object) children() []string {
	if len(o.attrs) == 0 {
		return o.keys
	}
	out := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		if !o.attrs[k] {
			out = append(out, k)
		}
	}
	return out
}

func (o *object) get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *object) add(key string, v any) {
	prev, exists := o.values[key]
	if !exists {
		o.keys = append(o.keys, key)
		o.values[key] = v
		return
	}
	if list, ok := prev.([]any); ok {
		o.values[key] = append(list, v)
		return
	}
	o.values[key] = []any{prev, v}
}

// MarshalJSON keeps document order so stored raw payloads read like the feed.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseTree decodes an XML document into a root object keyed by the root
// element name. Text-only elements become strings.
func parseTree(r io.Reader) (*object, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}
	root := newObject()
	elements := 0
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root.add(elementKey(n), convert(n))
			elements++
		}
	}
	switch {
	case elements == 0:
		return nil, errors.New("document has no root element")
	case elements > 1:
		return nil, fmt.Errorf("document has %d root elements", elements)
	}
	return root, nil
}

func convert(n *xmlquery.Node) any {
	obj := newObject()
	for _, a := range n.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		obj.addAttr(a.Name.Local, a.Value)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			obj.add(elementKey(c), convert(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		}
	}

	t := strings.TrimSpace(text.String())
	if len(obj.keys) == 0 {
		return t
	}
	if t != "" {
		obj.add(textKey, t)
	}
	return obj
}

// elementKey is the element name with its prefix, e.g. "dc:date". Elements
// in a default namespace keep the bare local name.
func elementKey(n *xmlquery.Node) string {
	if n.Prefix == "" || strings.ContainsAny(n.Prefix, "/.") {
		return n.Data
	}
	return fmt.Sprintf("%s:%s", n.Prefix, n.Data)
}

// asList returns v as a list, wrapping a single value.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// firstArray walks the tree depth first in document order and returns the
// first repeated element it meets.
func firstArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case *object:
		for _, k := range t.keys {
			if list, ok := firstArray(t.values[k]); ok {
				return list, true
			}
		}
	}
	return nil, false
}
