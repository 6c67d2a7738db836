// Package xmltree is a small typed element tree with a deterministic
// writer and a prefix-preserving parser.
//
// Names are kept as written ("wfs:Insert"), so documents can be assembled
// without an in-memory namespace resolver. Text and attribute values are
// always escaped on output.
package xmltree

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Attr is a single attribute. Attributes are written in insertion order.
type Attr struct {
	Name  string
	Value string
}

// Element is an XML element with either child elements or text.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// New returns an element with the given qualified name.
func New(name string) *Element {
	return &Element{Name: name}
}

// Text returns an element holding only text.
func Text(name, text string) *Element {
	return &Element{Name: name, Text: text}
}

// SetAttr sets an attribute, replacing an existing one with the same name.
func (e *Element) SetAttr(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Local returns the element name without its prefix.
func (e *Element) Local() string {
	return LocalName(e.Name)
}

// Child returns the first child whose local name matches.
func (e *Element) Child(local string) *Element {
	for _, c := range e.Children {
		if c.Local() == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child whose local name matches.
func (e *Element) ChildrenNamed(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Local() == local {
			out = append(out, c)
		}
	}
	return out
}

// Find walks the tree depth-first and returns every element whose local
// name matches, including e itself.
func (e *Element) Find(local string) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		if n.Local() == local {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// LocalName strips a "prefix:" from name.
func LocalName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// WriteTo writes e without any added whitespace.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	if err := e.write(cw, "", "", 0); err != nil {
		return cw.n, err
	}
	return cw.n, cw.w.Flush()
}

// WriteIndent writes e with each element on its own line. Elements holding
// text stay on one line, so text values are unchanged.
func (e *Element) WriteIndent(w io.Writer, prefix, indent string) error {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	if err := e.write(cw, prefix, indent, 0); err != nil {
		return err
	}
	if _, err := cw.WriteString("\n"); err != nil {
		return err
	}
	return cw.w.Flush()
}

// String returns the compact serialization of e.
func (e *Element) String() string {
	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (e *Element) write(w *countingWriter, prefix, indent string, depth int) error {
	if e.Name == "" {
		return errors.New("xmltree: element without a name")
	}
	pretty := indent != "" || prefix != ""
	if pretty && depth > 0 {
		w.WriteString("\n")
	}
	if pretty {
		w.WriteString(prefix)
		w.WriteString(strings.Repeat(indent, depth))
	}

	w.WriteString("<")
	w.WriteString(e.Name)
	for _, a := range e.Attrs {
		w.WriteString(" ")
		w.WriteString(a.Name)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return err
		}
		w.WriteString(`"`)
	}
	if len(e.Children) == 0 && e.Text == "" {
		_, err := w.WriteString("/>")
		return err
	}
	w.WriteString(">")

	if e.Text != "" {
		if err := xml.EscapeText(w, []byte(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.write(w, prefix, indent, depth+1); err != nil {
			return err
		}
	}
	if pretty && len(e.Children) > 0 {
		w.WriteString("\n")
		w.WriteString(prefix)
		w.WriteString(strings.Repeat(indent, depth))
	}

	w.WriteString("</")
	w.WriteString(e.Name)
	_, err := w.WriteString(">")
	return err
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) WriteString(s string) (int, error) {
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	return n, err
}

// Parse reads a single document. Prefixes are kept in element and
// attribute names; namespace declarations stay as ordinary attributes.
// Character data is concatenated into Text with surrounding whitespace
// trimmed.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var stack []*Element
	var root *Element
	var text []*strings.Builder

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root != nil {
				return nil, errors.New("xmltree: more than one root element")
			} else {
				root = el
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("xmltree: unexpected </%s>", qualified(t.Name))
			}
			el := stack[len(stack)-1]
			if el.Name != qualified(t.Name) {
				return nil, fmt.Errorf("xmltree: </%s> closes <%s>", qualified(t.Name), el.Name)
			}
			el.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("xmltree: empty document")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("xmltree: unclosed <%s>", stack[len(stack)-1].Name)
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
