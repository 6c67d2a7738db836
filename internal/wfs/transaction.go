package wfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jacksmith/zonesync/internal/codec"
	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/xmltree"
)

// Counts is the number of clauses of each kind in a transaction.
type Counts struct {
	Inserts int
	Updates int
	Deletes int
}

// Total returns the number of clauses.
func (c Counts) Total() int {
	return c.Inserts + c.Updates + c.Deletes
}

// Transaction is a built wfs:Transaction document.
type Transaction struct {
	root   *xmltree.Element
	counts Counts
}

// Root returns the document element.
func (t *Transaction) Root() *xmltree.Element { return t.root }

// Counts returns the number of Insert, Update and Delete clauses.
func (t *Transaction) Counts() Counts { return t.counts }

// WriteTo writes the compact document.
func (t *Transaction) WriteTo(w io.Writer) (int64, error) {
	return t.root.WriteTo(w)
}

// Bytes returns the compact document.
func (t *Transaction) Bytes() []byte {
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

func (t *Transaction) String() string { return string(t.Bytes()) }

// Indent returns the document with one element per line, for display.
func (t *Transaction) Indent() string {
	var buf bytes.Buffer
	if err := t.root.WriteIndent(&buf, "", "  "); err != nil {
		return ""
	}
	return buf.String()
}

// Builder writes transactions for one schema.
type Builder struct {
	schema Schema
}

// NewBuilder returns a Builder for schema.
func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Schema returns the builder's schema.
func (b *Builder) Schema() Schema { return b.schema }

// Build writes one transaction holding every insert, then every update,
// then every delete, each group in the order given. It returns
// model.ErrNoChanges when there is nothing to write.
func (b *Builder) Build(inserts, updates []model.Feature, deletes []string) (*Transaction, error) {
	if len(inserts) == 0 && len(updates) == 0 && len(deletes) == 0 {
		return nil, model.ErrNoChanges
	}

	root := b.root()
	for _, f := range inserts {
		el, err := b.insert(f)
		if err != nil {
			return nil, err
		}
		root.Append(el)
	}
	for _, f := range updates {
		el, err := b.update(f)
		if err != nil {
			return nil, err
		}
		root.Append(el)
	}
	for _, id := range deletes {
		if id == "" {
			return nil, fmt.Errorf("delete: empty feature ID")
		}
		root.Append(xmltree.New("wfs:Delete").
			SetAttr("typeName", b.schema.TypeName()).
			Append(featureIDFilter(id)))
	}

	return &Transaction{
		root:   root,
		counts: Counts{Inserts: len(inserts), Updates: len(updates), Deletes: len(deletes)},
	}, nil
}

// BuildPending is Build over a pending snapshot.
func (b *Builder) BuildPending(p model.Pending) (*Transaction, error) {
	return b.Build(p.Inserted, p.Modified, p.Deleted)
}

func (b *Builder) root() *xmltree.Element {
	return xmltree.New("wfs:Transaction").
		SetAttr("service", "WFS").
		SetAttr("version", Version).
		SetAttr("xmlns:wfs", NamespaceWFS).
		SetAttr("xmlns:ogc", NamespaceOGC).
		SetAttr("xmlns:gml", NamespaceGML).
		SetAttr("xmlns:"+b.schema.Prefix, b.schema.NamespaceURI).
		SetAttr("xmlns:xsi", NamespaceXSI).
		SetAttr("xsi:schemaLocation", SchemaLocation)
}

func (b *Builder) insert(f model.Feature) (*xmltree.Element, error) {
	geom, err := codec.GeometryElement(f.Geometry, b.schema.SRSName)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", f.ID, err)
	}
	s := b.schema
	return xmltree.New("wfs:Insert").Append(
		xmltree.New(s.TypeName()).Append(
			xmltree.New(s.qualify(s.GeometryField)).Append(geom),
			xmltree.Text(s.qualify(s.NameField), f.Name()),
			xmltree.Text(s.qualify(s.TypeField), f.Type()),
		),
	), nil
}

func (b *Builder) update(f model.Feature) (*xmltree.Element, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("update: empty feature ID")
	}
	geom, err := codec.GeometryElement(f.Geometry, b.schema.SRSName)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", f.ID, err)
	}
	s := b.schema
	return xmltree.New("wfs:Update").
		SetAttr("typeName", s.TypeName()).
		Append(
			property(s.GeometryField, xmltree.New("wfs:Value").Append(geom)),
			property(s.NameField, xmltree.Text("wfs:Value", f.Name())),
			property(s.TypeField, xmltree.Text("wfs:Value", f.Type())),
			featureIDFilter(f.ID),
		), nil
}

func property(name string, value *xmltree.Element) *xmltree.Element {
	return xmltree.New("wfs:Property").Append(xmltree.Text("wfs:Name", name), value)
}

func featureIDFilter(id string) *xmltree.Element {
	return xmltree.New("ogc:Filter").Append(xmltree.New("ogc:FeatureId").SetAttr("fid", id))
}
