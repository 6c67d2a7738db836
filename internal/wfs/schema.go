// Package wfs speaks the small part of OGC WFS 1.1.0 the zone store needs:
// building Transaction documents, deriving GetFeature URLs, and reading
// the server's answer.
package wfs

import (
	"fmt"
	"strings"

	"github.com/jacksmith/zonesync/internal/codec"
)

// Namespaces declared on every transaction.
const (
	NamespaceWFS   = "http://www.opengis.net/wfs"
	NamespaceOGC   = "http://www.opengis.net/ogc"
	NamespaceGML   = "http://www.opengis.net/gml"
	NamespaceXSI   = "http://www.w3.org/2001/XMLSchema-instance"
	SchemaLocation = "http://www.opengis.net/wfs http://schemas.opengis.net/wfs/1.1.0/wfs.xsd"

	Version = "1.1.0"
)

// Schema describes the feature type transactions are written against.
type Schema struct {
	FeatureType   string // unprefixed type name, e.g. "zones"
	Prefix        string // namespace prefix, e.g. "geoimage"
	NamespaceURI  string
	GeometryField string
	NameField     string
	TypeField     string
	SRSName       string // srsName written on geometries
}

// DefaultSchema is the zones layer published by the GeoImage server.
var DefaultSchema = Schema{
	FeatureType:   "zones",
	Prefix:        "geoimage",
	NamespaceURI:  "http://www.geoimagesolutions.com",
	GeometryField: "geom",
	NameField:     "name",
	TypeField:     "type",
	SRSName:       codec.URNX4326,
}

// TypeName returns the qualified type name, e.g. "geoimage:zones".
func (s Schema) TypeName() string {
	return s.Prefix + ":" + s.FeatureType
}

func (s Schema) qualify(field string) string {
	return s.Prefix + ":" + field
}

// Validate checks that every name needed to write a transaction is set.
func (s Schema) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"feature type", s.FeatureType},
		{"namespace prefix", s.Prefix},
		{"namespace URI", s.NamespaceURI},
		{"geometry field", s.GeometryField},
		{"name field", s.NameField},
		{"type field", s.TypeField},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("schema: %s is required", f.name)
		}
	}
	if strings.Contains(s.Prefix, ":") || strings.Contains(s.FeatureType, ":") {
		return fmt.Errorf("schema: prefix and feature type must not contain ':'")
	}
	if reservedPrefixes[s.Prefix] {
		return fmt.Errorf("schema: namespace prefix %q is reserved", s.Prefix)
	}
	return codec.CheckCRS(s.SRSName)
}

// reservedPrefixes are bound by every transaction document.
var reservedPrefixes = map[string]bool{
	"wfs": true, "ogc": true, "gml": true, "xsi": true, "xml": true, "xmlns": true,
}

// ParseTypeName splits "prefix:type" into its parts.
func ParseTypeName(typeName string) (prefix, featureType string, err error) {
	prefix, featureType, ok := strings.Cut(strings.TrimSpace(typeName), ":")
	if !ok || prefix == "" || featureType == "" || strings.Contains(featureType, ":") {
		return "", "", fmt.Errorf("invalid feature type name %q: want prefix:type", typeName)
	}
	return prefix, featureType, nil
}
