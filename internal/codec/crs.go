package codec

import (
	"fmt"
	"strings"
)

// Common names for WGS 84 geographic coordinates.
const (
	EPSG4326    = "EPSG:4326"
	URNX4326    = "urn:x-ogc:def:crs:EPSG:4326"
	URNOGC4326  = "urn:ogc:def:crs:EPSG::4326"
	HTTPGML4326 = "http://www.opengis.net/gml/srs/epsg.xml#4326"
	HTTPDef4326 = "http://www.opengis.net/def/crs/EPSG/0/4326"
	CRS84       = "urn:ogc:def:crs:OGC:1.3:CRS84"
)

// AxisOrder is the order coordinates are written in for a given srsName.
type AxisOrder int

const (
	// LonLat writes x (longitude) before y (latitude).
	LonLat AxisOrder = iota
	// LatLon writes y (latitude) before x (longitude), as the EPSG
	// definition of 4326 requires for URN and http-URI names.
	LatLon
)

func (o AxisOrder) String() string {
	if o == LatLon {
		return "lat/lon"
	}
	return "lon/lat"
}

// CRSError indicates an srsName this package cannot handle. Only WGS 84
// geographic coordinates are supported.
type CRSError struct {
	Name string
}

func (e *CRSError) Error() string {
	return fmt.Sprintf("unsupported coordinate reference system %q", e.Name)
}

// AxisOrderOf resolves an srsName to its axis order. The short EPSG code
// and the legacy GML srs URL are longitude first; URN and http-URI names
// follow the EPSG definition and are latitude first. An empty name is
// treated as EPSG:4326.
func AxisOrderOf(srsName string) (AxisOrder, error) {
	name := strings.TrimSpace(srsName)
	switch strings.ToLower(name) {
	case "", "epsg:4326", strings.ToLower(HTTPGML4326), "crs:84", strings.ToLower(CRS84):
		return LonLat, nil
	case strings.ToLower(URNX4326), strings.ToLower(URNOGC4326), strings.ToLower(HTTPDef4326),
		"urn:ogc:def:crs:epsg:4326", "urn:ogc:def:crs:epsg:6.6:4326":
		return LatLon, nil
	}
	return LonLat, &CRSError{Name: srsName}
}

// CheckCRS returns an error unless srsName names WGS 84.
func CheckCRS(srsName string) error {
	_, err := AxisOrderOf(srsName)
	return err
}
