package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/xmltree"
	"github.com/paulmach/orb"
)

// EncodeError indicates a geometry that cannot be written as GML.
type EncodeError struct {
	Geometry string
	Reason   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s geometry: %s", e.Geometry, e.Reason)
}

// EncodeGeometryMarkup returns the GML 3 markup for the feature's
// geometry, tagged with srsName. Output is compact and deterministic.
func EncodeGeometryMarkup(f model.Feature, srsName string) (string, error) {
	el, err := GeometryElement(f.Geometry, srsName)
	if err != nil {
		return "", err
	}
	return el.String(), nil
}

// GeometryElement builds the GML 3 element tree for g. srsName is set on
// the outermost geometry only.
func GeometryElement(g orb.Geometry, srsName string) (*xmltree.Element, error) {
	order, err := AxisOrderOf(srsName)
	if err != nil {
		return nil, err
	}
	el, err := geometryElement(g, order)
	if err != nil {
		return nil, err
	}
	if srsName != "" {
		el.Attrs = append([]xmltree.Attr{{Name: "srsName", Value: srsName}}, el.Attrs...)
	}
	return el, nil
}

func geometryElement(g orb.Geometry, order AxisOrder) (*xmltree.Element, error) {
	switch g := g.(type) {
	case nil:
		return nil, &EncodeError{Geometry: "nil", Reason: "no geometry"}
	case orb.Point:
		if err := checkFinite("Point", g); err != nil {
			return nil, err
		}
		return xmltree.New("gml:Point").Append(
			xmltree.Text("gml:pos", formatPoints([]orb.Point{g}, order)),
		), nil
	case orb.LineString:
		if len(g) < 2 {
			return nil, &EncodeError{Geometry: g.GeoJSONType(), Reason: "fewer than 2 points"}
		}
		if err := checkFinite("LineString", g...); err != nil {
			return nil, err
		}
		return lineStringElement(g, order), nil
	case orb.Polygon:
		return polygonElement(g, order)
	case orb.MultiPoint:
		el := xmltree.New("gml:MultiPoint")
		for _, p := range g {
			member, err := geometryElement(p, order)
			if err != nil {
				return nil, err
			}
			el.Append(xmltree.New("gml:pointMember").Append(member))
		}
		return el, nil
	case orb.MultiLineString:
		el := xmltree.New("gml:MultiCurve")
		for _, ls := range g {
			if len(ls) < 2 {
				return nil, &EncodeError{Geometry: g.GeoJSONType(), Reason: "member with fewer than 2 points"}
			}
			if err := checkFinite(g.GeoJSONType(), ls...); err != nil {
				return nil, err
			}
			el.Append(xmltree.New("gml:curveMember").Append(lineStringElement(ls, order)))
		}
		return el, nil
	case orb.MultiPolygon:
		el := xmltree.New("gml:MultiSurface")
		for _, p := range g {
			member, err := polygonElement(p, order)
			if err != nil {
				return nil, err
			}
			el.Append(xmltree.New("gml:surfaceMember").Append(member))
		}
		return el, nil
	default:
		return nil, &EncodeError{Geometry: g.GeoJSONType(), Reason: "unsupported geometry type"}
	}
}

func lineStringElement(ls orb.LineString, order AxisOrder) *xmltree.Element {
	return xmltree.New("gml:LineString").Append(
		xmltree.Text("gml:posList", formatPoints(ls, order)),
	)
}

func polygonElement(p orb.Polygon, order AxisOrder) (*xmltree.Element, error) {
	if len(p) == 0 {
		return nil, &EncodeError{Geometry: "Polygon", Reason: "no rings"}
	}
	el := xmltree.New("gml:Polygon")
	for i, ring := range p {
		if len(ring) < 4 {
			return nil, &EncodeError{Geometry: "Polygon", Reason: fmt.Sprintf("ring %d has fewer than 4 points", i)}
		}
		if err := checkFinite("Polygon", ring...); err != nil {
			return nil, err
		}
		boundary := "gml:interior"
		if i == 0 {
			boundary = "gml:exterior"
		}
		el.Append(xmltree.New(boundary).Append(
			xmltree.New("gml:LinearRing").Append(
				xmltree.Text("gml:posList", formatPoints(ring, order)),
			),
		))
	}
	return el, nil
}

// checkFinite rejects NaN and infinite coordinates, which GML cannot carry.
func checkFinite(kind string, points ...orb.Point) error {
	for _, p := range points {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &EncodeError{Geometry: kind, Reason: "non-finite coordinate"}
			}
		}
	}
	return nil
}

func formatPoints(points []orb.Point, order AxisOrder) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		first, second := p.X(), p.Y()
		if order == LatLon {
			first, second = second, first
		}
		b.WriteString(strconv.FormatFloat(first, 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(second, 'f', -1, 64))
	}
	return b.String()
}

// DecodeGeometryMarkup parses GML 3 geometry markup (and the common GML 2
// forms) back into a geometry in longitude/latitude order. It returns the
// srsName found on the root element.
func DecodeGeometryMarkup(markup string) (orb.Geometry, string, error) {
	root, err := xmltree.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, "", &DecodeError{Reason: "invalid GML", Err: err}
	}
	srsName, _ := root.Attr("srsName")
	order, err := AxisOrderOf(srsName)
	if err != nil {
		return nil, "", &DecodeError{Reason: "geometry crs", Err: err}
	}
	g, err := decodeGeometry(root, order)
	if err != nil {
		return nil, "", err
	}
	return g, srsName, nil
}

func decodeGeometry(el *xmltree.Element, order AxisOrder) (orb.Geometry, error) {
	switch el.Local() {
	case "Point":
		points, err := elementPoints(el, order)
		if err != nil {
			return nil, err
		}
		if len(points) != 1 {
			return nil, gmlError("Point has %d positions", len(points))
		}
		return points[0], nil
	case "LineString":
		points, err := elementPoints(el, order)
		if err != nil {
			return nil, err
		}
		return orb.LineString(points), nil
	case "Polygon":
		return decodePolygon(el, order)
	case "MultiPoint":
		var mp orb.MultiPoint
		for _, m := range members(el, "pointMember", "pointMembers") {
			g, err := decodeGeometry(m, order)
			if err != nil {
				return nil, err
			}
			p, ok := g.(orb.Point)
			if !ok {
				return nil, gmlError("MultiPoint member is %s", m.Local())
			}
			mp = append(mp, p)
		}
		return mp, nil
	case "MultiCurve", "MultiLineString":
		var mls orb.MultiLineString
		for _, m := range members(el, "curveMember", "lineStringMember", "curveMembers") {
			g, err := decodeGeometry(m, order)
			if err != nil {
				return nil, err
			}
			ls, ok := g.(orb.LineString)
			if !ok {
				return nil, gmlError("%s member is %s", el.Local(), m.Local())
			}
			mls = append(mls, ls)
		}
		return mls, nil
	case "MultiSurface", "MultiPolygon":
		var mp orb.MultiPolygon
		for _, m := range members(el, "surfaceMember", "polygonMember", "surfaceMembers") {
			g, err := decodeGeometry(m, order)
			if err != nil {
				return nil, err
			}
			p, ok := g.(orb.Polygon)
			if !ok {
				return nil, gmlError("%s member is %s", el.Local(), m.Local())
			}
			mp = append(mp, p)
		}
		return mp, nil
	}
	return nil, gmlError("unsupported element %s", el.Name)
}

func decodePolygon(el *xmltree.Element, order AxisOrder) (orb.Polygon, error) {
	var p orb.Polygon
	for _, c := range el.Children {
		switch c.Local() {
		case "exterior", "outerBoundaryIs", "interior", "innerBoundaryIs":
		default:
			continue
		}
		ring := c.Child("LinearRing")
		if ring == nil {
			return nil, gmlError("%s without LinearRing", c.Local())
		}
		points, err := elementPoints(ring, order)
		if err != nil {
			return nil, err
		}
		isExterior := c.Local() == "exterior" || c.Local() == "outerBoundaryIs"
		if isExterior != (len(p) == 0) {
			return nil, gmlError("polygon boundaries out of order")
		}
		p = append(p, orb.Ring(points))
	}
	if len(p) == 0 {
		return nil, gmlError("Polygon without exterior")
	}
	return p, nil
}

// members returns the geometry elements held by member properties. Plural
// member properties may hold several geometries.
func members(el *xmltree.Element, names ...string) []*xmltree.Element {
	var out []*xmltree.Element
	for _, c := range el.Children {
		for _, n := range names {
			if c.Local() == n {
				out = append(out, c.Children...)
				break
			}
		}
	}
	return out
}

// elementPoints reads the coordinates of a Point, LineString or
// LinearRing from gml:pos, gml:posList or gml:coordinates.
func elementPoints(el *xmltree.Element, order AxisOrder) ([]orb.Point, error) {
	if list := el.Child("posList"); list != nil {
		dim := 2
		if v, ok := list.Attr("srsDimension"); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 2 {
				return nil, gmlError("invalid srsDimension %q", v)
			}
			dim = n
		}
		return parsePositions(strings.Fields(list.Text), dim, order)
	}
	if pos := el.ChildrenNamed("pos"); len(pos) > 0 {
		var points []orb.Point
		for _, p := range pos {
			fields := strings.Fields(p.Text)
			parsed, err := parsePositions(fields, len(fields), order)
			if err != nil {
				return nil, err
			}
			points = append(points, parsed...)
		}
		return points, nil
	}
	if coords := el.Child("coordinates"); coords != nil {
		var values []string
		for _, tuple := range strings.Fields(coords.Text) {
			parts := strings.Split(tuple, ",")
			if len(parts) < 2 {
				return nil, gmlError("invalid coordinate tuple %q", tuple)
			}
			values = append(values, parts[0], parts[1])
		}
		return parsePositions(values, 2, order)
	}
	return nil, gmlError("%s has no coordinates", el.Local())
}

func parsePositions(fields []string, dim int, order AxisOrder) ([]orb.Point, error) {
	if dim < 2 || len(fields) == 0 || len(fields)%dim != 0 {
		return nil, gmlError("coordinate count %d does not match dimension %d", len(fields), dim)
	}
	points := make([]orb.Point, 0, len(fields)/dim)
	for i := 0; i < len(fields); i += dim {
		a, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, gmlError("invalid coordinate %q", fields[i])
		}
		b, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, gmlError("invalid coordinate %q", fields[i+1])
		}
		if order == LatLon {
			a, b = b, a
		}
		points = append(points, orb.Point{a, b})
	}
	return points, nil
}

func gmlError(format string, args ...any) error {
	return &DecodeError{Reason: "invalid GML", Err: fmt.Errorf(format, args...)}
}
