// Package codec converts zones between GeoJSON, the read endpoint's
// format, and GML 3, the geometry markup used inside WFS transactions.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DecodeError indicates a payload that is not a usable feature collection.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode features: %s: %v", e.Reason, e.Err)
	}
	return "decode features: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// header is the part of a GeoJSON document inspected before decoding.
type header struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection (or a single
// Feature) into zones whose coordinates are in crs. A named "crs" member in
// the payload must agree with crs.
func DecodeFeatureCollection(payload []byte, crs string) ([]model.Feature, error) {
	if err := CheckCRS(crs); err != nil {
		return nil, &DecodeError{Reason: "requested crs", Err: err}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &DecodeError{Reason: "empty payload"}
	}

	var h header
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if h.CRS != nil && h.CRS.Properties.Name != "" {
		if err := CheckCRS(h.CRS.Properties.Name); err != nil {
			return nil, &DecodeError{Reason: "payload crs", Err: err}
		}
	}

	var raw []*geojson.Feature
	switch h.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(payload)
		if err != nil {
			return nil, &DecodeError{Reason: "invalid feature collection", Err: err}
		}
		raw = fc.Features
	case "Feature":
		f, err := geojson.UnmarshalFeature(payload)
		if err != nil {
			return nil, &DecodeError{Reason: "invalid feature", Err: err}
		}
		raw = []*geojson.Feature{f}
	case "":
		return nil, &DecodeError{Reason: "missing GeoJSON type"}
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported GeoJSON type %q", h.Type)}
	}

	features := make([]model.Feature, 0, len(raw))
	for i, f := range raw {
		if f == nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("feature %d is null", i)}
		}
		features = append(features, fromGeoJSON(f))
	}
	return features, nil
}

func fromGeoJSON(f *geojson.Feature) model.Feature {
	out := model.Feature{Geometry: f.Geometry}
	if id, ok := model.NormalizeID(f.ID); ok {
		out.ID = id
	}
	if len(f.Properties) > 0 {
		out.Properties = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// EncodeFeatureCollection writes zones as a GeoJSON FeatureCollection.
func EncodeFeatureCollection(features []model.Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Geometry)
		if f.ID != "" {
			gf.ID = f.ID
		}
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	return data, nil
}

// DecodeGeometry parses a bare GeoJSON geometry object.
func DecodeGeometry(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid geometry", Err: err}
	}
	if g.Coordinates == nil {
		return nil, &DecodeError{Reason: "geometry has no coordinates"}
	}
	return g.Geometry(), nil
}
