package wfs

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultOutputFormat asks GeoServer for GeoJSON.
const DefaultOutputFormat = "json"

// GetFeatureURL appends a GetFeature query for typeName to base, keeping
// any query base already carries. Parameters are written in a fixed order.
// An empty outputFormat means DefaultOutputFormat.
func GetFeatureURL(base, typeName, outputFormat string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid WFS URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid WFS URL %q: scheme and host required", base)
	}
	if typeName == "" {
		return "", fmt.Errorf("feature type is required")
	}
	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}

	params := []string{
		"service=WFS",
		"version=" + Version,
		"request=GetFeature",
		"typeName=" + escape(typeName),
		"outputFormat=" + escape(outputFormat),
		"srsname=EPSG:4326",
	}
	query := strings.Join(params, "&")
	if u.RawQuery != "" {
		query = strings.TrimSuffix(u.RawQuery, "&") + "&" + query
	}
	u.RawQuery = query
	return u.String(), nil
}

// escape query-escapes v but leaves ':' and '/' readable.
func escape(v string) string {
	r := strings.NewReplacer("%3A", ":", "%2F", "/")
	return r.Replace(url.QueryEscape(v))
}
