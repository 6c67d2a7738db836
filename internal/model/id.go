package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// clientIDPrefix marks IDs assigned locally to features the server has not
// seen yet.
const clientIDPrefix = "new-"

var (
	// ErrInvalidID is returned when an ID cannot be parsed.
	ErrInvalidID = errors.New("invalid feature ID")

	// featureIDRegex matches server feature IDs like zones.12 or
	// geoimage:zones.7
	featureIDRegex = regexp.MustCompile(`^([A-Za-z_][\w:.-]*)\.(\d+)$`)
)

// ParseFeatureID splits a server feature ID into its feature type and
// number. zones.12 parses to typeName="zones", num=12.
// Returns ErrInvalidID if the format is invalid.
func ParseFeatureID(s string) (typeName string, num int64, err error) {
	matches := featureIDRegex.FindStringSubmatch(s)
	if matches == nil {
		return "", 0, fmt.Errorf("%w: %q is not a server feature ID", ErrInvalidID, s)
	}
	num, err = strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q has invalid number", ErrInvalidID, s)
	}
	return matches[1], num, nil
}

// FormatFeatureID builds a server feature ID. A namespace prefix on
// typeName is dropped, matching how WFS servers mint fids.
func FormatFeatureID(typeName string, num int64) string {
	if i := strings.LastIndex(typeName, ":"); i >= 0 {
		typeName = typeName[i+1:]
	}
	return fmt.Sprintf("%s.%d", typeName, num)
}

// NewClientID returns a fresh ID for a feature that only exists locally.
func NewClientID() string {
	return clientIDPrefix + uuid.NewString()
}

// IsClientID returns true if id was assigned locally by NewClientID.
func IsClientID(id string) bool {
	rest, ok := strings.CutPrefix(id, clientIDPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// NormalizeID renders a decoded feature identifier as a string. GeoJSON
// allows string or number IDs; integral numbers are rendered without an
// exponent. Returns false for nil or unsupported values.
func NormalizeID(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}
