// Package geo provides GPS location types and coordinate parsing for the
// JMP Tracker. Locations are stored on departure and extension records as
// JSON snapshots.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Location is a GPS fix captured from a device at departure or extension time.
type Location struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Accuracy  float64   `json:"accuracy,omitempty"` // meters, 0 when unknown
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// String returns the location formatted as "lat, lon" with six decimal places,
// the precision used throughout the UI.
func (l Location) String() string {
	return fmt.Sprintf("%.6f, %.6f", l.Lat, l.Lon)
}

// Encode serializes the location to the JSON form stored in a sheet cell.
func (l Location) Encode() (string, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode location: %w", err)
	}
	return string(b), nil
}

// Decode parses a JSON location cell. Returns nil for an empty cell.
func Decode(cell string) (*Location, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	var l Location
	if err := json.Unmarshal([]byte(cell), &l); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if !l.Valid() {
		return nil, fmt.Errorf("decode location: coordinates out of range: %s", l)
	}
	return &l, nil
}

// ParseCoordinates parses a "lat, lon" string as pasted from a maps
// application. Accepts comma or whitespace separated values and validates
// coordinate ranges.
func ParseCoordinates(s string) (lat, lon float64, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		parts = strings.Fields(s)
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate format: %q", s)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %q", parts[0])
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %q", parts[1])
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}
	return lat, lon, nil
}
