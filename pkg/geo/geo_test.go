package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		input   string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"4.815554, 7.049844", 4.815554, 7.049844, false},
		{"4.815554,7.049844", 4.815554, 7.049844, false},
		{"4.815554 7.049844", 4.815554, 7.049844, false},
		{"-33.9, 151.2", -33.9, 151.2, false},
		{"  4.8 , 7.0  ", 4.8, 7.0, false},
		{"", 0, 0, true},
		{"4.8", 0, 0, true},
		{"4.8, 7.0, 12", 0, 0, true},
		{"north, east", 0, 0, true},
		{"91, 7.0", 0, 0, true},
		{"4.8, 181", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lat, lon, err := ParseCoordinates(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestLocationValid(t *testing.T) {
	assert.True(t, Location{Lat: 0, Lon: 0}.Valid())
	assert.True(t, Location{Lat: -90, Lon: 180}.Valid())
	assert.False(t, Location{Lat: 90.1, Lon: 0}.Valid())
	assert.False(t, Location{Lat: 0, Lon: -180.5}.Valid())
}

func TestLocationString(t *testing.T) {
	l := Location{Lat: 4.8155539, Lon: 7.0498442}
	assert.Equal(t, "4.815554, 7.049844", l.String())
}

func TestEncodeDecode(t *testing.T) {
	ts := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	l := Location{Lat: 4.81, Lon: 7.04, Accuracy: 12.5, Timestamp: ts}

	cell, err := l.Encode()
	require.NoError(t, err)

	got, err := Decode(cell)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 4.81, got.Lat, 1e-9)
	assert.InDelta(t, 7.04, got.Lon, 1e-9)
	assert.InDelta(t, 12.5, got.Accuracy, 1e-9)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestDecodeEmptyCell(t *testing.T) {
	got, err := Decode("  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not json")
	assert.Error(t, err)

	_, err = Decode(`{"lat": 95, "lon": 7}`)
	assert.Error(t, err, "out-of-range coordinates rejected")
}
