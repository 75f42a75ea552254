package location

import (
	"testing"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/stretchr/testify/assert"
)

func TestVerifyGeofence_Inside(t *testing.T) {
	office := location.Geofence{Latitude: -6.2, Longitude: 106.816666, RadiusMeters: 100}
	sample := location.Sample{Latitude: -6.2003, Longitude: 106.8167}

	check := VerifyGeofence(sample, office)
	assert.True(t, check.Within)
	assert.Less(t, check.DistanceMeters, 100.0)
}

func TestVerifyGeofence_Outside(t *testing.T) {
	office := location.Geofence{Latitude: -6.2, Longitude: 106.816666, RadiusMeters: 100}
	sample := location.Sample{Latitude: -6.21, Longitude: 106.816666}

	check := VerifyGeofence(sample, office)
	assert.False(t, check.Within)
	assert.InDelta(t, 1112, check.DistanceMeters, 5)
}

func TestVerifyGeofence_OnRadiusIsWithin(t *testing.T) {
	sample := location.Sample{Latitude: 0, Longitude: 0.001}
	d := VerifyGeofence(sample, location.Geofence{RadiusMeters: 1}).DistanceMeters

	check := VerifyGeofence(sample, location.Geofence{RadiusMeters: d})
	assert.True(t, check.Within)
}
