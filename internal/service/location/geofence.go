package location

import (
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/geo"
)

// VerifyGeofence reports how far sample is from the fence center. A reading
// exactly on the radius is within.
func VerifyGeofence(sample location.Sample, fence location.Geofence) location.GeofenceCheck {
	d := geo.DistanceMeters(sample.Point(), fence.Center())
	return location.GeofenceCheck{
		DistanceMeters: d,
		Within:         d <= fence.RadiusMeters,
	}
}
